// Package config defines the top-level configuration for the arbitrage bot
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelolockdev/AngeloCryptoArbBot/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by ARBBOT_* environment variables.
type Config struct {
	Bot      BotConfig    `toml:"bot"`
	Retry    RetryConfig  `toml:"retry"`
	OKX      OKXConfig    `toml:"okx"`
	Kraken   KrakenConfig `toml:"kraken"`
	Ledger   LedgerConfig `toml:"ledger"`
	Redis    RedisConfig  `toml:"redis"`
	Server   ServerConfig `toml:"server"`
	Notify   NotifyConfig `toml:"notify"`
	LogLevel string       `toml:"log_level"`
}

// BotConfig holds the trading parameters. All values are fixed for the
// process lifetime.
type BotConfig struct {
	// Symbol is the traded instrument in BASE/QUOTE form, e.g. "BTC/USDT".
	Symbol string `toml:"symbol"`
	// QuoteCurrency funds real buys; derived from Symbol when empty.
	QuoteCurrency string `toml:"quote_currency"`
	// ProfitThreshold is the minimum net profit percent to trade on.
	ProfitThreshold float64 `toml:"profit_threshold"`
	// TradeAmount is the base asset quantity per trade leg.
	TradeAmount float64 `toml:"trade_amount"`
	// FeeRate is the taker fee applied to both legs, e.g. 0.001 for 0.1%.
	FeeRate float64 `toml:"fee_rate"`
	// PollInterval is the pause between loop iterations.
	PollInterval duration `toml:"poll_interval"`
	// Autostart lists the loop modes to start at boot: "simulation", "real".
	Autostart []string `toml:"autostart"`
}

// RetryConfig holds the fetch retry parameters for venue reads.
type RetryConfig struct {
	MaxAttempts   int      `toml:"max_attempts"`
	InitialDelay  duration `toml:"initial_delay"`
	BackoffFactor float64  `toml:"backoff_factor"`
}

// OKXConfig holds OKX API endpoints and credentials.
type OKXConfig struct {
	BaseURL    string `toml:"base_url"`
	ApiKey     string `toml:"api_key"`
	ApiSecret  string `toml:"api_secret"`
	Passphrase string `toml:"passphrase"`
	// EncryptedSecretPath points to a JSON blob produced by the encrypt-secret
	// command; used with SecretPassword when ApiSecret is empty.
	EncryptedSecretPath string `toml:"encrypted_secret_path"`
	SecretPassword      string `toml:"secret_password"`
}

// KrakenConfig holds Kraken API endpoints and credentials.
type KrakenConfig struct {
	BaseURL             string `toml:"base_url"`
	ApiKey              string `toml:"api_key"`
	ApiSecret           string `toml:"api_secret"`
	EncryptedSecretPath string `toml:"encrypted_secret_path"`
	SecretPassword      string `toml:"secret_password"`
}

// LedgerConfig holds trade-history retention parameters.
type LedgerConfig struct {
	MaxRecords int `toml:"max_records"`
}

// RedisConfig holds Redis connection parameters. An empty Addr disables Redis
// and the bot falls back to in-process signal delivery.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	// APIToken, when set, is required as a Bearer token on mutating endpoints.
	APIToken string `toml:"api_token"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Bot: BotConfig{
			Symbol:          "BTC/USDT",
			ProfitThreshold: 0.5,
			TradeAmount:     0.001,
			FeeRate:         0.001,
			PollInterval:    duration{2 * time.Second},
			Autostart:       []string{},
		},
		Retry: RetryConfig{
			MaxAttempts:   3,
			InitialDelay:  duration{time.Second},
			BackoffFactor: 2,
		},
		OKX: OKXConfig{
			BaseURL: "https://www.okx.com",
		},
		Kraken: KrakenConfig{
			BaseURL: "https://api.kraken.com",
		},
		Ledger: LedgerConfig{
			MaxRecords: 1000,
		},
		Redis: RedisConfig{
			Addr:       "",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Notify: NotifyConfig{
			Events: []string{"arb_detected", "trade_executed", "trade_failed", "loop_error"},
		},
		LogLevel: "info",
	}
}

// QuoteCurrencyOrDerived returns the configured quote currency, falling back
// to the part of Symbol after the slash.
func (b BotConfig) QuoteCurrencyOrDerived() string {
	if b.QuoteCurrency != "" {
		return b.QuoteCurrency
	}
	if _, quote, ok := strings.Cut(b.Symbol, "/"); ok {
		return quote
	}
	return ""
}

// BaseCurrency returns the part of Symbol before the slash.
func (b BotConfig) BaseCurrency() string {
	base, _, _ := strings.Cut(b.Symbol, "/")
	return base
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Bot
	if !strings.Contains(c.Bot.Symbol, "/") {
		errs = append(errs, fmt.Sprintf("bot: symbol must be in BASE/QUOTE form, got %q", c.Bot.Symbol))
	}
	if c.Bot.ProfitThreshold <= 0 {
		errs = append(errs, "bot: profit_threshold must be > 0")
	}
	if c.Bot.TradeAmount <= 0 {
		errs = append(errs, "bot: trade_amount must be > 0")
	}
	if c.Bot.FeeRate < 0 || c.Bot.FeeRate >= 1 {
		errs = append(errs, fmt.Sprintf("bot: fee_rate must be in [0, 1), got %v", c.Bot.FeeRate))
	}
	if c.Bot.PollInterval.Duration <= 0 {
		errs = append(errs, "bot: poll_interval must be > 0")
	}
	realAutostart := false
	for _, m := range c.Bot.Autostart {
		if !domain.ValidMode(m) {
			errs = append(errs, fmt.Sprintf("bot: unknown autostart mode %q (valid: simulation, real)", m))
			continue
		}
		if domain.TradeMode(m) == domain.ModeReal {
			realAutostart = true
		}
	}

	// Retry
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, "retry: max_attempts must be >= 1")
	}
	if c.Retry.InitialDelay.Duration < 0 {
		errs = append(errs, "retry: initial_delay must not be negative")
	}
	if c.Retry.BackoffFactor < 1 {
		errs = append(errs, "retry: backoff_factor must be >= 1")
	}

	// Venues
	if c.OKX.BaseURL == "" {
		errs = append(errs, "okx: base_url must not be empty")
	}
	if c.OKX.EncryptedSecretPath != "" && c.OKX.SecretPassword == "" {
		errs = append(errs, "okx: secret_password is required when encrypted_secret_path is set")
	}
	if c.Kraken.BaseURL == "" {
		errs = append(errs, "kraken: base_url must not be empty")
	}
	if c.Kraken.EncryptedSecretPath != "" && c.Kraken.SecretPassword == "" {
		errs = append(errs, "kraken: secret_password is required when encrypted_secret_path is set")
	}

	// Real trading needs credentials on both venues before any loop starts.
	if realAutostart {
		if c.OKX.ApiKey == "" && c.OKX.EncryptedSecretPath == "" {
			errs = append(errs, "okx: api credentials are required to autostart the real loop")
		}
		if c.Kraken.ApiKey == "" && c.Kraken.EncryptedSecretPath == "" {
			errs = append(errs, "kraken: api credentials are required to autostart the real loop")
		}
	}

	// Ledger
	if c.Ledger.MaxRecords < 1 {
		errs = append(errs, "ledger: max_records must be >= 1")
	}

	// Redis is optional; validate pool settings only when configured.
	if c.Redis.Addr != "" && c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	// Notify: chat id and token go together.
	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
