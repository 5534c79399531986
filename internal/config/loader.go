package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ARBBOT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ARBBOT_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Bot ──
	setStr(&cfg.Bot.Symbol, "ARBBOT_BOT_SYMBOL")
	setStr(&cfg.Bot.QuoteCurrency, "ARBBOT_BOT_QUOTE_CURRENCY")
	setFloat64(&cfg.Bot.ProfitThreshold, "ARBBOT_BOT_PROFIT_THRESHOLD")
	setFloat64(&cfg.Bot.TradeAmount, "ARBBOT_BOT_TRADE_AMOUNT")
	setFloat64(&cfg.Bot.FeeRate, "ARBBOT_BOT_FEE_RATE")
	setDuration(&cfg.Bot.PollInterval, "ARBBOT_BOT_POLL_INTERVAL")
	setStringSlice(&cfg.Bot.Autostart, "ARBBOT_BOT_AUTOSTART")

	// ── Retry ──
	setInt(&cfg.Retry.MaxAttempts, "ARBBOT_RETRY_MAX_ATTEMPTS")
	setDuration(&cfg.Retry.InitialDelay, "ARBBOT_RETRY_INITIAL_DELAY")
	setFloat64(&cfg.Retry.BackoffFactor, "ARBBOT_RETRY_BACKOFF_FACTOR")

	// ── OKX ──
	setStr(&cfg.OKX.BaseURL, "ARBBOT_OKX_BASE_URL")
	setStr(&cfg.OKX.ApiKey, "ARBBOT_OKX_API_KEY")
	setStr(&cfg.OKX.ApiSecret, "ARBBOT_OKX_API_SECRET")
	setStr(&cfg.OKX.Passphrase, "ARBBOT_OKX_PASSPHRASE")
	setStr(&cfg.OKX.EncryptedSecretPath, "ARBBOT_OKX_ENCRYPTED_SECRET_PATH")
	setStr(&cfg.OKX.SecretPassword, "ARBBOT_OKX_SECRET_PASSWORD")

	// ── Kraken ──
	setStr(&cfg.Kraken.BaseURL, "ARBBOT_KRAKEN_BASE_URL")
	setStr(&cfg.Kraken.ApiKey, "ARBBOT_KRAKEN_API_KEY")
	setStr(&cfg.Kraken.ApiSecret, "ARBBOT_KRAKEN_API_SECRET")
	setStr(&cfg.Kraken.EncryptedSecretPath, "ARBBOT_KRAKEN_ENCRYPTED_SECRET_PATH")
	setStr(&cfg.Kraken.SecretPassword, "ARBBOT_KRAKEN_SECRET_PASSWORD")

	// ── Ledger ──
	setInt(&cfg.Ledger.MaxRecords, "ARBBOT_LEDGER_MAX_RECORDS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "ARBBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ARBBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ARBBOT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ARBBOT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ARBBOT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ARBBOT_REDIS_TLS_ENABLED")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "ARBBOT_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "ARBBOT_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "ARBBOT_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIToken, "ARBBOT_SERVER_API_TOKEN")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "ARBBOT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "ARBBOT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "ARBBOT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "ARBBOT_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "ARBBOT_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
