package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	t.Run("collects every problem", func(t *testing.T) {
		cfg := Defaults()
		cfg.Bot.Symbol = "BTCUSDT"
		cfg.Bot.TradeAmount = 0
		cfg.LogLevel = "verbose"

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "symbol must be in BASE/QUOTE form")
		assert.Contains(t, err.Error(), "trade_amount must be > 0")
		assert.Contains(t, err.Error(), "unknown log_level")
	})

	t.Run("real autostart requires credentials", func(t *testing.T) {
		cfg := Defaults()
		cfg.Bot.Autostart = []string{"real"}

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "okx: api credentials are required")
		assert.Contains(t, err.Error(), "kraken: api credentials are required")

		cfg.OKX.ApiKey = "k"
		cfg.Kraken.ApiKey = "k"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("unknown autostart mode", func(t *testing.T) {
		cfg := Defaults()
		cfg.Bot.Autostart = []string{"paper"}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown autostart mode")
	})

	t.Run("telegram fields go together", func(t *testing.T) {
		cfg := Defaults()
		cfg.Notify.TelegramToken = "tok"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "telegram_token and telegram_chat_id")
	})
}

func TestBotConfigCurrencies(t *testing.T) {
	b := BotConfig{Symbol: "BTC/USDT"}
	assert.Equal(t, "BTC", b.BaseCurrency())
	assert.Equal(t, "USDT", b.QuoteCurrencyOrDerived())

	b.QuoteCurrency = "USD"
	assert.Equal(t, "USD", b.QuoteCurrencyOrDerived())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level = "debug"

[bot]
symbol = "ETH/USDT"
profit_threshold = 0.8
poll_interval = "5s"
autostart = ["simulation"]

[retry]
max_attempts = 5

[server]
port = 9000
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "ETH/USDT", cfg.Bot.Symbol)
	assert.Equal(t, 0.8, cfg.Bot.ProfitThreshold)
	assert.Equal(t, 5*time.Second, cfg.Bot.PollInterval.Duration)
	assert.Equal(t, []string{"simulation"}, cfg.Bot.Autostart)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 9000, cfg.Server.Port)
	// Untouched sections keep their defaults.
	assert.Equal(t, 0.001, cfg.Bot.TradeAmount)
	assert.Equal(t, "https://www.okx.com", cfg.OKX.BaseURL)
	assert.NoError(t, cfg.Validate())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ARBBOT_BOT_PROFIT_THRESHOLD", "1.5")
	t.Setenv("ARBBOT_OKX_API_KEY", "env-key")
	t.Setenv("ARBBOT_BOT_AUTOSTART", "simulation, real")
	t.Setenv("ARBBOT_BOT_POLL_INTERVAL", "10s")

	cfg := Defaults()
	applyEnvOverrides(&cfg)

	assert.Equal(t, 1.5, cfg.Bot.ProfitThreshold)
	assert.Equal(t, "env-key", cfg.OKX.ApiKey)
	assert.Equal(t, []string{"simulation", "real"}, cfg.Bot.Autostart)
	assert.Equal(t, 10*time.Second, cfg.Bot.PollInterval.Duration)
}
