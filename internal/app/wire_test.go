package app

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelolockdev/AngeloCryptoArbBot/internal/config"
)

func TestWire(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	t.Run("credential-less config", func(t *testing.T) {
		// The default config carries no venue credentials and no Redis.
		// Wiring still succeeds with public-only venue clients and the
		// in-process signal bus.
		cfg := config.Defaults()
		require.NoError(t, cfg.Validate())

		deps, cleanup, err := Wire(context.Background(), &cfg, logger)
		require.NoError(t, err)
		defer cleanup()

		assert.NotNil(t, deps.Bot)
		assert.NotNil(t, deps.Hub)
		assert.NotNil(t, deps.Server)
		assert.NotNil(t, deps.Notifier)
	})

	t.Run("raw secrets", func(t *testing.T) {
		cfg := config.Defaults()
		cfg.OKX.ApiKey = "okx-key"
		cfg.OKX.ApiSecret = "okx-secret"
		cfg.Kraken.ApiKey = "kraken-key"
		cfg.Kraken.ApiSecret = "a3Jha2VuLXNlY3JldA=="

		deps, cleanup, err := Wire(context.Background(), &cfg, logger)
		require.NoError(t, err)
		defer cleanup()
		assert.NotNil(t, deps.Bot)
	})

	t.Run("unreadable encrypted secret", func(t *testing.T) {
		cfg := config.Defaults()
		cfg.OKX.EncryptedSecretPath = "testdata/does-not-exist.json"
		cfg.OKX.SecretPassword = "pw"

		_, _, err := Wire(context.Background(), &cfg, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "wire: okx secret")
	})
}

func TestVenueSecret(t *testing.T) {
	t.Run("no source yields empty secret", func(t *testing.T) {
		secret, err := venueSecret("", "", "")
		require.NoError(t, err)
		assert.Empty(t, secret)
	})

	t.Run("raw secret passes through", func(t *testing.T) {
		secret, err := venueSecret("s3cr3t", "", "")
		require.NoError(t, err)
		assert.Equal(t, "s3cr3t", secret)
	})
}
