package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/angelolockdev/AngeloCryptoArbBot/internal/bus"
	"github.com/angelolockdev/AngeloCryptoArbBot/internal/cache/redis"
	"github.com/angelolockdev/AngeloCryptoArbBot/internal/config"
	"github.com/angelolockdev/AngeloCryptoArbBot/internal/crypto"
	"github.com/angelolockdev/AngeloCryptoArbBot/internal/domain"
	"github.com/angelolockdev/AngeloCryptoArbBot/internal/fetch"
	"github.com/angelolockdev/AngeloCryptoArbBot/internal/notify"
	"github.com/angelolockdev/AngeloCryptoArbBot/internal/server"
	"github.com/angelolockdev/AngeloCryptoArbBot/internal/server/handler"
	"github.com/angelolockdev/AngeloCryptoArbBot/internal/server/ws"
	"github.com/angelolockdev/AngeloCryptoArbBot/internal/service"
	"github.com/angelolockdev/AngeloCryptoArbBot/internal/venue/kraken"
	"github.com/angelolockdev/AngeloCryptoArbBot/internal/venue/okx"
)

// Dependencies bundles everything the application lifecycle needs to run. It
// is constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Bot      *service.Bot
	Hub      *ws.Hub
	Server   *server.Server
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// --- Venues ---
	// Secrets are optional: without them the clients serve public market
	// data only, which is all the simulation loop needs.
	okxSecret, err := venueSecret(cfg.OKX.ApiSecret, cfg.OKX.EncryptedSecretPath, cfg.OKX.SecretPassword)
	if err != nil {
		return nil, nil, fmt.Errorf("wire: okx secret: %w", err)
	}
	krakenSecret, err := venueSecret(cfg.Kraken.ApiSecret, cfg.Kraken.EncryptedSecretPath, cfg.Kraken.SecretPassword)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: kraken secret: %w", err)
	}

	okxClient := okx.New(okx.Config{
		BaseURL:    cfg.OKX.BaseURL,
		APIKey:     cfg.OKX.ApiKey,
		APISecret:  okxSecret,
		Passphrase: cfg.OKX.Passphrase,
	})
	krakenClient := kraken.New(kraken.Config{
		BaseURL:   cfg.Kraken.BaseURL,
		APIKey:    cfg.Kraken.ApiKey,
		APISecret: krakenSecret,
	})

	// --- Redis (optional; in-process fallback without it) ---
	var (
		signalBus  domain.SignalBus
		quoteCache domain.QuoteCache
	)
	if cfg.Redis.Addr != "" {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		signalBus = redis.NewSignalBus(redisClient)
		quoteCache = redis.NewQuoteCache(redisClient)
	} else {
		logger.Info("wire: redis not configured, using in-process signal bus")
		signalBus = bus.NewMemory()
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	notifier := notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Bot ---
	bot := service.New(service.Config{
		Symbol:          cfg.Bot.Symbol,
		BaseCurrency:    cfg.Bot.BaseCurrency(),
		QuoteCurrency:   cfg.Bot.QuoteCurrencyOrDerived(),
		ProfitThreshold: cfg.Bot.ProfitThreshold,
		TradeAmount:     cfg.Bot.TradeAmount,
		FeeRate:         cfg.Bot.FeeRate,
		PollInterval:    cfg.Bot.PollInterval.Duration,
		LedgerMax:       cfg.Ledger.MaxRecords,
		Retry: fetch.Policy{
			MaxAttempts:   cfg.Retry.MaxAttempts,
			InitialDelay:  cfg.Retry.InitialDelay.Duration,
			BackoffFactor: cfg.Retry.BackoffFactor,
		},
	}, okxClient, krakenClient, quoteCache, signalBus, notifier, logger)
	closers = append(closers, bot.StopAllLoops)

	// --- WebSocket hub + HTTP server ---
	hub := ws.NewHub(signalBus, logger, ws.Config{
		Channels:  []string{service.SignalChannel},
		Symbol:    cfg.Bot.Symbol,
		StartedAt: time.Now().UTC(),
	})

	srv := server.NewServer(server.Config{
		Port:        cfg.Server.Port,
		CORSOrigins: cfg.Server.CORSOrigins,
		APIToken:    cfg.Server.APIToken,
	}, server.Handlers{
		Health: handler.NewHealthHandler(logger),
		Bot:    handler.NewBotHandler(bot, logger),
	}, hub, logger)

	return &Dependencies{
		Bot:      bot,
		Hub:      hub,
		Server:   srv,
		Notifier: notifier,
	}, cleanup, nil
}

// venueSecret resolves a venue API secret when the config provides a source
// for one. A config with no secret source yields an empty secret, leaving the
// venue client in public-only mode.
func venueSecret(raw, encryptedPath, password string) (string, error) {
	if raw == "" && encryptedPath == "" {
		return "", nil
	}
	return crypto.LoadSecret(crypto.SecretConfig{
		Raw:           raw,
		EncryptedPath: encryptedPath,
		Password:      password,
	})
}
