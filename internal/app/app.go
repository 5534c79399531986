// Package app provides the top-level application lifecycle management for the
// arbitrage bot. It wires together all dependencies (venues, caches, signal
// bus, notifications, the bot service, and the HTTP server) and starts the
// appropriate goroutines.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angelolockdev/AngeloCryptoArbBot/internal/config"
	"github.com/angelolockdev/AngeloCryptoArbBot/internal/domain"
)

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run is the main entry point. It wires all dependencies, starts the HTTP
// server and WebSocket hub, launches any autostart loops, and blocks until
// the context is cancelled. On return it runs all registered cleanup
// functions.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("symbol", a.cfg.Bot.Symbol),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)
	defer a.Close()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return deps.Hub.Run(ctx)
	})

	if a.cfg.Server.Enabled {
		g.Go(func() error {
			return deps.Server.Start()
		})
		g.Go(func() error {
			<-ctx.Done()
			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return deps.Server.Shutdown(shutCtx)
		})
	} else {
		a.logger.InfoContext(ctx, "http server disabled")
	}

	// Autostart loops. The loop manager honors cancellation at iteration
	// boundaries, so an in-flight trade always completes before shutdown.
	for _, name := range a.cfg.Bot.Autostart {
		mode := domain.TradeMode(name)
		if !domain.ValidMode(name) {
			a.logger.WarnContext(ctx, "autostart: unknown mode, skipping",
				slog.String("mode", name),
			)
			continue
		}
		if err := deps.Bot.StartLoop(ctx, mode); err != nil {
			a.logger.WarnContext(ctx, "autostart: loop start failed",
				slog.String("mode", name),
				slog.String("error", err.Error()),
			)
			continue
		}
		a.logger.InfoContext(ctx, "autostart: loop started", slog.String("mode", name))
	}

	return g.Wait()
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
