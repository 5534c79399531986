// Package server exposes the bot over HTTP and WebSocket.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/angelolockdev/AngeloCryptoArbBot/internal/server/handler"
	"github.com/angelolockdev/AngeloCryptoArbBot/internal/server/middleware"
	"github.com/angelolockdev/AngeloCryptoArbBot/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIToken    string // if empty, authentication is disabled
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health *handler.HealthHandler
	Bot    *handler.BotHandler
}

// Server is the headless HTTP + WebSocket API server for the arbitrage bot.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (logging, CORS, auth) and attaches the WebSocket hub.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check (no auth required on the rest of the chain either; the
	// auth middleware wraps everything uniformly).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Bot endpoints.
	mux.HandleFunc("GET /api/status", handlers.Bot.Status)
	mux.HandleFunc("POST /api/arbitrage/run", handlers.Bot.RunOnce)
	mux.HandleFunc("GET /api/account", handlers.Bot.Account)
	mux.HandleFunc("GET /api/history", handlers.Bot.History)
	mux.HandleFunc("GET /api/quotes/latest", handlers.Bot.LatestQuotes)

	// Loop control.
	mux.HandleFunc("GET /api/loops", handlers.Bot.ListLoops)
	mux.HandleFunc("POST /api/loops/{mode}/start", handlers.Bot.StartLoop)
	mux.HandleFunc("POST /api/loops/{mode}/stop", handlers.Bot.StopLoop)

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain.
	var h http.Handler = mux
	h = middleware.Auth(cfg.APIToken)(h)
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
