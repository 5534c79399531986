// Package handler contains the HTTP handlers for the bot's REST API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/angelolockdev/AngeloCryptoArbBot/internal/domain"
	"github.com/angelolockdev/AngeloCryptoArbBot/internal/service"
)

// BotHandler serves the arbitrage bot endpoints: status, one-shot runs,
// account balances, trade history and loop control.
type BotHandler struct {
	bot    *service.Bot
	logger *slog.Logger
}

// NewBotHandler creates a BotHandler backed by the given bot.
func NewBotHandler(bot *service.Bot, logger *slog.Logger) *BotHandler {
	return &BotHandler{bot: bot, logger: logger}
}

// Status returns both venues' fresh quotes and the profit of each direction.
// GET /api/status
func (h *BotHandler) Status(w http.ResponseWriter, r *http.Request) {
	rep, err := h.bot.Status(r.Context())
	if err != nil {
		h.fetchError(w, r, "status", err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// RunOnce triggers a single detect-and-execute pass. The mode comes from the
// JSON body {"mode":"simulation"|"real"} or the mode query parameter, and
// defaults to simulation.
// POST /api/arbitrage/run
func (h *BotHandler) RunOnce(w http.ResponseWriter, r *http.Request) {
	mode, ok := h.runMode(w, r)
	if !ok {
		return
	}

	rep, err := h.bot.ArbitrageOnce(r.Context(), mode)
	if err != nil {
		h.fetchError(w, r, "run_once", err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// Account returns both venues' free balances and the change against the
// initial snapshot.
// GET /api/account
func (h *BotHandler) Account(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.bot.AccountStatus(r.Context())
	if err != nil {
		h.fetchError(w, r, "account", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}

// History returns the most recent trades of a mode, oldest first.
// GET /api/history?mode=simulation|real&limit=10
func (h *BotHandler) History(w http.ResponseWriter, r *http.Request) {
	mode, ok := h.mode(w, r)
	if !ok {
		return
	}
	limit := parseLimit(r, 10, 500)

	records, err := h.bot.History(mode, limit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"mode":   mode,
		"trades": records,
	})
}

// LatestQuotes returns the last quote seen per venue from the read-model
// cache.
// GET /api/quotes/latest
func (h *BotHandler) LatestQuotes(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.bot.LatestQuotes(r.Context())
	if err != nil {
		logHandler(h.logger, "latest_quotes").ErrorContext(r.Context(), "cache read failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to read quotes")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"quotes": quotes})
}

// ListLoops reports both modes' loop states.
// GET /api/loops
func (h *BotHandler) ListLoops(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"loops": h.bot.Loops()})
}

// StartLoop starts the background loop for a mode. Starting an already
// running loop is reported as a conflict, not a failure.
// POST /api/loops/{mode}/start
func (h *BotHandler) StartLoop(w http.ResponseWriter, r *http.Request) {
	mode, ok := h.pathMode(w, r)
	if !ok {
		return
	}

	// The loop must outlive this request.
	if err := h.bot.StartLoop(context.WithoutCancel(r.Context()), mode); err != nil {
		if errors.Is(err, domain.ErrLoopRunning) {
			writeJSON(w, http.StatusConflict, map[string]any{"mode": mode, "status": "already running"})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"mode": mode, "status": "started"})
}

// StopLoop stops the background loop for a mode, waiting for any in-flight
// iteration to finish.
// POST /api/loops/{mode}/stop
func (h *BotHandler) StopLoop(w http.ResponseWriter, r *http.Request) {
	mode, ok := h.pathMode(w, r)
	if !ok {
		return
	}

	if err := h.bot.StopLoop(mode); err != nil {
		if errors.Is(err, domain.ErrLoopNotRunning) {
			writeJSON(w, http.StatusConflict, map[string]any{"mode": mode, "status": "not running"})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"mode": mode, "status": "stopped"})
}

// runMode reads the trade mode from the request body, falling back to the
// query string and then to simulation.
func (h *BotHandler) runMode(w http.ResponseWriter, r *http.Request) (domain.TradeMode, bool) {
	var body struct {
		Mode string `json:"mode"`
	}
	if r.Body != nil {
		// A missing or empty body is fine; only a malformed one is rejected.
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return "", false
		}
	}
	if body.Mode != "" {
		if !domain.ValidMode(body.Mode) {
			writeError(w, http.StatusBadRequest, "mode must be \"simulation\" or \"real\"")
			return "", false
		}
		return domain.TradeMode(body.Mode), true
	}
	return h.mode(w, r)
}

// mode reads the trade mode from the query string, defaulting to simulation.
func (h *BotHandler) mode(w http.ResponseWriter, r *http.Request) (domain.TradeMode, bool) {
	raw := r.URL.Query().Get("mode")
	if raw == "" {
		return domain.ModeSimulation, true
	}
	if !domain.ValidMode(raw) {
		writeError(w, http.StatusBadRequest, "mode must be \"simulation\" or \"real\"")
		return "", false
	}
	return domain.TradeMode(raw), true
}

// pathMode reads the trade mode from the URL path.
func (h *BotHandler) pathMode(w http.ResponseWriter, r *http.Request) (domain.TradeMode, bool) {
	raw := pathParam(r, "mode")
	if !domain.ValidMode(raw) {
		writeError(w, http.StatusBadRequest, "mode must be \"simulation\" or \"real\"")
		return "", false
	}
	return domain.TradeMode(raw), true
}

// fetchError maps venue-read failures to 503 so callers can tell "venue is
// down" apart from a bad request.
func (h *BotHandler) fetchError(w http.ResponseWriter, r *http.Request, op string, err error) {
	logHandler(h.logger, op).WarnContext(r.Context(), "venue fetch failed",
		slog.String("error", err.Error()),
	)
	if errors.Is(err, domain.ErrFetchExhausted) {
		writeError(w, http.StatusServiceUnavailable, "could not retrieve venue data, try again later")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
