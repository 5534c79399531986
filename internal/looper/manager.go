// Package looper owns the background arbitrage loops. It guarantees at most
// one live loop per trade mode and stops loops only between iterations.
package looper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/angelolockdev/AngeloCryptoArbBot/internal/domain"
)

// Iterator runs one arbitrage cycle for a mode. Implementations must return
// promptly once the context is cancelled, except for an in-flight trade
// execution, which is always carried to completion.
type Iterator interface {
	Iterate(ctx context.Context, mode domain.TradeMode)
}

// IteratorFunc adapts a function to the Iterator interface.
type IteratorFunc func(ctx context.Context, mode domain.TradeMode)

// Iterate calls f.
func (f IteratorFunc) Iterate(ctx context.Context, mode domain.TradeMode) { f(ctx, mode) }

type handle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (h *handle) finished() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Manager starts and stops one loop task per trade mode. Start and Stop are
// idempotent: starting a running mode and stopping a stopped mode are no-ops
// reported through sentinel errors.
type Manager struct {
	interval time.Duration
	iter     Iterator
	logger   *slog.Logger

	mu      sync.Mutex
	handles map[domain.TradeMode]*handle
}

// NewManager creates a Manager that runs iter every interval per started mode.
func NewManager(interval time.Duration, iter Iterator, logger *slog.Logger) *Manager {
	return &Manager{
		interval: interval,
		iter:     iter,
		logger:   logger.With(slog.String("component", "looper")),
		handles:  make(map[domain.TradeMode]*handle),
	}
}

// Start launches the loop for mode. It returns domain.ErrLoopRunning when a
// live loop for that mode already exists. The loop runs until Stop is called
// or the parent context is cancelled.
func (m *Manager) Start(parent context.Context, mode domain.TradeMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h, ok := m.handles[mode]; ok && !h.finished() {
		return fmt.Errorf("looper: %s: %w", mode, domain.ErrLoopRunning)
	}

	ctx, cancel := context.WithCancel(parent)
	h := &handle{cancel: cancel, done: make(chan struct{})}
	m.handles[mode] = h

	go m.run(ctx, mode, h)

	m.logger.Info("loop started", slog.String("mode", string(mode)))
	return nil
}

// Stop cancels the loop for mode and waits for it to observe the cancellation
// and exit. Cancellation is honored only between iterations, so Stop never
// interrupts a trade mid-flight. It returns domain.ErrLoopNotRunning when no
// live loop exists for the mode.
func (m *Manager) Stop(mode domain.TradeMode) error {
	m.mu.Lock()
	h, ok := m.handles[mode]
	if !ok || h.finished() {
		delete(m.handles, mode)
		m.mu.Unlock()
		return fmt.Errorf("looper: %s: %w", mode, domain.ErrLoopNotRunning)
	}
	delete(m.handles, mode)
	m.mu.Unlock()

	h.cancel()
	<-h.done

	m.logger.Info("loop stopped", slog.String("mode", string(mode)))
	return nil
}

// Running reports whether a live loop exists for mode.
func (m *Manager) Running(mode domain.TradeMode) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.handles[mode]
	return ok && !h.finished()
}

// Modes returns the modes with a live loop.
func (m *Manager) Modes() []domain.TradeMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	modes := make([]domain.TradeMode, 0, len(m.handles))
	for mode, h := range m.handles {
		if !h.finished() {
			modes = append(modes, mode)
		}
	}
	return modes
}

// StopAll stops every live loop. Used at shutdown.
func (m *Manager) StopAll() {
	for _, mode := range m.Modes() {
		if err := m.Stop(mode); err != nil {
			m.logger.Warn("stop during shutdown",
				slog.String("mode", string(mode)),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (m *Manager) run(ctx context.Context, mode domain.TradeMode, h *handle) {
	defer close(h.done)
	defer m.logger.Info("loop exited", slog.String("mode", string(mode)))

	for {
		// Cancellation is checked only here, at the iteration boundary.
		select {
		case <-ctx.Done():
			return
		default:
		}

		m.iter.Iterate(ctx, mode)

		select {
		case <-ctx.Done():
			return
		case <-time.After(m.interval):
		}
	}
}
