package looper

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelolockdev/AngeloCryptoArbBot/internal/domain"
)

func newManager(iter Iterator) *Manager {
	return NewManager(5*time.Millisecond, iter, slog.New(slog.DiscardHandler))
}

func TestManagerStartStop(t *testing.T) {
	t.Run("start runs iterations until stop", func(t *testing.T) {
		var count atomic.Int64
		m := newManager(IteratorFunc(func(context.Context, domain.TradeMode) {
			count.Add(1)
		}))

		require.NoError(t, m.Start(context.Background(), domain.ModeSimulation))
		assert.True(t, m.Running(domain.ModeSimulation))

		assert.Eventually(t, func() bool { return count.Load() >= 2 }, time.Second, time.Millisecond)

		require.NoError(t, m.Stop(domain.ModeSimulation))
		assert.False(t, m.Running(domain.ModeSimulation))

		settled := count.Load()
		time.Sleep(20 * time.Millisecond)
		assert.Equal(t, settled, count.Load(), "no iteration may run after stop returns")
	})

	t.Run("second start reports already running", func(t *testing.T) {
		m := newManager(IteratorFunc(func(context.Context, domain.TradeMode) {}))

		require.NoError(t, m.Start(context.Background(), domain.ModeSimulation))
		defer m.StopAll()

		err := m.Start(context.Background(), domain.ModeSimulation)
		assert.ErrorIs(t, err, domain.ErrLoopRunning)
	})

	t.Run("stop without start reports not running", func(t *testing.T) {
		m := newManager(IteratorFunc(func(context.Context, domain.TradeMode) {}))
		err := m.Stop(domain.ModeReal)
		assert.ErrorIs(t, err, domain.ErrLoopNotRunning)
	})

	t.Run("modes run independently", func(t *testing.T) {
		var sim, real atomic.Int64
		m := newManager(IteratorFunc(func(_ context.Context, mode domain.TradeMode) {
			if mode == domain.ModeSimulation {
				sim.Add(1)
			} else {
				real.Add(1)
			}
		}))

		require.NoError(t, m.Start(context.Background(), domain.ModeSimulation))
		require.NoError(t, m.Start(context.Background(), domain.ModeReal))

		assert.Eventually(t, func() bool {
			return sim.Load() >= 1 && real.Load() >= 1
		}, time.Second, time.Millisecond)
		assert.ElementsMatch(t, []domain.TradeMode{domain.ModeSimulation, domain.ModeReal}, m.Modes())

		require.NoError(t, m.Stop(domain.ModeSimulation))
		assert.False(t, m.Running(domain.ModeSimulation))
		assert.True(t, m.Running(domain.ModeReal))

		require.NoError(t, m.Stop(domain.ModeReal))
	})

	t.Run("restart after stop", func(t *testing.T) {
		m := newManager(IteratorFunc(func(context.Context, domain.TradeMode) {}))

		require.NoError(t, m.Start(context.Background(), domain.ModeSimulation))
		require.NoError(t, m.Stop(domain.ModeSimulation))
		require.NoError(t, m.Start(context.Background(), domain.ModeSimulation))
		require.NoError(t, m.Stop(domain.ModeSimulation))
	})

	t.Run("parent cancellation ends the loop and frees the mode", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		started := make(chan struct{}, 1)
		m := newManager(IteratorFunc(func(context.Context, domain.TradeMode) {
			select {
			case started <- struct{}{}:
			default:
			}
		}))

		require.NoError(t, m.Start(ctx, domain.ModeSimulation))
		<-started
		cancel()

		assert.Eventually(t, func() bool { return !m.Running(domain.ModeSimulation) }, time.Second, time.Millisecond)

		// The dead handle must not block a fresh start.
		require.NoError(t, m.Start(context.Background(), domain.ModeSimulation))
		require.NoError(t, m.Stop(domain.ModeSimulation))
	})

	t.Run("stop waits for the current iteration", func(t *testing.T) {
		release := make(chan struct{})
		entered := make(chan struct{}, 1)
		var finished atomic.Bool
		m := newManager(IteratorFunc(func(context.Context, domain.TradeMode) {
			select {
			case entered <- struct{}{}:
				<-release
				finished.Store(true)
			default:
			}
		}))

		require.NoError(t, m.Start(context.Background(), domain.ModeReal))
		<-entered

		stopDone := make(chan struct{})
		go func() {
			assert.NoError(t, m.Stop(domain.ModeReal))
			close(stopDone)
		}()

		select {
		case <-stopDone:
			t.Fatal("stop returned while an iteration was in flight")
		case <-time.After(20 * time.Millisecond):
		}

		close(release)
		select {
		case <-stopDone:
		case <-time.After(time.Second):
			t.Fatal("stop did not return after the iteration completed")
		}
		assert.True(t, finished.Load())
	})
}
