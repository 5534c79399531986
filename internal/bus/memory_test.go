package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBus(t *testing.T) {
	t.Run("publish reaches all subscribers", func(t *testing.T) {
		m := NewMemory()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sub1, err := m.Subscribe(ctx, "signals")
		require.NoError(t, err)
		sub2, err := m.Subscribe(ctx, "signals")
		require.NoError(t, err)

		require.NoError(t, m.Publish(ctx, "signals", []byte("hello")))

		for _, sub := range []<-chan []byte{sub1, sub2} {
			select {
			case got := <-sub:
				assert.Equal(t, []byte("hello"), got)
			case <-time.After(time.Second):
				t.Fatal("subscriber did not receive the message")
			}
		}
	})

	t.Run("channels are isolated", func(t *testing.T) {
		m := NewMemory()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		other, err := m.Subscribe(ctx, "other")
		require.NoError(t, err)

		require.NoError(t, m.Publish(ctx, "signals", []byte("hello")))

		select {
		case <-other:
			t.Fatal("message crossed channels")
		case <-time.After(20 * time.Millisecond):
		}
	})

	t.Run("cancel closes the subscription", func(t *testing.T) {
		m := NewMemory()
		ctx, cancel := context.WithCancel(context.Background())

		sub, err := m.Subscribe(ctx, "signals")
		require.NoError(t, err)
		cancel()

		select {
		case _, ok := <-sub:
			assert.False(t, ok, "channel must be closed")
		case <-time.After(time.Second):
			t.Fatal("channel was not closed after cancel")
		}

		// Publishing after the subscriber left must not panic or block.
		assert.Eventually(t, func() bool {
			return m.Publish(context.Background(), "signals", []byte("late")) == nil
		}, time.Second, time.Millisecond)
	})
}
