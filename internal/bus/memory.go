// Package bus provides an in-process implementation of domain.SignalBus for
// deployments that run without Redis.
package bus

import (
	"context"
	"sync"

	"github.com/angelolockdev/AngeloCryptoArbBot/internal/domain"
)

// Memory is a process-local pub/sub bus. Publishes fan out to every current
// subscriber of the channel; slow subscribers drop messages rather than block
// the publisher.
type Memory struct {
	mu   sync.RWMutex
	subs map[string][]chan []byte
}

// NewMemory creates an empty in-process bus.
func NewMemory() *Memory {
	return &Memory{subs: make(map[string][]chan []byte)}
}

// Publish delivers payload to every subscriber of channel. It never blocks:
// a subscriber whose buffer is full misses the message.
func (m *Memory) Publish(_ context.Context, channel string, payload []byte) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, ch := range m.subs[channel] {
		select {
		case ch <- payload:
		default:
		}
	}
	return nil
}

// Subscribe registers a new subscriber for channel. The returned channel is
// closed and the subscription removed when ctx is cancelled.
func (m *Memory) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	ch := make(chan []byte, 128)

	m.mu.Lock()
	m.subs[channel] = append(m.subs[channel], ch)
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		subs := m.subs[channel]
		for i, sub := range subs {
			if sub == ch {
				m.subs[channel] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		m.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}

// Compile-time interface check.
var _ domain.SignalBus = (*Memory)(nil)
