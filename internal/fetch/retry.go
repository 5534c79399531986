// Package fetch wraps venue calls with bounded retry and exponential backoff.
// It is used for read operations only (tickers, balances); order submission is
// never retried because a duplicate submit places a duplicate order.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/angelolockdev/AngeloCryptoArbBot/internal/domain"
)

// Policy holds the retry parameters. The delay before attempt n+1 is
// InitialDelay * BackoffFactor^(n-1).
type Policy struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	BackoffFactor float64
}

// DefaultPolicy returns the standard policy: 3 attempts, 1s initial delay,
// doubling between attempts.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:   3,
		InitialDelay:  time.Second,
		BackoffFactor: 2,
	}
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.InitialDelay < 0 {
		p.InitialDelay = 0
	}
	if p.BackoffFactor < 1 {
		p.BackoffFactor = 1
	}
	return p
}

// Do invokes fn until it succeeds or the policy's attempts are exhausted.
// Each failed attempt is logged and followed by a backoff wait that yields to
// context cancellation. After the final failure Do returns the zero value and
// an error wrapping domain.ErrFetchExhausted; callers must treat that as
// "data unavailable this cycle", never as fatal.
func Do[T any](ctx context.Context, logger *slog.Logger, op string, policy Policy, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	p := policy.normalized()

	delay := p.InitialDelay
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		logger.Warn("fetch attempt failed",
			slog.String("op", op),
			slog.String("error", err.Error()),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", p.MaxAttempts),
		)

		if attempt == p.MaxAttempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("fetch: %s: %w", op, ctx.Err())
		case <-timer.C:
		}
		delay = time.Duration(float64(delay) * p.BackoffFactor)
	}

	logger.Error("fetch attempts exhausted",
		slog.String("op", op),
		slog.Int("attempts", p.MaxAttempts),
		slog.String("last_error", lastErr.Error()),
	)
	return zero, fmt.Errorf("fetch: %s: %w: %w", op, domain.ErrFetchExhausted, lastErr)
}
