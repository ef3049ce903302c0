// Package retry runs a fallible operation with a bounded number of attempts.
package retry

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rickgao/market-pulse/internal/backoff"
)

// Config bounds one call to Do. It carries no state between calls.
type Config struct {
	MaxAttempts int            // Total attempts including the first (minimum 1)
	Delay       backoff.Policy // Wait after failed attempt i before attempt i+1
	Clock       clockwork.Clock

	// OnRetry is called before each wait with the 1-based attempt that failed.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// Operation is a single attempt.
type Operation[T any] func(ctx context.Context) (T, error)

// Do calls op up to MaxAttempts times, one attempt at a time. It returns the
// first success immediately and the last attempt's error unchanged when the
// budget runs out. A cancelled ctx during a wait returns ctx.Err().
func Do[T any](ctx context.Context, cfg Config, op Operation[T]) (T, error) {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	var zero T
	for attempt := 0; attempt < attempts; attempt++ {
		val, err := op(ctx)
		if err == nil {
			return val, nil
		}

		if attempt == attempts-1 {
			return zero, err
		}

		wait := cfg.Delay.Delay(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, err, wait)
		}

		if wait <= 0 {
			if ctx.Err() != nil {
				return zero, ctx.Err()
			}
			continue
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-clock.After(wait):
		}
	}

	panic("unreachable")
}

// DoVoid is Do for operations without a result.
func DoVoid(ctx context.Context, cfg Config, op func(ctx context.Context) error) error {
	_, err := Do(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}
