// Package backoff computes reconnect and retry delays.
//
// A Policy is a pure function from a zero-based attempt index to a wait
// duration. Callers never care which shape it has, so the constant default
// can be swapped for an exponential one in configuration alone.
package backoff

import (
	"time"

	cenkalti "github.com/cenkalti/backoff/v5"
)

// DefaultReconnectDelay is the fixed wait before re-dialing the push channel.
const DefaultReconnectDelay = 5 * time.Second

// Policy maps an attempt index (0 = first retry) to a delay.
type Policy func(attempt int) time.Duration

// Delay returns the wait for the given attempt. Negative attempts count as 0
// and a nil policy never waits.
func (p Policy) Delay(attempt int) time.Duration {
	if p == nil {
		return 0
	}
	if attempt < 0 {
		attempt = 0
	}
	d := p(attempt)
	if d < 0 {
		return 0
	}
	return d
}

// Constant waits d before every attempt.
func Constant(d time.Duration) Policy {
	return func(int) time.Duration {
		return d
	}
}

// Exponential doubles from initial up to max. jitter is the randomization
// factor (0.2 = ±20%); 0 makes the sequence deterministic.
func Exponential(initial, max time.Duration, jitter float64) Policy {
	ceiling := stepsToMax(initial, max)
	return func(attempt int) time.Duration {
		if attempt > ceiling {
			attempt = ceiling
		}
		b := cenkalti.NewExponentialBackOff()
		b.InitialInterval = initial
		b.MaxInterval = max
		b.Multiplier = 2.0
		b.RandomizationFactor = jitter
		b.Reset()

		d := b.NextBackOff()
		for i := 0; i < attempt; i++ {
			d = b.NextBackOff()
			if d == cenkalti.Stop {
				return max
			}
		}
		return d
	}
}

// stepsToMax is the first attempt whose delay is already clamped to max.
// Later attempts have the same distribution.
func stepsToMax(initial, max time.Duration) int {
	if initial <= 0 {
		return 0
	}
	n := 0
	for d := initial; d < max; d *= 2 {
		n++
	}
	return n
}

// Parse builds a policy by name: "constant" (default) or "exponential".
func Parse(kind string, base, max time.Duration, jitter float64) Policy {
	switch kind {
	case "exponential":
		if max < base {
			max = base
		}
		return Exponential(base, max, jitter)
	default:
		return Constant(base)
	}
}
