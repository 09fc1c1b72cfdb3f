package requestcache

import (
	"context"
	"math"
	"math/rand"
	"time"
)

const (
	defaultMaxRetries   = 3
	defaultInitialDelay = 300 * time.Millisecond
	defaultMaxDelay     = 5 * time.Second
)

// RetryOptions bound the attempts made by Retry. Zero values fall back to
// 3 attempts, 300ms initial delay and a 5s delay cap.
type RetryOptions struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

func (o RetryOptions) withDefaults() RetryOptions {
	if o.MaxRetries <= 0 {
		o.MaxRetries = defaultMaxRetries
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = defaultInitialDelay
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = defaultMaxDelay
	}
	return o
}

// Retry invokes fn up to MaxRetries times. Each retry is preceded by an
// exponentially growing delay with ±10% jitter, capped at MaxDelay. The wait
// aborts if ctx is cancelled. After the final failed attempt the last error
// is returned unchanged.
func Retry[T any](ctx context.Context, opts RetryOptions, fn FetchFunc[T]) (T, error) {
	var zero T
	opts = opts.withDefaults()

	var lastErr error
	for attempt := 0; attempt < opts.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoffDelay(opts, attempt-1)):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}

		value, err := fn(ctx)
		if err == nil {
			return value, nil
		}
		lastErr = err
	}
	return zero, lastErr
}

// backoffDelay computes min(maxDelay, initialDelay * 2^retry * jitter) where
// jitter is uniform in [0.9, 1.1).
func backoffDelay(opts RetryOptions, retry int) time.Duration {
	jitter := 0.9 + 0.2*rand.Float64()
	delay := float64(opts.InitialDelay) * math.Pow(2, float64(retry)) * jitter
	if delay > float64(opts.MaxDelay) {
		delay = float64(opts.MaxDelay)
	}
	return time.Duration(delay)
}
