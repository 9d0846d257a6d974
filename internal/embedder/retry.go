package embedder

import (
	"context"
	"time"
)

// RetryConfig configures bounded fixed-delay retry behavior
type RetryConfig struct {
	MaxAttempts int           // Total attempts before giving up
	Delay       time.Duration // Fixed delay between attempts
}

// DefaultRetryConfig returns the default retry policy for embedding calls
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: MaxAttempts,
		Delay:       time.Duration(RetryDelayMs) * time.Millisecond,
	}
}

// retryFixed executes fn up to config.MaxAttempts times with a fixed,
// cancellable delay between attempts. The wait respects ctx so an overall
// search deadline is never held up by a sleeping retry loop.
func retryFixed[T any](ctx context.Context, config RetryConfig, fn func() (T, error)) (T, error) {
	var lastErr error
	var zero T

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err

		// Don't retry on context cancellation
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		if attempt < config.MaxAttempts-1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(config.Delay):
			}
		}
	}

	return zero, lastErr
}
