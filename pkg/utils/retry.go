package utils

import (
	"context"
	"time"
)

// RetryConfig holds retry configuration.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig returns the default retry configuration used for
// per-symbol bar fetches.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   4,
		InitialDelay:  300 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 1.5,
	}
}

// Retry executes a function with bounded backoff retry.
func Retry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	_, err := RetryWithResult(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// RetryWithResult executes a function with bounded backoff retry and
// returns its result. The last error is returned once attempts are
// exhausted; context cancellation cuts the loop short.
func RetryWithResult[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var lastErr error
	var zero T
	delay := cfg.InitialDelay

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		// Don't sleep after the last attempt
		if attempt < cfg.MaxAttempts-1 {
			time.Sleep(delay)
			delay = time.Duration(float64(delay) * cfg.BackoffFactor)
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		}
	}

	return zero, lastErr
}
