package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// RetryConfig holds configuration for retry behavior
type RetryConfig struct {
	MaxAttempts     int              `json:"max_attempts"`
	InitialDelay    time.Duration    `json:"initial_delay"`
	MaxDelay        time.Duration    `json:"max_delay"`
	BackoffFactor   float64          `json:"backoff_factor"`
	JitterEnabled   bool             `json:"jitter_enabled"`
	RetryableErrors func(error) bool `json:"-"`
}

// DefaultRetryConfig returns the policy used when connecting to Redis at
// startup
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     3,
		InitialDelay:    200 * time.Millisecond,
		MaxDelay:        2 * time.Second,
		BackoffFactor:   2.0,
		JitterEnabled:   true,
		RetryableErrors: IsRetryable,
	}
}

// IsRetryable treats everything except context cancellation as transient
func IsRetryable(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// RetryableFunc represents a function that can be retried
type RetryableFunc func() error

// RetryWithConfig executes fn until it succeeds, returns a non-retryable
// error, runs out of attempts or ctx is done. The last error is returned.
func RetryWithConfig(ctx context.Context, config RetryConfig, fn RetryableFunc) error {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	if config.RetryableErrors == nil {
		config.RetryableErrors = IsRetryable
	}

	var lastErr error
	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !config.RetryableErrors(err) || attempt == config.MaxAttempts-1 {
			break
		}

		timer := time.NewTimer(calculateDelay(config, attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}

// calculateDelay computes the delay for the next retry attempt
func calculateDelay(config RetryConfig, attempt int) time.Duration {
	delay := time.Duration(float64(config.InitialDelay) * math.Pow(config.BackoffFactor, float64(attempt)))

	if config.MaxDelay > 0 && delay > config.MaxDelay {
		delay = config.MaxDelay
	}

	// up to 10% jitter
	if config.JitterEnabled && delay >= 10 {
		delay += time.Duration(rand.Int63n(int64(delay / 10)))
	}

	return delay
}
