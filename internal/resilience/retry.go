// Package resilience provides retry, error classification and circuit
// breaking for calls to venue data providers.
package resilience

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Backoff selects how the delay between retries grows.
type Backoff string

const (
	// BackoffLinear waits base*attempt.
	BackoffLinear Backoff = "linear"
	// BackoffExponential waits base*2^(attempt-1).
	BackoffExponential Backoff = "exponential"
)

// RetryConfig controls retry behavior.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt. Zero
	// means a single attempt. Negative values are treated as zero.
	MaxRetries int

	// BaseDelay is the delay before the first retry. Default: 250ms.
	BaseDelay time.Duration

	// MaxDelay caps any single delay. Default: 5s.
	MaxDelay time.Duration

	// Backoff selects linear or exponential growth. Default: exponential.
	Backoff Backoff

	// JitterFraction adds random jitter as a fraction of the computed delay
	// (0.0 = no jitter, 0.5 = ±50%).
	JitterFraction float64

	// ShouldRetry optionally overrides the default IsRetryable check.
	ShouldRetry func(err error) bool

	// OnRetry is called before each retry sleep with attempt number and error.
	OnRetry func(attempt int, err error)
}

// DefaultRetryConfig returns the provider retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 2,
		BaseDelay:  250 * time.Millisecond,
		MaxDelay:   5 * time.Second,
		Backoff:    BackoffExponential,
	}
}

// RetryError is returned when every attempt failed with a retryable error.
type RetryError struct {
	Attempts int
	Err      error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryError) Unwrap() error {
	return e.Err
}

// Do executes fn with retry logic according to cfg and reports how many
// retries were made.
func Do(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) (int, error) {
	_, retries, err := DoVal(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return retries, err
}

// DoVal executes fn returning a value with retry logic. Non-retryable errors
// are returned unchanged after the attempt that produced them. When the
// retry budget runs out the last error is wrapped in a RetryError. Context
// cancellation stops retries immediately and returns the context error.
func DoVal[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, int, error) {
	cfg = applyDefaults(cfg)

	shouldRetry := cfg.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = IsRetryable
	}

	var zero T
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, attempt, err
		}

		val, err := fn(ctx)
		if err == nil {
			return val, attempt, nil
		}

		if ctx.Err() != nil {
			return zero, attempt, ctx.Err()
		}
		if !shouldRetry(err) {
			return zero, attempt, err
		}
		if attempt >= cfg.MaxRetries {
			return zero, attempt, &RetryError{Attempts: attempt + 1, Err: err}
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, err)
		}

		timer := time.NewTimer(computeBackoff(attempt+1, cfg))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, attempt, ctx.Err()
		case <-timer.C:
		}
	}
}

func applyDefaults(cfg RetryConfig) RetryConfig {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 250 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 5 * time.Second
	}
	if cfg.Backoff != BackoffLinear {
		cfg.Backoff = BackoffExponential
	}
	if cfg.JitterFraction < 0 {
		cfg.JitterFraction = 0
	}
	return cfg
}

// computeBackoff returns the delay before retry number attempt (1-based).
func computeBackoff(attempt int, cfg RetryConfig) time.Duration {
	var delay float64
	switch cfg.Backoff {
	case BackoffLinear:
		delay = float64(cfg.BaseDelay) * float64(attempt)
	default:
		delay = float64(cfg.BaseDelay) * math.Pow(2, float64(attempt-1))
	}
	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}

	if cfg.JitterFraction > 0 {
		jitterRange := delay * cfg.JitterFraction
		delay += (rand.Float64()*2 - 1) * jitterRange
	}

	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// RetryLogger returns an OnRetry callback that logs each retry attempt.
func RetryLogger(service, operation string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying operation",
			zap.String("service", service),
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.String("class", Classify(err).String()),
			zap.Error(err),
		)
	}
}
