// Package retry repeats operations that fail transiently, optionally waiting
// for the operator between attempts
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Operation represents a function that can be retried
type Operation func(ctx context.Context) error

// Config holds retry configuration
type Config struct {
	// MaxAttempts is the maximum number of attempts including the initial
	// attempt. Zero or less means no limit.
	MaxAttempts int

	// InitialDelay is the delay before the first retry
	InitialDelay time.Duration

	// MaxDelay is the maximum delay between retries
	MaxDelay time.Duration

	// Multiplier is the factor by which the delay increases
	Multiplier float64

	// MaxJitter is the maximum random jitter added to delays
	MaxJitter time.Duration

	// OnRetry is called after each failed attempt
	OnRetry func(attempt int, err error)

	// BeforeRetry runs before every new attempt, after the delay. Returning
	// an error stops retrying. Used to block on operator confirmation.
	BeforeRetry func(ctx context.Context, attempt int, lastErr error) error
}

// DefaultConfig returns a default retry configuration
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		MaxJitter:    100 * time.Millisecond,
	}
}

// Interactive returns a configuration without delays that asks confirm
// before every retry. maxAttempts of zero retries until success.
func Interactive(maxAttempts int, confirm func(ctx context.Context, attempt int, lastErr error) error) Config {
	return Config{
		MaxAttempts: maxAttempts,
		BeforeRetry: confirm,
	}
}

// WithBackoff retries an operation with exponential backoff
func WithBackoff(ctx context.Context, op Operation, cfg Config) error {
	var lastErr error

	for attempt := 0; cfg.MaxAttempts <= 0 || attempt < cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			if lastErr != nil {
				return fmt.Errorf("operation cancelled: %w", errors.Join(ctx.Err(), lastErr))
			}
			return fmt.Errorf("operation cancelled: %w", ctx.Err())
		default:
		}

		if attempt > 0 {
			if delay := calculateDelay(attempt, cfg); delay > 0 {
				timer := time.NewTimer(delay)
				select {
				case <-ctx.Done():
					timer.Stop()
					return fmt.Errorf("operation cancelled during backoff: %w", errors.Join(ctx.Err(), lastErr))
				case <-timer.C:
				}
			}

			if cfg.BeforeRetry != nil {
				if err := cfg.BeforeRetry(ctx, attempt+1, lastErr); err != nil {
					return fmt.Errorf("retry aborted after %d attempts: %w", attempt, errors.Join(err, lastErr))
				}
			}
		}

		err := op(ctx)
		if err == nil {
			return nil
		}

		lastErr = err

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, err)
		}

		if !IsRetryable(err) {
			return fmt.Errorf("non-retryable error: %w", err)
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", cfg.MaxAttempts, lastErr)
}

// calculateDelay calculates the delay for a given attempt
func calculateDelay(attempt int, cfg Config) time.Duration {
	if cfg.InitialDelay <= 0 {
		return 0
	}

	delay := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt))

	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}

	if cfg.MaxJitter > 0 {
		delay += float64(cfg.MaxJitter) * rand.Float64()
	}

	return time.Duration(delay)
}

// RetryableError is an error that can be retried
type RetryableError struct {
	err error
}

// Error implements the error interface
func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error: %v", e.err)
}

// Unwrap returns the underlying error
func (e *RetryableError) Unwrap() error {
	return e.err
}

// NewRetryableError wraps an error as retryable
func NewRetryableError(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{err: err}
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var retryable *RetryableError
	return errors.As(err, &retryable)
}

// WithRetryable wraps an operation to make its errors retryable
func WithRetryable(op Operation) Operation {
	return func(ctx context.Context) error {
		err := op(ctx)
		if err != nil {
			return NewRetryableError(err)
		}
		return nil
	}
}
