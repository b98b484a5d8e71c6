package resilience

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"time"
)

// RetryConfig holds retry configuration.
type RetryConfig struct {
	MaxAttempts int           // Maximum number of retries after the first attempt (0 = no retries)
	BaseWait    time.Duration // Initial wait duration
	MaxWait     time.Duration // Maximum wait duration
	Multiplier  float64       // Backoff multiplier (e.g., 2.0 for exponential)
	Jitter      float64       // Jitter factor (0.0-1.0)
}

// DefaultRetryConfig returns defaults tuned for fetching sticker bytes
// from the platform: short waits, few attempts, so a kang does not hold a
// pack lock for long.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 2,
		BaseWait:    200 * time.Millisecond,
		MaxWait:     2 * time.Second,
		Multiplier:  2.0,
		Jitter:      0.2,
	}
}

// RetryableError wraps an error with an explicit retry-after hint.
type RetryableError struct {
	Err        error
	RetryAfter time.Duration
}

func (e *RetryableError) Error() string { return e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

// NewRetryableError creates a retryable error.
func NewRetryableError(err error, retryAfter time.Duration) *RetryableError {
	return &RetryableError{Err: err, RetryAfter: retryAfter}
}

// IsRetryable checks if an error carries a retry-after hint.
func IsRetryable(err error) (time.Duration, bool) {
	var retryErr *RetryableError
	if errors.As(err, &retryErr) {
		return retryErr.RetryAfter, true
	}
	return 0, false
}

// Retry executes fn with retries according to cfg.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		if attempt >= cfg.MaxAttempts {
			break
		}

		wait := calculateBackoff(cfg, attempt, lastErr)

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(wait):
		}
	}

	return zero, lastErr
}

func calculateBackoff(cfg RetryConfig, attempt int, err error) time.Duration {
	// An explicit retry-after hint overrides the backoff schedule.
	if retryAfter, ok := IsRetryable(err); ok && retryAfter > 0 {
		return retryAfter
	}

	// Exponential backoff
	wait := float64(cfg.BaseWait)
	for i := 0; i < attempt; i++ {
		wait *= cfg.Multiplier
	}

	if wait > float64(cfg.MaxWait) {
		wait = float64(cfg.MaxWait)
	}

	// Apply jitter using crypto/rand
	if cfg.Jitter > 0 {
		jitterRange := wait * cfg.Jitter
		n, err := rand.Int(rand.Reader, big.NewInt(int64(jitterRange*2)))
		if err == nil {
			jitter := float64(n.Int64()) - jitterRange
			wait += jitter
		}
	}

	return time.Duration(wait)
}
