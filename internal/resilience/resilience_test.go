package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// =============================================================================
// RETRY TESTS
// =============================================================================

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	cfg := DefaultRetryConfig()

	calls := 0
	result, err := Retry(context.Background(), cfg, func() (string, error) {
		calls++
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 1, calls)
}

func TestRetryRecoversAfterFailure(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts: 3,
		BaseWait:    time.Millisecond,
		MaxWait:     5 * time.Millisecond,
		Multiplier:  2.0,
	}

	calls := 0
	result, err := Retry(context.Background(), cfg, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 3, calls)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts: 2,
		BaseWait:    time.Millisecond,
		MaxWait:     5 * time.Millisecond,
		Multiplier:  2.0,
	}

	sentinel := errors.New("permanent")
	calls := 0
	_, err := Retry(context.Background(), cfg, func() (int, error) {
		calls++
		return 0, sentinel
	})

	require.ErrorIs(t, err, sentinel)
	assert.Equal(t, 3, calls)
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts: 5,
		BaseWait:    time.Hour,
		MaxWait:     time.Hour,
		Multiplier:  1.0,
	}

	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := Retry(ctx, cfg, func() (int, error) {
		calls++
		return 0, errors.New("transient")
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetryableErrorHint(t *testing.T) {
	err := NewRetryableError(errors.New("slow down"), 250*time.Millisecond)

	after, ok := IsRetryable(err)
	assert.True(t, ok)
	assert.Equal(t, 250*time.Millisecond, after)

	_, ok = IsRetryable(errors.New("plain"))
	assert.False(t, ok)
}

// =============================================================================
// RATE LIMITER TESTS
// =============================================================================

func TestRateLimiterAllowWithinBurst(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		GlobalRate:  rate.Limit(100),
		GlobalBurst: 100,
		PerKeyRate:  rate.Limit(1),
		PerKeyBurst: 2,
		TTL:         time.Minute,
	})
	defer rl.Close()

	assert.True(t, rl.Allow("user-1"))
	assert.True(t, rl.Allow("user-1"))
	assert.False(t, rl.Allow("user-1"))

	// A different user has its own budget.
	assert.True(t, rl.Allow("user-2"))
}

func TestRateLimiterGlobalBudget(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		GlobalRate:  rate.Limit(1),
		GlobalBurst: 1,
		PerKeyRate:  rate.Limit(100),
		PerKeyBurst: 100,
		TTL:         time.Minute,
	})
	defer rl.Close()

	assert.True(t, rl.Allow("user-1"))
	assert.False(t, rl.Allow("user-2"))
}

func TestRateLimiterWaitCancellation(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		GlobalRate:  rate.Limit(0.01),
		GlobalBurst: 1,
		PerKeyRate:  rate.Limit(100),
		PerKeyBurst: 100,
		TTL:         time.Minute,
	})
	defer rl.Close()

	require.NoError(t, rl.Wait(context.Background(), "user-1"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := rl.Wait(ctx, "user-1")
	assert.Error(t, err)
}

// =============================================================================
// BREAKER TESTS
// =============================================================================

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cfg := DefaultBreakerConfig("test")
	cfg.MaxFailures = 2
	cb := NewBreaker[string](cfg)

	fail := func() (string, error) { return "", errors.New("boom") }

	_, err := cb.Execute(fail)
	require.Error(t, err)
	_, err = cb.Execute(fail)
	require.Error(t, err)

	_, err = cb.Execute(func() (string, error) { return "ok", nil })
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestBreakerPassesThroughSuccess(t *testing.T) {
	cb := NewBreaker[int](DefaultBreakerConfig("test"))

	result, err := cb.Execute(func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, result)
}
