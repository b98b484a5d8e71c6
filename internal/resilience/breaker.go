package resilience

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerConfig holds circuit breaker configuration.
type BreakerConfig struct {
	Name        string
	MaxRequests uint32        // Requests allowed while half-open
	Interval    time.Duration // Counter reset interval while closed
	Timeout     time.Duration // Open state duration before half-open
	MaxFailures uint32        // Consecutive failures before opening
}

// DefaultBreakerConfig returns defaults for the sticker fetcher: the
// platform either serves file bytes promptly or is down, so the breaker
// trips fast and probes again after a short pause.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:        name,
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		MaxFailures: 3,
	}
}

// NewBreaker creates a circuit breaker for operations returning T.
func NewBreaker[T any](config BreakerConfig) *gobreaker.CircuitBreaker[T] {
	settings := gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= config.MaxFailures {
				return true
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.6
		},
	}

	return gobreaker.NewCircuitBreaker[T](settings)
}
