package resilience

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/prilive-com/stickerforge/internal/syncutil"
)

// RateLimiterConfig holds rate limiting configuration.
type RateLimiterConfig struct {
	GlobalRate  rate.Limit // Global conversions per second
	GlobalBurst int        // Global burst size
	PerKeyRate  rate.Limit // Per-user conversions per second
	PerKeyBurst int        // Per-user burst size
	TTL         time.Duration
}

// DefaultRateLimiterConfig returns defaults sized for conversion work:
// a handful of concurrent pipelines globally, and a per-user budget that
// tolerates a short burst of commands without letting one user starve
// the worker pool.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GlobalRate:  rate.Limit(10),
		GlobalBurst: 20,
		PerKeyRate:  rate.Limit(1),
		PerKeyBurst: 3,
		TTL:         10 * time.Minute,
	}
}

// RateLimiter provides a global budget plus per-key budgets. Keys are
// user identifiers; idle per-key limiters are evicted after the TTL.
type RateLimiter struct {
	config   RateLimiterConfig
	global   *rate.Limiter
	mu       sync.RWMutex
	limiters map[string]*keyedLimiter
	done     chan struct{}
	wg       sync.WaitGroup
}

type keyedLimiter struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// NewRateLimiter creates a rate limiter and starts its cleanup loop.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:   config,
		global:   rate.NewLimiter(config.GlobalRate, config.GlobalBurst),
		limiters: make(map[string]*keyedLimiter),
		done:     make(chan struct{}),
	}

	syncutil.Go(&rl.wg, rl.cleanupLoop)

	return rl
}

// Wait blocks until both the global and the per-key budget permit,
// or the context is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context, key string) error {
	if err := rl.global.Wait(ctx); err != nil {
		return err
	}
	return rl.getOrCreate(key).Wait(ctx)
}

// Allow reports whether both budgets permit right now, without blocking.
func (rl *RateLimiter) Allow(key string) bool {
	if !rl.global.Allow() {
		return false
	}
	return rl.getOrCreate(key).Allow()
}

func (rl *RateLimiter) getOrCreate(key string) *rate.Limiter {
	rl.mu.RLock()
	kl, ok := rl.limiters[key]
	rl.mu.RUnlock()

	if ok {
		rl.mu.Lock()
		kl.lastUsed = time.Now()
		rl.mu.Unlock()
		return kl.limiter
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Re-check under the write lock.
	if kl, ok := rl.limiters[key]; ok {
		kl.lastUsed = time.Now()
		return kl.limiter
	}

	kl = &keyedLimiter{
		limiter:  rate.NewLimiter(rl.config.PerKeyRate, rl.config.PerKeyBurst),
		lastUsed: time.Now(),
	}
	rl.limiters[key] = kl
	return kl.limiter
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.TTL)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.evictIdle()
		}
	}
}

func (rl *RateLimiter) evictIdle() {
	cutoff := time.Now().Add(-rl.config.TTL)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, kl := range rl.limiters {
		if kl.lastUsed.Before(cutoff) {
			delete(rl.limiters, key)
		}
	}
}

// Close stops the cleanup loop.
func (rl *RateLimiter) Close() {
	close(rl.done)
	rl.wg.Wait()
}
