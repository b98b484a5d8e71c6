// Package resilience provides retry, circuit breaking and rate limiting
// utilities for the conversion pipeline. Uses sony/gobreaker for circuit
// breaking and golang.org/x/time/rate for rate limiting.
//
// The facade uses RateLimiter for admission control (a global conversion
// budget plus a per-user budget); the pack machine wraps its external
// sticker fetcher in a breaker and retries transient fetch failures with
// Retry.
package resilience
