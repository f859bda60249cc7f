// Package retry provides bounded retry loops for calls to external systems.
package retry

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Config defines a bounded retry loop.
type Config struct {
	// MaxAttempts is the total number of calls, including the first.
	MaxAttempts int
	// InitialDelay is the wait after the first failed attempt.
	InitialDelay time.Duration
	// MaxDelay caps any single wait.
	MaxDelay time.Duration
	// Linear makes the wait InitialDelay × attempt; otherwise it doubles.
	Linear bool
}

// DefaultRateLimitConfig waits 60s, then 120s, before the third and final
// attempt, which matches per-minute provider quotas.
func DefaultRateLimitConfig() *Config {
	return &Config{
		MaxAttempts:  3,
		InitialDelay: 60 * time.Second,
		MaxDelay:     180 * time.Second,
		Linear:       true,
	}
}

// DefaultConnectConfig is used when opening database pools.
func DefaultConnectConfig() *Config {
	return &Config{
		MaxAttempts:  4,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     5 * time.Second,
	}
}

// Delay returns the wait before attempt+1 given that attempt (1-based) failed.
func (c *Config) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	var d time.Duration
	if c.Linear {
		d = c.InitialDelay * time.Duration(attempt)
	} else {
		d = c.InitialDelay << (attempt - 1)
		if d < c.InitialDelay {
			d = c.MaxDelay
		}
	}
	if c.MaxDelay > 0 && d > c.MaxDelay {
		d = c.MaxDelay
	}
	return d
}

func (c *Config) attempts() int {
	if c.MaxAttempts < 1 {
		return 1
	}
	return c.MaxAttempts
}

// RateLimitedError is implemented by errors that know whether they were
// caused by a provider quota.
type RateLimitedError interface {
	error
	IsRateLimited() bool
}

// IsRateLimited reports whether err belongs to the rate-limit class: an error
// in the chain that declares itself rate limited, or a message naming HTTP
// 429 or a rate limit.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}

	var rl RateLimitedError
	if errors.As(err, &rl) {
		return rl.IsRateLimited()
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{"429", "rate limit", "rate_limit", "too many requests"} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// Do calls fn until it succeeds or attempts run out, retrying every error.
// Returns the last error, or ctx.Err() if cancelled while waiting.
func Do(ctx context.Context, cfg *Config, fn func() error) error {
	_, err := DoWithResult(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// DoWithResult is Do for functions that return a value.
func DoWithResult[T any](ctx context.Context, cfg *Config, fn func() (T, error)) (T, error) {
	return loop(ctx, cfg, fn, func(error) bool { return true })
}

// DoIfRateLimited retries fn only while it fails with a rate-limit-class
// error. Any other error is returned immediately.
func DoIfRateLimited(ctx context.Context, cfg *Config, fn func() error) error {
	_, err := DoWithResultIfRateLimited(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// DoWithResultIfRateLimited is DoIfRateLimited for functions that return a value.
func DoWithResultIfRateLimited[T any](ctx context.Context, cfg *Config, fn func() (T, error)) (T, error) {
	return loop(ctx, cfg, fn, IsRateLimited)
}

func loop[T any](ctx context.Context, cfg *Config, fn func() (T, error), shouldRetry func(error) bool) (T, error) {
	if cfg == nil {
		cfg = DefaultRateLimitConfig()
	}

	var (
		result T
		err    error
	)
	attempts := cfg.attempts()

	for attempt := 1; attempt <= attempts; attempt++ {
		result, err = fn()
		if err == nil {
			return result, nil
		}
		if !shouldRetry(err) || attempt == attempts {
			return result, err
		}

		timer := time.NewTimer(cfg.Delay(attempt))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return result, ctx.Err()
		}
	}

	return result, err
}
