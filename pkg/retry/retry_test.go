package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quotaError struct{ limited bool }

func (e *quotaError) Error() string       { return "provider said no" }
func (e *quotaError) IsRateLimited() bool { return e.limited }

func fastConfig() *Config {
	return &Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Linear: true}
}

func TestDefaultRateLimitConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 60*time.Second, cfg.Delay(1))
	assert.Equal(t, 120*time.Second, cfg.Delay(2))
	assert.Equal(t, 180*time.Second, cfg.Delay(3))
	assert.Equal(t, 180*time.Second, cfg.Delay(7), "capped by MaxDelay")
}

func TestConfig_DelayExponential(t *testing.T) {
	cfg := &Config{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second}
	assert.Equal(t, 100*time.Millisecond, cfg.Delay(1))
	assert.Equal(t, 200*time.Millisecond, cfg.Delay(2))
	assert.Equal(t, 400*time.Millisecond, cfg.Delay(3))
	assert.Equal(t, time.Second, cfg.Delay(10))
}

func TestIsRateLimited(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"declared", &quotaError{limited: true}, true},
		{"declared not limited", &quotaError{limited: false}, false},
		{"wrapped declared", fmt.Errorf("reconcile: %w", &quotaError{limited: true}), true},
		{"status code text", errors.New("error, status code: 429"), true},
		{"message text", errors.New("Rate limit reached"), true},
		{"too many requests", errors.New("Too Many Requests"), true},
		{"server error", errors.New("status code: 503"), false},
		{"auth", errors.New("unauthorized"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRateLimited(tt.err))
		})
	}
}

func TestDoIfRateLimited_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := DoIfRateLimited(context.Background(), fastConfig(), func() error {
		calls++
		if calls < 3 {
			return &quotaError{limited: true}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoIfRateLimited_GivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	quota := &quotaError{limited: true}
	err := DoIfRateLimited(context.Background(), fastConfig(), func() error {
		calls++
		return quota
	})

	assert.Same(t, quota, err)
	assert.Equal(t, 3, calls)
}

func TestDoIfRateLimited_OtherErrorsReturnImmediately(t *testing.T) {
	calls := 0
	boom := errors.New("status code: 500")
	err := DoIfRateLimited(context.Background(), fastConfig(), func() error {
		calls++
		return boom
	})

	assert.Same(t, boom, err)
	assert.Equal(t, 1, calls)
}

func TestDoWithResultIfRateLimited(t *testing.T) {
	calls := 0
	got, err := DoWithResultIfRateLimited(context.Background(), fastConfig(), func() (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("429 Too Many Requests")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 2, calls)
}

func TestDoIfRateLimited_ContextCancelledWhileWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := &Config{MaxAttempts: 3, InitialDelay: time.Hour, Linear: true}

	calls := 0
	start := time.Now()
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := DoIfRateLimited(ctx, cfg, func() error {
		calls++
		return &quotaError{limited: true}
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestDo_RetriesAnyError(t *testing.T) {
	calls := 0
	err := Do(context.Background(), &Config{MaxAttempts: 4, InitialDelay: time.Millisecond}, func() error {
		calls++
		if calls < 4 {
			return errors.New("connection refused")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 4, calls)
}

func TestDo_ZeroAttemptsStillCallsOnce(t *testing.T) {
	calls := 0
	err := Do(context.Background(), &Config{}, func() error {
		calls++
		return errors.New("nope")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
