package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CircuitState represents the current state of the circuit breaker.
type CircuitState int

const (
	// CircuitClosed lets calls through.
	CircuitClosed CircuitState = iota
	// CircuitOpen rejects calls until ResetAfter has elapsed.
	CircuitOpen
	// CircuitHalfOpen lets a single probe call through.
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig holds configuration for the circuit breaker.
type CircuitBreakerConfig struct {
	// Threshold is the number of consecutive failures before the circuit trips.
	Threshold int
	// ResetAfter is how long the circuit stays open before a probe is allowed.
	ResetAfter time.Duration
}

// DefaultCircuitBreakerConfig trips after 3 consecutive failures and probes
// again after two minutes, which outlasts a typical provider rate-limit window.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Threshold:  3,
		ResetAfter: 2 * time.Minute,
	}
}

// CircuitBreaker trips open after N consecutive failures so a batch stops
// hammering a provider that is down.
type CircuitBreaker struct {
	mu               sync.Mutex
	consecutiveFails int
	threshold        int
	resetAfter       time.Duration
	lastFailure      time.Time
	state            CircuitState
	now              func() time.Time
}

// NewCircuitBreaker creates a new circuit breaker with the given configuration.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.Threshold < 1 {
		config.Threshold = DefaultCircuitBreakerConfig().Threshold
	}
	return &CircuitBreaker{
		threshold:  config.Threshold,
		resetAfter: config.ResetAfter,
		state:      CircuitClosed,
		now:        time.Now,
	}
}

// Allow reports whether a call may proceed. An open circuit moves to
// half-open once ResetAfter has passed and admits exactly one probe.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return nil
	case CircuitOpen:
		since := cb.now().Sub(cb.lastFailure)
		if since > cb.resetAfter {
			cb.state = CircuitHalfOpen
			return nil
		}
		return NewError(ErrorTypeCircuitOpen,
			fmt.Sprintf("circuit breaker open after %d consecutive failures (last %v ago)",
				cb.consecutiveFails, since.Round(time.Second)),
			false, nil)
	case CircuitHalfOpen:
		return NewError(ErrorTypeCircuitOpen, "circuit breaker half-open: probe in flight", false, nil)
	default:
		return fmt.Errorf("circuit breaker in unknown state: %v", cb.state)
	}
}

// RecordSuccess resets the failure count and closes the circuit.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFails = 0
	cb.state = CircuitClosed
}

// RecordFailure increments the failure count and trips the circuit if threshold is reached.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFails++
	cb.lastFailure = cb.now()

	if cb.state == CircuitHalfOpen || cb.consecutiveFails >= cb.threshold {
		cb.state = CircuitOpen
	}
}

// State returns the current state of the circuit breaker.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// ConsecutiveFailures returns the current count of consecutive failures.
func (cb *CircuitBreaker) ConsecutiveFailures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.consecutiveFails
}

// BreakerClient guards an LLMClient with a CircuitBreaker. Only failures that
// indicate an unhealthy provider count against the breaker; context
// cancellation by the caller does not.
type BreakerClient struct {
	inner   LLMClient
	breaker *CircuitBreaker
	logger  *zap.Logger
}

// WithCircuitBreaker wraps client so calls fail fast while the breaker is open.
func WithCircuitBreaker(client LLMClient, breaker *CircuitBreaker, logger *zap.Logger) *BreakerClient {
	return &BreakerClient{
		inner:   client,
		breaker: breaker,
		logger:  logger.Named("llm-breaker"),
	}
}

// GenerateResponse implements LLMClient.
func (b *BreakerClient) GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64, thinking bool) (*GenerateResponseResult, error) {
	if err := b.breaker.Allow(); err != nil {
		b.logger.Warn("LLM call rejected by circuit breaker",
			zap.String("model", b.inner.GetModel()),
			zap.Error(err))
		return nil, err
	}

	result, err := b.inner.GenerateResponse(ctx, prompt, systemMessage, temperature, thinking)
	if err != nil {
		if ctx.Err() == nil {
			b.breaker.RecordFailure()
			if b.breaker.State() == CircuitOpen {
				b.logger.Warn("Circuit breaker tripped",
					zap.Int("consecutive_failures", b.breaker.ConsecutiveFailures()))
			}
		}
		return nil, err
	}

	b.breaker.RecordSuccess()
	return result, nil
}

// GetModel implements LLMClient.
func (b *BreakerClient) GetModel() string {
	return b.inner.GetModel()
}

// GetEndpoint implements LLMClient.
func (b *BreakerClient) GetEndpoint() string {
	return b.inner.GetEndpoint()
}
