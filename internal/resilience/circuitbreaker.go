// Package resilience implements the failure-isolation primitives shared by
// every provider adapter: a per-provider circuit breaker, a sliding-window
// rate limiter, a token-bucket primitive, and a retry executor that runs
// each call through one circuit breaker. The rate limiter and token
// bucket are standalone; the executor does not consult them.
package resilience

import (
	"sync"
	"time"

	"github.com/shipflow/gateway/internal/metrics"
	"github.com/shipflow/gateway/internal/obslog"
	"github.com/shipflow/gateway/pkg/gwerrors"
)

// CircuitState is one of the three states a CircuitBreaker can be in.
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// CircuitBreakerConfig controls trip and recovery timing.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that trips
	// the breaker from CLOSED to OPEN.
	FailureThreshold int
	// RecoveryTimeout is how long the breaker stays OPEN before admitting
	// a HALF_OPEN probe.
	RecoveryTimeout time.Duration
	// HalfOpenMaxCalls is both the number of concurrent probes admitted
	// in HALF_OPEN and the number of consecutive successes required to
	// close the circuit again.
	HalfOpenMaxCalls int
}

// DefaultCircuitBreakerConfig returns defaults suitable for most
// upstreams; production deployments override these from configuration.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
		HalfOpenMaxCalls: 1,
	}
}

// CircuitSnapshot is a point-in-time, read-only view of breaker state for
// observability; it carries no behavior.
type CircuitSnapshot struct {
	Provider            string
	State               CircuitState
	ConsecutiveFailures int
	LastFailureAt       time.Time
	HalfOpenProbeCount  int
}

// CircuitBreaker is a per-adapter failure-isolation state machine. One
// instance is owned by exactly one adapter and never shared.
type CircuitBreaker struct {
	mu sync.Mutex

	provider string
	cfg      CircuitBreakerConfig
	logger   *obslog.Logger

	state               CircuitState
	consecutiveFailures int
	lastFailureAt       time.Time
	halfOpenProbeCount  int
	halfOpenSuccesses   int
}

// NewCircuitBreaker constructs a breaker in the CLOSED state for provider.
// A nil logger falls back to a logger that discards everything.
func NewCircuitBreaker(provider string, cfg CircuitBreakerConfig, logger *obslog.Logger) *CircuitBreaker {
	if logger == nil {
		logger = obslog.Nop()
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = 30 * time.Second
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = 1
	}
	return &CircuitBreaker{
		provider: provider,
		cfg:      cfg,
		logger:   logger,
		state:    StateClosed,
	}
}

// Allow decides whether a call may proceed. When it refuses, it returns a
// CircuitOpen error ready to be raised to the caller.
func (cb *CircuitBreaker) Allow(correlationID string) (bool, *gwerrors.Error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true, nil

	case StateOpen:
		if time.Since(cb.lastFailureAt) >= cb.cfg.RecoveryTimeout {
			cb.transitionLocked(StateHalfOpen, "recovery timeout elapsed")
			cb.halfOpenProbeCount = 1
			cb.halfOpenSuccesses = 0
			return true, nil
		}
		return false, gwerrors.NewCircuitOpen(cb.provider, "", correlationID, cb.state.String())

	case StateHalfOpen:
		if cb.halfOpenProbeCount < cb.cfg.HalfOpenMaxCalls {
			cb.halfOpenProbeCount++
			return true, nil
		}
		return false, gwerrors.NewCircuitOpen(cb.provider, "", correlationID, cb.state.String())

	default:
		return false, gwerrors.NewCircuitOpen(cb.provider, "", correlationID, cb.state.String())
	}
}

// OnSuccess records a successful call.
func (cb *CircuitBreaker) OnSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.consecutiveFailures = 0

	case StateHalfOpen:
		cb.halfOpenSuccesses++
		if cb.halfOpenSuccesses >= cb.cfg.HalfOpenMaxCalls {
			cb.transitionLocked(StateClosed, "half-open probes succeeded")
			cb.consecutiveFailures = 0
			cb.halfOpenProbeCount = 0
			cb.halfOpenSuccesses = 0
		}
	}
}

// OnFailure records a failed call.
func (cb *CircuitBreaker) OnFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastFailureAt = time.Now()

	switch cb.state {
	case StateClosed:
		cb.consecutiveFailures++
		if cb.consecutiveFailures >= cb.cfg.FailureThreshold {
			cb.transitionLocked(StateOpen, "consecutive failure threshold reached")
		}

	case StateHalfOpen:
		cb.transitionLocked(StateOpen, "probe failed")
		cb.halfOpenProbeCount = 0
		cb.halfOpenSuccesses = 0
	}
}

// Snapshot returns the breaker's current state for observability.
func (cb *CircuitBreaker) Snapshot() CircuitSnapshot {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return CircuitSnapshot{
		Provider:            cb.provider,
		State:               cb.state,
		ConsecutiveFailures: cb.consecutiveFailures,
		LastFailureAt:       cb.lastFailureAt,
		HalfOpenProbeCount:  cb.halfOpenProbeCount,
	}
}

// Reset forces the breaker back to CLOSED with zeroed counters. Intended
// for tests and operator intervention only; normal flow never calls it.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.transitionLocked(StateClosed, "manual reset")
	cb.consecutiveFailures = 0
	cb.halfOpenProbeCount = 0
	cb.halfOpenSuccesses = 0
}

// transitionLocked must be called with mu held.
func (cb *CircuitBreaker) transitionLocked(to CircuitState, cause string) {
	if cb.state == to {
		return
	}
	from := cb.state
	cb.state = to
	cb.logger.Info("circuit breaker state transition",
		"provider", cb.provider, "from", from.String(), "to", to.String(), "cause", cause)

	metrics.CircuitState.WithLabelValues(cb.provider).Set(float64(to))
	metrics.CircuitTransitions.WithLabelValues(cb.provider, from.String(), to.String()).Inc()
}
