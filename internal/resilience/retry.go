package resilience

import (
	"context"
	"math"
	"time"

	"github.com/shipflow/gateway/internal/metrics"
	"github.com/shipflow/gateway/internal/obslog"
	"github.com/shipflow/gateway/pkg/gwerrors"
)

// RetryConfig controls the guarding loop around an adapter call.
type RetryConfig struct {
	MaxAttempts       int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	BackoffFactor     float64
	PerAttemptTimeout time.Duration
}

// DefaultRetryConfig returns defaults suitable for interactive quote
// traffic; production deployments override these from configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		BaseDelay:         200 * time.Millisecond,
		MaxDelay:          5 * time.Second,
		BackoffFactor:     2,
		PerAttemptTimeout: 10 * time.Second,
	}
}

// Executor runs an operation inside the retry/circuit-breaker guarding
// loop described for the gateway's adapter pipeline. One Executor is built
// per adapter call site and wraps that adapter's own CircuitBreaker.
type Executor struct {
	cfg     RetryConfig
	breaker *CircuitBreaker
	logger  *obslog.Logger
}

// NewExecutor constructs an Executor bound to breaker.
func NewExecutor(cfg RetryConfig, breaker *CircuitBreaker, logger *obslog.Logger) *Executor {
	if logger == nil {
		logger = obslog.Nop()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BackoffFactor <= 0 {
		cfg.BackoffFactor = 2
	}
	return &Executor{cfg: cfg, breaker: breaker, logger: logger}
}

// Operation is the unit of work the executor retries. It must return a
// *gwerrors.Error on failure so retryability can be read off the error
// without re-classifying plain error values.
type Operation func(ctx context.Context) ([]byte, *gwerrors.Error)

// BreakerSnapshot exposes the executor's bound circuit breaker state for
// observability callers that only hold an Executor, not the breaker
// itself.
func (e *Executor) BreakerSnapshot() CircuitSnapshot {
	return e.breaker.Snapshot()
}

// Run executes op under the retry/circuit-breaker loop, honoring ctx's
// ambient deadline and per-attempt timeouts.
func (e *Executor) Run(ctx context.Context, provider, operation, correlationID string, op Operation) ([]byte, *gwerrors.Error) {
	var lastErr *gwerrors.Error

	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		metrics.RetryAttempts.WithLabelValues(provider, operation).Inc()

		if ctx.Err() != nil {
			return nil, gwerrors.NewTimeout(provider, operation, correlationID, 0)
		}

		allowed, breakerErr := e.breaker.Allow(correlationID)
		if !allowed {
			breakerErr.Operation = operation
			return nil, breakerErr
		}

		result, opErr := e.runOnce(ctx, provider, operation, correlationID, op)

		if opErr == nil {
			e.breaker.OnSuccess()
			return result, nil
		}

		lastErr = opErr

		if !opErr.Retryable() {
			e.breaker.OnFailure()
			return nil, opErr
		}

		if attempt == e.cfg.MaxAttempts {
			e.breaker.OnFailure()
			metrics.RetryExhausted.WithLabelValues(provider, operation).Inc()
			return nil, opErr
		}

		e.breaker.OnFailure()

		delay := e.backoffDelay(attempt)
		e.logger.WithCorrelation(correlationID).Warn("retrying after failure",
			"provider", provider, "operation", operation, "attempt", attempt, "delay_ms", delay.Milliseconds())

		select {
		case <-ctx.Done():
			return nil, gwerrors.NewTimeout(provider, operation, correlationID, 0)
		case <-time.After(delay):
		}
	}

	return nil, lastErr
}

// runOnce races op against the per-attempt timeout.
func (e *Executor) runOnce(ctx context.Context, provider, operation, correlationID string, op Operation) ([]byte, *gwerrors.Error) {
	attemptCtx := ctx
	var cancel context.CancelFunc
	if e.cfg.PerAttemptTimeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, e.cfg.PerAttemptTimeout)
		defer cancel()
	}

	type outcome struct {
		result []byte
		err    *gwerrors.Error
	}
	done := make(chan outcome, 1)

	go func() {
		result, err := op(attemptCtx)
		done <- outcome{result: result, err: err}
	}()

	select {
	case out := <-done:
		return out.result, out.err
	case <-attemptCtx.Done():
		return nil, gwerrors.NewTimeout(provider, operation, correlationID, e.cfg.PerAttemptTimeout.Milliseconds())
	}
}

func (e *Executor) backoffDelay(attempt int) time.Duration {
	delay := float64(e.cfg.BaseDelay) * math.Pow(e.cfg.BackoffFactor, float64(attempt-1))
	if e.cfg.MaxDelay > 0 && delay > float64(e.cfg.MaxDelay) {
		delay = float64(e.cfg.MaxDelay)
	}
	return time.Duration(delay)
}
