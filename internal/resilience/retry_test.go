package resilience

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipflow/gateway/pkg/gwerrors"
)

func newTestExecutor(cfg RetryConfig) *Executor {
	breaker := NewCircuitBreaker("test-provider", CircuitBreakerConfig{
		FailureThreshold: 100, RecoveryTimeout: time.Hour, HalfOpenMaxCalls: 1,
	}, nil)
	return NewExecutor(cfg, breaker, nil)
}

func TestExecutor_SucceedsFirstAttempt(t *testing.T) {
	e := newTestExecutor(RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, PerAttemptTimeout: time.Second})

	var calls int32
	result, err := e.Run(context.Background(), "A", "quote", "corr-1", func(ctx context.Context) ([]byte, *gwerrors.Error) {
		atomic.AddInt32(&calls, 1)
		return []byte("ok"), nil
	})

	require.Nil(t, err)
	assert.Equal(t, []byte("ok"), result)
	assert.Equal(t, int32(1), calls)
}

func TestExecutor_RetriesRetryableFailure(t *testing.T) {
	e := newTestExecutor(RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond, BackoffFactor: 2, PerAttemptTimeout: time.Second})

	var calls int32
	result, err := e.Run(context.Background(), "A", "quote", "corr-1", func(ctx context.Context) ([]byte, *gwerrors.Error) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			return nil, gwerrors.NewNetwork("A", "quote", "corr-1", 502, nil)
		}
		return []byte("ok"), nil
	})

	require.Nil(t, err)
	assert.Equal(t, []byte("ok"), result)
	assert.Equal(t, int32(3), calls)
}

func TestExecutor_StopsImmediatelyOnNonRetryable(t *testing.T) {
	e := newTestExecutor(RetryConfig{MaxAttempts: 5, BaseDelay: time.Millisecond, PerAttemptTimeout: time.Second})

	var calls int32
	_, err := e.Run(context.Background(), "A", "quote", "corr-1", func(ctx context.Context) ([]byte, *gwerrors.Error) {
		atomic.AddInt32(&calls, 1)
		return nil, gwerrors.NewValidation("A", "quote", "corr-1", "weight", "")
	})

	require.NotNil(t, err)
	assert.Equal(t, gwerrors.KindValidation, err.Kind)
	assert.Equal(t, int32(1), calls, "a non-retryable error must not be retried")
}

func TestExecutor_ExhaustsMaxAttempts(t *testing.T) {
	e := newTestExecutor(RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond, PerAttemptTimeout: time.Second})

	var calls int32
	_, err := e.Run(context.Background(), "A", "quote", "corr-1", func(ctx context.Context) ([]byte, *gwerrors.Error) {
		atomic.AddInt32(&calls, 1)
		return nil, gwerrors.NewNetwork("A", "quote", "corr-1", 502, nil)
	})

	require.NotNil(t, err)
	assert.Equal(t, int32(2), calls)
}

func TestExecutor_PerAttemptTimeout(t *testing.T) {
	e := newTestExecutor(RetryConfig{MaxAttempts: 1, BaseDelay: time.Millisecond, PerAttemptTimeout: 5 * time.Millisecond})

	_, err := e.Run(context.Background(), "A", "quote", "corr-1", func(ctx context.Context) ([]byte, *gwerrors.Error) {
		select {
		case <-ctx.Done():
		case <-time.After(50 * time.Millisecond):
		}
		return []byte("late"), nil
	})

	require.NotNil(t, err)
	assert.Equal(t, gwerrors.KindTimeout, err.Kind)
	assert.Equal(t, "corr-1", err.CorrelationID)
}

func TestExecutor_CircuitOpenStopsImmediately(t *testing.T) {
	breaker := NewCircuitBreaker("A", CircuitBreakerConfig{FailureThreshold: 1, RecoveryTimeout: time.Hour, HalfOpenMaxCalls: 1}, nil)
	e := NewExecutor(RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, PerAttemptTimeout: time.Second}, breaker, nil)

	breaker.Allow("warm-up")
	breaker.OnFailure() // trips the breaker

	var calls int32
	_, err := e.Run(context.Background(), "A", "quote", "corr-2", func(ctx context.Context) ([]byte, *gwerrors.Error) {
		atomic.AddInt32(&calls, 1)
		return []byte("ok"), nil
	})

	require.NotNil(t, err)
	assert.Equal(t, gwerrors.KindCircuitOpen, err.Kind)
	assert.Equal(t, int32(0), calls, "operation must never be invoked while the circuit is open")
}

func TestExecutor_CancelledContext_NoSleep(t *testing.T) {
	e := newTestExecutor(RetryConfig{MaxAttempts: 3, BaseDelay: time.Hour, PerAttemptTimeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err := e.Run(ctx, "A", "quote", "corr-3", func(ctx context.Context) ([]byte, *gwerrors.Error) {
		return []byte("ok"), nil
	})
	elapsed := time.Since(start)

	require.NotNil(t, err)
	assert.Equal(t, gwerrors.KindTimeout, err.Kind)
	assert.Less(t, elapsed, 500*time.Millisecond, "a dead ambient deadline must not be slept across")
}
