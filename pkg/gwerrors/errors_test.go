package gwerrors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCorrelationID_Unique(t *testing.T) {
	a := NewCorrelationID()
	b := NewCorrelationID()
	assert.NotEqual(t, a, b)
}

func TestError_PropagatesCallerCorrelationID(t *testing.T) {
	e := NewTimeout("A", "Quote", "req-42", 1500)
	assert.Equal(t, "req-42", e.CorrelationID)
}

func TestError_GeneratesCorrelationIDWhenAbsent(t *testing.T) {
	e := NewTimeout("A", "Quote", "", 1500)
	assert.NotEmpty(t, e.CorrelationID)
}

func TestRetryable_ByKind(t *testing.T) {
	cases := []struct {
		kind      Kind
		retryable bool
	}{
		{KindNetwork, true},
		{KindTimeout, true},
		{KindRateLimit, true},
		{KindServiceUnavailable, true},
		{KindAuthentication, false},
		{KindValidation, false},
		{KindConfiguration, false},
		{KindCircuitOpen, false},
		{KindQuota, false},
	}
	for _, tc := range cases {
		e := New(tc.kind, "A", "Quote", "c1", nil)
		assert.Equal(t, tc.retryable, e.Retryable(), tc.kind)
	}
}

func TestClassify_AlreadyClassified_PassesThrough(t *testing.T) {
	original := NewAuthentication("A", "Quote", "c1")
	got := Classify("A", "Quote", "c1", UpstreamFailure{Cause: original})
	assert.Same(t, original, got)
}

func TestClassify_DeadlineHit(t *testing.T) {
	got := Classify("A", "Quote", "c1", UpstreamFailure{DeadlineHit: true, PerAttemptMs: 5000})
	require.Equal(t, KindTimeout, got.Kind)
	assert.True(t, got.Retryable())
}

func TestClassify_5xx_Retryable(t *testing.T) {
	got := Classify("A", "Quote", "c1", UpstreamFailure{HTTPStatus: 502})
	require.Equal(t, KindNetwork, got.Kind)
	assert.True(t, got.Retryable())
}

func TestClassify_429_RateLimit_WithRetryAfter(t *testing.T) {
	got := Classify("A", "Quote", "c1", UpstreamFailure{HTTPStatus: http.StatusTooManyRequests, RetryAfterHdr: "2"})
	require.Equal(t, KindRateLimit, got.Kind)
	assert.Equal(t, int64(2000), got.RetryAfterMs)
	assert.True(t, got.Retryable())
}

func TestClassify_401_Authentication_NonRetryable(t *testing.T) {
	got := Classify("A", "Quote", "c1", UpstreamFailure{HTTPStatus: http.StatusUnauthorized})
	require.Equal(t, KindAuthentication, got.Kind)
	assert.False(t, got.Retryable())
}

func TestClassify_Other4xx_NonRetryable(t *testing.T) {
	got := Classify("A", "Quote", "c1", UpstreamFailure{HTTPStatus: http.StatusBadRequest})
	require.Equal(t, KindNetwork, got.Kind)
	assert.False(t, got.Retryable())
}

func TestClassify_QuotaKeyword(t *testing.T) {
	got := Classify("A", "Quote", "c1", UpstreamFailure{Message: "monthly quota exceeded"})
	require.Equal(t, KindQuota, got.Kind)
	assert.False(t, got.Retryable())
}

func TestClassify_ServiceUnavailableKeyword(t *testing.T) {
	got := Classify("A", "Quote", "c1", UpstreamFailure{Message: "down for maintenance"})
	require.Equal(t, KindServiceUnavailable, got.Kind)
	assert.True(t, got.Retryable())
}

func TestClassify_NetworkFallback(t *testing.T) {
	got := Classify("A", "Quote", "c1", UpstreamFailure{Cause: errors.New("connection reset by peer")})
	require.Equal(t, KindNetwork, got.Kind)
	assert.True(t, got.Retryable())
}

func TestClassify_UnknownFallsBackToRetryableNetwork(t *testing.T) {
	got := Classify("A", "Quote", "c1", UpstreamFailure{Cause: errors.New("something weird happened")})
	require.Equal(t, KindNetwork, got.Kind)
	assert.True(t, got.Retryable())
}
