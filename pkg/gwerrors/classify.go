package gwerrors

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
)

// UpstreamFailure describes a raw failure from an adapter's upstream call,
// the input to Classify. Adapters populate whichever fields they observed;
// HTTPStatus is 0 when the failure never reached the wire (connection
// reset, DNS, TLS handshake, context deadline).
type UpstreamFailure struct {
	Cause         error
	HTTPStatus    int
	RetryAfterHdr string // raw Retry-After header value, if any
	Message       string // response body / error text, for keyword matching
	DeadlineHit   bool
	PerAttemptMs  int64
}

// Classify turns a raw upstream failure into the error taxonomy. Rules
// apply in order: pass through already-classified errors, then the
// timeout, status-code, network, and keyword rules.
func Classify(provider, operation, correlationID string, f UpstreamFailure) *Error {
	if e, ok := As(f.Cause); ok {
		return e
	}

	if f.DeadlineHit || errors.Is(f.Cause, context.DeadlineExceeded) {
		return NewTimeout(provider, operation, correlationID, f.PerAttemptMs)
	}

	if f.HTTPStatus > 0 {
		return classifyStatus(provider, operation, correlationID, f)
	}

	if isNetworkFailure(f.Cause) {
		return NewNetwork(provider, operation, correlationID, 0, f.Cause)
	}

	msg := strings.ToLower(f.Message)
	if msg == "" && f.Cause != nil {
		msg = strings.ToLower(f.Cause.Error())
	}
	switch {
	case strings.Contains(msg, "quota"), strings.Contains(msg, "limit exceeded"):
		return NewQuota(provider, operation, correlationID, 0, 0)
	case strings.Contains(msg, "service unavailable"), strings.Contains(msg, "maintenance"):
		return NewServiceUnavailable(provider, operation, correlationID, 0)
	}

	e := NewNetwork(provider, operation, correlationID, 0, f.Cause)
	return e
}

func classifyStatus(provider, operation, correlationID string, f UpstreamFailure) *Error {
	switch {
	case f.HTTPStatus >= 500:
		return NewNetwork(provider, operation, correlationID, f.HTTPStatus, f.Cause)
	case f.HTTPStatus == http.StatusTooManyRequests:
		return NewRateLimit(provider, operation, correlationID, retryAfterMs(f.RetryAfterHdr))
	case f.HTTPStatus == http.StatusUnauthorized, f.HTTPStatus == http.StatusForbidden:
		return NewAuthentication(provider, operation, correlationID)
	case f.HTTPStatus >= 400:
		e := New(KindNetwork, provider, operation, correlationID, f.Cause)
		e.HTTPStatus = f.HTTPStatus
		e.ForceNonRetryable = true // other 4xx: client error, not worth retrying
		return e
	default:
		return NewNetwork(provider, operation, correlationID, f.HTTPStatus, f.Cause)
	}
}

// retryAfterMs converts a Retry-After header (seconds, per HTTP spec) to
// milliseconds. Returns 0 if absent or unparsable.
func retryAfterMs(header string) int64 {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	seconds, err := strconv.ParseInt(header, 10, 64)
	if err != nil {
		return 0
	}
	return seconds * 1000
}

func isNetworkFailure(err error) bool {
	if err == nil {
		return false
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, needle := range []string{"connection reset", "connection refused", "no such host", "dns", "tls handshake", "eof", "broken pipe"} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}
