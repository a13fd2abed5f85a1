// Package gwerrors defines the structured error taxonomy shared across the
// provider registry, adapters, and resilience pipeline. Every error the
// core surfaces is one of the Kind variants below, carrying a correlation
// id and a retryability predicate the retry executor switches on directly
// instead of parsing error messages.
package gwerrors

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Kind tags the classified error variants from the taxonomy.
type Kind string

const (
	KindNetwork            Kind = "network"
	KindTimeout            Kind = "timeout"
	KindRateLimit          Kind = "rate_limit"
	KindAuthentication     Kind = "authentication"
	KindCircuitOpen        Kind = "circuit_open"
	KindValidation         Kind = "validation"
	KindConfiguration      Kind = "configuration"
	KindCache              Kind = "cache"
	KindQuota              Kind = "quota"
	KindServiceUnavailable Kind = "service_unavailable"
)

// nonRetryableKinds are never retried by the executor regardless of attempt
// count: authentication, validation, and configuration failures won't heal
// by themselves, and a circuit-open refusal means the call never reached
// the upstream at all.
var nonRetryableKinds = map[Kind]bool{
	KindAuthentication: true,
	KindValidation:     true,
	KindConfiguration:  true,
	KindCircuitOpen:    true,
	KindQuota:          true,
}

// Error is the standardized error returned by every core operation.
type Error struct {
	Kind          Kind
	Provider      string
	Operation     string
	CorrelationID string
	Timestamp     time.Time
	Cause         error

	// Kind-specific payload fields; only the ones relevant to Kind are set.
	HTTPStatus   int
	RetryAfterMs int64
	DurationMs   int64
	Field        string
	Value        string
	Limit        int64
	Current      int64
	CacheOp      string
	CacheKey     string
	CircuitState string

	// ForceNonRetryable marks a Network error as non-retryable: used for
	// 4xx statuses other than 429/401/403, which are client errors the
	// retry executor must not retry even though the Kind is Network.
	ForceNonRetryable bool
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s op=%s provider=%s corr=%s: %v", e.Kind, e.message(), e.Operation, e.Provider, e.CorrelationID, e.Cause)
	}
	return fmt.Sprintf("[%s] %s op=%s provider=%s corr=%s", e.Kind, e.message(), e.Operation, e.Provider, e.CorrelationID)
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) message() string {
	switch e.Kind {
	case KindNetwork:
		return "network failure"
	case KindTimeout:
		return fmt.Sprintf("timed out after %dms", e.DurationMs)
	case KindRateLimit:
		return "rate limited upstream"
	case KindAuthentication:
		return "authentication failed"
	case KindCircuitOpen:
		return fmt.Sprintf("circuit %s, request not attempted", e.CircuitState)
	case KindValidation:
		return fmt.Sprintf("invalid field %q", e.Field)
	case KindConfiguration:
		return "misconfigured"
	case KindCache:
		return fmt.Sprintf("cache op %q failed", e.CacheOp)
	case KindQuota:
		return "quota exceeded"
	case KindServiceUnavailable:
		return "service unavailable"
	default:
		return "error"
	}
}

// Retryable reports whether the retry executor should attempt another call.
func (e *Error) Retryable() bool {
	if e.ForceNonRetryable {
		return false
	}
	return !nonRetryableKinds[e.Kind]
}

// HTTPStatusCode maps the error kind to a status code for the (out of
// scope) HTTP collaborator to use when translating errors to responses.
func (e *Error) HTTPStatusCode() int {
	if e.HTTPStatus > 0 {
		return e.HTTPStatus
	}
	switch e.Kind {
	case KindAuthentication:
		return 401
	case KindRateLimit:
		return 429
	case KindTimeout:
		return 504
	case KindValidation:
		return 400
	case KindCircuitOpen, KindServiceUnavailable:
		return 503
	case KindConfiguration:
		return 500
	case KindQuota:
		return 402
	case KindCache:
		return 500
	default:
		return 502
	}
}

var corrCounter atomic.Int64

// NewCorrelationID mints a new id of the form
// corr-{timestampMs}-{counter}-{first 8 chars of a UUID} when the caller
// supplied none. The UUID suffix keeps ids unique even when multiple
// processes mint one within the same millisecond.
func NewCorrelationID() string {
	n := corrCounter.Add(1)
	return fmt.Sprintf("corr-%d-%d-%s", time.Now().UnixMilli(), n, uuid.NewString()[:8])
}

// withCorrelation fills CorrelationID and Timestamp on construction.
func withCorrelation(correlationID string) (string, time.Time) {
	if correlationID == "" {
		correlationID = NewCorrelationID()
	}
	return correlationID, time.Now()
}

func New(kind Kind, provider, operation, correlationID string, cause error) *Error {
	id, ts := withCorrelation(correlationID)
	return &Error{Kind: kind, Provider: provider, Operation: operation, CorrelationID: id, Timestamp: ts, Cause: cause}
}

func NewNetwork(provider, operation, correlationID string, httpStatus int, cause error) *Error {
	e := New(KindNetwork, provider, operation, correlationID, cause)
	e.HTTPStatus = httpStatus
	return e
}

func NewTimeout(provider, operation, correlationID string, durationMs int64) *Error {
	e := New(KindTimeout, provider, operation, correlationID, nil)
	e.DurationMs = durationMs
	return e
}

func NewRateLimit(provider, operation, correlationID string, retryAfterMs int64) *Error {
	e := New(KindRateLimit, provider, operation, correlationID, nil)
	e.RetryAfterMs = retryAfterMs
	return e
}

func NewAuthentication(provider, operation, correlationID string) *Error {
	return New(KindAuthentication, provider, operation, correlationID, nil)
}

func NewCircuitOpen(provider, operation, correlationID, state string) *Error {
	e := New(KindCircuitOpen, provider, operation, correlationID, nil)
	e.CircuitState = state
	return e
}

func NewValidation(provider, operation, correlationID, field, value string) *Error {
	e := New(KindValidation, provider, operation, correlationID, nil)
	e.Field = field
	e.Value = value
	return e
}

func NewConfiguration(provider, operation, correlationID string, cause error) *Error {
	return New(KindConfiguration, provider, operation, correlationID, cause)
}

func NewCache(provider, operation, correlationID, cacheOp, cacheKey string, cause error) *Error {
	e := New(KindCache, provider, operation, correlationID, cause)
	e.CacheOp = cacheOp
	e.CacheKey = cacheKey
	return e
}

func NewQuota(provider, operation, correlationID string, limit, current int64) *Error {
	e := New(KindQuota, provider, operation, correlationID, nil)
	e.Limit = limit
	e.Current = current
	return e
}

func NewServiceUnavailable(provider, operation, correlationID string, retryAfterMs int64) *Error {
	e := New(KindServiceUnavailable, provider, operation, correlationID, nil)
	e.RetryAfterMs = retryAfterMs
	return e
}

// As reports whether err is (or wraps) a *Error, mirroring errors.As without
// requiring callers to import the standard errors package for this one check.
func As(err error) (*Error, bool) {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}
