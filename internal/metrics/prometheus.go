// Package metrics provides Prometheus instrumentation for the shipping
// gateway: cache effectiveness, circuit breaker state, retry behavior, and
// per-operation latency, labeled by provider so each carrier's health is
// visible independently.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shipgw"

// LatencyBuckets covers the range a retry-guarded upstream quote or
// purchase call can realistically take, from a fast single attempt to an
// exhausted retry budget. Cache hits return before any latency is
// observed.
var LatencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5,
	1.0, 2.0, 3.0, 5.0, 8.0, 13.0, 21.0, 34.0,
}

var (
	// CacheHits counts cache lookups that found a live entry, labeled by
	// the key kind (rate, health, purchase).
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total cache lookups that found a live entry",
		},
		[]string{"key_kind"},
	)

	// CacheMisses counts cache lookups that found nothing, including
	// lazily-expired entries.
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total cache lookups that found no live entry",
		},
		[]string{"key_kind"},
	)

	// CircuitState reports each provider's breaker state as a gauge: 0
	// CLOSED, 1 OPEN, 2 HALF_OPEN.
	CircuitState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_state",
			Help:      "Current circuit breaker state per provider (0=closed, 1=open, 2=half-open)",
		},
		[]string{"provider"},
	)

	// CircuitTransitions counts every state transition a breaker makes.
	CircuitTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "circuit_transitions_total",
			Help:      "Total circuit breaker state transitions",
		},
		[]string{"provider", "from", "to"},
	)

	// RetryAttempts counts every attempt the retry executor makes,
	// including the first.
	RetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retry_attempts_total",
			Help:      "Total attempts made by the retry executor",
		},
		[]string{"provider", "operation"},
	)

	// RetryExhausted counts calls that failed on every attempt.
	RetryExhausted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retry_exhausted_total",
			Help:      "Total calls that failed after exhausting all retry attempts",
		},
		[]string{"provider", "operation"},
	)

	// OperationLatency tracks end-to-end adapter call latency, including
	// any retries.
	OperationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_latency_seconds",
			Help:      "Adapter operation latency in seconds, end-to-end including retries",
			Buckets:   LatencyBuckets,
		},
		[]string{"provider", "operation"},
	)

	// OperationErrors counts failed operations labeled by the error kind
	// from the taxonomy, so a dashboard can distinguish a rate-limited
	// carrier from an outright outage.
	OperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Total adapter operation failures by error kind",
		},
		[]string{"provider", "operation", "kind"},
	)

	// ProviderHealth reports each provider's last known health as a
	// gauge: 1 healthy, 0 unhealthy.
	ProviderHealth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "provider_health",
			Help:      "Last observed provider health (1=healthy, 0=unhealthy)",
		},
		[]string{"provider"},
	)
)
