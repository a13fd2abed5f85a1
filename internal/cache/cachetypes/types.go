// Package cachetypes holds the Backend contract and its supporting value
// types in a location both the cache package and its backend
// implementations (e.g. redisstore) can import without a cycle.
package cachetypes

import (
	"context"
	"time"
)

// Stats is a point-in-time snapshot of cache counters. The counters never
// decrease, except that the in-process backend's Clear resets them to
// zero; the Redis backend's Clear leaves them unchanged.
type Stats struct {
	Hits            int64 `json:"hits"`
	Misses          int64 `json:"misses"`
	Sets            int64 `json:"sets"`
	Deletes         int64 `json:"deletes"`
	Evictions       int64 `json:"evictions"`
	ApproximateSize int64 `json:"approximate_size"`
}

// SetOptions controls how Set stores an entry.
type SetOptions struct {
	// TTL of zero means "no expiration".
	TTL time.Duration
	// Namespace, if non-empty, is prepended to the key as "namespace:key".
	Namespace string
}

// Backend is the uniform contract every cache implementation satisfies.
// Get returning found=false covers both a true miss and an expired entry.
// The in-process backend removes an expired entry it finds on Get and
// counts it as an eviction; the Redis backend leaves expiry to Redis,
// reports such a lookup as a plain miss, and never counts evictions.
type Backend interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, opts SetOptions) error
	Delete(ctx context.Context, key string) (removed bool, err error)
	Has(ctx context.Context, key string) (bool, error)
	Clear(ctx context.Context) error
	// Keys returns every live key matching pattern, where "*" matches any
	// run of characters. An empty pattern matches everything.
	Keys(ctx context.Context, pattern string) ([]string, error)
	// Cleanup scans for and removes expired entries; safe to call from a
	// periodic task. Eviction-on-read is the authoritative expiration
	// mechanism, so Cleanup's cadence never affects correctness.
	Cleanup(ctx context.Context) error
	Stats() Stats
	HealthCheck(ctx context.Context) bool
	Close() error
}
