// Package cache provides the pluggable response cache used by every
// provider adapter: an in-process LRU+TTL backend and a distributed
// Redis-backed backend behind one interface, namespaced keys, and a
// stats snapshot for observability.
package cache

import (
	"github.com/shipflow/gateway/internal/cache/cachetypes"
)

// Stats is a point-in-time snapshot of cache counters. The counters never
// decrease, except that the in-process backend's Clear resets them to
// zero; the Redis backend's Clear leaves them unchanged.
type Stats = cachetypes.Stats

// SetOptions controls how Set stores an entry.
type SetOptions = cachetypes.SetOptions

// Backend is the uniform contract every cache implementation satisfies.
// Get returning found=false covers both a true miss and an expired entry.
// The in-process backend removes an expired entry it finds on Get and
// counts it as an eviction; the Redis backend leaves expiry to Redis,
// reports such a lookup as a plain miss, and never counts evictions.
type Backend = cachetypes.Backend
