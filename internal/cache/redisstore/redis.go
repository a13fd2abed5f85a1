// Package redisstore provides a distributed cache.Backend implementation
// backed by Redis, used when CACHE_PROVIDER=remote so rate quotes and
// health state are shared across gateway replicas.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/shipflow/gateway/internal/cache/cachetypes"
)

// Config holds connection settings for the Redis backend.
type Config struct {
	Addr         string
	Password     string
	DB           int
	Namespace    string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
}

// DefaultConfig returns sensible defaults for a single-node Redis deployment.
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		Namespace:    "shipgw",
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
	}
}

// Backend implements cachetypes.Backend against a Redis server. Any
// goredis.UniversalClient works, so tests can point it at miniredis.
//
// Connection loss degrades rather than fails: Get reports found=false
// together with an error, Set and Delete report errors, all of which the
// caller is expected to swallow, and HealthCheck reports false until the
// server is reachable again.
type Backend struct {
	client    goredis.UniversalClient
	namespace string

	hits      atomic.Int64
	misses    atomic.Int64
	sets      atomic.Int64
	deletes   atomic.Int64
	evictions atomic.Int64
}

var _ cachetypes.Backend = (*Backend)(nil)

// New constructs a Backend from cfg, filling zero fields from
// DefaultConfig. It does not require the server to be reachable: an
// unreachable host means every operation degrades until connectivity
// returns, and the caller keeps serving from the upstream directly.
func New(cfg Config) *Backend {
	defaults := DefaultConfig()
	if cfg.Addr == "" {
		cfg.Addr = defaults.Addr
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaults.DialTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaults.ReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = defaults.PoolSize
	}
	if cfg.MinIdleConns <= 0 {
		cfg.MinIdleConns = defaults.MinIdleConns
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaults.MaxRetries
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
	})

	return NewWithClient(client, cfg.Namespace)
}

// NewWithClient wraps an already-constructed client, used by tests to point
// at miniredis without dialing a real network address.
func NewWithClient(client goredis.UniversalClient, namespace string) *Backend {
	return &Backend{client: client, namespace: namespace}
}

func (b *Backend) prefixKey(key string) string {
	if b.namespace == "" {
		return key
	}
	return b.namespace + ":" + key
}

func (b *Backend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := b.client.Get(ctx, b.prefixKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			b.misses.Add(1)
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redisstore: get: %w", err)
	}
	b.hits.Add(1)
	return val, true, nil
}

// Set stores value under key. opts.TTL of zero means the entry never
// expires, which Redis's own SET honors natively when given a zero
// expiration; there is no backend-level fallback TTL applied here.
// opts.Namespace is folded into the key before the backend prefix, so a
// later Get("namespace:key") finds the entry.
func (b *Backend) Set(ctx context.Context, key string, value []byte, opts cachetypes.SetOptions) error {
	if opts.Namespace != "" {
		key = opts.Namespace + ":" + key
	}
	prefixed := b.prefixKey(key)
	if err := b.client.Set(ctx, prefixed, value, opts.TTL).Err(); err != nil {
		return fmt.Errorf("redisstore: set: %w", err)
	}
	b.sets.Add(1)
	return nil
}

func (b *Backend) Delete(ctx context.Context, key string) (bool, error) {
	n, err := b.client.Del(ctx, b.prefixKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redisstore: del: %w", err)
	}
	if n > 0 {
		b.deletes.Add(1)
	}
	return n > 0, nil
}

func (b *Backend) Has(ctx context.Context, key string) (bool, error) {
	n, err := b.client.Exists(ctx, b.prefixKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redisstore: exists: %w", err)
	}
	return n > 0, nil
}

func (b *Backend) Clear(ctx context.Context) error {
	keys, err := b.Keys(ctx, "*")
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = b.prefixKey(k)
	}
	if err := b.client.Del(ctx, prefixed...).Err(); err != nil {
		return fmt.Errorf("redisstore: clear: %w", err)
	}
	return nil
}

// Keys scans the namespace for keys matching pattern using SCAN rather than
// KEYS, so a large keyspace doesn't block the server.
func (b *Backend) Keys(ctx context.Context, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*"
	}
	scanPattern := b.prefixKey(pattern)

	var keys []string
	var cursor uint64
	for {
		batch, next, err := b.client.Scan(ctx, cursor, scanPattern, 200).Result()
		if err != nil {
			return nil, fmt.Errorf("redisstore: scan: %w", err)
		}
		for _, k := range batch {
			keys = append(keys, b.stripNamespace(k))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}

func (b *Backend) stripNamespace(key string) string {
	if b.namespace == "" {
		return key
	}
	prefix := b.namespace + ":"
	if len(key) > len(prefix) && key[:len(prefix)] == prefix {
		return key[len(prefix):]
	}
	return key
}

// Cleanup is a no-op: Redis expires keys natively via TTL, so there is
// nothing for the gateway to sweep itself.
func (b *Backend) Cleanup(ctx context.Context) error { return nil }

func (b *Backend) Stats() cachetypes.Stats {
	return cachetypes.Stats{
		Hits:      b.hits.Load(),
		Misses:    b.misses.Load(),
		Sets:      b.sets.Load(),
		Deletes:   b.deletes.Load(),
		Evictions: b.evictions.Load(),
	}
}

func (b *Backend) HealthCheck(ctx context.Context) bool {
	return b.client.Ping(ctx).Err() == nil
}

func (b *Backend) Close() error {
	return b.client.Close()
}
