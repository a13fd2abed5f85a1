package cache

import (
	"fmt"
	"time"

	"github.com/shipflow/gateway/internal/cache/redisstore"
)

// Provider selects which Backend implementation NewBackend constructs.
type Provider string

const (
	ProviderMemory Provider = "memory"
	ProviderRemote Provider = "remote"
)

// FactoryConfig is the subset of gateway configuration the factory needs;
// it mirrors the CACHE_* environment variables.
type FactoryConfig struct {
	Provider   Provider
	MaxEntries int // memory backend only
	RedisAddr  string
	RedisPass  string
	RedisDB    int
	Namespace  string
}

// NewBackend constructs the Backend named by cfg.Provider. CACHE_PROVIDER
// defaults to memory when unset, matching DefaultFactoryConfig.
func NewBackend(cfg FactoryConfig) (Backend, error) {
	switch cfg.Provider {
	case "", ProviderMemory:
		return NewMemoryBackend(MemoryConfig{
			MaxEntries:      cfg.MaxEntries,
			CleanupInterval: time.Minute,
		}), nil
	case ProviderRemote:
		return redisstore.New(redisstore.Config{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPass,
			DB:        cfg.RedisDB,
			Namespace: cfg.Namespace,
		}), nil
	default:
		return nil, fmt.Errorf("cache: unknown provider %q", cfg.Provider)
	}
}

// DefaultFactoryConfig returns the gateway's default cache configuration:
// an in-process LRU+TTL backend.
func DefaultFactoryConfig() FactoryConfig {
	return FactoryConfig{
		Provider:   ProviderMemory,
		MaxEntries: 10_000,
		Namespace:  "shipgw",
	}
}
