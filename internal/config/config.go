// Package config reads the gateway's process-start configuration from the
// environment and, optionally, overlays a small set of non-resilience
// knobs from a hot-reloaded YAML file.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shipflow/gateway/internal/cache"
)

// ProviderConfig is the per-carrier slice of configuration derived from
// PROVIDER_<NAME>_* environment variables.
type ProviderConfig struct {
	Name    string
	APIKey  string
	BaseURL string
	Enabled bool // true when APIKey is non-empty
}

// RetryConfig mirrors the PROVIDER_* retry/backoff knobs, shared by every
// adapter's executor.
type RetryConfig struct {
	RequestTimeout   time.Duration
	MaxRetries       int
	BaseDelay        time.Duration
	MaxDelay         time.Duration
	BackoffFactor    float64
	FailureThreshold int
	RecoveryTimeout  time.Duration
}

// CacheConfig mirrors the CACHE_*/REMOTE_CACHE_* knobs.
type CacheConfig struct {
	Provider        cache.Provider
	Enabled         bool
	MemoryMaxSize   int
	TTLRateQuote    time.Duration
	TTLHealthCheck  time.Duration
	TTLPurchase     time.Duration
	RemoteHost      string
	RemotePort      int
	RemotePassword  string
	RemoteDB        int
	RemoteKeyPrefix string
}

// Config is the gateway's complete process-start configuration.
type Config struct {
	Providers []ProviderConfig
	Retry     RetryConfig
	Cache     CacheConfig

	// LogLevel and Cache.Enabled are the only fields a file overlay may
	// change after start; every other field is frozen at process start.
	LogLevel string
}

// knownProviderNames lists the carriers the gateway ships adapters for;
// PROVIDER_<NAME>_API_KEY is read for each to decide whether it is enabled.
var knownProviderNames = []string{"A", "B", "C"}

// Load builds a Config by reading environment variables, applying the
// defaults named in the configuration table.
func Load() *Config {
	cfg := &Config{
		Retry: RetryConfig{
			RequestTimeout:   envDurationMs("PROVIDER_REQUEST_TIMEOUT_MS", 30_000),
			MaxRetries:       envInt("PROVIDER_MAX_RETRIES", 3),
			BaseDelay:        envDurationMs("PROVIDER_BASE_DELAY_MS", 1_000),
			MaxDelay:         envDurationMs("PROVIDER_MAX_DELAY_MS", 30_000),
			BackoffFactor:    envFloat("PROVIDER_BACKOFF_FACTOR", 2.0),
			FailureThreshold: envInt("PROVIDER_FAILURE_THRESHOLD", 5),
			RecoveryTimeout:  envDurationMs("PROVIDER_RECOVERY_TIMEOUT_MS", 60_000),
		},
		Cache: CacheConfig{
			Provider:        cache.Provider(envString("CACHE_PROVIDER", "memory")),
			Enabled:         envBool("CACHE_ENABLED", true),
			MemoryMaxSize:   envInt("CACHE_MEMORY_MAX_SIZE", 1000),
			TTLRateQuote:    envDurationMs("CACHE_TTL_RATE_QUOTE_MS", 300_000),
			TTLHealthCheck:  envDurationMs("CACHE_TTL_HEALTH_CHECK_MS", 30_000),
			TTLPurchase:     envDurationMs("CACHE_TTL_PURCHASE_MS", 3_600_000),
			RemoteHost:      envString("REMOTE_CACHE_HOST", "localhost"),
			RemotePort:      envInt("REMOTE_CACHE_PORT", 6379),
			RemotePassword:  envString("REMOTE_CACHE_PASSWORD", ""),
			RemoteDB:        envInt("REMOTE_CACHE_DB", 0),
			RemoteKeyPrefix: envString("REMOTE_CACHE_KEY_PREFIX", "shipgw"),
		},
		LogLevel: envString("LOG_LEVEL", "info"),
	}

	for _, name := range knownProviderNames {
		apiKey := envString("PROVIDER_"+name+"_API_KEY", "")
		cfg.Providers = append(cfg.Providers, ProviderConfig{
			Name:    name,
			APIKey:  apiKey,
			BaseURL: envString("PROVIDER_"+name+"_BASE_URL", ""),
			Enabled: apiKey != "",
		})
	}

	return cfg
}

// Provider returns the configuration for name, or the zero value and false
// if name is not one of the gateway's known providers.
func (c *Config) Provider(name string) (ProviderConfig, bool) {
	for _, p := range c.Providers {
		if p.Name == name {
			return p, true
		}
	}
	return ProviderConfig{}, false
}

func envString(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func envBool(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if strings.EqualFold(value, "true") || value == "1" {
		return true
	}
	if strings.EqualFold(value, "false") || value == "0" {
		return false
	}
	return defaultValue
}

func envInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func envFloat(key string, defaultValue float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func envDurationMs(key string, defaultMs int64) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return time.Duration(defaultMs) * time.Millisecond
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Duration(defaultMs) * time.Millisecond
	}
	return time.Duration(n) * time.Millisecond
}
