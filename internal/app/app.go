// Package app bundles the gateway's process-wide singletons (the cache
// backend, the provider registry, and the health checker) behind one
// explicitly constructed value: a plain struct built once at startup and
// passed by reference, so no component reaches for hidden global state.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shipflow/gateway/internal/cache"
	"github.com/shipflow/gateway/internal/config"
	"github.com/shipflow/gateway/internal/health"
	"github.com/shipflow/gateway/internal/obslog"
	"github.com/shipflow/gateway/internal/providers"
	"github.com/shipflow/gateway/internal/providers/providera"
	"github.com/shipflow/gateway/internal/providers/providerb"
	"github.com/shipflow/gateway/internal/providers/providerc"
	"github.com/shipflow/gateway/internal/resilience"
	"github.com/shipflow/gateway/pkg/shipmodel"
)

// App is the gateway core's single entry point: quote, purchase, and
// health, built over a registry of adapters sharing one cache backend.
// The (external) HTTP server is expected to hold exactly one App and
// route requests to its methods.
type App struct {
	Cache    cache.Backend
	Registry *providers.Registry
	Checker  *health.Checker
	Poller   *health.Poller
	Logger   *obslog.Logger
}

// New constructs an App from a loaded Config: builds the cache backend,
// one adapter per known provider wrapped in its own resilience pipeline,
// and the health checker layered on top. It does not start the health
// poller; call StartHealthPolling for that.
func New(cfg *config.Config, logger *obslog.Logger) (*App, error) {
	if logger == nil {
		logger = obslog.New(obslog.DefaultConfig())
	}

	backend, err := cache.NewBackend(cache.FactoryConfig{
		Provider:   cfg.Cache.Provider,
		MaxEntries: cfg.Cache.MemoryMaxSize,
		RedisAddr:  fmt.Sprintf("%s:%d", cfg.Cache.RemoteHost, cfg.Cache.RemotePort),
		RedisPass:  cfg.Cache.RemotePassword,
		RedisDB:    cfg.Cache.RemoteDB,
		Namespace:  cfg.Cache.RemoteKeyPrefix,
	})
	if err != nil {
		return nil, err
	}

	keyPolicy := cache.NewKeyPolicy(cfg.Cache.RemoteKeyPrefix)
	pipelineCfg := providers.PipelineConfig{
		Retry: resilience.RetryConfig{
			MaxAttempts:       cfg.Retry.MaxRetries,
			BaseDelay:         cfg.Retry.BaseDelay,
			MaxDelay:          cfg.Retry.MaxDelay,
			BackoffFactor:     cfg.Retry.BackoffFactor,
			PerAttemptTimeout: cfg.Retry.RequestTimeout,
		},
		Breaker: resilience.CircuitBreakerConfig{
			FailureThreshold: cfg.Retry.FailureThreshold,
			RecoveryTimeout:  cfg.Retry.RecoveryTimeout,
			HalfOpenMaxCalls: 1,
		},
		CacheCfg: providers.CacheSettings{
			Enabled:        cfg.Cache.Enabled,
			TTLRateQuote:   cfg.Cache.TTLRateQuote,
			TTLHealthCheck: cfg.Cache.TTLHealthCheck,
			TTLPurchase:    cfg.Cache.TTLPurchase,
		},
	}

	registry := providers.NewRegistry(logger, buildAdapters(cfg, backend, keyPolicy, pipelineCfg, logger)...)
	checker := health.NewChecker(registry)

	return &App{
		Cache:    backend,
		Registry: registry,
		Checker:  checker,
		Poller:   health.NewPoller(checker, cfg.Cache.TTLHealthCheck, logger),
		Logger:   logger,
	}, nil
}

func buildAdapters(cfg *config.Config, backend cache.Backend, keyPolicy *cache.KeyPolicy, pipelineCfg providers.PipelineConfig, logger *obslog.Logger) []providers.Adapter {
	client := &http.Client{Timeout: cfg.Retry.RequestTimeout}

	adapters := make([]providers.Adapter, 0, 3)
	if pc, ok := cfg.Provider("A"); ok {
		base := providers.NewBase(shipmodel.ProviderA, backend, keyPolicy, pipelineCfg, logger)
		adapters = append(adapters, providera.New(base, providera.Config{
			APIKey: pc.APIKey, BaseURL: pc.BaseURL, Disabled: !pc.Enabled, HTTPClient: client,
		}))
	}
	if pc, ok := cfg.Provider("B"); ok {
		base := providers.NewBase(shipmodel.ProviderB, backend, keyPolicy, pipelineCfg, logger)
		adapters = append(adapters, providerb.New(base, providerb.Config{
			APIKey: pc.APIKey, BaseURL: pc.BaseURL, Disabled: !pc.Enabled, HTTPClient: client,
		}))
	}
	if pc, ok := cfg.Provider("C"); ok {
		base := providers.NewBase(shipmodel.ProviderC, backend, keyPolicy, pipelineCfg, logger)
		adapters = append(adapters, providerc.New(base, providerc.Config{
			APIKey: pc.APIKey, BaseURL: pc.BaseURL, Disabled: !pc.Enabled, HTTPClient: client,
		}))
	}
	return adapters
}

// Quote is the gateway's first inbound entry point: fan out to every
// enabled adapter and return the merged, sorted result.
func (a *App) Quote(ctx context.Context, correlationID string, input shipmodel.ShipmentInput) []shipmodel.RateQuote {
	return a.Registry.AllQuotes(ctx, correlationID, input)
}

// Purchase is the gateway's second inbound entry point: route to one
// named adapter.
func (a *App) Purchase(ctx context.Context, correlationID string, req shipmodel.PurchaseRequest) (shipmodel.PurchaseResult, error) {
	return a.Registry.Purchase(ctx, correlationID, req)
}

// Health is the gateway's third inbound entry point: the lifted overall
// status across every enabled adapter. No error ever escapes it.
func (a *App) Health(ctx context.Context, correlationID string) shipmodel.HealthReport {
	return a.Checker.Check(ctx, correlationID)
}

// StartHealthPolling begins the optional background health poller; it
// never needs to be called for correctness. The poller's latest report is
// read through Poller.Last; Health() itself always runs Checker.Check.
func (a *App) StartHealthPolling(ctx context.Context) {
	a.Poller.Start(ctx)
}

// Close releases resources owned by the App: the poller's goroutine, if
// started, and the cache backend (the in-process backend's cleanup timer
// or the remote backend's client connection).
func (a *App) Close() error {
	a.Poller.Stop()
	return a.Cache.Close()
}
