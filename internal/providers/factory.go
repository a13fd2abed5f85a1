package providers

import (
	"github.com/shipflow/gateway/internal/cache"
	"github.com/shipflow/gateway/internal/obslog"
	"github.com/shipflow/gateway/internal/resilience"
	"github.com/shipflow/gateway/pkg/shipmodel"
)

// PipelineConfig bundles the per-adapter resilience settings the registry
// constructs one of for every provider at process start.
type PipelineConfig struct {
	Retry    resilience.RetryConfig
	Breaker  resilience.CircuitBreakerConfig
	CacheCfg CacheSettings
}

// NewBase wires a fresh circuit breaker and retry executor for provider
// and returns the Base every concrete adapter embeds. One Base is built
// per adapter at construction time and never shared.
func NewBase(provider shipmodel.Provider, backend cache.Backend, keyPolicy *cache.KeyPolicy, cfg PipelineConfig, logger *obslog.Logger) *Base {
	if logger == nil {
		logger = obslog.Nop()
	}
	breaker := resilience.NewCircuitBreaker(string(provider), cfg.Breaker, logger)
	executor := resilience.NewExecutor(cfg.Retry, breaker, logger)
	return &Base{
		ProviderName: provider,
		Cache:        backend,
		KeyPolicy:    keyPolicy,
		Executor:     executor,
		CacheCfg:     cfg.CacheCfg,
		Logger:       logger,
	}
}
