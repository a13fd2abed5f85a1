package providers

import (
	"context"
	"time"

	"github.com/goccy/go-json"

	"github.com/shipflow/gateway/internal/cache"
	"github.com/shipflow/gateway/internal/metrics"
	"github.com/shipflow/gateway/internal/obslog"
	"github.com/shipflow/gateway/internal/resilience"
	"github.com/shipflow/gateway/pkg/gwerrors"
	"github.com/shipflow/gateway/pkg/shipmodel"
)

// CacheSettings controls whether and how long the base pipeline caches
// each operation's result, mirroring the CACHE_TTL_* configuration.
type CacheSettings struct {
	Enabled        bool
	TTLRateQuote   time.Duration
	TTLHealthCheck time.Duration
	TTLPurchase    time.Duration
}

// Base wires the resilience pipeline (cache, retry executor, circuit
// breaker) that every concrete adapter's Quote/Purchase/HealthCheck is
// built on top of. Adapters embed a *Base and supply only their
// wire-level callbacks.
type Base struct {
	ProviderName shipmodel.Provider
	Cache        cache.Backend
	KeyPolicy    *cache.KeyPolicy
	Executor     *resilience.Executor
	CacheCfg     CacheSettings
	Logger       *obslog.Logger
}

// QuoteFunc performs the adapter-specific upstream call for a quote.
type QuoteFunc func(ctx context.Context) ([]shipmodel.RateQuote, *gwerrors.Error)

// PurchaseFunc performs the adapter-specific upstream call for a purchase.
type PurchaseFunc func(ctx context.Context) (shipmodel.PurchaseResult, *gwerrors.Error)

// HealthFunc performs the adapter's cheapest safe upstream health probe.
type HealthFunc func(ctx context.Context) bool

// Quote implements the algorithm shared by every adapter: cache lookup,
// retry-guarded upstream call on miss, cache write on success.
func (b *Base) Quote(ctx context.Context, correlationID string, input shipmodel.ShipmentInput, fn QuoteFunc) ([]shipmodel.RateQuote, error) {
	log := b.Logger.WithCorrelation(correlationID)
	key := b.KeyPolicy.RateKey(b.ProviderName, input)

	if b.CacheCfg.Enabled {
		if raw, found, err := b.Cache.Get(ctx, key); err != nil {
			log.Warn("cache get failed, treating as miss", "provider", b.ProviderName, "error", err)
			metrics.CacheMisses.WithLabelValues("rate").Inc()
		} else if found {
			var quotes []shipmodel.RateQuote
			if err := json.Unmarshal(raw, &quotes); err == nil {
				metrics.CacheHits.WithLabelValues("rate").Inc()
				return quotes, nil
			}
			log.Warn("cache hit but payload unreadable, treating as miss", "provider", b.ProviderName)
		} else {
			metrics.CacheMisses.WithLabelValues("rate").Inc()
		}
	}

	start := time.Now()
	raw, execErr := b.Executor.Run(ctx, string(b.ProviderName), "quote", correlationID, func(ctx context.Context) ([]byte, *gwerrors.Error) {
		quotes, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		encoded, jsonErr := json.Marshal(quotes)
		if jsonErr != nil {
			return nil, gwerrors.New(gwerrors.KindNetwork, string(b.ProviderName), "quote", correlationID, jsonErr)
		}
		return encoded, nil
	})
	metrics.OperationLatency.WithLabelValues(string(b.ProviderName), "quote").Observe(time.Since(start).Seconds())

	if execErr != nil {
		metrics.OperationErrors.WithLabelValues(string(b.ProviderName), "quote", string(execErr.Kind)).Inc()
		return nil, execErr
	}

	var quotes []shipmodel.RateQuote
	if err := json.Unmarshal(raw, &quotes); err != nil {
		return nil, gwerrors.New(gwerrors.KindNetwork, string(b.ProviderName), "quote", correlationID, err)
	}

	if b.CacheCfg.Enabled {
		if err := b.Cache.Set(ctx, key, raw, cache.SetOptions{TTL: b.CacheCfg.TTLRateQuote}); err != nil {
			log.Warn("cache write failed", "provider", b.ProviderName, "error", err)
		}
	}

	return quotes, nil
}

// Purchase implements the algorithm shared by every adapter: adapter
// prerequisite validation happens before this is called. A cache hit on
// rateID guards against a duplicate submission of the same purchase
// (e.g. a caller retrying after a dropped response) short-circuiting
// straight to the previously returned result without a second upstream
// call. On a fresh purchase, this method runs the upstream call, caches
// the result under the purchase key for CACHE_TTL_PURCHASE_MS, and
// invalidates that provider's cached rate quotes.
func (b *Base) Purchase(ctx context.Context, correlationID, rateID string, fn PurchaseFunc) (shipmodel.PurchaseResult, error) {
	log := b.Logger.WithCorrelation(correlationID)
	key := b.KeyPolicy.PurchaseKey(b.ProviderName, rateID)

	if b.CacheCfg.Enabled {
		if raw, found, err := b.Cache.Get(ctx, key); err != nil {
			log.Warn("cache get failed, treating as miss", "provider", b.ProviderName, "error", err)
			metrics.CacheMisses.WithLabelValues("purchase").Inc()
		} else if found {
			var result shipmodel.PurchaseResult
			if err := json.Unmarshal(raw, &result); err == nil {
				metrics.CacheHits.WithLabelValues("purchase").Inc()
				return result, nil
			}
			log.Warn("cache hit but payload unreadable, treating as miss", "provider", b.ProviderName)
		} else {
			metrics.CacheMisses.WithLabelValues("purchase").Inc()
		}
	}

	start := time.Now()
	raw, execErr := b.Executor.Run(ctx, string(b.ProviderName), "purchase", correlationID, func(ctx context.Context) ([]byte, *gwerrors.Error) {
		result, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		encoded, jsonErr := json.Marshal(result)
		if jsonErr != nil {
			return nil, gwerrors.New(gwerrors.KindNetwork, string(b.ProviderName), "purchase", correlationID, jsonErr)
		}
		return encoded, nil
	})
	metrics.OperationLatency.WithLabelValues(string(b.ProviderName), "purchase").Observe(time.Since(start).Seconds())

	if execErr != nil {
		metrics.OperationErrors.WithLabelValues(string(b.ProviderName), "purchase", string(execErr.Kind)).Inc()
		return shipmodel.PurchaseResult{}, execErr
	}

	var result shipmodel.PurchaseResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return shipmodel.PurchaseResult{}, gwerrors.New(gwerrors.KindNetwork, string(b.ProviderName), "purchase", correlationID, err)
	}

	if b.CacheCfg.Enabled {
		if err := b.Cache.Set(ctx, key, raw, cache.SetOptions{TTL: b.CacheCfg.TTLPurchase}); err != nil {
			log.Warn("cache write failed", "provider", b.ProviderName, "error", err)
		}
	}

	b.invalidateRateCache(ctx, log)

	return result, nil
}

func (b *Base) invalidateRateCache(ctx context.Context, log *obslog.Logger) {
	keys, err := b.Cache.Keys(ctx, b.KeyPolicy.RatePattern(b.ProviderName))
	if err != nil {
		log.Warn("cache invalidation scan failed", "provider", b.ProviderName, "error", err)
		return
	}
	for _, k := range keys {
		if _, err := b.Cache.Delete(ctx, k); err != nil {
			log.Warn("cache invalidation delete failed", "provider", b.ProviderName, "key", k, "error", err)
		}
	}
}

// HealthCheck implements the algorithm shared by every adapter: cache
// short-circuit, then a cheap upstream probe whose failures never bubble
// out as errors.
func (b *Base) HealthCheck(ctx context.Context, correlationID string, fn HealthFunc) bool {
	log := b.Logger.WithCorrelation(correlationID)
	key := b.KeyPolicy.HealthKey(b.ProviderName)

	if b.CacheCfg.Enabled {
		if raw, found, err := b.Cache.Get(ctx, key); err == nil && found {
			metrics.CacheHits.WithLabelValues("health").Inc()
			return len(raw) > 0 && raw[0] == '1'
		}
		metrics.CacheMisses.WithLabelValues("health").Inc()
	}

	healthy := func() (result bool) {
		defer func() {
			if r := recover(); r != nil {
				log.Warn("health check panicked, treating as unhealthy", "provider", b.ProviderName, "recovered", r)
				result = false
			}
		}()
		return fn(ctx)
	}()

	if healthy {
		metrics.ProviderHealth.WithLabelValues(string(b.ProviderName)).Set(1)
	} else {
		metrics.ProviderHealth.WithLabelValues(string(b.ProviderName)).Set(0)
	}

	if b.CacheCfg.Enabled {
		payload := []byte("0")
		if healthy {
			payload = []byte("1")
		}
		if err := b.Cache.Set(ctx, key, payload, cache.SetOptions{TTL: b.CacheCfg.TTLHealthCheck}); err != nil {
			log.Warn("cache write failed", "provider", b.ProviderName, "error", err)
		}
	}

	return healthy
}
