package providers

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/shipflow/gateway/internal/obslog"
	"github.com/shipflow/gateway/pkg/gwerrors"
	"github.com/shipflow/gateway/pkg/shipmodel"
)

// Registry is the process-wide singleton owning one instance of each
// configured adapter. It is constructed once at process start and is
// read-only thereafter; no other component mutates its adapter set. The
// registry itself never retries or caches; all resilience lives inside
// each adapter via its embedded Base.
type Registry struct {
	adapters []Adapter
	byName   map[shipmodel.Provider]Adapter
	logger   *obslog.Logger
}

// NewRegistry constructs a Registry over the given adapters. Order is
// preserved only for deterministic logging; AllQuotes/HealthCheckAll fan
// out to every adapter concurrently regardless of slice order.
func NewRegistry(logger *obslog.Logger, adapters ...Adapter) *Registry {
	if logger == nil {
		logger = obslog.Nop()
	}
	byName := make(map[shipmodel.Provider]Adapter, len(adapters))
	for _, a := range adapters {
		byName[a.Name()] = a
	}
	return &Registry{adapters: adapters, byName: byName, logger: logger}
}

// AllQuotes fans out Quote to every enabled adapter concurrently, waits
// for all of them, and returns the union of their results sorted
// ascending by amount (stable for equal amounts). A single adapter's
// failure is logged and contributes an empty list; it never fails the
// aggregate call. Every adapter call receives a context derived from
// ctx, so cancelling ctx reaches the in-flight calls; AllQuotes still
// waits for every call to return and then returns the rates of the
// adapters that succeeded. Each adapter also honors its own per-attempt
// timeout independently.
func (r *Registry) AllQuotes(ctx context.Context, correlationID string, input shipmodel.ShipmentInput) []shipmodel.RateQuote {
	if correlationID == "" {
		correlationID = gwerrors.NewCorrelationID()
	}
	log := r.logger.WithCorrelation(correlationID)

	var (
		mu      sync.Mutex
		results []shipmodel.RateQuote
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, adapter := range r.adapters {
		if !adapter.Enabled() {
			continue
		}
		adapter := adapter
		g.Go(func() error {
			quotes, err := adapter.Quote(gctx, correlationID, input)
			if err != nil {
				log.Warn("adapter quote failed, contributing no rates", "provider", adapter.Name(), "error", err)
				return nil
			}
			mu.Lock()
			results = append(results, quotes...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(results, func(i, j int) bool { return results[i].Amount < results[j].Amount })
	return results
}

// Purchase routes to the single named adapter. It raises Configuration if
// the provider is unknown or disabled; adapter-specific prerequisite
// validation (e.g. a missing shipment or allocation id) happens inside the
// adapter and propagates unchanged.
func (r *Registry) Purchase(ctx context.Context, correlationID string, req shipmodel.PurchaseRequest) (shipmodel.PurchaseResult, error) {
	if correlationID == "" {
		correlationID = gwerrors.NewCorrelationID()
	}

	adapter, ok := r.byName[req.Provider]
	if !ok {
		return shipmodel.PurchaseResult{}, gwerrors.NewConfiguration(string(req.Provider), "purchase", correlationID, nil)
	}
	if !adapter.Enabled() {
		return shipmodel.PurchaseResult{}, gwerrors.NewConfiguration(string(req.Provider), "purchase", correlationID, nil)
	}

	return adapter.Purchase(ctx, correlationID, req)
}

// HealthCheckAll fans out HealthCheck to every enabled adapter
// concurrently using an errgroup, waits for all of them, and returns a
// per-provider boolean map. It never fails: HealthCheck itself never
// returns an error, by contract.
func (r *Registry) HealthCheckAll(ctx context.Context, correlationID string) map[shipmodel.Provider]bool {
	if correlationID == "" {
		correlationID = gwerrors.NewCorrelationID()
	}

	var (
		mu      sync.Mutex
		results = make(map[shipmodel.Provider]bool)
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, adapter := range r.adapters {
		if !adapter.Enabled() {
			continue
		}
		adapter := adapter
		g.Go(func() error {
			healthy := adapter.HealthCheck(gctx, correlationID)
			mu.Lock()
			results[adapter.Name()] = healthy
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Adapters returns the registry's adapter set, for callers that need to
// enumerate providers without going through a fan-out call.
func (r *Registry) Adapters() []Adapter {
	return r.adapters
}
