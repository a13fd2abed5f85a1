// Package providers implements the per-carrier adapters the registry fans
// out to. Every adapter speaks its own upstream wire protocol internally
// but satisfies the uniform Adapter contract, with quoting, purchasing,
// and health-checking wired through the shared resilience pipeline in
// base.go.
package providers

import (
	"context"

	"github.com/shipflow/gateway/pkg/shipmodel"
)

// Adapter is the uniform contract every provider satisfies. The registry
// never depends on a concrete adapter type.
type Adapter interface {
	// Name is one of "A", "B", "C".
	Name() shipmodel.Provider
	// Enabled is true iff an API key is configured and the adapter has
	// not been administratively disabled.
	Enabled() bool
	Quote(ctx context.Context, correlationID string, input shipmodel.ShipmentInput) ([]shipmodel.RateQuote, error)
	Purchase(ctx context.Context, correlationID string, req shipmodel.PurchaseRequest) (shipmodel.PurchaseResult, error)
	HealthCheck(ctx context.Context, correlationID string) bool
}
