package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipflow/gateway/pkg/gwerrors"
	"github.com/shipflow/gateway/pkg/shipmodel"
)

// fakeAdapter is a minimal in-memory Adapter used to exercise registry
// fan-out/fan-in without a network round trip.
type fakeAdapter struct {
	name        shipmodel.Provider
	enabled     bool
	quotes      []shipmodel.RateQuote
	quoteErr    error
	purchase    shipmodel.PurchaseResult
	purchaseErr error
	healthy     bool
}

func (f *fakeAdapter) Name() shipmodel.Provider { return f.name }
func (f *fakeAdapter) Enabled() bool            { return f.enabled }

func (f *fakeAdapter) Quote(ctx context.Context, correlationID string, input shipmodel.ShipmentInput) ([]shipmodel.RateQuote, error) {
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	return f.quotes, nil
}

func (f *fakeAdapter) Purchase(ctx context.Context, correlationID string, req shipmodel.PurchaseRequest) (shipmodel.PurchaseResult, error) {
	if f.purchaseErr != nil {
		return shipmodel.PurchaseResult{}, f.purchaseErr
	}
	return f.purchase, nil
}

func (f *fakeAdapter) HealthCheck(ctx context.Context, correlationID string) bool { return f.healthy }

func TestRegistry_AllQuotes_MergesSortedByAmount(t *testing.T) {
	a := &fakeAdapter{name: shipmodel.ProviderA, enabled: true, quotes: []shipmodel.RateQuote{
		{Provider: shipmodel.ProviderA, RateID: "r1", Amount: 899, Currency: "USD"},
		{Provider: shipmodel.ProviderA, RateID: "r2", Amount: 1599, Currency: "USD"},
	}}
	b := &fakeAdapter{name: shipmodel.ProviderB, enabled: true, quotes: []shipmodel.RateQuote{
		{Provider: shipmodel.ProviderB, RateID: "r3", Amount: 749, Currency: "USD"},
	}}
	c := &fakeAdapter{name: shipmodel.ProviderC, enabled: false}

	reg := NewRegistry(nil, a, b, c)
	results := reg.AllQuotes(context.Background(), "corr-1", shipmodel.ShipmentInput{})

	require.Len(t, results, 3)
	assert.Equal(t, []int64{749, 899, 1599}, []int64{results[0].Amount, results[1].Amount, results[2].Amount})
}

func TestRegistry_AllQuotes_TolerantOfPartialFailure(t *testing.T) {
	a := &fakeAdapter{name: shipmodel.ProviderA, enabled: true, quotes: []shipmodel.RateQuote{
		{Provider: shipmodel.ProviderA, RateID: "r1", Amount: 100},
		{Provider: shipmodel.ProviderA, RateID: "r2", Amount: 200},
	}}
	b := &fakeAdapter{name: shipmodel.ProviderB, enabled: true, quoteErr: errors.New("upstream down")}

	reg := NewRegistry(nil, a, b)
	results := reg.AllQuotes(context.Background(), "corr-1", shipmodel.ShipmentInput{})

	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, shipmodel.ProviderA, r.Provider)
	}
}

func TestRegistry_AllQuotes_SkipsDisabledAdapters(t *testing.T) {
	a := &fakeAdapter{name: shipmodel.ProviderA, enabled: false, quotes: []shipmodel.RateQuote{{Amount: 1}}}
	reg := NewRegistry(nil, a)
	results := reg.AllQuotes(context.Background(), "corr-1", shipmodel.ShipmentInput{})
	assert.Empty(t, results)
}

func TestRegistry_Purchase_RoutesToNamedProvider(t *testing.T) {
	a := &fakeAdapter{name: shipmodel.ProviderA, enabled: true, purchase: shipmodel.PurchaseResult{Provider: shipmodel.ProviderA, LabelURL: "https://l"}}
	b := &fakeAdapter{name: shipmodel.ProviderB, enabled: true}

	reg := NewRegistry(nil, a, b)
	result, err := reg.Purchase(context.Background(), "corr-1", shipmodel.PurchaseRequest{Provider: shipmodel.ProviderA})
	require.NoError(t, err)
	assert.Equal(t, "https://l", result.LabelURL)
}

func TestRegistry_Purchase_UnknownProviderIsConfigurationError(t *testing.T) {
	reg := NewRegistry(nil)
	_, err := reg.Purchase(context.Background(), "corr-1", shipmodel.PurchaseRequest{Provider: shipmodel.ProviderA})
	require.Error(t, err)
	gwErr, ok := gwerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, gwerrors.KindConfiguration, gwErr.Kind)
}

func TestRegistry_Purchase_DisabledProviderIsConfigurationError(t *testing.T) {
	a := &fakeAdapter{name: shipmodel.ProviderA, enabled: false}
	reg := NewRegistry(nil, a)
	_, err := reg.Purchase(context.Background(), "corr-1", shipmodel.PurchaseRequest{Provider: shipmodel.ProviderA})
	require.Error(t, err)
	gwErr, ok := gwerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, gwerrors.KindConfiguration, gwErr.Kind)
}

func TestRegistry_HealthCheckAll_AggregatesEnabledAdapters(t *testing.T) {
	a := &fakeAdapter{name: shipmodel.ProviderA, enabled: true, healthy: true}
	b := &fakeAdapter{name: shipmodel.ProviderB, enabled: true, healthy: false}
	c := &fakeAdapter{name: shipmodel.ProviderC, enabled: false, healthy: true}

	reg := NewRegistry(nil, a, b, c)
	statuses := reg.HealthCheckAll(context.Background(), "corr-1")

	require.Len(t, statuses, 2)
	assert.True(t, statuses[shipmodel.ProviderA])
	assert.False(t, statuses[shipmodel.ProviderB])
	_, present := statuses[shipmodel.ProviderC]
	assert.False(t, present)
}
