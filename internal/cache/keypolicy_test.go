package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shipflow/gateway/pkg/shipmodel"
)

func sampleInput() shipmodel.ShipmentInput {
	return shipmodel.ShipmentInput{
		To: shipmodel.Address{Street1: "123 Main St", City: "Springfield", State: "IL", Zip: "62704", Country: "US"},
		From: shipmodel.Address{
			Street1: "1 Warehouse Way", City: "Chicago", State: "IL", Zip: "60601", Country: "US",
		},
		Parcel:    shipmodel.Parcel{Length: 10, Width: 5, Height: 5, Weight: 16},
		Reference: "order-42",
		ProviderExtras: map[string]string{
			"signature": "required",
			"insurance": "100",
		},
	}
}

func TestKeyPolicy_RateKey_Deterministic(t *testing.T) {
	p := NewKeyPolicy("shipgw")
	input := sampleInput()

	k1 := p.RateKey(shipmodel.ProviderA, input)
	k2 := p.RateKey(shipmodel.ProviderA, input)
	assert.Equal(t, k1, k2)
	assert.Contains(t, k1, "shipgw:rate:A:")
}

func TestKeyPolicy_RateKey_CaseInsensitive(t *testing.T) {
	p := NewKeyPolicy("shipgw")
	lower := sampleInput()
	upper := sampleInput()
	upper.To.City = "SPRINGFIELD"
	upper.To.State = "il"
	upper.Reference = "ORDER-42"

	assert.Equal(t, p.RateKey(shipmodel.ProviderA, lower), p.RateKey(shipmodel.ProviderA, upper))
}

func TestKeyPolicy_RateKey_FieldOrderInsensitive(t *testing.T) {
	p := NewKeyPolicy("shipgw")
	a := sampleInput()
	b := sampleInput()
	// Rebuild the map in a different insertion order; Go map iteration is
	// already randomized, but construct it explicitly to make intent clear.
	b.ProviderExtras = map[string]string{
		"insurance": "100",
		"signature": "required",
	}

	assert.Equal(t, p.RateKey(shipmodel.ProviderA, a), p.RateKey(shipmodel.ProviderA, b))
}

func TestKeyPolicy_RateKey_DifferentProviderDifferentKey(t *testing.T) {
	p := NewKeyPolicy("shipgw")
	input := sampleInput()

	assert.NotEqual(t, p.RateKey(shipmodel.ProviderA, input), p.RateKey(shipmodel.ProviderB, input))
}

func TestKeyPolicy_RateKey_DifferentShipmentDifferentKey(t *testing.T) {
	p := NewKeyPolicy("shipgw")
	a := sampleInput()
	b := sampleInput()
	b.Parcel.Weight = 32

	assert.NotEqual(t, p.RateKey(shipmodel.ProviderA, a), p.RateKey(shipmodel.ProviderA, b))
}

func TestKeyPolicy_HealthKey(t *testing.T) {
	p := NewKeyPolicy("shipgw")
	assert.Equal(t, "shipgw:health:A", p.HealthKey(shipmodel.ProviderA))
}

func TestKeyPolicy_PurchaseKey(t *testing.T) {
	p := NewKeyPolicy("shipgw")
	assert.Equal(t, "shipgw:purchase:A:rate-123", p.PurchaseKey(shipmodel.ProviderA, "RATE-123"))
}

func TestKeyPolicy_NoPrefix(t *testing.T) {
	p := NewKeyPolicy("")
	assert.Equal(t, "health:A", p.HealthKey(shipmodel.ProviderA))
}
