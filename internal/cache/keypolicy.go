package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/shipflow/gateway/pkg/shipmodel"
)

// KeyPolicy generates the deterministic cache keys shared by every adapter
// and the health poller, so that two requests differing only by field
// order or letter case land on the same cache entry.
type KeyPolicy struct {
	// Prefix namespaces every generated key, e.g. "shipgw".
	Prefix string
}

// NewKeyPolicy constructs a KeyPolicy with the given prefix.
func NewKeyPolicy(prefix string) *KeyPolicy {
	return &KeyPolicy{Prefix: prefix}
}

func (p *KeyPolicy) withPrefix(key string) string {
	if p.Prefix == "" {
		return key
	}
	return p.Prefix + ":" + key
}

// RateKey returns the cache key for a provider's quote against a shipment,
// "rate:{provider}:{hash(normalized input)}".
func (p *KeyPolicy) RateKey(provider shipmodel.Provider, input shipmodel.ShipmentInput) string {
	hash := hashShipmentInput(input)
	return p.withPrefix(fmt.Sprintf("rate:%s:%s", provider, hash))
}

// RatePattern returns the glob pattern matching every cached rate quote for
// provider, used to invalidate them after a purchase.
func (p *KeyPolicy) RatePattern(provider shipmodel.Provider) string {
	return p.withPrefix(fmt.Sprintf("rate:%s:*", provider))
}

// HealthKey returns the cache key for a provider's health status,
// "health:{provider}".
func (p *KeyPolicy) HealthKey(provider shipmodel.Provider) string {
	return p.withPrefix(fmt.Sprintf("health:%s", provider))
}

// PurchaseKey returns the cache key guarding idempotent purchase retries,
// "purchase:{provider}:{rateId}".
func (p *KeyPolicy) PurchaseKey(provider shipmodel.Provider, rateID string) string {
	return p.withPrefix(fmt.Sprintf("purchase:%s:%s", provider, normalizeString(rateID)))
}

// hashShipmentInput produces a stable SHA-256 hex digest of a shipment
// input that is insensitive to field letter case and to map key order, so
// equivalent requests always hash identically.
func hashShipmentInput(input shipmodel.ShipmentInput) string {
	parcel := input.Parcel.Normalized()

	var sb strings.Builder
	writeAddress(&sb, "to", input.To)
	writeAddress(&sb, "from", input.From)
	fmt.Fprintf(&sb, "|parcel.l:%.4f|parcel.w:%.4f|parcel.h:%.4f|parcel.wt:%.4f|parcel.du:%s|parcel.mu:%s",
		parcel.Length, parcel.Width, parcel.Height, parcel.Weight,
		normalizeString(string(parcel.DistanceUnit)), normalizeString(string(parcel.MassUnit)))
	fmt.Fprintf(&sb, "|ref:%s", normalizeString(input.Reference))

	extraKeys := make([]string, 0, len(input.ProviderExtras))
	for k := range input.ProviderExtras {
		extraKeys = append(extraKeys, k)
	}
	sort.Strings(extraKeys)
	for _, k := range extraKeys {
		fmt.Fprintf(&sb, "|extra.%s:%s", normalizeString(k), normalizeString(input.ProviderExtras[k]))
	}

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

func writeAddress(sb *strings.Builder, label string, a shipmodel.Address) {
	fmt.Fprintf(sb, "%s.street1:%s|%s.street2:%s|%s.city:%s|%s.state:%s|%s.zip:%s|%s.country:%s",
		label, normalizeString(a.Street1),
		label, normalizeString(a.Street2),
		label, normalizeString(a.City),
		label, normalizeString(a.State),
		label, normalizeString(a.Zip),
		label, normalizeString(a.Country))
}

func normalizeString(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
