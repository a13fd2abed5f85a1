// Package providerc implements the adapter for upstream provider C, the
// one carrier in the reference deployment that needs an allocation
// identifier threaded through opaquely via ShipmentInput.ProviderExtras,
// and whose wire protocol expects dimensions in inches and weight in
// ounces regardless of what unit the caller's Parcel was expressed in.
package providerc

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/shipflow/gateway/internal/providers"
	"github.com/shipflow/gateway/pkg/gwerrors"
	"github.com/shipflow/gateway/pkg/shipmodel"
)

// Name is the provider identifier this adapter answers to.
const Name = shipmodel.ProviderC

// DefaultBaseURL is provider C's production endpoint.
const DefaultBaseURL = "https://api.provider-c.example.com/shipping/v1"

// AllocationIDExtraKey is the ShipmentInput.ProviderExtras key this
// adapter reads the allocation id from.
const AllocationIDExtraKey = "allocationId"

// Config configures the C adapter's upstream endpoint and credentials.
type Config struct {
	APIKey     string
	BaseURL    string
	Disabled   bool
	HTTPClient *http.Client
}

// Adapter speaks provider C's wire protocol, normalizing parcel units
// before every request and requiring an allocation id for purchases.
type Adapter struct {
	base    *providers.Base
	cfg     Config
	client  *http.Client
	baseURL string
}

// New constructs a C adapter.
func New(base *providers.Base, cfg Config) *Adapter {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Adapter{base: base, cfg: cfg, client: client, baseURL: baseURL}
}

func (c *Adapter) Name() shipmodel.Provider { return Name }

func (c *Adapter) Enabled() bool {
	return c.cfg.APIKey != "" && !c.cfg.Disabled
}

// normalizedDimensions converts parcel to the inches/ounces units provider
// C's wire protocol requires, independent of the units the caller supplied.
// This conversion is internal to the adapter and never affects the cache
// key, which hashes the pre-conversion ShipmentInput.
func normalizedDimensions(parcel shipmodel.Parcel) (lengthIn, widthIn, heightIn, weightOz float64) {
	parcel = parcel.Normalized()

	lengthIn, widthIn, heightIn = parcel.Length, parcel.Width, parcel.Height
	if parcel.DistanceUnit == shipmodel.DistanceCentimeter {
		lengthIn = centimetersToInches(parcel.Length)
		widthIn = centimetersToInches(parcel.Width)
		heightIn = centimetersToInches(parcel.Height)
	}

	switch parcel.MassUnit {
	case shipmodel.MassKilogram:
		weightOz = kilogramsToOunces(parcel.Weight)
	case shipmodel.MassGram:
		weightOz = gramsToOunces(parcel.Weight)
	case shipmodel.MassPound:
		weightOz = poundsToOunces(parcel.Weight)
	default:
		weightOz = parcel.Weight
	}
	return
}

type quoteWireRequest struct {
	AllocationID string  `json:"allocation_id,omitempty"`
	OriginZip    string  `json:"origin_zip"`
	DestZip      string  `json:"dest_zip"`
	LengthIn     float64 `json:"length_in"`
	WidthIn      float64 `json:"width_in"`
	HeightIn     float64 `json:"height_in"`
	WeightOz     float64 `json:"weight_oz"`
}

type quoteWireRate struct {
	QuoteRef     string `json:"quote_ref"`
	ServiceLevel string `json:"service_level"`
	CarrierID    string `json:"carrier_id"`
	AmountCents  int64  `json:"amount_cents"` // already in minor units, unlike A/B
	Currency     string `json:"currency"`
	ETADays      *int   `json:"eta_days,omitempty"`
}

func (c *Adapter) Quote(ctx context.Context, correlationID string, input shipmodel.ShipmentInput) ([]shipmodel.RateQuote, error) {
	return c.base.Quote(ctx, correlationID, input, func(ctx context.Context) ([]shipmodel.RateQuote, *gwerrors.Error) {
		lengthIn, widthIn, heightIn, weightOz := normalizedDimensions(input.Parcel)
		wireReq := quoteWireRequest{
			AllocationID: input.ProviderExtras[AllocationIDExtraKey],
			OriginZip:    input.From.Zip, DestZip: input.To.Zip,
			LengthIn: lengthIn, WidthIn: widthIn, HeightIn: heightIn, WeightOz: weightOz,
		}

		raw, err := providers.CallJSON(ctx, c.client, string(Name), "quote", correlationID,
			http.MethodPost, c.baseURL+"/quotes", c.authHeaders(), wireReq)
		if err != nil {
			return nil, err
		}

		var rates []quoteWireRate
		if jsonErr := providers.DecodeJSON(raw, &rates); jsonErr != nil {
			return nil, gwerrors.New(gwerrors.KindNetwork, string(Name), "quote", correlationID, jsonErr)
		}

		quotes := make([]shipmodel.RateQuote, 0, len(rates))
		for _, r := range rates {
			quotes = append(quotes, shipmodel.RateQuote{
				Provider:        Name,
				RateID:          r.QuoteRef,
				Service:         r.ServiceLevel,
				Carrier:         r.CarrierID,
				Amount:          r.AmountCents,
				Currency:        r.Currency,
				EstDeliveryDays: r.ETADays,
			})
		}
		return quotes, nil
	})
}

type purchaseWireRequest struct {
	QuoteRef     string `json:"quote_ref"`
	AllocationID string `json:"allocation_id"`
}

type purchaseWireResponse struct {
	LabelURL    string `json:"label_url"`
	TrackingRef string `json:"tracking_ref"`
	TrackingURL string `json:"tracking_url"`
}

func (c *Adapter) Purchase(ctx context.Context, correlationID string, req shipmodel.PurchaseRequest) (shipmodel.PurchaseResult, error) {
	allocationID := req.ProviderExtras[AllocationIDExtraKey]
	if allocationID == "" {
		return shipmodel.PurchaseResult{}, gwerrors.NewValidation(string(Name), "purchase", correlationID, AllocationIDExtraKey, "")
	}

	return c.base.Purchase(ctx, correlationID, req.RateID, func(ctx context.Context) (shipmodel.PurchaseResult, *gwerrors.Error) {
		wireReq := purchaseWireRequest{QuoteRef: req.RateID, AllocationID: allocationID}
		raw, err := providers.CallJSON(ctx, c.client, string(Name), "purchase", correlationID,
			http.MethodPost, c.baseURL+"/purchases", c.authHeaders(), wireReq)
		if err != nil {
			return shipmodel.PurchaseResult{}, err
		}

		var resp purchaseWireResponse
		if jsonErr := providers.DecodeJSON(raw, &resp); jsonErr != nil {
			return shipmodel.PurchaseResult{}, gwerrors.New(gwerrors.KindNetwork, string(Name), "purchase", correlationID, jsonErr)
		}

		return shipmodel.PurchaseResult{
			Provider:     Name,
			ShipmentID:   req.ShipmentID,
			LabelURL:     resp.LabelURL,
			TrackingCode: resp.TrackingRef,
			TrackingURL:  resp.TrackingURL,
		}, nil
	})
}

func (c *Adapter) HealthCheck(ctx context.Context, correlationID string) bool {
	return c.base.HealthCheck(ctx, correlationID, func(ctx context.Context) bool {
		_, err := providers.CallJSON(ctx, c.client, string(Name), "health", correlationID,
			http.MethodGet, c.baseURL+"/account", c.authHeaders(), nil)
		return err == nil
	})
}

func (c *Adapter) authHeaders() map[string]string {
	return map[string]string{"X-API-Key": c.cfg.APIKey}
}
