// Package providera implements the adapter for upstream provider A: a
// plain REST+JSON protocol with bearer-token auth and decimal amount
// strings, wired through the shared resilience pipeline in
// internal/providers.
package providera

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shipflow/gateway/internal/providers"
	"github.com/shipflow/gateway/pkg/gwerrors"
	"github.com/shipflow/gateway/pkg/shipmodel"
)

// Name is the provider identifier this adapter answers to.
const Name = shipmodel.ProviderA

// Config configures the A adapter's upstream endpoint and credentials.
type Config struct {
	APIKey     string
	BaseURL    string
	Disabled   bool // administrative kill-switch independent of APIKey
	HTTPClient *http.Client
}

// DefaultBaseURL is provider A's production endpoint.
const DefaultBaseURL = "https://api.provider-a.example.com/v1"

// Adapter speaks provider A's wire protocol: a simple REST+JSON quote and
// purchase endpoint requiring a shipment id at purchase time.
type Adapter struct {
	base    *providers.Base
	cfg     Config
	client  *http.Client
	baseURL string
}

// New constructs an A adapter. base is pre-wired with this provider's
// cache handle, key policy, and resilience pipeline by the registry.
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

func (a *Adapter) Name() shipmodel.Provider { return Name }

// Enabled is true iff an API key is configured and the adapter has not
// been administratively disabled.
func (a *Adapter) Enabled() bool {
	return a.cfg.APIKey != "" && !a.cfg.Disabled
}

type quoteWireRequest struct {
	FromZip   string  `json:"from_zip"`
	FromState string  `json:"from_state"`
	ToZip     string  `json:"to_zip"`
	ToState   string  `json:"to_state"`
	WeightOz  float64 `json:"weight_oz"`
	LengthIn  float64 `json:"length_in"`
	WidthIn   float64 `json:"width_in"`
	HeightIn  float64 `json:"height_in"`
	Reference string  `json:"reference,omitempty"`
}

type quoteWireItem struct {
	RateID          string `json:"rate_id"`
	ServiceCode     string `json:"service_code"`
	CarrierCode     string `json:"carrier_code"`
	AmountDecimal   string `json:"amount_decimal"`
	CurrencyCode    string `json:"currency_code"`
	DeliveryDaysEst *int   `json:"delivery_days_est,omitempty"`
}

func (a *Adapter) Quote(ctx context.Context, correlationID string, input shipmodel.ShipmentInput) ([]shipmodel.RateQuote, error) {
	return a.base.Quote(ctx, correlationID, input, func(ctx context.Context) ([]shipmodel.RateQuote, *gwerrors.Error) {
		parcel := input.Parcel.Normalized()
		wireReq := quoteWireRequest{
			FromZip: input.From.Zip, FromState: input.From.State,
			ToZip: input.To.Zip, ToState: input.To.State,
			WeightOz: parcel.Weight, LengthIn: parcel.Length, WidthIn: parcel.Width, HeightIn: parcel.Height,
			Reference: input.Reference,
		}
		raw, err := providers.CallJSON(ctx, a.client, string(Name), "quote", correlationID,
			http.MethodPost, a.baseURL+"/rates", a.authHeaders(), wireReq)
		if err != nil {
			return nil, err
		}

		var items []quoteWireItem
		if jsonErr := providers.DecodeJSON(raw, &items); jsonErr != nil {
			return nil, gwerrors.New(gwerrors.KindNetwork, string(Name), "quote", correlationID, jsonErr)
		}

		quotes := make([]shipmodel.RateQuote, 0, len(items))
		for _, item := range items {
			amount, parseErr := providers.ParseMinorUnits(item.AmountDecimal)
			if parseErr != nil {
				return nil, gwerrors.New(gwerrors.KindNetwork, string(Name), "quote", correlationID, parseErr)
			}
			quotes = append(quotes, shipmodel.RateQuote{
				Provider:        Name,
				RateID:          item.RateID,
				Service:         item.ServiceCode,
				Carrier:         item.CarrierCode,
				Amount:          amount,
				Currency:        item.CurrencyCode,
				EstDeliveryDays: item.DeliveryDaysEst,
			})
		}
		return quotes, nil
	})
}

type purchaseWireRequest struct {
	RateID     string `json:"rate_id"`
	ShipmentID string `json:"shipment_id"`
}

type purchaseWireResponse struct {
	LabelURL     string `json:"label_url"`
	TrackingCode string `json:"tracking_code"`
	TrackingURL  string `json:"tracking_url"`
}

func (a *Adapter) Purchase(ctx context.Context, correlationID string, req shipmodel.PurchaseRequest) (shipmodel.PurchaseResult, error) {
	if req.ShipmentID == "" {
		return shipmodel.PurchaseResult{}, gwerrors.NewValidation(string(Name), "purchase", correlationID, "shipmentId", "")
	}

	return a.base.Purchase(ctx, correlationID, req.RateID, func(ctx context.Context) (shipmodel.PurchaseResult, *gwerrors.Error) {
		wireReq := purchaseWireRequest{RateID: req.RateID, ShipmentID: req.ShipmentID}
		raw, err := providers.CallJSON(ctx, a.client, string(Name), "purchase", correlationID,
			http.MethodPost, a.baseURL+"/labels", a.authHeaders(), wireReq)
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
			TrackingCode: resp.TrackingCode,
			TrackingURL:  resp.TrackingURL,
		}, nil
	})
}

func (a *Adapter) HealthCheck(ctx context.Context, correlationID string) bool {
	return a.base.HealthCheck(ctx, correlationID, func(ctx context.Context) bool {
		_, err := providers.CallJSON(ctx, a.client, string(Name), "health", correlationID,
			http.MethodGet, a.baseURL+"/me", a.authHeaders(), nil)
		return err == nil
	})
}

func (a *Adapter) authHeaders() map[string]string {
	return map[string]string{"Authorization": fmt.Sprintf("Bearer %s", a.cfg.APIKey)}
}
