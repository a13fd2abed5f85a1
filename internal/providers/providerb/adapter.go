// Package providerb implements the adapter for upstream provider B, whose
// wire protocol wraps its rate list and purchase response in an envelope
// object rather than returning a bare array/object like provider A.
package providerb

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/shipflow/gateway/internal/providers"
	"github.com/shipflow/gateway/pkg/gwerrors"
	"github.com/shipflow/gateway/pkg/shipmodel"
)

// Name is the provider identifier this adapter answers to.
const Name = shipmodel.ProviderB

// DefaultBaseURL is provider B's production endpoint.
const DefaultBaseURL = "https://api.provider-b.example.com"

// Config configures the B adapter's upstream endpoint and credentials.
type Config struct {
	APIKey     string
	BaseURL    string
	Disabled   bool
	HTTPClient *http.Client
}

// Adapter speaks provider B's wire protocol: envelope-wrapped responses
// and an API-key query parameter instead of a bearer header.
type Adapter struct {
	base    *providers.Base
	cfg     Config
	client  *http.Client
	baseURL string
}

// New constructs a B adapter.
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

func (b *Adapter) Name() shipmodel.Provider { return Name }

func (b *Adapter) Enabled() bool {
	return b.cfg.APIKey != "" && !b.cfg.Disabled
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *wireErr        `json:"error,omitempty"`
}

type wireErr struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type quoteWireOffer struct {
	OfferID      string `json:"offer_id"`
	ServiceName  string `json:"service_name"`
	CarrierName  string `json:"carrier_name"`
	Price        string `json:"price"` // decimal string, e.g. "9.99"
	CurrencyCode string `json:"currency_code"`
	TransitDays  *int   `json:"transit_days,omitempty"`
	SubCarrierID string `json:"sub_carrier_id,omitempty"`
}

func (b *Adapter) Quote(ctx context.Context, correlationID string, input shipmodel.ShipmentInput) ([]shipmodel.RateQuote, error) {
	return b.base.Quote(ctx, correlationID, input, func(ctx context.Context) ([]shipmodel.RateQuote, *gwerrors.Error) {
		parcel := input.Parcel.Normalized()
		wireReq := map[string]any{
			"origin":      map[string]string{"zip": input.From.Zip, "state": input.From.State, "country": input.From.Country},
			"destination": map[string]string{"zip": input.To.Zip, "state": input.To.State, "country": input.To.Country},
			"package": map[string]float64{
				"weight_oz": parcel.Weight, "length_in": parcel.Length, "width_in": parcel.Width, "height_in": parcel.Height,
			},
		}

		raw, err := providers.CallJSON(ctx, b.client, string(Name), "quote", correlationID,
			http.MethodPost, b.baseURL+"/v2/quotes?api_key="+b.cfg.APIKey, nil, wireReq)
		if err != nil {
			return nil, err
		}

		env, envErr := decodeEnvelope(raw, correlationID, "quote")
		if envErr != nil {
			return nil, envErr
		}

		var offers []quoteWireOffer
		if jsonErr := providers.DecodeJSON(env.Data, &offers); jsonErr != nil {
			return nil, gwerrors.New(gwerrors.KindNetwork, string(Name), "quote", correlationID, jsonErr)
		}

		quotes := make([]shipmodel.RateQuote, 0, len(offers))
		for _, offer := range offers {
			amount, parseErr := providers.ParseMinorUnits(offer.Price)
			if parseErr != nil {
				return nil, gwerrors.New(gwerrors.KindNetwork, string(Name), "quote", correlationID, parseErr)
			}
			quotes = append(quotes, shipmodel.RateQuote{
				Provider:        Name,
				RateID:          offer.OfferID,
				Service:         offer.ServiceName,
				Carrier:         offer.CarrierName,
				Amount:          amount,
				Currency:        offer.CurrencyCode,
				EstDeliveryDays: offer.TransitDays,
				SubCarrierID:    offer.SubCarrierID,
			})
		}
		return quotes, nil
	})
}

type purchaseWireResult struct {
	LabelPDFURL  string `json:"label_pdf_url"`
	TrackingNo   string `json:"tracking_no"`
	TrackingLink string `json:"tracking_link"`
}

func (b *Adapter) Purchase(ctx context.Context, correlationID string, req shipmodel.PurchaseRequest) (shipmodel.PurchaseResult, error) {
	if req.RateID == "" {
		return shipmodel.PurchaseResult{}, gwerrors.NewValidation(string(Name), "purchase", correlationID, "rateId", "")
	}

	return b.base.Purchase(ctx, correlationID, req.RateID, func(ctx context.Context) (shipmodel.PurchaseResult, *gwerrors.Error) {
		wireReq := map[string]string{"offer_id": req.RateID}
		raw, err := providers.CallJSON(ctx, b.client, string(Name), "purchase", correlationID,
			http.MethodPost, b.baseURL+"/v2/purchases?api_key="+b.cfg.APIKey, nil, wireReq)
		if err != nil {
			return shipmodel.PurchaseResult{}, err
		}

		env, envErr := decodeEnvelope(raw, correlationID, "purchase")
		if envErr != nil {
			return shipmodel.PurchaseResult{}, envErr
		}

		var result purchaseWireResult
		if jsonErr := providers.DecodeJSON(env.Data, &result); jsonErr != nil {
			return shipmodel.PurchaseResult{}, gwerrors.New(gwerrors.KindNetwork, string(Name), "purchase", correlationID, jsonErr)
		}

		return shipmodel.PurchaseResult{
			Provider:     Name,
			ShipmentID:   req.ShipmentID,
			LabelURL:     result.LabelPDFURL,
			TrackingCode: result.TrackingNo,
			TrackingURL:  result.TrackingLink,
		}, nil
	})
}

func (b *Adapter) HealthCheck(ctx context.Context, correlationID string) bool {
	return b.base.HealthCheck(ctx, correlationID, func(ctx context.Context) bool {
		raw, err := providers.CallJSON(ctx, b.client, string(Name), "health", correlationID,
			http.MethodGet, b.baseURL+"/v2/ping?api_key="+b.cfg.APIKey, nil, nil)
		if err != nil {
			return false
		}
		env, envErr := decodeEnvelope(raw, correlationID, "health")
		return envErr == nil && env.Status == "ok"
	})
}

// decodeEnvelope unwraps provider B's {status, data, error} response shape.
// A server-reported business error is classified from its message by
// gwerrors.Classify: Quota or ServiceUnavailable when the message matches
// those keywords, otherwise a retryable Network failure.
func decodeEnvelope(raw []byte, correlationID, operation string) (*envelope, *gwerrors.Error) {
	var env envelope
	if err := providers.DecodeJSON(raw, &env); err != nil {
		return nil, gwerrors.New(gwerrors.KindNetwork, string(Name), operation, correlationID, err)
	}
	if env.Status != "ok" {
		msg := "unknown error"
		if env.Error != nil {
			msg = env.Error.Message
		}
		return nil, gwerrors.Classify(string(Name), operation, correlationID, gwerrors.UpstreamFailure{Message: msg})
	}
	return &env, nil
}
