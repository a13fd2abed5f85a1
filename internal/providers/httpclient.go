package providers

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/shipflow/gateway/pkg/gwerrors"
)

// DecodeJSON unmarshals a wire response body, using the same goccy/go-json
// codec the cache layer uses for rate-quote payloads.
func DecodeJSON(raw []byte, v any) error {
	return json.Unmarshal(raw, v)
}

// CallJSON performs one upstream round trip: marshal reqBody (if any) as
// the request body, issue method against url, and classify any failure per
// the taxonomy in pkg/gwerrors. It is the wire-transport primitive every
// concrete adapter's QuoteFunc/PurchaseFunc/HealthFunc is built on, so the
// classification rules live in exactly one place.
func CallJSON(ctx context.Context, client *http.Client, providerName, operation, correlationID, method, url string, headers map[string]string, reqBody any) ([]byte, *gwerrors.Error) {
	var bodyReader io.Reader
	if reqBody != nil {
		encoded, err := json.Marshal(reqBody)
		if err != nil {
			return nil, gwerrors.New(gwerrors.KindConfiguration, providerName, operation, correlationID, err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, gwerrors.New(gwerrors.KindConfiguration, providerName, operation, correlationID, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, gwerrors.Classify(providerName, operation, correlationID, gwerrors.UpstreamFailure{
			Cause:       err,
			DeadlineHit: ctx.Err() == context.DeadlineExceeded,
		})
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, gwerrors.New(gwerrors.KindNetwork, providerName, operation, correlationID, err)
	}

	if resp.StatusCode >= 400 {
		return nil, gwerrors.Classify(providerName, operation, correlationID, gwerrors.UpstreamFailure{
			HTTPStatus:    resp.StatusCode,
			RetryAfterHdr: resp.Header.Get("Retry-After"),
			Message:       string(raw),
		})
	}

	return raw, nil
}
