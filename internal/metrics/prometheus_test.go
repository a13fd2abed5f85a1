package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func describeLabels(t *testing.T, c prometheus.Collector) []string {
	t.Helper()

	descCh := make(chan *prometheus.Desc, 8)
	c.Describe(descCh)
	close(descCh)

	var desc *prometheus.Desc
	for d := range descCh {
		desc = d
		break
	}
	if desc == nil {
		t.Fatalf("no descriptor returned")
	}

	s := desc.String()
	start := strings.Index(s, "variableLabels: {")
	if start < 0 {
		return nil
	}
	start += len("variableLabels: {")
	end := strings.Index(s[start:], "}")
	if end < 0 {
		t.Fatalf("failed to parse descriptor: %s", s)
	}
	raw := strings.TrimSpace(s[start : start+end])
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func assertLabelsEqual(t *testing.T, got, want []string) {
	t.Helper()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("labels mismatch\ngot:  %v\nwant: %v", got, want)
	}
}

func TestPrometheusLabelSchema_LowCardinality(t *testing.T) {
	assertLabelsEqual(t, describeLabels(t, CacheHits), []string{"key_kind"})
	assertLabelsEqual(t, describeLabels(t, CircuitState), []string{"provider"})
	assertLabelsEqual(t, describeLabels(t, CircuitTransitions), []string{"provider", "from", "to"})
	assertLabelsEqual(t, describeLabels(t, RetryAttempts), []string{"provider", "operation"})
	assertLabelsEqual(t, describeLabels(t, OperationLatency), []string{"provider", "operation"})
	assertLabelsEqual(t, describeLabels(t, OperationErrors), []string{"provider", "operation", "kind"})
	assertLabelsEqual(t, describeLabels(t, ProviderHealth), []string{"provider"})
}

func TestCircuitState_RecordsGaugeValue(t *testing.T) {
	CircuitState.WithLabelValues("A").Set(1)
	value := testGaugeValue(t, CircuitState.WithLabelValues("A"))
	if value != 1 {
		t.Fatalf("expected gauge value 1, got %v", value)
	}
}

func testGaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetGauge().GetValue()
}
