package obslog

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_WithCorrelation_AddsField(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Output: &buf, JSONFormat: true})
	l.WithCorrelation("req-42").Info("quote requested")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-42", entry["correlation_id"])
	assert.Equal(t, "quote requested", entry["msg"])
}

func TestLogger_WithContext_NoCorrelation_NoField(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Output: &buf, JSONFormat: true})
	l.WithContext(context.Background()).Info("health check")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	_, present := entry["correlation_id"]
	assert.False(t, present)
}

func TestCorrelationID_RoundTripsThroughContext(t *testing.T) {
	ctx := ContextWithCorrelationID(context.Background(), "corr-1")
	assert.Equal(t, "corr-1", CorrelationIDFromContext(ctx))
}
