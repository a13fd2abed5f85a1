package obslog

import "context"

type correlationIDKey struct{}

// ContextWithCorrelationID attaches a correlation id to ctx for propagation
// through adapters, the cache, and the resilience pipeline.
func ContextWithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, correlationID)
}

// CorrelationIDFromContext extracts the correlation id carried by ctx, or
// the empty string if none was attached.
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return id
	}
	return ""
}
