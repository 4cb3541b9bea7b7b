package transport

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// HeaderCorrelationID is attached to every outbound request for tracing.
const HeaderCorrelationID = "X-Correlation-ID"

type contextKey string

const correlationIDKey contextKey = "correlation_id"

// WithCorrelationID returns a context carrying a caller-chosen correlation
// identifier. Requests issued under it reuse the identifier instead of
// generating one.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationID extracts the correlation identifier from ctx, if any.
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}

// ensureCorrelationID guarantees the request carries a correlation header:
// caller-supplied header wins, then the context value, then a fresh UUID.
func ensureCorrelationID(req *http.Request) string {
	if id := req.Header.Get(HeaderCorrelationID); id != "" {
		return id
	}
	id := CorrelationID(req.Context())
	if id == "" {
		id = uuid.New().String()
	}
	req.Header.Set(HeaderCorrelationID, id)
	return id
}
