package trigger

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const correlationIDKey contextKey = "correlation_id"

// CorrelationHeader carries the request correlation id.
const CorrelationHeader = "X-Correlation-ID"

// CorrelationID reads X-Correlation-ID or generates one, stores it on the
// request context and echoes it in the response.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(CorrelationHeader)
		if id == "" {
			id = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), correlationIDKey, id)
		w.Header().Set(CorrelationHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CorrelationIDFrom returns the id stored by CorrelationID, or "".
func CorrelationIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(correlationIDKey).(string)
	return v
}
