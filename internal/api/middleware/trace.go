package middleware

import (
	"log/slog"
	"net/http"

	"github.com/srujana-egov/pgr-on-digit3.0/internal/api/shared"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/platform/digit"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/platform/logger"
)

// TraceIDHeader echoes the request's trace id on every response.
const TraceIDHeader = "X-Trace-ID"

// NewTraceMiddleware assigns each request a trace id, reusing an incoming
// X-Correlation-ID, and stores a logger tagged with it in the context.
func NewTraceMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := shared.SetTraceID(r.Context(), r.Header.Get(digit.HeaderCorrelationID))
			traceID := shared.GetTraceID(ctx)

			log := base.With(slog.String("trace_id", traceID))
			ctx = logger.WithLogger(ctx, log)
			w.Header().Set(TraceIDHeader, traceID)

			log.Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
