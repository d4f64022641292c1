package middleware

import (
	"net/http"

	"github.com/srujana-egov/pgr-on-digit3.0/internal/platform/digit"
)

// PropagateHeaders copies the identity headers of the incoming request into
// the context, where every DIGIT client call picks them up.
func PropagateHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := digit.WithHeaders(r.Context(), digit.HeadersFromRequest(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
