package shared

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// ContextKey is the type of context keys owned by the HTTP layer.
type ContextKey string

const (
	// TraceIDKey is the key for the trace ID in the request context
	TraceIDKey ContextKey = "traceID"

	// ClaimsKey is the key for the caller's token claims
	ClaimsKey ContextKey = "claims"
)

// SetTraceID stores traceID in ctx, generating a 32 character hex id when
// traceID is blank.
func SetTraceID(ctx context.Context, traceID string) context.Context {
	traceID = strings.TrimSpace(traceID)
	if traceID == "" {
		traceID = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace ID from the context.
// If no trace ID exists, it returns an empty string.
func GetTraceID(ctx context.Context) string {
	traceID, _ := ctx.Value(TraceIDKey).(string)
	return traceID
}

// Claims is what the HTTP layer knows about the caller. Every field may be
// empty when the token is missing or malformed.
type Claims struct {
	Subject  string
	TenantID string
	Roles    []string
}

// WithClaims stores claims in ctx.
func WithClaims(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetClaims returns the claims stored in ctx, or zero claims.
func GetClaims(ctx context.Context) Claims {
	claims, _ := ctx.Value(ClaimsKey).(Claims)
	return claims
}
