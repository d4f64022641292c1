package digit

import (
	"context"
	"net/http"
)

// Propagated header names.
const (
	HeaderAuthorization = "Authorization"
	HeaderTenantID      = "X-Tenant-ID"
	HeaderClientID      = "X-Client-Id"
	HeaderCorrelationID = "X-Correlation-ID"
	HeaderRequestID     = "X-Request-ID"
)

// Headers is the identity and tracing context forwarded on every outbound call.
type Headers struct {
	Authorization string
	TenantID      string
	ClientID      string
	CorrelationID string
	RequestID     string
}

type headersKey struct{}

// WithHeaders stores h in ctx.
func WithHeaders(ctx context.Context, h Headers) context.Context {
	return context.WithValue(ctx, headersKey{}, h)
}

// HeadersFromContext returns the headers stored by WithHeaders, or the zero value.
func HeadersFromContext(ctx context.Context) Headers {
	if ctx == nil {
		return Headers{}
	}
	h, _ := ctx.Value(headersKey{}).(Headers)
	return h
}

// HeadersFromRequest captures the propagated headers of an inbound request.
func HeadersFromRequest(r *http.Request) Headers {
	return Headers{
		Authorization: r.Header.Get(HeaderAuthorization),
		TenantID:      r.Header.Get(HeaderTenantID),
		ClientID:      r.Header.Get(HeaderClientID),
		CorrelationID: r.Header.Get(HeaderCorrelationID),
		RequestID:     r.Header.Get(HeaderRequestID),
	}
}

// IsEmpty reports whether no identity header is present.
func (h Headers) IsEmpty() bool {
	return h.Authorization == "" && h.TenantID == "" && h.ClientID == ""
}

// Apply sets the non-empty headers on req.
func (h Headers) Apply(req *http.Request) {
	set := func(name, value string) {
		if value != "" {
			req.Header.Set(name, value)
		}
	}
	set(HeaderAuthorization, h.Authorization)
	set(HeaderTenantID, h.TenantID)
	set(HeaderClientID, h.ClientID)
	set(HeaderCorrelationID, h.CorrelationID)
	set(HeaderRequestID, h.RequestID)
}
