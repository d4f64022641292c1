package digit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// Boundary is an administrative area known to the boundary service.
type Boundary struct {
	ID                string          `json:"id,omitempty"`
	TenantID          string          `json:"tenantId,omitempty"`
	Code              string          `json:"code"`
	Geometry          json.RawMessage `json:"geometry,omitempty"`
	AdditionalDetails json.RawMessage `json:"additionalDetails,omitempty"`
}

type boundarySearchResponse struct {
	Boundary []Boundary `json:"boundary"`
}

// BoundaryClient talks to the boundary service.
type BoundaryClient struct {
	*Client
}

// NewBoundaryClient wraps c.
func NewBoundaryClient(c *Client) *BoundaryClient {
	return &BoundaryClient{Client: c}
}

// SearchByCodes returns the boundaries whose code is in codes.
func (c *BoundaryClient) SearchByCodes(ctx context.Context, codes []string) ([]Boundary, error) {
	var out boundarySearchResponse
	if _, err := c.do(ctx, call{
		operation: "search",
		method:    http.MethodGet,
		path:      "/boundary/v1",
		query:     url.Values{"codes": {strings.Join(codes, ",")}},
	}, &out); err != nil {
		return nil, err
	}
	if out.Boundary == nil {
		out.Boundary = []Boundary{}
	}
	return out.Boundary, nil
}

// IsValid reports whether the service knows a boundary with exactly this code.
// A blank code is never valid and is not sent.
func (c *BoundaryClient) IsValid(ctx context.Context, code string) (bool, error) {
	if strings.TrimSpace(code) == "" {
		return false, nil
	}
	boundaries, err := c.SearchByCodes(ctx, []string{code})
	if err != nil {
		return false, err
	}
	for _, b := range boundaries {
		if b.Code == code {
			return true, nil
		}
	}
	return false, nil
}
