package digit

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// ErrEmptyID is returned when the id generator answers without an id.
var ErrEmptyID = errors.New("idgen returned an empty id")

// IDGenRequest asks the generator for one id from a template.
type IDGenRequest struct {
	TemplateCode string            `json:"templateCode" validate:"required"`
	Variables    map[string]string `json:"variables,omitempty"`
}

// IDGenResponse carries the generated id.
type IDGenResponse struct {
	ID string `json:"id"`
}

// IDGenClient talks to the id generation service.
type IDGenClient struct {
	*Client
}

// NewIDGenClient wraps c.
func NewIDGenClient(c *Client) *IDGenClient {
	return &IDGenClient{Client: c}
}

// GenerateID posts req to /idgen/v1/generate.
func (c *IDGenClient) GenerateID(ctx context.Context, req IDGenRequest) (*IDGenResponse, error) {
	var out IDGenResponse
	if _, err := c.do(ctx, call{
		operation: "generate",
		method:    http.MethodPost,
		path:      "/idgen/v1/generate",
		body:      req,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Generate returns a new id for templateCode. A blank id is an error.
func (c *IDGenClient) Generate(ctx context.Context, templateCode string, variables map[string]string) (string, error) {
	resp, err := c.GenerateID(ctx, IDGenRequest{TemplateCode: templateCode, Variables: variables})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.ID) == "" {
		return "", ErrEmptyID
	}
	return resp.ID, nil
}
