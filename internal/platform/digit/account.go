package digit

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// OIDCConfig is a tenant's identity provider settings.
type OIDCConfig struct {
	Issuer   string `json:"issuer"`
	ClientID string `json:"client_id"`
}

// Tenant is an account registered with the account service.
type Tenant struct {
	ID            string     `json:"id,omitempty"`
	Name          string     `json:"name" validate:"required"`
	Domain        string     `json:"domain,omitempty"`
	Status        string     `json:"status,omitempty"`
	Administrator string     `json:"administrator,omitempty"`
	OIDCConfig    OIDCConfig `json:"oidc_config"`
	CreatedBy     string     `json:"created_by,omitempty"`
	CreatedOn     time.Time  `json:"created_on,omitempty"`
	ModifiedBy    string     `json:"modified_by,omitempty"`
	ModifiedOn    time.Time  `json:"modified_on,omitempty"`
}

// AccountClient talks to the account service.
type AccountClient struct {
	*Client
}

// NewAccountClient wraps c.
func NewAccountClient(c *Client) *AccountClient {
	return &AccountClient{Client: c}
}

// GetTenantByCode fetches a tenant. An unknown code returns (nil, nil).
func (c *AccountClient) GetTenantByCode(ctx context.Context, code string) (*Tenant, error) {
	var t Tenant
	if _, err := c.do(ctx, call{
		operation: "get_tenant",
		method:    http.MethodGet,
		path:      "/v3/accounts/" + url.PathEscape(code),
	}, &t); err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// CreateTenant registers t and returns the stored tenant.
func (c *AccountClient) CreateTenant(ctx context.Context, t Tenant) (*Tenant, error) {
	var out Tenant
	if _, err := c.do(ctx, call{
		operation: "create_tenant",
		method:    http.MethodPost,
		path:      "/v3/accounts/",
		body:      t,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
