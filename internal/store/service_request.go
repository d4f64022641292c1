package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/srujana-egov/pgr-on-digit3.0/internal/domain"
)

// Search result limits.
const (
	DefaultSearchLimit = 50
	MaxSearchLimit     = 200
)

// SearchCriteria is the closed set of filters supported by ServiceRequestStore.Search.
// TenantID is mandatory; every other field is optional and ignored when zero.
type SearchCriteria struct {
	TenantID    string
	ServiceCode string
	Status      domain.Status
	Mobile      string
	// Locality matches a case-insensitive substring of the address line or
	// city, or the pincode exactly.
	Locality string
	FromDate time.Time
	ToDate   time.Time
	Limit    int
	Offset   int
}

// Normalize trims inputs and clamps paging to sane bounds.
func (c *SearchCriteria) Normalize() {
	c.TenantID = strings.TrimSpace(c.TenantID)
	c.ServiceCode = strings.TrimSpace(c.ServiceCode)
	c.Mobile = strings.TrimSpace(c.Mobile)
	c.Locality = strings.TrimSpace(c.Locality)

	if c.Limit <= 0 {
		c.Limit = DefaultSearchLimit
	}
	if c.Limit > MaxSearchLimit {
		c.Limit = MaxSearchLimit
	}
	if c.Offset < 0 {
		c.Offset = 0
	}
}

// ServiceRequestStore persists the primary service request record.
type ServiceRequestStore interface {
	// Create inserts a new service request.
	// Returns ErrServiceRequestExists if the id is already used.
	Create(ctx context.Context, sr *domain.ServiceRequest) error

	// Update overwrites the mutable columns of an existing service request.
	// Returns ErrServiceRequestNotFound if (id, tenant) does not exist.
	Update(ctx context.Context, sr *domain.ServiceRequest) error

	// GetByIDAndTenant fetches one service request without child records.
	// Returns ErrServiceRequestNotFound if it does not exist.
	GetByIDAndTenant(ctx context.Context, id, tenantID string) (*domain.ServiceRequest, error)

	// Search returns the requests matching criteria, newest first.
	Search(ctx context.Context, criteria SearchCriteria) ([]*domain.ServiceRequest, error)

	// WithTx returns a store that runs on the given transaction.
	WithTx(tx *sql.Tx) ServiceRequestStore
}

// AddressStore persists the address rows owned by a service request.
type AddressStore interface {
	Create(ctx context.Context, serviceRequestID string, addr *domain.Address, audit domain.AuditDetails) error
	FindByServiceRequestID(ctx context.Context, serviceRequestID string) ([]domain.Address, error)
	DeleteByServiceRequestID(ctx context.Context, serviceRequestID string) error
	WithTx(tx *sql.Tx) AddressStore
}

// DocumentStore persists the documents attached to a service request.
type DocumentStore interface {
	Create(ctx context.Context, serviceRequestID string, doc *domain.Document, audit domain.AuditDetails) error
	FindByServiceRequestID(ctx context.Context, serviceRequestID string) ([]domain.Document, error)
	DeleteByServiceRequestID(ctx context.Context, serviceRequestID string) error
	WithTx(tx *sql.Tx) DocumentStore
}

// AuditStore persists a service request's audit trail.
type AuditStore interface {
	Create(ctx context.Context, entry *domain.AuditEntry) error
	// ListByServiceRequestID returns the trail ordered by performed time, newest first.
	ListByServiceRequestID(ctx context.Context, serviceRequestID string) ([]domain.AuditEntry, error)
	FindByPerformedBy(ctx context.Context, performedBy string) ([]domain.AuditEntry, error)
	DeleteByServiceRequestID(ctx context.Context, serviceRequestID string) error
	WithTx(tx *sql.Tx) AuditStore
}

// WorkflowHistoryStore persists the transitions executed for a service request.
type WorkflowHistoryStore interface {
	Create(ctx context.Context, h *domain.WorkflowHistory) error
	FindByServiceRequestID(ctx context.Context, serviceRequestID string) ([]domain.WorkflowHistory, error)
	DeleteByServiceRequestID(ctx context.Context, serviceRequestID string) error
	WithTx(tx *sql.Tx) WorkflowHistoryStore
}
