package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/domain"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/platform/logger"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/store"
)

func newChildLogger(l *slog.Logger, component string) *slog.Logger {
	if l == nil {
		l = slog.Default()
	}
	return l.With(slog.String("component", component))
}

func deleteByServiceRequestID(ctx context.Context, db store.DBTX, table, id string) error {
	// table is never user input.
	_, err := db.ExecContext(ctx, "DELETE FROM "+table+" WHERE service_request_id = $1", id)
	return MapError(err)
}

// PostgresAddressStore implements store.AddressStore.
type PostgresAddressStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAddressStore creates an address store over db.
func NewPostgresAddressStore(db store.DBTX, logger *slog.Logger) *PostgresAddressStore {
	return &PostgresAddressStore{db: db, logger: newChildLogger(logger, "address_store")}
}

var _ store.AddressStore = (*PostgresAddressStore)(nil)

// WithTx implements store.AddressStore.
func (s *PostgresAddressStore) WithTx(tx *sql.Tx) store.AddressStore {
	return &PostgresAddressStore{db: tx, logger: s.logger}
}

// Create inserts addr, assigning it an id when it has none.
func (s *PostgresAddressStore) Create(
	ctx context.Context,
	serviceRequestID string,
	addr *domain.Address,
	audit domain.AuditDetails,
) error {
	if addr.ID == "" {
		addr.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO citizen_address (
			id, service_request_id, address, city, pincode, latitude, longitude,
			created_by, created_time, last_modified_by, last_modified_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		addr.ID, serviceRequestID, addr.AddressLine, addr.City, addr.Pincode,
		addr.Latitude, addr.Longitude,
		audit.CreatedBy, audit.CreatedTime, audit.LastModifiedBy, audit.LastModifiedTime,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to create address",
			slog.String("error", err.Error()),
			slog.String("service_request_id", serviceRequestID))
		return MapError(err)
	}
	return nil
}

// FindByServiceRequestID implements store.AddressStore.
func (s *PostgresAddressStore) FindByServiceRequestID(
	ctx context.Context,
	serviceRequestID string,
) ([]domain.Address, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, address, city, pincode, latitude, longitude
		FROM citizen_address
		WHERE service_request_id = $1
		ORDER BY created_time ASC`, serviceRequestID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.Address
	for rows.Next() {
		var a domain.Address
		var lat, lng sql.NullFloat64
		if err := rows.Scan(&a.ID, &a.AddressLine, &a.City, &a.Pincode, &lat, &lng); err != nil {
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		if lat.Valid {
			a.Latitude = &lat.Float64
		}
		if lng.Valid {
			a.Longitude = &lng.Float64
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteByServiceRequestID implements store.AddressStore.
func (s *PostgresAddressStore) DeleteByServiceRequestID(ctx context.Context, serviceRequestID string) error {
	return deleteByServiceRequestID(ctx, s.db, "citizen_address", serviceRequestID)
}

// PostgresDocumentStore implements store.DocumentStore.
type PostgresDocumentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDocumentStore creates a document store over db.
func NewPostgresDocumentStore(db store.DBTX, logger *slog.Logger) *PostgresDocumentStore {
	return &PostgresDocumentStore{db: db, logger: newChildLogger(logger, "document_store")}
}

var _ store.DocumentStore = (*PostgresDocumentStore)(nil)

// WithTx implements store.DocumentStore.
func (s *PostgresDocumentStore) WithTx(tx *sql.Tx) store.DocumentStore {
	return &PostgresDocumentStore{db: tx, logger: s.logger}
}

// Create inserts doc, assigning it an id when it has none.
func (s *PostgresDocumentStore) Create(
	ctx context.Context,
	serviceRequestID string,
	doc *domain.Document,
	audit domain.AuditDetails,
) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO citizen_document (
			id, service_request_id, document_type, file_store_id, document_uid,
			created_by, created_time, last_modified_by, last_modified_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		doc.ID, serviceRequestID, doc.DocumentType, doc.FileStoreID, doc.DocumentUID,
		audit.CreatedBy, audit.CreatedTime, audit.LastModifiedBy, audit.LastModifiedTime,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to create document",
			slog.String("error", err.Error()),
			slog.String("service_request_id", serviceRequestID))
		return MapError(err)
	}
	return nil
}

// FindByServiceRequestID implements store.DocumentStore.
func (s *PostgresDocumentStore) FindByServiceRequestID(
	ctx context.Context,
	serviceRequestID string,
) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_type, file_store_id, document_uid
		FROM citizen_document
		WHERE service_request_id = $1
		ORDER BY created_time ASC`, serviceRequestID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.Document
	for rows.Next() {
		var d domain.Document
		if err := rows.Scan(&d.ID, &d.DocumentType, &d.FileStoreID, &d.DocumentUID); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DeleteByServiceRequestID implements store.DocumentStore.
func (s *PostgresDocumentStore) DeleteByServiceRequestID(ctx context.Context, serviceRequestID string) error {
	return deleteByServiceRequestID(ctx, s.db, "citizen_document", serviceRequestID)
}

// PostgresAuditStore implements store.AuditStore.
type PostgresAuditStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAuditStore creates an audit store over db.
func NewPostgresAuditStore(db store.DBTX, logger *slog.Logger) *PostgresAuditStore {
	return &PostgresAuditStore{db: db, logger: newChildLogger(logger, "audit_store")}
}

var _ store.AuditStore = (*PostgresAuditStore)(nil)

// WithTx implements store.AuditStore.
func (s *PostgresAuditStore) WithTx(tx *sql.Tx) store.AuditStore {
	return &PostgresAuditStore{db: tx, logger: s.logger}
}

// Create implements store.AuditStore.
func (s *PostgresAuditStore) Create(ctx context.Context, entry *domain.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO citizen_audit (
			id, service_request_id, action, status, performed_by, performed_time, remarks
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.ServiceRequestID, entry.Action, string(entry.Status),
		entry.PerformedBy, entry.PerformedTime, entry.Remarks,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to create audit entry",
			slog.String("error", err.Error()),
			slog.String("service_request_id", entry.ServiceRequestID))
		return MapError(err)
	}
	return nil
}

// ListByServiceRequestID implements store.AuditStore.
func (s *PostgresAuditStore) ListByServiceRequestID(
	ctx context.Context,
	serviceRequestID string,
) ([]domain.AuditEntry, error) {
	return s.query(ctx, `
		SELECT id, service_request_id, action, status, performed_by, performed_time, remarks
		FROM citizen_audit
		WHERE service_request_id = $1
		ORDER BY performed_time DESC`, serviceRequestID)
}

// FindByPerformedBy implements store.AuditStore.
func (s *PostgresAuditStore) FindByPerformedBy(ctx context.Context, performedBy string) ([]domain.AuditEntry, error) {
	return s.query(ctx, `
		SELECT id, service_request_id, action, status, performed_by, performed_time, remarks
		FROM citizen_audit
		WHERE performed_by = $1
		ORDER BY performed_time DESC`, performedBy)
}

func (s *PostgresAuditStore) query(ctx context.Context, query string, arg string) ([]domain.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]domain.AuditEntry, 0)
	for rows.Next() {
		var e domain.AuditEntry
		var status string
		if err := rows.Scan(
			&e.ID, &e.ServiceRequestID, &e.Action, &status,
			&e.PerformedBy, &e.PerformedTime, &e.Remarks,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.Status = domain.Status(status)
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteByServiceRequestID implements store.AuditStore.
func (s *PostgresAuditStore) DeleteByServiceRequestID(ctx context.Context, serviceRequestID string) error {
	return deleteByServiceRequestID(ctx, s.db, "citizen_audit", serviceRequestID)
}

// PostgresWorkflowHistoryStore implements store.WorkflowHistoryStore.
type PostgresWorkflowHistoryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresWorkflowHistoryStore creates a workflow history store over db.
func NewPostgresWorkflowHistoryStore(db store.DBTX, logger *slog.Logger) *PostgresWorkflowHistoryStore {
	return &PostgresWorkflowHistoryStore{db: db, logger: newChildLogger(logger, "workflow_history_store")}
}

var _ store.WorkflowHistoryStore = (*PostgresWorkflowHistoryStore)(nil)

// WithTx implements store.WorkflowHistoryStore.
func (s *PostgresWorkflowHistoryStore) WithTx(tx *sql.Tx) store.WorkflowHistoryStore {
	return &PostgresWorkflowHistoryStore{db: tx, logger: s.logger}
}

// Create implements store.WorkflowHistoryStore.
func (s *PostgresWorkflowHistoryStore) Create(ctx context.Context, h *domain.WorkflowHistory) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}

	assignees := h.Assignees
	if assignees == nil {
		assignees = []string{}
	}
	assigneesJSON, err := json.Marshal(assignees)
	if err != nil {
		return fmt.Errorf("failed to encode assignees: %w", err)
	}

	var docs any
	if len(h.VerificationDocs) > 0 {
		docs = []byte(h.VerificationDocs)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO citizen_workflow (
			id, service_request_id, action, assignes, comments, verification_docs,
			created_by, created_time, last_modified_by, last_modified_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		h.ID, h.ServiceRequestID, h.Action, assigneesJSON, h.Comments, docs,
		h.AuditDetails.CreatedBy, h.AuditDetails.CreatedTime,
		h.AuditDetails.LastModifiedBy, h.AuditDetails.LastModifiedTime,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to create workflow history",
			slog.String("error", err.Error()),
			slog.String("service_request_id", h.ServiceRequestID))
		return MapError(err)
	}
	return nil
}

// FindByServiceRequestID implements store.WorkflowHistoryStore.
func (s *PostgresWorkflowHistoryStore) FindByServiceRequestID(
	ctx context.Context,
	serviceRequestID string,
) ([]domain.WorkflowHistory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, service_request_id, action, assignes, comments, verification_docs,
			created_by, created_time, last_modified_by, last_modified_time
		FROM citizen_workflow
		WHERE service_request_id = $1
		ORDER BY created_time ASC`, serviceRequestID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.WorkflowHistory
	for rows.Next() {
		var h domain.WorkflowHistory
		var assignees, docs []byte
		if err := rows.Scan(
			&h.ID, &h.ServiceRequestID, &h.Action, &assignees, &h.Comments, &docs,
			&h.AuditDetails.CreatedBy, &h.AuditDetails.CreatedTime,
			&h.AuditDetails.LastModifiedBy, &h.AuditDetails.LastModifiedTime,
		); err != nil {
			return nil, fmt.Errorf("failed to scan workflow history: %w", err)
		}
		if len(assignees) > 0 {
			if err := json.Unmarshal(assignees, &h.Assignees); err != nil {
				return nil, fmt.Errorf("failed to decode assignees: %w", err)
			}
		}
		if len(docs) > 0 {
			h.VerificationDocs = json.RawMessage(docs)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// DeleteByServiceRequestID implements store.WorkflowHistoryStore.
func (s *PostgresWorkflowHistoryStore) DeleteByServiceRequestID(ctx context.Context, serviceRequestID string) error {
	return deleteByServiceRequestID(ctx, s.db, "citizen_workflow", serviceRequestID)
}
