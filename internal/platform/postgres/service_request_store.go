package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/domain"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/platform/logger"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/store"
)

// psql builds PostgreSQL statements with $n placeholders.
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var serviceRequestColumns = []string{
	"s.service_request_id",
	"s.tenant_id",
	"s.service_code",
	"s.description",
	"s.account_id",
	"s.source",
	"s.application_status",
	"s.file_store_id",
	"s.file_valid",
	"s.boundary_code",
	"s.boundary_valid",
	"s.email",
	"s.mobile",
	"s.workflow_instance_id",
	"s.process_id",
	"s.action",
	"s.created_by",
	"s.created_time",
	"s.last_modified_by",
	"s.last_modified_time",
}

// PostgresServiceRequestStore implements store.ServiceRequestStore.
type PostgresServiceRequestStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresServiceRequestStore creates a store over db, which may be a
// *sql.DB or a *sql.Tx. A nil logger falls back to slog.Default.
func NewPostgresServiceRequestStore(db store.DBTX, logger *slog.Logger) *PostgresServiceRequestStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresServiceRequestStore{
		db:     db,
		logger: logger.With(slog.String("component", "service_request_store")),
	}
}

var _ store.ServiceRequestStore = (*PostgresServiceRequestStore)(nil)

// WithTx implements store.ServiceRequestStore.
func (s *PostgresServiceRequestStore) WithTx(tx *sql.Tx) store.ServiceRequestStore {
	return &PostgresServiceRequestStore{db: tx, logger: s.logger}
}

// Create implements store.ServiceRequestStore.Create.
func (s *PostgresServiceRequestStore) Create(ctx context.Context, sr *domain.ServiceRequest) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := sr.Validate(); err != nil {
		log.Warn("service request validation failed during create",
			slog.String("error", err.Error()),
			slog.String("service_request_id", sr.ID))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO citizen_service (
			service_request_id, tenant_id, service_code, description, account_id, source,
			application_status, file_store_id, file_valid, boundary_code, boundary_valid,
			email, mobile, workflow_instance_id, process_id, action,
			created_by, created_time, last_modified_by, last_modified_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`
	_, err := s.db.ExecContext(ctx, query,
		sr.ID,
		sr.TenantID,
		sr.ServiceCode,
		sr.Description,
		sr.AccountID,
		sr.Source,
		string(sr.ApplicationStatus),
		sr.FileStoreID,
		sr.FileValid,
		sr.BoundaryCode,
		sr.BoundaryValid,
		sr.Email,
		sr.Mobile,
		sr.WorkflowInstanceID,
		sr.ProcessID,
		sr.Action,
		sr.AuditDetails.CreatedBy,
		sr.AuditDetails.CreatedTime,
		sr.AuditDetails.LastModifiedBy,
		sr.AuditDetails.LastModifiedTime,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("duplicate service request id",
				slog.String("service_request_id", sr.ID))
			return fmt.Errorf("%w: %s", store.ErrServiceRequestExists, sr.ID)
		}
		log.Error("failed to create service request",
			slog.String("error", err.Error()),
			slog.String("service_request_id", sr.ID))
		return MapError(err)
	}

	log.Debug("service request created",
		slog.String("service_request_id", sr.ID),
		slog.String("tenant_id", sr.TenantID),
		slog.String("status", sr.ApplicationStatus.String()))
	return nil
}

// Update implements store.ServiceRequestStore.Update.
func (s *PostgresServiceRequestStore) Update(ctx context.Context, sr *domain.ServiceRequest) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := sr.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE citizen_service SET
			description = $1, account_id = $2, application_status = $3,
			file_store_id = $4, file_valid = $5, boundary_code = $6, boundary_valid = $7,
			email = $8, mobile = $9, workflow_instance_id = $10, process_id = $11, action = $12,
			last_modified_by = $13, last_modified_time = $14
		WHERE service_request_id = $15 AND tenant_id = $16
	`
	result, err := s.db.ExecContext(ctx, query,
		sr.Description,
		sr.AccountID,
		string(sr.ApplicationStatus),
		sr.FileStoreID,
		sr.FileValid,
		sr.BoundaryCode,
		sr.BoundaryValid,
		sr.Email,
		sr.Mobile,
		sr.WorkflowInstanceID,
		sr.ProcessID,
		sr.Action,
		sr.AuditDetails.LastModifiedBy,
		sr.AuditDetails.LastModifiedTime,
		sr.ID,
		sr.TenantID,
	)
	if err != nil {
		log.Error("failed to update service request",
			slog.String("error", err.Error()),
			slog.String("service_request_id", sr.ID))
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrServiceRequestNotFound)
}

// GetByIDAndTenant implements store.ServiceRequestStore.GetByIDAndTenant.
func (s *PostgresServiceRequestStore) GetByIDAndTenant(
	ctx context.Context,
	id, tenantID string,
) (*domain.ServiceRequest, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query, args, err := psql.Select(serviceRequestColumns...).
		From("citizen_service s").
		Where(squirrel.Eq{"s.service_request_id": id, "s.tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	sr, err := scanServiceRequest(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("service request not found",
				slog.String("service_request_id", id),
				slog.String("tenant_id", tenantID))
			return nil, store.ErrServiceRequestNotFound
		}
		log.Error("failed to get service request",
			slog.String("error", err.Error()),
			slog.String("service_request_id", id))
		return nil, MapError(err)
	}
	return sr, nil
}

// Search implements store.ServiceRequestStore.Search.
func (s *PostgresServiceRequestStore) Search(
	ctx context.Context,
	criteria store.SearchCriteria,
) ([]*domain.ServiceRequest, error) {
	criteria.Normalize()
	if criteria.TenantID == "" {
		return nil, fmt.Errorf("%w: tenant is required for search", store.ErrInvalidEntity)
	}

	q := psql.Select(serviceRequestColumns...).
		From("citizen_service s").
		Where(squirrel.Eq{"s.tenant_id": criteria.TenantID})

	if criteria.ServiceCode != "" {
		q = q.Where(squirrel.Eq{"s.service_code": criteria.ServiceCode})
	}
	if criteria.Status != "" {
		q = q.Where(squirrel.Eq{"s.application_status": string(criteria.Status)})
	}
	if criteria.Mobile != "" {
		q = q.Where(squirrel.Eq{"s.mobile": criteria.Mobile})
	}
	if criteria.Locality != "" {
		pattern := "%" + escapeLike(criteria.Locality) + "%"
		q = q.Where(squirrel.Expr(
			`EXISTS (SELECT 1 FROM citizen_address a WHERE a.service_request_id = s.service_request_id`+
				` AND (a.address ILIKE ? OR a.city ILIKE ? OR a.pincode = ?))`,
			pattern, pattern, criteria.Locality,
		))
	}
	if !criteria.FromDate.IsZero() {
		q = q.Where(squirrel.GtOrEq{"s.created_time": criteria.FromDate.UnixMilli()})
	}
	if !criteria.ToDate.IsZero() {
		q = q.Where(squirrel.LtOrEq{"s.created_time": criteria.ToDate.UnixMilli()})
	}

	q = q.OrderBy("s.created_time DESC").
		Limit(uint64(criteria.Limit)).
		Offset(uint64(criteria.Offset))

	return s.list(ctx, q)
}

func (s *PostgresServiceRequestStore) list(
	ctx context.Context,
	q squirrel.SelectBuilder,
) ([]*domain.ServiceRequest, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query service requests", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]*domain.ServiceRequest, 0)
	for rows.Next() {
		sr, err := scanServiceRequest(rows)
		if err != nil {
			log.Error("failed to scan service request row", slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to scan service request: %w", err)
		}
		results = append(results, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating service request rows: %w", err)
	}

	return results, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanServiceRequest(row rowScanner) (*domain.ServiceRequest, error) {
	var sr domain.ServiceRequest
	var status string

	err := row.Scan(
		&sr.ID,
		&sr.TenantID,
		&sr.ServiceCode,
		&sr.Description,
		&sr.AccountID,
		&sr.Source,
		&status,
		&sr.FileStoreID,
		&sr.FileValid,
		&sr.BoundaryCode,
		&sr.BoundaryValid,
		&sr.Email,
		&sr.Mobile,
		&sr.WorkflowInstanceID,
		&sr.ProcessID,
		&sr.Action,
		&sr.AuditDetails.CreatedBy,
		&sr.AuditDetails.CreatedTime,
		&sr.AuditDetails.LastModifiedBy,
		&sr.AuditDetails.LastModifiedTime,
	)
	if err != nil {
		return nil, err
	}
	sr.ApplicationStatus = domain.Status(status)
	return &sr, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
