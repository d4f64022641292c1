package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/domain"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAudit = domain.AuditDetails{
	CreatedBy:        "acc-1",
	CreatedTime:      1700000000000,
	LastModifiedBy:   "acc-1",
	LastModifiedTime: 1700000000000,
}

func TestPostgresAddressStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	s := NewPostgresAddressStore(db, nil)
	ctx := context.Background()

	lat := 31.63
	addr := &domain.Address{AddressLine: "12 Mall Road", City: "Amritsar", Pincode: "143001", Latitude: &lat}

	mock.ExpectExec("INSERT INTO citizen_address").
		WithArgs(sqlmock.AnyArg(), "PGR-1", "12 Mall Road", "Amritsar", "143001", &lat, nil,
			"acc-1", int64(1700000000000), "acc-1", int64(1700000000000)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.Create(ctx, "PGR-1", addr, testAudit))
	assert.NotEmpty(t, addr.ID, "id is assigned on insert")

	mock.ExpectQuery("FROM citizen_address").
		WithArgs("PGR-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "address", "city", "pincode", "latitude", "longitude"}).
			AddRow(addr.ID, "12 Mall Road", "Amritsar", "143001", lat, nil))
	got, err := s.FindByServiceRequestID(ctx, "PGR-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Latitude)
	assert.InDelta(t, lat, *got[0].Latitude, 0.0001)
	assert.Nil(t, got[0].Longitude)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM citizen_address WHERE service_request_id = $1")).
		WithArgs("PGR-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.DeleteByServiceRequestID(ctx, "PGR-1"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDocumentStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	s := NewPostgresDocumentStore(db, nil)
	ctx := context.Background()

	t.Run("orphan document", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO citizen_document").
			WillReturnError(&pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "citizen_document_service_request_id_fkey"})

		err := s.Create(ctx, "missing", &domain.Document{FileStoreID: "f1"}, testAudit)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})

	t.Run("find", func(t *testing.T) {
		mock.ExpectQuery("FROM citizen_document").
			WithArgs("PGR-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "document_type", "file_store_id", "document_uid"}).
				AddRow("d1", "PHOTO", "f1", "u1").
				AddRow("d2", "PHOTO", "f2", ""))

		got, err := s.FindByServiceRequestID(ctx, "PGR-1")
		require.NoError(t, err)
		assert.Equal(t, []domain.Document{
			{ID: "d1", DocumentType: "PHOTO", FileStoreID: "f1", DocumentUID: "u1"},
			{ID: "d2", DocumentType: "PHOTO", FileStoreID: "f2"},
		}, got)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAuditStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	s := NewPostgresAuditStore(db, nil)
	ctx := context.Background()

	entry := &domain.AuditEntry{
		ServiceRequestID: "PGR-1",
		Action:           "CREATE",
		Status:           domain.StatusInitiated,
		PerformedBy:      "acc-1",
		PerformedTime:    1700000000000,
	}
	mock.ExpectExec("INSERT INTO citizen_audit").
		WithArgs(sqlmock.AnyArg(), "PGR-1", "CREATE", "INITIATED", "acc-1", int64(1700000000000), "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.Create(ctx, entry))

	cols := []string{"id", "service_request_id", "action", "status", "performed_by", "performed_time", "remarks"}
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY performed_time DESC")).
		WithArgs("PGR-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("a2", "PGR-1", "ASSIGN", "IN_PROGRESS", "emp-1", int64(1700000100000), "").
			AddRow("a1", "PGR-1", "CREATE", "INITIATED", "acc-1", int64(1700000000000), ""))

	trail, err := s.ListByServiceRequestID(ctx, "PGR-1")
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, "ASSIGN", trail[0].Action)
	assert.Equal(t, domain.StatusInProgress, trail[0].Status)

	mock.ExpectQuery("WHERE performed_by = \\$1").
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows(cols))
	none, err := s.FindByPerformedBy(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)

	mock.ExpectExec("DELETE FROM citizen_audit").WillReturnError(errors.New("conn reset"))
	assert.Error(t, s.DeleteByServiceRequestID(ctx, "PGR-1"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresWorkflowHistoryStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	s := NewPostgresWorkflowHistoryStore(db, nil)
	ctx := context.Background()

	h := &domain.WorkflowHistory{
		ServiceRequestID: "PGR-1",
		Action:           "ASSIGN",
		Assignees:        []string{"emp-1"},
		Comments:         "Updating service request",
		AuditDetails:     testAudit,
	}
	mock.ExpectExec("INSERT INTO citizen_workflow").
		WithArgs(sqlmock.AnyArg(), "PGR-1", "ASSIGN", []byte(`["emp-1"]`), "Updating service request", nil,
			"acc-1", int64(1700000000000), "acc-1", int64(1700000000000)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.Create(ctx, h))

	mock.ExpectQuery("FROM citizen_workflow").
		WithArgs("PGR-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "service_request_id", "action", "assignes", "comments", "verification_docs",
			"created_by", "created_time", "last_modified_by", "last_modified_time",
		}).AddRow(h.ID, "PGR-1", "ASSIGN", []byte(`["emp-1"]`), "Updating service request", []byte(`{"k":"v"}`),
			"acc-1", int64(1700000000000), "acc-1", int64(1700000000000)))

	got, err := s.FindByServiceRequestID(ctx, "PGR-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"emp-1"}, got[0].Assignees)
	assert.JSONEq(t, `{"k":"v"}`, string(got[0].VerificationDocs))
	assert.Equal(t, json.RawMessage(`{"k":"v"}`), got[0].VerificationDocs)

	assert.NoError(t, mock.ExpectationsWereMet())
}
