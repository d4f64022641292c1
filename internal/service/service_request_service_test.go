package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/domain"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/events"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/platform/logger"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/platform/digit"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc        *serviceRequestServiceImpl
	sqlMock    sqlmock.Sqlmock
	requests   *MockServiceRequestStore
	addresses  *MockAddressStore
	documents  *MockDocumentStore
	audits     *MockAuditStore
	history    *MockWorkflowHistoryStore
	idgen      *MockIDGenerator
	boundaries *MockBoundaryChecker
	files      *MockFileChecker
	workflow   *MockWorkflowEngine
	emitter    *recordingEmitter
	logs       *logger.Recorder
}

func newFixture(t *testing.T, policy Policy, resolver ProcessIDResolver) *fixture {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log, logs := logger.NewRecordingLogger()
	f := &fixture{
		sqlMock:    sqlMock,
		requests:   &MockServiceRequestStore{},
		addresses:  &MockAddressStore{},
		documents:  &MockDocumentStore{},
		audits:     &MockAuditStore{},
		history:    &MockWorkflowHistoryStore{},
		idgen:      &MockIDGenerator{},
		boundaries: &MockBoundaryChecker{},
		files:      &MockFileChecker{},
		workflow:   &MockWorkflowEngine{},
		emitter:    &recordingEmitter{},
		logs:       logs,
	}

	svc, err := NewServiceRequestService(Dependencies{
		DB:              db,
		Requests:        f.requests,
		Addresses:       f.addresses,
		Documents:       f.documents,
		Audits:          f.audits,
		WorkflowHistory: f.history,
		IDGen:           f.idgen,
		Validator:       NewRequestValidator(f.boundaries, f.files, policy, log),
		Processes:       resolver,
		Workflow:        f.workflow,
		Events:          f.emitter,
	}, Settings{
		IDGenTemplateCode:   "pgr.servicerequestid",
		OrgCode:             "PG",
		WorkflowProcessCode: "PGR",
		CreateAction:        "APPLY",
	}, log)
	require.NoError(t, err)

	f.svc = svc.(*serviceRequestServiceImpl)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func (f *fixture) expectTx() {
	f.sqlMock.ExpectBegin()
	f.sqlMock.ExpectCommit()
}

func (f *fixture) assertAll(t *testing.T) {
	t.Helper()
	f.requests.AssertExpectations(t)
	f.addresses.AssertExpectations(t)
	f.documents.AssertExpectations(t)
	f.audits.AssertExpectations(t)
	f.history.AssertExpectations(t)
	f.idgen.AssertExpectations(t)
	f.boundaries.AssertExpectations(t)
	f.files.AssertExpectations(t)
	f.workflow.AssertExpectations(t)
	assert.NoError(t, f.sqlMock.ExpectationsWereMet())
}

func potholeInput() CreateInput {
	return CreateInput{
		Request: domain.ServiceRequest{
			TenantID:     "t1",
			Description:  "pothole",
			BoundaryCode: "B1",
			FileStoreID:  "F1",
			Email:        "a@x.com",
		},
		Caller: Caller{UserID: "user-1", Roles: []string{"CITIZEN"}},
	}
}

func TestNewServiceRequestService_RequiresDependencies(t *testing.T) {
	t.Parallel()

	_, err := NewServiceRequestService(Dependencies{}, Settings{}, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCreate_PersistsValidatedRequest(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PolicyLenient, stubResolver{id: "proc-1"})
	f.idgen.On("Generate", mock.Anything, "pgr.servicerequestid", map[string]string{"ORG": "PG"}).
		Return("REQ-1", nil).Once()
	f.boundaries.On("IsValid", mock.Anything, "B1").Return(true, nil).Once()
	f.files.On("IsFileAvailable", mock.Anything, "F1", "t1").Return(true, nil).Once()
	f.workflow.On("ExecuteTransition", mock.Anything, mock.MatchedBy(func(req digit.TransitionRequest) bool {
		return req.ProcessID == "proc-1" &&
			req.EntityID == "REQ-1" &&
			req.Action == "APPLY" &&
			req.Comment == "Complaint submitted" &&
			assert.ObjectsAreEqual([]string{"t1"}, req.Attributes["tenantId"]) &&
			assert.ObjectsAreEqual([]string{"CITIZEN"}, req.Attributes["roles"])
	})).Return(&digit.TransitionResponse{ID: "wf-1", ProcessID: "proc-1", CurrentState: "IN_PROGRESS"}, nil).Once()

	f.expectTx()
	f.requests.On("Create", mock.Anything, mock.MatchedBy(func(sr *domain.ServiceRequest) bool {
		return sr.ID == "REQ-1" && sr.BoundaryValid && sr.FileValid
	})).Return(nil).Once()
	f.audits.On("Create", mock.Anything, mock.MatchedBy(func(e *domain.AuditEntry) bool {
		return e.Action == AuditActionCreate && e.ServiceRequestID == "REQ-1" && e.PerformedBy == "user-1"
	})).Return(nil).Once()
	f.history.On("Create", mock.Anything, mock.MatchedBy(func(h *domain.WorkflowHistory) bool {
		return h.Action == "APPLY" && h.ServiceRequestID == "REQ-1"
	})).Return(nil).Once()

	sr, err := f.svc.Create(context.Background(), potholeInput())
	require.NoError(t, err)

	assert.Equal(t, "REQ-1", sr.ID)
	assert.Equal(t, "t1", sr.TenantID)
	assert.True(t, sr.BoundaryValid)
	assert.True(t, sr.FileValid)
	assert.Equal(t, domain.StatusInProgress, sr.ApplicationStatus)
	assert.Equal(t, "wf-1", sr.WorkflowInstanceID)
	assert.Equal(t, domain.DefaultSource, sr.Source)
	assert.Equal(t, fixedNow.UnixMilli(), sr.AuditDetails.CreatedTime)

	payloads := f.emitter.payloads()
	require.Len(t, payloads, 1)
	assert.Equal(t, events.TypeServiceRequestCreated, f.emitter.events[0].Type)
	assert.Equal(t, "REQ-1", payloads[0].ServiceRequestID)
	assert.Equal(t, "a@x.com", payloads[0].Email)
	f.assertAll(t)
}

func TestCreate_AssignsGeneratedIDs(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PolicyLenient, stubResolver{err: errors.New("no process")})
	generated := []string{"PG-PGR-0001", "PG-PGR-0002", "PG-PGR-0003"}
	for _, id := range generated {
		f.idgen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(id, nil).Once()
		f.expectTx()
	}
	f.boundaries.On("IsValid", mock.Anything, "B1").Return(true, nil).Times(len(generated))
	f.files.On("IsFileAvailable", mock.Anything, "F1", "t1").Return(true, nil).Times(len(generated))
	f.requests.On("Create", mock.Anything, mock.Anything).Return(nil).Times(len(generated))
	f.audits.On("Create", mock.Anything, mock.Anything).Return(nil).Times(len(generated))

	seen := map[string]bool{}
	for range generated {
		sr, err := f.svc.Create(context.Background(), potholeInput())
		require.NoError(t, err)
		assert.False(t, seen[sr.ID], "request id %s returned twice", sr.ID)
		seen[sr.ID] = true
	}
	assert.Len(t, seen, len(generated))
	f.assertAll(t)
}

func TestCreate_WorkflowFailureKeepsInitiated(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PolicyLenient, stubResolver{id: "proc-1"})
	f.idgen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("REQ-2", nil).Once()
	f.boundaries.On("IsValid", mock.Anything, "B1").Return(true, nil).Once()
	f.files.On("IsFileAvailable", mock.Anything, "F1", "t1").Return(true, nil).Once()
	f.workflow.On("ExecuteTransition", mock.Anything, mock.Anything).Return(nil, errors.New("engine down")).Once()

	f.expectTx()
	f.requests.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	f.audits.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	sr, err := f.svc.Create(context.Background(), potholeInput())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInitiated, sr.ApplicationStatus)
	assert.Empty(t, sr.WorkflowInstanceID)
	assert.Contains(t, f.logs.Messages(t, slog.LevelWarn), "workflow start failed")
	f.history.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.assertAll(t)
}

func TestCreate_UnknownWorkflowStateKeepsInitiated(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PolicyLenient, stubResolver{id: "proc-1"})
	f.idgen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("REQ-3", nil).Once()
	f.boundaries.On("IsValid", mock.Anything, "B1").Return(true, nil).Once()
	f.files.On("IsFileAvailable", mock.Anything, "F1", "t1").Return(true, nil).Once()
	f.workflow.On("ExecuteTransition", mock.Anything, mock.Anything).
		Return(&digit.TransitionResponse{ID: "wf-3", CurrentState: "PENDING_FOR_ASSIGNMENT"}, nil).Once()

	f.expectTx()
	f.requests.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	f.audits.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	f.history.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	sr, err := f.svc.Create(context.Background(), potholeInput())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInitiated, sr.ApplicationStatus)
	assert.Equal(t, "wf-3", sr.WorkflowInstanceID)
	assert.Equal(t, "proc-1", sr.ProcessID)
	f.assertAll(t)
}

func TestCreate_ValidationPolicies(t *testing.T) {
	t.Parallel()

	t.Run("lenient records invalid flags", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, PolicyLenient, stubResolver{err: errors.New("no process")})
		f.idgen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("REQ-4", nil).Once()
		f.boundaries.On("IsValid", mock.Anything, "B1").Return(false, nil).Once()
		f.files.On("IsFileAvailable", mock.Anything, "F1", "t1").Return(false, errors.New("timeout")).Once()

		f.expectTx()
		f.requests.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
		f.audits.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

		sr, err := f.svc.Create(context.Background(), potholeInput())
		require.NoError(t, err)
		assert.False(t, sr.BoundaryValid)
		assert.False(t, sr.FileValid)
		f.workflow.AssertNotCalled(t, "ExecuteTransition", mock.Anything, mock.Anything)
		f.assertAll(t)
	})

	t.Run("strict aborts before persistence", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, PolicyStrict, stubResolver{id: "proc-1"})
		f.idgen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("REQ-5", nil).Once()
		f.boundaries.On("IsValid", mock.Anything, "B1").Return(false, nil).Once()
		f.files.On("IsFileAvailable", mock.Anything, "F1", "t1").Return(true, nil).Once()

		_, err := f.svc.Create(context.Background(), potholeInput())
		require.ErrorIs(t, err, ErrExternalValidation)
		assert.Contains(t, err.Error(), "B1")
		f.requests.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		assert.Empty(t, f.emitter.events)
		f.assertAll(t)
	})

	t.Run("strict skips blank fields", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, PolicyStrict, stubResolver{err: errors.New("no process")})
		f.idgen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("REQ-6", nil).Once()

		f.expectTx()
		f.requests.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
		f.audits.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

		in := CreateInput{Request: domain.ServiceRequest{TenantID: "t1"}}
		sr, err := f.svc.Create(context.Background(), in)
		require.NoError(t, err)
		assert.False(t, sr.BoundaryValid)
		assert.False(t, sr.FileValid)
		f.assertAll(t)
	})
}

func TestCreate_IDGenerationFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PolicyLenient, stubResolver{id: "proc-1"})
	f.idgen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("idgen down")).Once()

	_, err := f.svc.Create(context.Background(), potholeInput())
	require.ErrorIs(t, err, ErrIDGeneration)
	f.assertAll(t)
}

func TestCreate_MissingTenant(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PolicyLenient, stubResolver{id: "proc-1"})
	_, err := f.svc.Create(context.Background(), CreateInput{Request: domain.ServiceRequest{Description: "x"}})
	assert.ErrorIs(t, err, ErrMissingTenant)
}

func TestCreate_PersistenceFailureRollsBack(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PolicyLenient, stubResolver{err: errors.New("no process")})
	f.idgen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("REQ-7", nil).Once()
	f.sqlMock.ExpectBegin()
	f.sqlMock.ExpectRollback()
	f.requests.On("Create", mock.Anything, mock.Anything).Return(store.ErrServiceRequestExists).Once()

	_, err := f.svc.Create(context.Background(), CreateInput{Request: domain.ServiceRequest{TenantID: "t1"}})
	require.ErrorIs(t, err, store.ErrDuplicate)
	assert.Empty(t, f.emitter.events)
	f.assertAll(t)
}

func existingRequest() *domain.ServiceRequest {
	return &domain.ServiceRequest{
		ID:                "REQ-1",
		TenantID:          "t1",
		Description:       "pothole",
		FileStoreID:       "F1",
		FileValid:         true,
		BoundaryCode:      "B1",
		BoundaryValid:     true,
		ProcessID:         "proc-1",
		ApplicationStatus: domain.StatusInProgress,
		Email:             "a@x.com",
	}
}

func (f *fixture) expectLoad(sr *domain.ServiceRequest) {
	f.requests.On("GetByIDAndTenant", mock.Anything, sr.ID, sr.TenantID).Return(sr, nil).Once()
	f.addresses.On("FindByServiceRequestID", mock.Anything, sr.ID).Return([]domain.Address{}, nil).Once()
	f.documents.On("FindByServiceRequestID", mock.Anything, sr.ID).Return([]domain.Document{}, nil).Once()
}

func TestUpdate_RequiresID(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PolicyLenient, stubResolver{id: "proc-1"})
	_, err := f.svc.Update(context.Background(), UpdateInput{TenantID: "t1"})
	assert.ErrorIs(t, err, ErrMissingRequestID)
}

func TestUpdate_NotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PolicyLenient, stubResolver{id: "proc-1"})
	f.requests.On("GetByIDAndTenant", mock.Anything, "REQ-404", "t1").Return(nil, store.ErrServiceRequestNotFound).Once()

	_, err := f.svc.Update(context.Background(), UpdateInput{ID: "REQ-404", TenantID: "t1"})
	assert.ErrorIs(t, err, store.ErrNotFound)
	f.assertAll(t)
}

func TestUpdate_PartialMergeRevalidatesChangedFieldOnly(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PolicyStrict, stubResolver{id: "proc-1"})
	existing := existingRequest()
	existing.Action = "ASSIGN"
	f.expectLoad(existing)
	f.boundaries.On("IsValid", mock.Anything, "B2").Return(false, nil).Once()

	f.expectTx()
	f.requests.On("Update", mock.Anything, mock.MatchedBy(func(sr *domain.ServiceRequest) bool {
		return sr.Description == "deep pothole" && sr.BoundaryCode == "B2" && !sr.BoundaryValid && sr.FileValid
	})).Return(nil).Once()
	f.audits.On("Create", mock.Anything, mock.MatchedBy(func(e *domain.AuditEntry) bool {
		return e.Action == AuditActionUpdate
	})).Return(nil).Once()

	desc, boundary, file := "deep pothole", "B2", "F1"
	sr, err := f.svc.Update(context.Background(), UpdateInput{
		ID:       "REQ-1",
		TenantID: "t1",
		Patch: domain.ServiceRequestPatch{
			Description:  &desc,
			BoundaryCode: &boundary,
			FileStoreID:  &file,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "deep pothole", sr.Description)
	assert.Equal(t, domain.StatusInProgress, sr.ApplicationStatus)
	f.files.AssertNotCalled(t, "IsFileAvailable", mock.Anything, mock.Anything, mock.Anything)
	f.workflow.AssertNotCalled(t, "ExecuteTransition", mock.Anything, mock.Anything)

	payloads := f.emitter.payloads()
	require.Len(t, payloads, 1)
	assert.Empty(t, payloads[0].Action, "no transition ran, so the event carries no action")
	f.assertAll(t)
}

func TestUpdate_TransitionAdoptsState(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PolicyLenient, stubResolver{err: errors.New("should not resolve")})
	f.expectLoad(existingRequest())
	f.workflow.On("ExecuteTransition", mock.Anything, mock.MatchedBy(func(req digit.TransitionRequest) bool {
		return req.ProcessID == "proc-1" &&
			req.Action == "RESOLVE" &&
			req.Comment == "Updating service request" &&
			assert.ObjectsAreEqual([]string{"emp-1"}, req.Attributes["assignes"])
	})).Return(&digit.TransitionResponse{ID: "wf-9", CurrentState: "completed"}, nil).Once()

	f.expectTx()
	f.requests.On("Update", mock.Anything, mock.Anything).Return(nil).Once()
	f.audits.On("Create", mock.Anything, mock.MatchedBy(func(e *domain.AuditEntry) bool {
		return e.Action == "RESOLVE" && e.Status == domain.StatusCompleted
	})).Return(nil).Once()
	f.history.On("Create", mock.Anything, mock.MatchedBy(func(h *domain.WorkflowHistory) bool {
		return h.Action == "RESOLVE" && assert.ObjectsAreEqual([]string{"emp-1"}, h.Assignees)
	})).Return(nil).Once()

	sr, err := f.svc.Update(context.Background(), UpdateInput{
		ID:       "REQ-1",
		TenantID: "t1",
		Workflow: &domain.WorkflowAction{Action: "RESOLVE", Assignees: []string{"emp-1"}},
		Caller:   Caller{UserID: "emp-2", Roles: []string{"GRO"}},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, sr.ApplicationStatus)
	assert.Equal(t, "RESOLVE", sr.Action)

	payloads := f.emitter.payloads()
	require.Len(t, payloads, 1)
	assert.Equal(t, "RESOLVE", payloads[0].Action)
	f.assertAll(t)
}

func TestUpdate_UnknownStateKeepsPreviousStatus(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PolicyLenient, stubResolver{id: "proc-1"})
	f.expectLoad(existingRequest())
	f.workflow.On("ExecuteTransition", mock.Anything, mock.Anything).
		Return(&digit.TransitionResponse{CurrentState: "SOMETHING_NEW"}, nil).Once()

	f.expectTx()
	f.requests.On("Update", mock.Anything, mock.Anything).Return(nil).Once()
	f.audits.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	f.history.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	sr, err := f.svc.Update(context.Background(), UpdateInput{
		ID:       "REQ-1",
		TenantID: "t1",
		Workflow: &domain.WorkflowAction{Action: "ASSIGN"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, sr.ApplicationStatus)
	f.assertAll(t)
}

func TestUpdate_TransitionFailureIsFatal(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PolicyLenient, stubResolver{id: "proc-1"})
	f.expectLoad(existingRequest())
	f.workflow.On("ExecuteTransition", mock.Anything, mock.Anything).Return(nil, errors.New("engine down")).Once()

	_, err := f.svc.Update(context.Background(), UpdateInput{
		ID:       "REQ-1",
		TenantID: "t1",
		Workflow: &domain.WorkflowAction{Action: "ASSIGN"},
	})
	require.ErrorIs(t, err, ErrWorkflowTransition)
	f.requests.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	assert.Empty(t, f.emitter.events)
	f.assertAll(t)
}

func TestUpdate_ReplacesAddress(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PolicyLenient, stubResolver{id: "proc-1"})
	f.expectLoad(existingRequest())

	f.expectTx()
	f.requests.On("Update", mock.Anything, mock.Anything).Return(nil).Once()
	f.addresses.On("DeleteByServiceRequestID", mock.Anything, "REQ-1").Return(nil).Once()
	f.addresses.On("Create", mock.Anything, "REQ-1", mock.MatchedBy(func(a *domain.Address) bool {
		return a.City == "Pune"
	}), mock.Anything).Return(nil).Once()
	f.audits.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := f.svc.Update(context.Background(), UpdateInput{
		ID:       "REQ-1",
		TenantID: "t1",
		Patch:    domain.ServiceRequestPatch{Address: &domain.Address{City: "Pune"}},
	})
	require.NoError(t, err)
	f.assertAll(t)
}

func TestSearch(t *testing.T) {
	t.Parallel()

	t.Run("empty result is an empty slice", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, PolicyLenient, stubResolver{})
		f.requests.On("Search", mock.Anything, mock.MatchedBy(func(c store.SearchCriteria) bool {
			return c.TenantID == "t1" && c.Limit == store.DefaultSearchLimit
		})).Return(nil, nil).Once()

		results, err := f.svc.Search(context.Background(), store.SearchCriteria{TenantID: " t1 ", ServiceCode: "POTHOLE"})
		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results)
		f.assertAll(t)
	})

	t.Run("hydrates children", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, PolicyLenient, stubResolver{})
		f.requests.On("Search", mock.Anything, mock.Anything).
			Return([]*domain.ServiceRequest{{ID: "REQ-1", TenantID: "t1"}}, nil).Once()
		f.addresses.On("FindByServiceRequestID", mock.Anything, "REQ-1").
			Return([]domain.Address{{City: "Pune"}}, nil).Once()
		f.documents.On("FindByServiceRequestID", mock.Anything, "REQ-1").
			Return([]domain.Document{{FileStoreID: "F1"}}, nil).Once()

		results, err := f.svc.Search(context.Background(), store.SearchCriteria{TenantID: "t1", Mobile: "999"})
		require.NoError(t, err)
		require.Len(t, results, 1)
		require.NotNil(t, results[0].Address)
		assert.Equal(t, "Pune", results[0].Address.City)
		assert.Len(t, results[0].Documents, 1)
		f.assertAll(t)
	})

	t.Run("requires tenant", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, PolicyLenient, stubResolver{})
		_, err := f.svc.Search(context.Background(), store.SearchCriteria{ServiceCode: "X"})
		assert.ErrorIs(t, err, ErrMissingTenant)
	})
}

func TestSearchByID(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PolicyLenient, stubResolver{})
	f.expectLoad(existingRequest())

	sr, err := f.svc.SearchByID(context.Background(), "REQ-1", "t1")
	require.NoError(t, err)
	assert.Equal(t, "REQ-1", sr.ID)
	f.assertAll(t)
}

func TestSearchByID_UnknownID(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PolicyLenient, stubResolver{})
	f.requests.On("GetByIDAndTenant", mock.Anything, "NOPE", "t1").Return(nil, store.ErrServiceRequestNotFound).Once()

	sr, err := f.svc.SearchByID(context.Background(), "NOPE", "t1")
	assert.Nil(t, sr)
	assert.ErrorIs(t, err, store.ErrNotFound)
	f.addresses.AssertNotCalled(t, "FindByServiceRequestID", mock.Anything, mock.Anything)
	f.assertAll(t)
}

func TestAuditTrail(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PolicyLenient, stubResolver{})
	f.requests.On("GetByIDAndTenant", mock.Anything, "REQ-1", "t1").Return(existingRequest(), nil).Once()
	f.audits.On("ListByServiceRequestID", mock.Anything, "REQ-1").
		Return([]domain.AuditEntry{{Action: "RESOLVE"}, {Action: AuditActionCreate}}, nil).Once()
	f.history.On("FindByServiceRequestID", mock.Anything, "REQ-1").
		Return([]domain.WorkflowHistory{{Action: "APPLY"}}, nil).Once()

	h, err := f.svc.AuditTrail(context.Background(), "REQ-1", "t1")
	require.NoError(t, err)
	assert.Len(t, h.Audit, 2)
	assert.Len(t, h.Workflow, 1)
	f.assertAll(t)
}

func TestEmitFailureDoesNotFailCreate(t *testing.T) {
	t.Parallel()

	f := newFixture(t, PolicyLenient, stubResolver{err: errors.New("no process")})
	f.emitter.err = errors.New("handler down")
	f.idgen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("REQ-8", nil).Once()
	f.expectTx()
	f.requests.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	f.audits.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := f.svc.Create(context.Background(), CreateInput{Request: domain.ServiceRequest{TenantID: "t1", Email: "a@x.com"}})
	require.NoError(t, err)
	f.assertAll(t)
}
