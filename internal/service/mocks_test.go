package service

import (
	"context"
	"database/sql"
	"sync"

	"github.com/srujana-egov/pgr-on-digit3.0/internal/domain"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/events"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/platform/digit"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockServiceRequestStore mocks store.ServiceRequestStore
type MockServiceRequestStore struct {
	mock.Mock
}

func (m *MockServiceRequestStore) Create(ctx context.Context, sr *domain.ServiceRequest) error {
	return m.Called(ctx, sr).Error(0)
}

func (m *MockServiceRequestStore) Update(ctx context.Context, sr *domain.ServiceRequest) error {
	return m.Called(ctx, sr).Error(0)
}

func (m *MockServiceRequestStore) GetByIDAndTenant(ctx context.Context, id, tenantID string) (*domain.ServiceRequest, error) {
	args := m.Called(ctx, id, tenantID)
	sr, _ := args.Get(0).(*domain.ServiceRequest)
	return sr, args.Error(1)
}

func (m *MockServiceRequestStore) Search(ctx context.Context, c store.SearchCriteria) ([]*domain.ServiceRequest, error) {
	args := m.Called(ctx, c)
	list, _ := args.Get(0).([]*domain.ServiceRequest)
	return list, args.Error(1)
}

func (m *MockServiceRequestStore) WithTx(*sql.Tx) store.ServiceRequestStore {
	return m
}

// MockAddressStore mocks store.AddressStore
type MockAddressStore struct {
	mock.Mock
}

func (m *MockAddressStore) Create(ctx context.Context, id string, addr *domain.Address, audit domain.AuditDetails) error {
	return m.Called(ctx, id, addr, audit).Error(0)
}

func (m *MockAddressStore) FindByServiceRequestID(ctx context.Context, id string) ([]domain.Address, error) {
	args := m.Called(ctx, id)
	list, _ := args.Get(0).([]domain.Address)
	return list, args.Error(1)
}

func (m *MockAddressStore) DeleteByServiceRequestID(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockAddressStore) WithTx(*sql.Tx) store.AddressStore {
	return m
}

// MockDocumentStore mocks store.DocumentStore
type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) Create(ctx context.Context, id string, doc *domain.Document, audit domain.AuditDetails) error {
	return m.Called(ctx, id, doc, audit).Error(0)
}

func (m *MockDocumentStore) FindByServiceRequestID(ctx context.Context, id string) ([]domain.Document, error) {
	args := m.Called(ctx, id)
	list, _ := args.Get(0).([]domain.Document)
	return list, args.Error(1)
}

func (m *MockDocumentStore) DeleteByServiceRequestID(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockDocumentStore) WithTx(*sql.Tx) store.DocumentStore {
	return m
}

// MockAuditStore mocks store.AuditStore
type MockAuditStore struct {
	mock.Mock
}

func (m *MockAuditStore) Create(ctx context.Context, entry *domain.AuditEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockAuditStore) ListByServiceRequestID(ctx context.Context, id string) ([]domain.AuditEntry, error) {
	args := m.Called(ctx, id)
	list, _ := args.Get(0).([]domain.AuditEntry)
	return list, args.Error(1)
}

func (m *MockAuditStore) FindByPerformedBy(ctx context.Context, by string) ([]domain.AuditEntry, error) {
	args := m.Called(ctx, by)
	list, _ := args.Get(0).([]domain.AuditEntry)
	return list, args.Error(1)
}

func (m *MockAuditStore) DeleteByServiceRequestID(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockAuditStore) WithTx(*sql.Tx) store.AuditStore {
	return m
}

// MockWorkflowHistoryStore mocks store.WorkflowHistoryStore
type MockWorkflowHistoryStore struct {
	mock.Mock
}

func (m *MockWorkflowHistoryStore) Create(ctx context.Context, h *domain.WorkflowHistory) error {
	return m.Called(ctx, h).Error(0)
}

func (m *MockWorkflowHistoryStore) FindByServiceRequestID(ctx context.Context, id string) ([]domain.WorkflowHistory, error) {
	args := m.Called(ctx, id)
	list, _ := args.Get(0).([]domain.WorkflowHistory)
	return list, args.Error(1)
}

func (m *MockWorkflowHistoryStore) DeleteByServiceRequestID(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockWorkflowHistoryStore) WithTx(*sql.Tx) store.WorkflowHistoryStore {
	return m
}

// MockIDGenerator mocks IDGenerator
type MockIDGenerator struct {
	mock.Mock
}

func (m *MockIDGenerator) Generate(ctx context.Context, templateCode string, variables map[string]string) (string, error) {
	args := m.Called(ctx, templateCode, variables)
	return args.String(0), args.Error(1)
}

// MockBoundaryChecker mocks BoundaryChecker
type MockBoundaryChecker struct {
	mock.Mock
}

func (m *MockBoundaryChecker) IsValid(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

// MockFileChecker mocks FileChecker
type MockFileChecker struct {
	mock.Mock
}

func (m *MockFileChecker) IsFileAvailable(ctx context.Context, id, tenantID string) (bool, error) {
	args := m.Called(ctx, id, tenantID)
	return args.Bool(0), args.Error(1)
}

// MockWorkflowEngine mocks WorkflowEngine
type MockWorkflowEngine struct {
	mock.Mock
}

func (m *MockWorkflowEngine) ExecuteTransition(ctx context.Context, req digit.TransitionRequest) (*digit.TransitionResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*digit.TransitionResponse)
	return resp, args.Error(1)
}

// MockProcessLookup mocks ProcessLookup
type MockProcessLookup struct {
	mock.Mock
}

func (m *MockProcessLookup) GetProcessByCode(ctx context.Context, code string) (string, error) {
	args := m.Called(ctx, code)
	return args.String(0), args.Error(1)
}

// stubResolver resolves every code to a fixed id.
type stubResolver struct {
	id  string
	err error
}

func (r stubResolver) Resolve(context.Context, string) (string, error) {
	return r.id, r.err
}

// recordingEmitter captures emitted events.
type recordingEmitter struct {
	mu     sync.Mutex
	events []*events.Event
	err    error
}

func (e *recordingEmitter) EmitEvent(_ context.Context, event *events.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return e.err
}

func (e *recordingEmitter) payloads() []events.ServiceRequestPayload {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]events.ServiceRequestPayload, 0, len(e.events))
	for _, ev := range e.events {
		var p events.ServiceRequestPayload
		_ = ev.UnmarshalPayload(&p)
		out = append(out, p)
	}
	return out
}
