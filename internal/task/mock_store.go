package task

import (
	"context"
	"database/sql"
	"sync"

	"github.com/google/uuid"
)

// MockTaskStore is an in-memory TaskStore for tests. The optional function
// fields override the default behaviour.
type MockTaskStore struct {
	mu       sync.Mutex
	tasks    map[uuid.UUID]TaskStatus
	errors   map[uuid.UUID]string
	history  map[uuid.UUID][]TaskStatus
	SaveFn   func(ctx context.Context, task Task) error
	UpdateFn func(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error
}

// NewMockTaskStore creates an empty MockTaskStore.
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{
		tasks:   make(map[uuid.UUID]TaskStatus),
		errors:  make(map[uuid.UUID]string),
		history: make(map[uuid.UUID][]TaskStatus),
	}
}

var _ TaskStore = (*MockTaskStore)(nil)

// SaveTask implements TaskStore.
func (m *MockTaskStore) SaveTask(ctx context.Context, task Task) error {
	if m.SaveFn != nil {
		if err := m.SaveFn(ctx, task); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[task.ID()] = TaskStatusPending
	m.history[task.ID()] = append(m.history[task.ID()], TaskStatusPending)
	return nil
}

// UpdateTaskStatus implements TaskStore.
func (m *MockTaskStore) UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error {
	if m.UpdateFn != nil {
		if err := m.UpdateFn(ctx, taskID, status, errorMsg); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[taskID] = status
	m.history[taskID] = append(m.history[taskID], status)
	if errorMsg != "" {
		m.errors[taskID] = errorMsg
	}
	return nil
}

// WithTx implements TaskStore.
func (m *MockTaskStore) WithTx(*sql.Tx) TaskStore {
	return m
}

// StatusOf returns the last recorded status of a task.
func (m *MockTaskStore) StatusOf(taskID uuid.UUID) (TaskStatus, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.tasks[taskID]
	return s, ok
}

// ErrorOf returns the recorded error message of a task.
func (m *MockTaskStore) ErrorOf(taskID uuid.UUID) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[taskID]
}

// History returns every status recorded for a task in order.
func (m *MockTaskStore) History(taskID uuid.UUID) []TaskStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]TaskStatus(nil), m.history[taskID]...)
}
