package task

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// TaskStatus represents the current state of a task
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// TaskTypeNotification is the type of citizen notification tasks.
const TaskTypeNotification = "citizen_notification"

// Task represents a unit of background work to be processed
type Task interface {
	// ID returns the task's unique identifier
	ID() uuid.UUID

	// Type returns the task type identifier
	Type() string

	// Payload returns the task data recorded in the dispatch log
	Payload() []byte

	// Status returns the current task status
	Status() TaskStatus

	// Execute runs the task logic
	Execute(ctx context.Context) error
}

// TaskQueueReader gives workers read-only access to queued tasks.
type TaskQueueReader interface {
	GetChannel() <-chan Task
}

// TaskQueueWriter accepts tasks for processing.
type TaskQueueWriter interface {
	// Enqueue returns ErrQueueFull or ErrQueueClosed when the task is rejected.
	Enqueue(task Task) error
	Close()
}

// TaskStore is the dispatch log. Entries are written for visibility and
// are never replayed.
type TaskStore interface {
	// SaveTask records a newly submitted task
	SaveTask(ctx context.Context, task Task) error

	// UpdateTaskStatus records a status change and an optional error message
	UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error

	// WithTx returns a store bound to tx
	WithTx(tx *sql.Tx) TaskStore
}
