package task

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(store TaskStore, queueSize int) *TaskRunner {
	return NewTaskRunner(store, TaskRunnerConfig{
		WorkerCount: 2,
		QueueSize:   queueSize,
		TaskTimeout: time.Second,
	}, discardLogger())
}

func TestTaskRunner_CompletesTask(t *testing.T) {
	t.Parallel()

	store := NewMockTaskStore()
	runner := newTestRunner(store, 10)
	require.NoError(t, runner.Start())
	defer runner.Stop()

	task := newStubTask(nil)
	require.NoError(t, runner.Submit(context.Background(), task))

	assert.Eventually(t, func() bool {
		s, _ := store.StatusOf(task.ID())
		return s == TaskStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []TaskStatus{TaskStatusPending, TaskStatusProcessing, TaskStatusCompleted}, store.History(task.ID()))
	assert.Equal(t, int32(1), task.executed.Load())
}

func TestTaskRunner_RecordsFailure(t *testing.T) {
	t.Parallel()

	store := NewMockTaskStore()
	runner := newTestRunner(store, 10)

	var mu sync.Mutex
	var handled []uuid.UUID
	runner.SetErrorHandler(func(task Task, err error) {
		mu.Lock()
		defer mu.Unlock()
		handled = append(handled, task.ID())
	})
	require.NoError(t, runner.Start())
	defer runner.Stop()

	task := newStubTask(func(context.Context) error { return errBoom })
	require.NoError(t, runner.Submit(context.Background(), task))

	assert.Eventually(t, func() bool {
		s, _ := store.StatusOf(task.ID())
		return s == TaskStatusFailed
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "boom", store.ErrorOf(task.ID()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []uuid.UUID{task.ID()}, handled)
}

func TestTaskRunner_SurvivesPanic(t *testing.T) {
	t.Parallel()

	store := NewMockTaskStore()
	runner := NewTaskRunner(store, TaskRunnerConfig{WorkerCount: 1, QueueSize: 10}, discardLogger())
	require.NoError(t, runner.Start())
	defer runner.Stop()

	bad := newStubTask(func(context.Context) error { panic("kaboom") })
	good := newStubTask(nil)
	require.NoError(t, runner.Submit(context.Background(), bad))
	require.NoError(t, runner.Submit(context.Background(), good))

	assert.Eventually(t, func() bool {
		s, _ := store.StatusOf(good.ID())
		return s == TaskStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)
}

func TestTaskRunner_SaveFailure(t *testing.T) {
	t.Parallel()

	store := NewMockTaskStore()
	store.SaveFn = func(context.Context, Task) error { return errBoom }
	runner := newTestRunner(store, 10)

	task := newStubTask(nil)
	err := runner.Submit(context.Background(), task)
	require.ErrorIs(t, err, errBoom)
	_, ok := store.StatusOf(task.ID())
	assert.False(t, ok)
}

func TestTaskRunner_QueueFullMarksFailed(t *testing.T) {
	t.Parallel()

	store := NewMockTaskStore()
	runner := newTestRunner(store, 1)

	first := newStubTask(nil)
	second := newStubTask(nil)
	require.NoError(t, runner.Submit(context.Background(), first))

	err := runner.Submit(context.Background(), second)
	require.ErrorIs(t, err, ErrQueueFull)
	s, _ := store.StatusOf(second.ID())
	assert.Equal(t, TaskStatusFailed, s)
}

func TestTaskRunner_SubmitAfterStop(t *testing.T) {
	t.Parallel()

	runner := newTestRunner(NewMockTaskStore(), 1)
	require.NoError(t, runner.Start())
	runner.Stop()
	runner.Stop()

	assert.ErrorIs(t, runner.Submit(context.Background(), newStubTask(nil)), ErrRunnerStopped)
	assert.ErrorIs(t, runner.Start(), ErrRunnerStopped)
}
