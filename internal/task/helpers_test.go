package task

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/platform/digit"
	"github.com/stretchr/testify/mock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubTask struct {
	id       uuid.UUID
	executed atomic.Int32
	execFn   func(ctx context.Context) error
}

func newStubTask(fn func(ctx context.Context) error) *stubTask {
	return &stubTask{id: uuid.New(), execFn: fn}
}

func (t *stubTask) ID() uuid.UUID      { return t.id }
func (t *stubTask) Type() string       { return "stub" }
func (t *stubTask) Payload() []byte    { return []byte(`{}`) }
func (t *stubTask) Status() TaskStatus { return TaskStatusPending }

func (t *stubTask) Execute(ctx context.Context) error {
	t.executed.Add(1)
	if t.execFn != nil {
		return t.execFn(ctx)
	}
	return nil
}

var errBoom = errors.New("boom")

type mockSender struct {
	mock.Mock
}

func (m *mockSender) SendEmail(ctx context.Context, req digit.EmailRequest) (*digit.NotificationResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*digit.NotificationResponse)
	return resp, args.Error(1)
}

func (m *mockSender) SendSMS(ctx context.Context, req digit.SMSRequest) (*digit.NotificationResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*digit.NotificationResponse)
	return resp, args.Error(1)
}
