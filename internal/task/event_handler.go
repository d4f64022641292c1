package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/srujana-egov/pgr-on-digit3.0/internal/events"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/platform/digit"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/platform/logger"
)

// Submitter accepts tasks for background execution.
type Submitter interface {
	Submit(ctx context.Context, task Task) error
}

// TaskFactoryEventHandler turns service request lifecycle events into
// notification tasks and hands them to the runner.
type TaskFactoryEventHandler struct {
	factory *NotificationTaskFactory
	runner  Submitter
	logger  *slog.Logger
}

// NewTaskFactoryEventHandler creates a handler that submits tasks built by
// factory to runner.
func NewTaskFactoryEventHandler(
	factory *NotificationTaskFactory,
	runner Submitter,
	logger *slog.Logger,
) *TaskFactoryEventHandler {
	return &TaskFactoryEventHandler{
		factory: factory,
		runner:  runner,
		logger:  logger.With(slog.String("component", "task_factory_event_handler")),
	}
}

var _ events.EventHandler = (*TaskFactoryEventHandler)(nil)

// HandleEvent handles created and updated events. Other event types and
// events without a recipient are ignored.
func (h *TaskFactoryEventHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	log := logger.FromContextOrDefault(ctx, h.logger)

	switch event.Type {
	case events.TypeServiceRequestCreated, events.TypeServiceRequestUpdated:
	default:
		log.Debug("ignoring event with unsupported type",
			slog.String("event_type", event.Type),
			slog.String("event_id", event.ID.String()))
		return nil
	}

	var payload events.ServiceRequestPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	task, err := h.factory.CreateTask(payload, digit.HeadersFromContext(ctx))
	if errors.Is(err, ErrNoRecipient) {
		log.Debug("no notification recipient",
			slog.String("service_request_id", payload.ServiceRequestID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := h.runner.Submit(ctx, task); err != nil {
		return fmt.Errorf("failed to submit task: %w", err)
	}

	log.Info("notification task submitted",
		slog.String("task_id", task.ID().String()),
		slog.String("service_request_id", payload.ServiceRequestID),
		slog.String("event_type", event.Type))
	return nil
}
