package task

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/events"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/platform/digit"
)

// ErrNoRecipient is returned when an event carries neither a usable email
// nor a usable mobile number.
var ErrNoRecipient = errors.New("notification has no recipient")

// NotificationSettings selects templates and channels for citizen notifications.
type NotificationSettings struct {
	EmailTemplateID string
	SMSTemplateID   string
	Version         string
	TrackURLBase    string
	SMSEnabled      bool
}

// NotificationTaskFactory builds notification tasks from lifecycle events.
type NotificationTaskFactory struct {
	settings NotificationSettings
	sender   NotificationSender
	observer NotificationObserver
	logger   *slog.Logger
}

// NewNotificationTaskFactory creates a factory. observer may be nil.
func NewNotificationTaskFactory(
	settings NotificationSettings,
	sender NotificationSender,
	observer NotificationObserver,
	logger *slog.Logger,
) *NotificationTaskFactory {
	return &NotificationTaskFactory{
		settings: settings,
		sender:   sender,
		observer: observer,
		logger:   logger.With(slog.String("component", "notification_task")),
	}
}

// CreateTask builds the task for p. headers are re-applied when the task runs
// so the notification call carries the caller's identity.
func (f *NotificationTaskFactory) CreateTask(p events.ServiceRequestPayload, headers digit.Headers) (*NotificationTask, error) {
	hasEmail := strings.TrimSpace(p.Email) != ""
	hasSMS := f.settings.SMSEnabled && strings.TrimSpace(p.Mobile) != "" && f.settings.SMSTemplateID != ""
	if !hasEmail && !hasSMS {
		return nil, ErrNoRecipient
	}

	values := map[string]string{
		"applicationNo": p.ServiceRequestID,
		"citizenName":   p.AccountID,
		"serviceName":   p.Description,
		"statusLabel":   p.Status,
		"trackUrl":      strings.TrimRight(f.settings.TrackURLBase, "/") + "/" + p.ServiceRequestID,
	}
	if p.Action != "" {
		values["action"] = p.Action
	}

	return &NotificationTask{
		id: uuid.New(),
		payload: NotificationPayload{
			ServiceRequestID: p.ServiceRequestID,
			TenantID:         p.TenantID,
			Email:            p.Email,
			Mobile:           p.Mobile,
			EmailTemplateID:  f.settings.EmailTemplateID,
			SMSTemplateID:    f.settings.SMSTemplateID,
			Version:          f.settings.Version,
			Values:           values,
		},
		headers:  headers,
		sms:      hasSMS,
		status:   TaskStatusPending,
		sender:   f.sender,
		observer: f.observer,
		logger:   f.logger,
	}, nil
}
