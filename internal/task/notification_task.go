package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/platform/digit"
)

// Notification channels, used as metric labels.
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// NotificationSender delivers email and SMS through the notification service.
type NotificationSender interface {
	SendEmail(ctx context.Context, req digit.EmailRequest) (*digit.NotificationResponse, error)
	SendSMS(ctx context.Context, req digit.SMSRequest) (*digit.NotificationResponse, error)
}

// NotificationObserver records notification outcomes.
type NotificationObserver interface {
	ObserveNotification(channel string, err error)
}

// NotificationPayload is what a notification task sends and what the dispatch
// log stores.
type NotificationPayload struct {
	ServiceRequestID string            `json:"serviceRequestId"`
	TenantID         string            `json:"tenantId"`
	Email            string            `json:"email,omitempty"`
	Mobile           string            `json:"mobile,omitempty"`
	EmailTemplateID  string            `json:"emailTemplateId"`
	SMSTemplateID    string            `json:"smsTemplateId,omitempty"`
	Version          string            `json:"version"`
	Values           map[string]string `json:"values"`
}

// NotificationTask sends the citizen notification for one lifecycle event.
type NotificationTask struct {
	id       uuid.UUID
	payload  NotificationPayload
	headers  digit.Headers
	sms      bool
	status   TaskStatus
	sender   NotificationSender
	observer NotificationObserver
	logger   *slog.Logger
}

var _ Task = (*NotificationTask)(nil)

// ID returns the task's unique identifier
func (t *NotificationTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *NotificationTask) Type() string {
	return TaskTypeNotification
}

// Payload returns the JSON form of the notification. Propagated headers are
// kept in memory only.
func (t *NotificationTask) Payload() []byte {
	data, err := json.Marshal(t.payload)
	if err != nil {
		t.logger.Error("failed to marshal notification payload", slog.String("error", err.Error()))
		return []byte("{}")
	}
	return data
}

// Status returns the current task status
func (t *NotificationTask) Status() TaskStatus {
	return t.status
}

// NotificationPayload returns a copy of the notification content.
func (t *NotificationTask) NotificationPayload() NotificationPayload {
	return t.payload
}

// Execute sends the email when an address is present and the SMS when a
// mobile number is present and SMS is enabled. Both channels are attempted
// even if the first fails.
func (t *NotificationTask) Execute(ctx context.Context) error {
	t.status = TaskStatusProcessing
	ctx = digit.WithHeaders(ctx, t.headers)

	var errs []error
	if strings.TrimSpace(t.payload.Email) != "" {
		if err := t.sendEmail(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if t.sms && strings.TrimSpace(t.payload.Mobile) != "" {
		if err := t.sendSMS(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		t.status = TaskStatusFailed
		return err
	}
	t.status = TaskStatusCompleted
	return nil
}

func (t *NotificationTask) sendEmail(ctx context.Context) error {
	resp, err := t.sender.SendEmail(ctx, digit.EmailRequest{
		TemplateID: t.payload.EmailTemplateID,
		Version:    t.payload.Version,
		EmailIDs:   []string{t.payload.Email},
		Enrich:     false,
		Payload:    t.values(),
	})
	t.observe(ChannelEmail, err)
	if err != nil {
		return fmt.Errorf("send email for %s: %w", t.payload.ServiceRequestID, err)
	}
	t.logger.Info("email notification sent",
		slog.String("service_request_id", t.payload.ServiceRequestID),
		slog.String("response_status", responseStatus(resp)))
	return nil
}

func (t *NotificationTask) sendSMS(ctx context.Context) error {
	resp, err := t.sender.SendSMS(ctx, digit.SMSRequest{
		TemplateID:    t.payload.SMSTemplateID,
		Version:       t.payload.Version,
		MobileNumbers: []string{t.payload.Mobile},
		Enrich:        false,
		Payload:       t.values(),
		Category:      "NOTIFICATION",
	})
	t.observe(ChannelSMS, err)
	if err != nil {
		return fmt.Errorf("send sms for %s: %w", t.payload.ServiceRequestID, err)
	}
	t.logger.Info("sms notification sent",
		slog.String("service_request_id", t.payload.ServiceRequestID),
		slog.String("response_status", responseStatus(resp)))
	return nil
}

func (t *NotificationTask) values() map[string]any {
	out := make(map[string]any, len(t.payload.Values))
	for k, v := range t.payload.Values {
		out[k] = v
	}
	return out
}

func (t *NotificationTask) observe(channel string, err error) {
	if t.observer != nil {
		t.observer.ObserveNotification(channel, err)
	}
}

func responseStatus(resp *digit.NotificationResponse) string {
	if resp == nil {
		return ""
	}
	return resp.Status
}
