package digit

import (
	"context"
	"net/http"
)

// EmailRequest sends a templated email.
type EmailRequest struct {
	TemplateID  string         `json:"templateId" validate:"required"`
	Version     string         `json:"version,omitempty"`
	EmailIDs    []string       `json:"emailIds" validate:"required,min=1,dive,email"`
	Enrich      bool           `json:"enrich"`
	Payload     map[string]any `json:"payload,omitempty"`
	Attachments []string       `json:"attachments,omitempty"`
}

// SMSRequest sends a templated SMS.
type SMSRequest struct {
	TemplateID    string         `json:"templateId" validate:"required"`
	Version       string         `json:"version,omitempty"`
	MobileNumbers []string       `json:"mobileNumbers" validate:"required,min=1"`
	Enrich        bool           `json:"enrich"`
	Payload       map[string]any `json:"payload,omitempty"`
	Category      string         `json:"category,omitempty"`
}

// NotificationResponse is the notification service's acknowledgement.
type NotificationResponse struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// NotificationClient talks to the notification service.
type NotificationClient struct {
	*Client
}

// NewNotificationClient wraps c.
func NewNotificationClient(c *Client) *NotificationClient {
	return &NotificationClient{Client: c}
}

// SendEmail posts req to /notification/v1/email/send.
func (c *NotificationClient) SendEmail(ctx context.Context, req EmailRequest) (*NotificationResponse, error) {
	return c.send(ctx, "send_email", "/notification/v1/email/send", req)
}

// SendSMS posts req to /notification/v1/sms/send.
func (c *NotificationClient) SendSMS(ctx context.Context, req SMSRequest) (*NotificationResponse, error) {
	return c.send(ctx, "send_sms", "/notification/v1/sms/send", req)
}

func (c *NotificationClient) send(ctx context.Context, op, path string, body any) (*NotificationResponse, error) {
	var out NotificationResponse
	if _, err := c.do(ctx, call{
		operation: op,
		method:    http.MethodPost,
		path:      path,
		body:      body,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
