package digit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// ErrProcessNotFound is returned when no process matches the requested code.
var ErrProcessNotFound = errors.New("workflow process not found")

// Process is a workflow definition.
type Process struct {
	ID          string `json:"id"`
	TenantID    string `json:"tenantId,omitempty"`
	Name        string `json:"name,omitempty"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version,omitempty"`
}

// TransitionRequest asks the engine to apply an action to an entity.
type TransitionRequest struct {
	ProcessID  string              `json:"processId" validate:"required"`
	EntityID   string              `json:"entityId" validate:"required"`
	Action     string              `json:"action" validate:"required"`
	Comment    string              `json:"comment,omitempty"`
	Attributes map[string][]string `json:"attributes,omitempty"`
}

// TransitionResponse is the process instance after a transition.
type TransitionResponse struct {
	ID           string `json:"id"`
	ProcessID    string `json:"processId"`
	EntityID     string `json:"entityId"`
	Action       string `json:"action"`
	Status       string `json:"status,omitempty"`
	Comment      string `json:"comment,omitempty"`
	CurrentState string `json:"currentState"`
}

// WorkflowClient talks to the workflow engine.
type WorkflowClient struct {
	*Client
}

// NewWorkflowClient wraps c.
func NewWorkflowClient(c *Client) *WorkflowClient {
	return &WorkflowClient{Client: c}
}

// GetProcessByCode resolves a process code to its id.
func (c *WorkflowClient) GetProcessByCode(ctx context.Context, code string) (string, error) {
	var processes []Process
	if _, err := c.do(ctx, call{
		operation: "get_process_by_code",
		method:    http.MethodGet,
		path:      "/workflow/v1/process",
		query:     url.Values{"code": {code}},
	}, &processes); err != nil {
		return "", err
	}
	for _, p := range processes {
		if p.Code == code && p.ID != "" {
			return p.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrProcessNotFound, code)
}

// GetProcessByID fetches a process definition for tenantID.
func (c *WorkflowClient) GetProcessByID(ctx context.Context, processID, tenantID string) (*Process, error) {
	var p Process
	if _, err := c.do(ctx, call{
		operation: "get_process",
		method:    http.MethodGet,
		path:      "/workflow/v1/process/" + url.PathEscape(processID),
		header:    tenantHeader(tenantID),
	}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ProcessExists reports whether processID is defined for tenantID.
func (c *WorkflowClient) ProcessExists(ctx context.Context, processID, tenantID string) (bool, error) {
	_, err := c.GetProcessByID(ctx, processID, tenantID)
	if err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ExecuteTransition applies req and returns the resulting instance.
func (c *WorkflowClient) ExecuteTransition(ctx context.Context, req TransitionRequest) (*TransitionResponse, error) {
	var out TransitionResponse
	if _, err := c.do(ctx, call{
		operation: "transition",
		method:    http.MethodPost,
		path:      "/workflow/v1/transition",
		body:      req,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func tenantHeader(tenantID string) http.Header {
	if tenantID == "" {
		return nil
	}
	h := http.Header{}
	h.Set(HeaderTenantID, tenantID)
	return h
}
