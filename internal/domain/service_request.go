package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// DefaultSource is used when a service request arrives without a source.
const DefaultSource = "Citizen"

// AuditDetails records who touched a record and when, as epoch milliseconds.
type AuditDetails struct {
	CreatedBy        string `json:"createdBy,omitempty"`
	CreatedTime      int64  `json:"createdTime"`
	LastModifiedBy   string `json:"lastModifiedBy,omitempty"`
	LastModifiedTime int64  `json:"lastModifiedTime"`
}

// Address is the location a complaint refers to.
type Address struct {
	ID          string   `json:"id,omitempty"`
	AddressLine string   `json:"address,omitempty"`
	City        string   `json:"city,omitempty"`
	Pincode     string   `json:"pincode,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

// Document is a file attached to a service request.
type Document struct {
	ID           string `json:"id,omitempty"`
	DocumentType string `json:"documentType,omitempty"`
	FileStoreID  string `json:"fileStoreId,omitempty"`
	DocumentUID  string `json:"documentUid,omitempty"`
}

// ServiceRequest is a citizen complaint tracked through the workflow engine.
// ApplicationStatus is a local copy of the engine's state, not the source of truth.
type ServiceRequest struct {
	ID                 string       `json:"serviceRequestId"`
	TenantID           string       `json:"tenantId"`
	ServiceCode        string       `json:"serviceCode,omitempty"`
	Description        string       `json:"description,omitempty"`
	AccountID          string       `json:"accountId,omitempty"`
	Source             string       `json:"source,omitempty"`
	ApplicationStatus  Status       `json:"applicationStatus,omitempty"`
	FileStoreID        string       `json:"fileStoreId,omitempty"`
	FileValid          bool         `json:"fileValid"`
	BoundaryCode       string       `json:"boundaryCode,omitempty"`
	BoundaryValid      bool         `json:"boundaryValid"`
	Email              string       `json:"email,omitempty"`
	Mobile             string       `json:"mobile,omitempty"`
	WorkflowInstanceID string       `json:"workflowInstanceId,omitempty"`
	ProcessID          string       `json:"processId,omitempty"`
	Action             string       `json:"action,omitempty"`
	Address            *Address     `json:"address,omitempty"`
	Documents          []Document   `json:"documents,omitempty"`
	AuditDetails       AuditDetails `json:"auditDetails"`
}

// PrepareForCreate stamps creation and modification times, starts the
// request in INITIATED and defaults a blank source.
func (r *ServiceRequest) PrepareForCreate(now time.Time) {
	ms := now.UnixMilli()
	r.AuditDetails.CreatedTime = ms
	r.AuditDetails.LastModifiedTime = ms
	if strings.TrimSpace(r.Source) == "" {
		r.Source = DefaultSource
	}
	r.ApplicationStatus = StatusInitiated
}

// Touch stamps the modification time.
func (r *ServiceRequest) Touch(now time.Time, by string) {
	r.AuditDetails.LastModifiedTime = now.UnixMilli()
	if by != "" {
		r.AuditDetails.LastModifiedBy = by
	}
}

// ApplyWorkflowState adopts a state string returned by the workflow engine.
// Unknown states leave ApplicationStatus unchanged and report false.
func (r *ServiceRequest) ApplyWorkflowState(state string) bool {
	status, ok := ParseStatus(state)
	if !ok {
		return false
	}
	r.ApplicationStatus = status
	return true
}

// Validate checks the invariants every persisted service request holds.
func (r *ServiceRequest) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return ErrEmptyServiceRequestID
	}
	if strings.TrimSpace(r.TenantID) == "" {
		return ErrEmptyTenantID
	}
	if !r.ApplicationStatus.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

// WorkflowAction is the optional workflow block sent alongside a service request.
type WorkflowAction struct {
	Action    string   `json:"action,omitempty"`
	Comment   string   `json:"comment,omitempty"`
	Assignees []string `json:"assignes,omitempty"`
}

// HasAction reports whether a transition was requested.
func (w *WorkflowAction) HasAction() bool {
	return w != nil && strings.TrimSpace(w.Action) != ""
}

// AuditEntry is one row of a service request's audit trail.
type AuditEntry struct {
	ID               string `json:"id"`
	ServiceRequestID string `json:"serviceRequestId"`
	Action           string `json:"action"`
	Status           Status `json:"status"`
	PerformedBy      string `json:"performedBy,omitempty"`
	PerformedTime    int64  `json:"performedTime"`
	Remarks          string `json:"remarks,omitempty"`
}

// WorkflowHistory records a transition executed against the workflow engine.
type WorkflowHistory struct {
	ID               string          `json:"id"`
	ServiceRequestID string          `json:"serviceRequestId"`
	Action           string          `json:"action"`
	Assignees        []string        `json:"assignes,omitempty"`
	Comments         string          `json:"comments,omitempty"`
	VerificationDocs json.RawMessage `json:"verificationDocs,omitempty"`
	AuditDetails     AuditDetails    `json:"auditDetails"`
}
