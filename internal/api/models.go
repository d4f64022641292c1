package api

import (
	"time"

	"github.com/srujana-egov/pgr-on-digit3.0/internal/domain"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/service"
)

// API identity reported in responseInfo.
const (
	APIID      = "pgr-services"
	APIVersion = "1.0"
)

// ResponseInfo is the metadata block of every successful response.
type ResponseInfo struct {
	APIID  string `json:"apiId"`
	Ver    string `json:"ver"`
	Ts     int64  `json:"ts"`
	Status string `json:"status"`
}

func newResponseInfo(now time.Time) ResponseInfo {
	return ResponseInfo{APIID: APIID, Ver: APIVersion, Ts: now.UnixMilli(), Status: "successful"}
}

// WorkflowDTO is the optional workflow block of create and update requests.
type WorkflowDTO struct {
	Action    string   `json:"action,omitempty"   validate:"omitempty,max=64"`
	Comment   string   `json:"comment,omitempty"  validate:"omitempty,max=1024"`
	Assignees []string `json:"assignes,omitempty"`
}

func (w *WorkflowDTO) toDomain() *domain.WorkflowAction {
	if w == nil {
		return nil
	}
	return &domain.WorkflowAction{Action: w.Action, Comment: w.Comment, Assignees: w.Assignees}
}

// NewServiceDTO is the service block of a create request. The tenant comes
// from the caller's token, so any tenantId in the body is ignored.
type NewServiceDTO struct {
	TenantID     string            `json:"tenantId,omitempty"`
	ServiceCode  string            `json:"serviceCode,omitempty"  validate:"omitempty,max=64"`
	Description  string            `json:"description,omitempty"  validate:"omitempty,max=4000"`
	AccountID    string            `json:"accountId,omitempty"`
	Source       string            `json:"source,omitempty"       validate:"omitempty,max=64"`
	FileStoreID  string            `json:"fileStoreId,omitempty"`
	BoundaryCode string            `json:"boundaryCode,omitempty"`
	Email        string            `json:"email,omitempty"        validate:"omitempty,email"`
	Mobile       string            `json:"mobile,omitempty"       validate:"omitempty,min=6,max=20"`
	Address      *domain.Address   `json:"address,omitempty"`
	Documents    []domain.Document `json:"documents,omitempty"`
}

// CreateServiceRequest is the body of POST /citizen-service/create.
type CreateServiceRequest struct {
	Service  NewServiceDTO `json:"service"`
	Workflow *WorkflowDTO  `json:"workflow,omitempty"`
}

func (r CreateServiceRequest) toInput(caller service.Caller, tenantID string) service.CreateInput {
	s := r.Service
	return service.CreateInput{
		Request: domain.ServiceRequest{
			TenantID:     tenantID,
			ServiceCode:  s.ServiceCode,
			Description:  s.Description,
			AccountID:    s.AccountID,
			Source:       s.Source,
			FileStoreID:  s.FileStoreID,
			BoundaryCode: s.BoundaryCode,
			Email:        s.Email,
			Mobile:       s.Mobile,
			Address:      s.Address,
			Documents:    s.Documents,
		},
		Workflow: r.Workflow.toDomain(),
		Caller:   caller,
	}
}

// ServicePatchDTO is the service block of an update request. Absent fields
// are left unchanged.
type ServicePatchDTO struct {
	ServiceRequestID string            `json:"serviceRequestId"`
	TenantID         string            `json:"tenantId,omitempty"`
	Description      *string           `json:"description,omitempty"  validate:"omitempty,max=4000"`
	FileStoreID      *string           `json:"fileStoreId,omitempty"`
	BoundaryCode     *string           `json:"boundaryCode,omitempty"`
	Email            *string           `json:"email,omitempty"        validate:"omitempty,email"`
	Mobile           *string           `json:"mobile,omitempty"       validate:"omitempty,min=6,max=20"`
	Address          *domain.Address   `json:"address,omitempty"`
	Documents        []domain.Document `json:"documents,omitempty"`
}

// UpdateServiceRequest is the body of POST /citizen-service/update.
type UpdateServiceRequest struct {
	Service  ServicePatchDTO `json:"service"`
	Workflow *WorkflowDTO    `json:"workflow,omitempty"`
}

func (r UpdateServiceRequest) toInput(caller service.Caller, tenantID string) service.UpdateInput {
	s := r.Service
	return service.UpdateInput{
		ID:       s.ServiceRequestID,
		TenantID: tenantID,
		Patch: domain.ServiceRequestPatch{
			Description:  s.Description,
			Address:      s.Address,
			Documents:    s.Documents,
			Email:        s.Email,
			Mobile:       s.Mobile,
			FileStoreID:  s.FileStoreID,
			BoundaryCode: s.BoundaryCode,
		},
		Workflow: r.Workflow.toDomain(),
		Caller:   caller,
	}
}

// ServiceWrapper pairs a service request with the workflow block the caller sent.
type ServiceWrapper struct {
	Service  *domain.ServiceRequest `json:"service"`
	Workflow *WorkflowDTO           `json:"workflow,omitempty"`
}

// ServiceResponse is returned by create, update and search.
type ServiceResponse struct {
	ResponseInfo    ResponseInfo             `json:"responseInfo"`
	Services        []*domain.ServiceRequest `json:"services"`
	ServiceWrappers []ServiceWrapper         `json:"serviceWrappers"`
}

// AuditResponse is returned by the audit endpoint.
type AuditResponse struct {
	ResponseInfo    ResponseInfo             `json:"responseInfo"`
	AuditTrail      []domain.AuditEntry      `json:"auditTrail"`
	WorkflowHistory []domain.WorkflowHistory `json:"workflowHistory"`
}

// BoundaryCheckRequest is the body of POST /library-check/boundary.
type BoundaryCheckRequest struct {
	Codes []string `json:"codes" validate:"required,min=1,dive,required"`
}
