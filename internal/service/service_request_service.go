package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/domain"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/events"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/platform/digit"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/platform/logger"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/store"
	"golang.org/x/sync/errgroup"
)

// Audit actions recorded without a workflow action.
const (
	AuditActionCreate = "CREATE"
	AuditActionUpdate = "UPDATE"
)

const (
	defaultCreateComment = "Complaint submitted"
	defaultUpdateComment = "Updating service request"
	hydrateConcurrency   = 8
)

// IDGenerator issues service request ids.
type IDGenerator interface {
	Generate(ctx context.Context, templateCode string, variables map[string]string) (string, error)
}

// WorkflowEngine executes transitions on the external workflow service.
type WorkflowEngine interface {
	ExecuteTransition(ctx context.Context, req digit.TransitionRequest) (*digit.TransitionResponse, error)
}

// ProcessIDResolver maps a process code to its id.
type ProcessIDResolver interface {
	Resolve(ctx context.Context, code string) (string, error)
}

// Observer records orchestrator outcomes.
type Observer interface {
	ObserveServiceRequest(operation string, err error)
}

// Settings configures the orchestrator.
type Settings struct {
	IDGenTemplateCode   string
	OrgCode             string
	WorkflowProcessCode string
	CreateAction        string
	CreateComment       string
	UpdateComment       string
}

// Dependencies groups the collaborators of the orchestrator. Observer is optional.
type Dependencies struct {
	DB              *sql.DB
	Requests        store.ServiceRequestStore
	Addresses       store.AddressStore
	Documents       store.DocumentStore
	Audits          store.AuditStore
	WorkflowHistory store.WorkflowHistoryStore
	IDGen           IDGenerator
	Validator       *RequestValidator
	Processes       ProcessIDResolver
	Workflow        WorkflowEngine
	Events          events.EventEmitter
	Observer        Observer
}

// Caller identifies who performs an operation.
type Caller struct {
	UserID string
	Roles  []string
}

// CreateInput is a new service request with the caller's identity.
type CreateInput struct {
	Request  domain.ServiceRequest
	Workflow *domain.WorkflowAction
	Caller   Caller
}

// UpdateInput names the request to change and the changes to make.
// A transition runs only when Workflow carries an action.
type UpdateInput struct {
	ID       string
	TenantID string
	Patch    domain.ServiceRequestPatch
	Workflow *domain.WorkflowAction
	Caller   Caller
}

// History is the audit trail and workflow history of one request.
type History struct {
	Audit    []domain.AuditEntry
	Workflow []domain.WorkflowHistory
}

// ServiceRequestService provides the service request use cases.
type ServiceRequestService interface {
	// Create generates an id, validates, starts the workflow and persists.
	Create(ctx context.Context, in CreateInput) (*domain.ServiceRequest, error)

	// Update merges changes into an existing request and optionally transitions it.
	Update(ctx context.Context, in UpdateInput) (*domain.ServiceRequest, error)

	// SearchByID returns one request with its address and documents.
	SearchByID(ctx context.Context, id, tenantID string) (*domain.ServiceRequest, error)

	// Search returns the requests matching criteria.
	Search(ctx context.Context, criteria store.SearchCriteria) ([]*domain.ServiceRequest, error)

	// AuditTrail returns the history of one request.
	AuditTrail(ctx context.Context, id, tenantID string) (*History, error)
}

type serviceRequestServiceImpl struct {
	deps     Dependencies
	settings Settings
	now      func() time.Time
	logger   *slog.Logger
}

// NewServiceRequestService creates the orchestrator.
// It returns an error if any of the required dependencies are nil.
func NewServiceRequestService(deps Dependencies, settings Settings, logger *slog.Logger) (ServiceRequestService, error) {
	required := map[string]bool{
		"DB":              deps.DB == nil,
		"Requests":        deps.Requests == nil,
		"Addresses":       deps.Addresses == nil,
		"Documents":       deps.Documents == nil,
		"Audits":          deps.Audits == nil,
		"WorkflowHistory": deps.WorkflowHistory == nil,
		"IDGen":           deps.IDGen == nil,
		"Validator":       deps.Validator == nil,
		"Processes":       deps.Processes == nil,
		"Workflow":        deps.Workflow == nil,
		"Events":          deps.Events == nil,
	}
	for name, missing := range required {
		if missing {
			return nil, fmt.Errorf("%w: %s cannot be nil", domain.ErrValidation, name)
		}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &serviceRequestServiceImpl{
		deps:     deps,
		settings: settings,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "service_request_service")),
	}, nil
}

// Create implements ServiceRequestService.
func (s *serviceRequestServiceImpl) Create(ctx context.Context, in CreateInput) (*domain.ServiceRequest, error) {
	sr, err := s.create(ctx, in)
	s.observe("create", err)
	return sr, err
}

func (s *serviceRequestServiceImpl) create(ctx context.Context, in CreateInput) (*domain.ServiceRequest, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	sr := in.Request
	sr.TenantID = strings.TrimSpace(sr.TenantID)
	if sr.TenantID == "" {
		return nil, ErrMissingTenant
	}

	id, err := s.deps.IDGen.Generate(ctx, s.settings.IDGenTemplateCode, map[string]string{"ORG": s.settings.OrgCode})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIDGeneration, err)
	}
	sr.ID = id
	sr.PrepareForCreate(s.now())
	sr.AuditDetails.CreatedBy = in.Caller.UserID
	sr.AuditDetails.LastModifiedBy = in.Caller.UserID
	log = log.With(slog.String("service_request_id", sr.ID), slog.String("tenant_id", sr.TenantID))

	if err := s.deps.Validator.ValidateForCreate(ctx, &sr); err != nil {
		log.Warn("service request rejected by validation", slog.String("error", err.Error()))
		return nil, err
	}

	history := s.startWorkflow(ctx, log, &sr, in.Caller)

	err = store.RunInTransaction(ctx, s.deps.DB, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.deps.Requests.WithTx(tx).Create(ctx, &sr); err != nil {
			return err
		}
		if err := s.saveChildren(ctx, tx, &sr, true, true); err != nil {
			return err
		}
		return s.saveTrail(ctx, tx, &sr, AuditActionCreate, "", in.Caller.UserID, history)
	})
	if err != nil {
		return nil, s.wrapStoreError("create", "failed to persist service request", err)
	}

	log.Info("service request created", slog.String("status", sr.ApplicationStatus.String()))
	s.emit(ctx, log, events.TypeServiceRequestCreated, &sr, "")
	return &sr, nil
}

// startWorkflow sends the create transition. Failures are logged and leave
// the request in INITIATED.
func (s *serviceRequestServiceImpl) startWorkflow(
	ctx context.Context,
	log *slog.Logger,
	sr *domain.ServiceRequest,
	caller Caller,
) *domain.WorkflowHistory {
	processID, err := s.deps.Processes.Resolve(ctx, s.settings.WorkflowProcessCode)
	if err != nil {
		log.Warn("workflow start skipped", slog.String("error", err.Error()))
		return nil
	}

	comment := s.settings.CreateComment
	if comment == "" {
		comment = defaultCreateComment
	}
	resp, err := s.deps.Workflow.ExecuteTransition(ctx, digit.TransitionRequest{
		ProcessID: processID,
		EntityID:  sr.ID,
		Action:    s.settings.CreateAction,
		Comment:   comment,
		Attributes: map[string][]string{
			"roles":    nonNil(caller.Roles),
			"tenantId": {sr.TenantID},
		},
	})
	if err != nil {
		log.Warn("workflow start failed", slog.String("error", err.Error()))
		return nil
	}

	s.adoptTransition(log, sr, resp, processID)
	return s.historyFor(sr, s.settings.CreateAction, comment, nil, caller.UserID)
}

// Update implements ServiceRequestService.
func (s *serviceRequestServiceImpl) Update(ctx context.Context, in UpdateInput) (*domain.ServiceRequest, error) {
	sr, err := s.update(ctx, in)
	s.observe("update", err)
	return sr, err
}

func (s *serviceRequestServiceImpl) update(ctx context.Context, in UpdateInput) (*domain.ServiceRequest, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	id := strings.TrimSpace(in.ID)
	if id == "" {
		return nil, ErrMissingRequestID
	}
	tenantID := strings.TrimSpace(in.TenantID)
	if tenantID == "" {
		return nil, ErrMissingTenant
	}
	log = log.With(slog.String("service_request_id", id), slog.String("tenant_id", tenantID))

	sr, err := s.deps.Requests.GetByIDAndTenant(ctx, id, tenantID)
	if err != nil {
		return nil, s.wrapStoreError("update", "failed to load service request", err)
	}
	if err := s.hydrate(ctx, sr); err != nil {
		return nil, s.wrapStoreError("update", "failed to load child records", err)
	}

	changes := in.Patch.Apply(sr)
	if changes.FileStoreChanged {
		s.deps.Validator.ValidateFileStore(ctx, sr)
	}
	if changes.BoundaryChanged {
		s.deps.Validator.ValidateBoundary(ctx, sr)
	}

	var history *domain.WorkflowHistory
	if in.Workflow.HasAction() {
		history, err = s.transition(ctx, log, sr, in.Workflow, in.Caller)
		if err != nil {
			return nil, err
		}
	}

	sr.Touch(s.now(), in.Caller.UserID)

	auditAction := AuditActionUpdate
	remarks := ""
	transitionAction := ""
	if history != nil {
		auditAction = history.Action
		remarks = history.Comments
		transitionAction = history.Action
	}

	err = store.RunInTransaction(ctx, s.deps.DB, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.deps.Requests.WithTx(tx).Update(ctx, sr); err != nil {
			return err
		}
		if changes.AddressChanged {
			if err := s.deps.Addresses.WithTx(tx).DeleteByServiceRequestID(ctx, sr.ID); err != nil {
				return err
			}
		}
		if changes.DocumentsChanged {
			if err := s.deps.Documents.WithTx(tx).DeleteByServiceRequestID(ctx, sr.ID); err != nil {
				return err
			}
		}
		if err := s.saveChildren(ctx, tx, sr, changes.AddressChanged, changes.DocumentsChanged); err != nil {
			return err
		}
		return s.saveTrail(ctx, tx, sr, auditAction, remarks, in.Caller.UserID, history)
	})
	if err != nil {
		return nil, s.wrapStoreError("update", "failed to persist service request", err)
	}

	log.Info("service request updated", slog.String("status", sr.ApplicationStatus.String()))
	s.emit(ctx, log, events.TypeServiceRequestUpdated, sr, transitionAction)
	return sr, nil
}

// transition runs the caller's workflow action. Any failure aborts the update.
func (s *serviceRequestServiceImpl) transition(
	ctx context.Context,
	log *slog.Logger,
	sr *domain.ServiceRequest,
	wf *domain.WorkflowAction,
	caller Caller,
) (*domain.WorkflowHistory, error) {
	processID := sr.ProcessID
	if processID == "" {
		resolved, err := s.deps.Processes.Resolve(ctx, s.settings.WorkflowProcessCode)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrWorkflowTransition, err)
		}
		processID = resolved
	}

	comment := strings.TrimSpace(wf.Comment)
	if comment == "" {
		comment = s.settings.UpdateComment
	}
	if comment == "" {
		comment = defaultUpdateComment
	}

	resp, err := s.deps.Workflow.ExecuteTransition(ctx, digit.TransitionRequest{
		ProcessID: processID,
		EntityID:  sr.ID,
		Action:    wf.Action,
		Comment:   comment,
		Attributes: map[string][]string{
			"roles":    nonNil(caller.Roles),
			"assignes": nonNil(wf.Assignees),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWorkflowTransition, err)
	}

	sr.Action = wf.Action
	s.adoptTransition(log, sr, resp, processID)
	return s.historyFor(sr, wf.Action, comment, wf.Assignees, caller.UserID), nil
}

// adoptTransition copies the engine's view onto sr. An unknown state keeps
// the current status.
func (s *serviceRequestServiceImpl) adoptTransition(
	log *slog.Logger,
	sr *domain.ServiceRequest,
	resp *digit.TransitionResponse,
	processID string,
) {
	if resp == nil {
		return
	}
	if resp.ID != "" {
		sr.WorkflowInstanceID = resp.ID
	}
	sr.ProcessID = processID
	if resp.ProcessID != "" {
		sr.ProcessID = resp.ProcessID
	}
	if !sr.ApplyWorkflowState(resp.CurrentState) {
		log.Warn("unknown workflow state, status unchanged",
			slog.String("workflow_state", resp.CurrentState),
			slog.String("status", sr.ApplicationStatus.String()))
	}
}

func (s *serviceRequestServiceImpl) historyFor(
	sr *domain.ServiceRequest,
	action, comment string,
	assignees []string,
	by string,
) *domain.WorkflowHistory {
	ms := s.now().UnixMilli()
	return &domain.WorkflowHistory{
		ID:               uuid.NewString(),
		ServiceRequestID: sr.ID,
		Action:           action,
		Assignees:        assignees,
		Comments:         comment,
		AuditDetails: domain.AuditDetails{
			CreatedBy:        by,
			CreatedTime:      ms,
			LastModifiedBy:   by,
			LastModifiedTime: ms,
		},
	}
}

func (s *serviceRequestServiceImpl) saveChildren(
	ctx context.Context,
	tx *sql.Tx,
	sr *domain.ServiceRequest,
	address, documents bool,
) error {
	if address && sr.Address != nil {
		if err := s.deps.Addresses.WithTx(tx).Create(ctx, sr.ID, sr.Address, sr.AuditDetails); err != nil {
			return err
		}
	}
	if documents {
		docs := s.deps.Documents.WithTx(tx)
		for i := range sr.Documents {
			if err := docs.Create(ctx, sr.ID, &sr.Documents[i], sr.AuditDetails); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *serviceRequestServiceImpl) saveTrail(
	ctx context.Context,
	tx *sql.Tx,
	sr *domain.ServiceRequest,
	action, remarks, by string,
	history *domain.WorkflowHistory,
) error {
	entry := &domain.AuditEntry{
		ID:               uuid.NewString(),
		ServiceRequestID: sr.ID,
		Action:           action,
		Status:           sr.ApplicationStatus,
		PerformedBy:      by,
		PerformedTime:    sr.AuditDetails.LastModifiedTime,
		Remarks:          remarks,
	}
	if err := s.deps.Audits.WithTx(tx).Create(ctx, entry); err != nil {
		return err
	}
	if history != nil {
		return s.deps.WorkflowHistory.WithTx(tx).Create(ctx, history)
	}
	return nil
}

// SearchByID implements ServiceRequestService.
func (s *serviceRequestServiceImpl) SearchByID(ctx context.Context, id, tenantID string) (*domain.ServiceRequest, error) {
	sr, err := s.searchByID(ctx, id, tenantID)
	s.observe("search_by_id", err)
	return sr, err
}

func (s *serviceRequestServiceImpl) searchByID(ctx context.Context, id, tenantID string) (*domain.ServiceRequest, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, ErrMissingTenant
	}
	if strings.TrimSpace(id) == "" {
		return nil, ErrMissingRequestID
	}

	sr, err := s.deps.Requests.GetByIDAndTenant(ctx, strings.TrimSpace(id), strings.TrimSpace(tenantID))
	if err != nil {
		return nil, s.wrapStoreError("search", "failed to load service request", err)
	}
	if err := s.hydrate(ctx, sr); err != nil {
		return nil, s.wrapStoreError("search", "failed to load child records", err)
	}
	return sr, nil
}

// Search implements ServiceRequestService.
func (s *serviceRequestServiceImpl) Search(ctx context.Context, criteria store.SearchCriteria) ([]*domain.ServiceRequest, error) {
	results, err := s.search(ctx, criteria)
	s.observe("search", err)
	return results, err
}

func (s *serviceRequestServiceImpl) search(ctx context.Context, criteria store.SearchCriteria) ([]*domain.ServiceRequest, error) {
	criteria.Normalize()
	if criteria.TenantID == "" {
		return nil, ErrMissingTenant
	}

	results, err := s.deps.Requests.Search(ctx, criteria)
	if err != nil {
		return nil, s.wrapStoreError("search", "failed to search service requests", err)
	}
	if results == nil {
		results = []*domain.ServiceRequest{}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(hydrateConcurrency)
	for _, sr := range results {
		g.Go(func() error {
			return s.hydrate(gctx, sr)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, s.wrapStoreError("search", "failed to load child records", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("service requests found",
		slog.String("tenant_id", criteria.TenantID),
		slog.Int("count", len(results)))
	return results, nil
}

// AuditTrail implements ServiceRequestService.
func (s *serviceRequestServiceImpl) AuditTrail(ctx context.Context, id, tenantID string) (*History, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, ErrMissingTenant
	}
	if strings.TrimSpace(id) == "" {
		return nil, ErrMissingRequestID
	}

	sr, err := s.deps.Requests.GetByIDAndTenant(ctx, strings.TrimSpace(id), strings.TrimSpace(tenantID))
	if err != nil {
		return nil, s.wrapStoreError("audit", "failed to load service request", err)
	}

	audit, err := s.deps.Audits.ListByServiceRequestID(ctx, sr.ID)
	if err != nil {
		return nil, s.wrapStoreError("audit", "failed to load audit trail", err)
	}
	workflow, err := s.deps.WorkflowHistory.FindByServiceRequestID(ctx, sr.ID)
	if err != nil {
		return nil, s.wrapStoreError("audit", "failed to load workflow history", err)
	}

	return &History{Audit: audit, Workflow: workflow}, nil
}

// hydrate loads the address and documents of sr.
func (s *serviceRequestServiceImpl) hydrate(ctx context.Context, sr *domain.ServiceRequest) error {
	addresses, err := s.deps.Addresses.FindByServiceRequestID(ctx, sr.ID)
	if err != nil {
		return err
	}
	if len(addresses) > 0 {
		addr := addresses[0]
		sr.Address = &addr
	}

	docs, err := s.deps.Documents.FindByServiceRequestID(ctx, sr.ID)
	if err != nil {
		return err
	}
	if len(docs) > 0 {
		sr.Documents = docs
	}
	return nil
}

// emit publishes a lifecycle event. Handler failures never fail the operation.
func (s *serviceRequestServiceImpl) emit(
	ctx context.Context,
	log *slog.Logger,
	eventType string,
	sr *domain.ServiceRequest,
	action string,
) {
	event, err := events.NewEvent(eventType, events.ServiceRequestPayload{
		ServiceRequestID: sr.ID,
		TenantID:         sr.TenantID,
		AccountID:        sr.AccountID,
		Description:      sr.Description,
		Status:           sr.ApplicationStatus.String(),
		Email:            sr.Email,
		Mobile:           sr.Mobile,
		Action:           action,
	})
	if err != nil {
		log.Error("failed to build lifecycle event", slog.String("error", err.Error()))
		return
	}
	if err := s.deps.Events.EmitEvent(ctx, event); err != nil {
		log.Warn("lifecycle event handling failed",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
	}
}

// wrapStoreError keeps well-known store errors visible to the API layer and
// wraps everything else.
func (s *serviceRequestServiceImpl) wrapStoreError(operation, message string, err error) error {
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrDuplicate) {
		return err
	}
	return NewServiceRequestError(operation, message, err)
}

func (s *serviceRequestServiceImpl) observe(operation string, err error) {
	if s.deps.Observer != nil {
		s.deps.Observer.ObserveServiceRequest(operation, err)
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
