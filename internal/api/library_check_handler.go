package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/api/shared"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/platform/digit"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/platform/logger"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/redact"
)

// Diagnostic client interfaces, satisfied by the platform/digit clients.
type (
	BoundarySearcher interface {
		SearchByCodes(ctx context.Context, codes []string) ([]digit.Boundary, error)
	}
	TenantDirectory interface {
		GetTenantByCode(ctx context.Context, code string) (*digit.Tenant, error)
		CreateTenant(ctx context.Context, t digit.Tenant) (*digit.Tenant, error)
	}
	WorkflowGateway interface {
		ExecuteTransition(ctx context.Context, req digit.TransitionRequest) (*digit.TransitionResponse, error)
		ProcessExists(ctx context.Context, processID, tenantID string) (bool, error)
	}
	IDIssuer interface {
		GenerateID(ctx context.Context, req digit.IDGenRequest) (*digit.IDGenResponse, error)
	}
	Notifier interface {
		SendEmail(ctx context.Context, req digit.EmailRequest) (*digit.NotificationResponse, error)
		SendSMS(ctx context.Context, req digit.SMSRequest) (*digit.NotificationResponse, error)
	}
)

// LibraryCheckClients groups the clients exercised by the diagnostics.
type LibraryCheckClients struct {
	Boundary     BoundarySearcher
	Account      TenantDirectory
	Workflow     WorkflowGateway
	IDGen        IDIssuer
	Notification Notifier
}

// LibraryCheckHandler serves /library-check. Each endpoint calls one client
// with the caller's headers and reports whether the call went through.
type LibraryCheckHandler struct {
	clients   LibraryCheckClients
	validator *validator.Validate
	logger    *slog.Logger
}

// NewLibraryCheckHandler creates a new LibraryCheckHandler
func NewLibraryCheckHandler(clients LibraryCheckClients, logger *slog.Logger) *LibraryCheckHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LibraryCheckHandler{
		clients:   clients,
		validator: newValidator(),
		logger:    logger.With(slog.String("component", "library_check_handler")),
	}
}

// HealthFeatures lists what the health endpoint advertises.
var HealthFeatures = []string{
	"Automatic header propagation",
	"No authToken parameters required",
	"Thread-safe request context handling",
}

// Health handles GET /library-check/health.
func (h *LibraryCheckHandler) Health(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]any{
		"status":   "healthy",
		"message":  "Digit client library is properly integrated",
		"features": HealthFeatures,
	})
}

// Boundary handles POST /library-check/boundary.
func (h *LibraryCheckHandler) Boundary(w http.ResponseWriter, r *http.Request) {
	var req BoundaryCheckRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.logHeaders(r, "boundary", slog.Int("codes", len(req.Codes)))

	boundaries, err := h.clients.Boundary.SearchByCodes(r.Context(), req.Codes)
	if err != nil {
		h.statusError(w, r, "Error calling boundary service", err)
		return
	}
	if boundaries == nil {
		boundaries = []digit.Boundary{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]any{
		"status":          "success",
		"message":         "Header propagation working correctly",
		"boundariesFound": len(boundaries),
		"boundaries":      boundaries,
	})
}

// GetTenant handles GET /library-check/tenant/{code}.
func (h *LibraryCheckHandler) GetTenant(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	h.logHeaders(r, "tenant_search", slog.String("code", code))

	tenant, err := h.clients.Account.GetTenantByCode(r.Context(), code)
	if err != nil {
		h.statusError(w, r, "Error calling account service", err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]any{
		"status":      "success",
		"message":     "Header propagation working correctly",
		"tenantFound": tenant != nil,
		"tenant":      tenant,
	})
}

// CreateTenant handles POST /library-check/tenant.
func (h *LibraryCheckHandler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req digit.Tenant
	if !h.decode(w, r, &req) {
		return
	}
	h.logHeaders(r, "tenant_create", slog.String("name", req.Name))

	created, err := h.clients.Account.CreateTenant(r.Context(), req)
	if err != nil {
		h.statusError(w, r, "Error creating tenant", err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]any{
		"status":        "success",
		"message":       "Header propagation working correctly",
		"tenantCreated": created != nil,
		"tenant":        created,
	})
}

// WorkflowTransition handles POST /library-check/workflow/transition.
func (h *LibraryCheckHandler) WorkflowTransition(w http.ResponseWriter, r *http.Request) {
	var req digit.TransitionRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.logHeaders(r, "workflow_transition",
		slog.String("process_id", req.ProcessID),
		slog.String("entity_id", req.EntityID),
		slog.String("action", req.Action))

	resp, err := h.clients.Workflow.ExecuteTransition(r.Context(), req)
	if err != nil {
		h.successError(w, r, "Workflow transition failed", err)
		return
	}
	h.success(w, r, "Workflow transition executed successfully via digit-client library", "workflowResponse", resp)
}

// WorkflowProcess handles GET /library-check/workflow/process/{processId}.
// The process is looked up for the tenant named in X-Tenant-ID.
func (h *LibraryCheckHandler) WorkflowProcess(w http.ResponseWriter, r *http.Request) {
	processID := chi.URLParam(r, "processId")
	tenantID := digit.HeadersFromRequest(r).TenantID
	h.logHeaders(r, "workflow_process", slog.String("process_id", processID))

	exists, err := h.clients.Workflow.ProcessExists(r.Context(), processID, tenantID)
	if err != nil {
		h.statusError(w, r, "Error calling workflow service", err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]any{
		"status":        "success",
		"message":       "Header propagation working correctly",
		"processId":     processID,
		"processExists": exists,
	})
}

// GenerateID handles POST /library-check/idgen/generate.
func (h *LibraryCheckHandler) GenerateID(w http.ResponseWriter, r *http.Request) {
	var req digit.IDGenRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.logHeaders(r, "idgen_generate", slog.String("template_code", req.TemplateCode))

	resp, err := h.clients.IDGen.GenerateID(r.Context(), req)
	if err != nil {
		h.successError(w, r, "ID generation failed", err)
		return
	}
	h.success(w, r, "ID generated successfully via digit-client library", "idResponse", resp)
}

// SendEmail handles POST /library-check/notification/email/send.
func (h *LibraryCheckHandler) SendEmail(w http.ResponseWriter, r *http.Request) {
	var req digit.EmailRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.logHeaders(r, "email_send",
		slog.String("template_id", req.TemplateID),
		slog.Int("recipients", len(req.EmailIDs)))

	resp, err := h.clients.Notification.SendEmail(r.Context(), req)
	if err != nil {
		h.successError(w, r, "Email sending failed", err)
		return
	}
	h.success(w, r, "Email sent successfully via digit-client library", "emailResponse", resp)
}

// SendSMS handles POST /library-check/notification/sms/send.
func (h *LibraryCheckHandler) SendSMS(w http.ResponseWriter, r *http.Request) {
	var req digit.SMSRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.logHeaders(r, "sms_send",
		slog.String("template_id", req.TemplateID),
		slog.Int("recipients", len(req.MobileNumbers)))

	resp, err := h.clients.Notification.SendSMS(r.Context(), req)
	if err != nil {
		h.successError(w, r, "SMS sending failed", err)
		return
	}
	h.success(w, r, "SMS sent successfully via digit-client library", "smsResponse", resp)
}

func (h *LibraryCheckHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := shared.DecodeJSON(r, v); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, shared.CodeBadRequest, "Invalid request format", err)
		return false
	}
	if err := h.validator.Struct(v); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, shared.CodeValidation, SanitizeValidationError(err), err)
		return false
	}
	return true
}

// logHeaders records which identity headers arrived. Authorization is
// truncated to its first 20 characters and absent headers log as "null".
func (h *LibraryCheckHandler) logHeaders(r *http.Request, check string, attrs ...slog.Attr) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	hdr := digit.HeadersFromRequest(r)

	all := append([]slog.Attr{
		slog.String("check", check),
		slog.String("authorization", truncateAuth(hdr.Authorization)),
		slog.String("tenant_id", orNull(hdr.TenantID)),
		slog.String("client_id", orNull(hdr.ClientID)),
		slog.String("correlation_id", orNull(hdr.CorrelationID)),
		slog.String("request_id", orNull(hdr.RequestID)),
	}, attrs...)
	log.LogAttrs(r.Context(), slog.LevelInfo, "library check request", all...)

	if hdr.IsEmpty() {
		log.Warn("no authentication headers found, header propagation may not work", slog.String("check", check))
	}
}

func truncateAuth(v string) string {
	if v == "" {
		return missingHeader
	}
	if len(v) > 20 {
		v = v[:20]
	}
	return v + "..."
}

const missingHeader = "null"

func orNull(v string) string {
	if v == "" {
		return missingHeader
	}
	return v
}

func (h *LibraryCheckHandler) success(w http.ResponseWriter, r *http.Request, message, key string, payload any) {
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]any{
		"success":                  true,
		"message":                  message,
		key:                        payload,
		"headerPropagationWorking": true,
	})
}

func (h *LibraryCheckHandler) statusError(w http.ResponseWriter, r *http.Request, prefix string, err error) {
	h.logFailure(r, prefix, err)
	shared.RespondWithJSON(w, r, http.StatusInternalServerError, map[string]any{
		"status":  "error",
		"message": prefix + ": " + redact.Error(err),
		"error":   errorTypeName(err),
	})
}

func (h *LibraryCheckHandler) successError(w http.ResponseWriter, r *http.Request, prefix string, err error) {
	h.logFailure(r, prefix, err)
	shared.RespondWithJSON(w, r, http.StatusInternalServerError, map[string]any{
		"success":                  false,
		"message":                  prefix + ": " + redact.Error(err),
		"error":                    errorTypeName(err),
		"headerPropagationWorking": false,
	})
}

func (h *LibraryCheckHandler) logFailure(r *http.Request, prefix string, err error) {
	logger.FromContextOrDefault(r.Context(), h.logger).Error(prefix,
		slog.String("error", redact.Error(err)),
		slog.String("trace_id", shared.GetTraceID(r.Context())))
}

// errorTypeName names the most specific error type in err's chain,
// without package or pointer decoration.
func errorTypeName(err error) string {
	for e := err; e != nil; e = errors.Unwrap(e) {
		name := fmt.Sprintf("%T", e)
		if name == "*fmt.wrapError" || name == "*fmt.wrapErrors" {
			continue
		}
		name = strings.TrimPrefix(name, "*")
		if i := strings.LastIndex(name, "."); i >= 0 {
			name = name[i+1:]
		}
		return name
	}
	return "error"
}
