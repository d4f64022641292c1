package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/api/shared"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/domain"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/platform/logger"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/service"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/store"
)

// ServiceRequestHandler serves the /citizen-service endpoints.
type ServiceRequestHandler struct {
	service   service.ServiceRequestService
	validator *validator.Validate
	logger    *slog.Logger
	now       func() time.Time
}

// NewServiceRequestHandler creates a new ServiceRequestHandler
func NewServiceRequestHandler(svc service.ServiceRequestService, logger *slog.Logger) *ServiceRequestHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ServiceRequestHandler{
		service:   svc,
		validator: newValidator(),
		logger:    logger.With(slog.String("component", "service_request_handler")),
		now:       time.Now,
	}
}

// Create handles POST /citizen-service/create.
func (h *ServiceRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req CreateServiceRequest
	if !h.decode(w, r, &req) {
		return
	}

	claims := shared.GetClaims(r.Context())
	sr, err := h.service.Create(r.Context(), req.toInput(callerFrom(claims), claims.TenantID))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	log.Debug("service request created", slog.String("service_request_id", sr.ID))
	shared.RespondWithJSON(w, r, http.StatusCreated, h.serviceResponse(req.Workflow, sr))
}

// Update handles POST /citizen-service/update.
func (h *ServiceRequestHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateServiceRequest
	if !h.decode(w, r, &req) {
		return
	}

	claims := shared.GetClaims(r.Context())
	sr, err := h.service.Update(r.Context(), req.toInput(callerFrom(claims), claims.TenantID))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, h.serviceResponse(req.Workflow, sr))
}

// Search handles GET /citizen-service/search. A serviceRequestId takes the
// exact lookup path, where an unknown id yields an empty result set;
// otherwise at least one filter is required.
func (h *ServiceRequestHandler) Search(w http.ResponseWriter, r *http.Request) {
	tenantID := shared.GetClaims(r.Context()).TenantID
	q := r.URL.Query()

	if id := strings.TrimSpace(q.Get("serviceRequestId")); id != "" {
		sr, err := h.service.SearchByID(r.Context(), id, tenantID)
		switch {
		case store.IsNotFoundError(err):
			shared.RespondWithJSON(w, r, http.StatusOK, h.serviceResponse(nil))
		case err != nil:
			h.respondServiceError(w, r, err)
		default:
			shared.RespondWithJSON(w, r, http.StatusOK, h.serviceResponse(nil, sr))
		}
		return
	}

	criteria, err := parseSearchCriteria(q.Get, tenantID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, shared.CodeValidation, err.Error(), err)
		return
	}

	results, err := h.service.Search(r.Context(), criteria)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, h.serviceResponse(nil, results...))
}

// Audit handles GET /citizen-service/audit.
func (h *ServiceRequestHandler) Audit(w http.ResponseWriter, r *http.Request) {
	tenantID := shared.GetClaims(r.Context()).TenantID
	id := r.URL.Query().Get("serviceRequestId")

	history, err := h.service.AuditTrail(r.Context(), id, tenantID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	resp := AuditResponse{
		ResponseInfo:    newResponseInfo(h.now()),
		AuditTrail:      history.Audit,
		WorkflowHistory: history.Workflow,
	}
	if resp.AuditTrail == nil {
		resp.AuditTrail = []domain.AuditEntry{}
	}
	if resp.WorkflowHistory == nil {
		resp.WorkflowHistory = []domain.WorkflowHistory{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

func (h *ServiceRequestHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
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

func (h *ServiceRequestHandler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r,
		MapErrorToStatusCode(err),
		MapErrorToCode(err),
		GetSafeErrorMessage(err),
		err)
}

func (h *ServiceRequestHandler) serviceResponse(wf *WorkflowDTO, srs ...*domain.ServiceRequest) ServiceResponse {
	resp := ServiceResponse{
		ResponseInfo:    newResponseInfo(h.now()),
		Services:        make([]*domain.ServiceRequest, 0, len(srs)),
		ServiceWrappers: make([]ServiceWrapper, 0, len(srs)),
	}
	for _, sr := range srs {
		resp.Services = append(resp.Services, sr)
		resp.ServiceWrappers = append(resp.ServiceWrappers, ServiceWrapper{Service: sr, Workflow: wf})
	}
	return resp
}

func callerFrom(claims shared.Claims) service.Caller {
	return service.Caller{UserID: claims.Subject, Roles: claims.Roles}
}

type searchParamError string

func (e searchParamError) Error() string { return string(e) }

// parseSearchCriteria reads the search filters. Dates accept epoch
// milliseconds or RFC 3339.
func parseSearchCriteria(get func(string) string, tenantID string) (store.SearchCriteria, error) {
	c := store.SearchCriteria{
		TenantID:    tenantID,
		ServiceCode: strings.TrimSpace(get("serviceCode")),
		Mobile:      strings.TrimSpace(get("mobileNumber")),
		Locality:    strings.TrimSpace(get("locality")),
	}

	if raw := strings.TrimSpace(get("applicationStatus")); raw != "" {
		status, ok := domain.ParseStatus(raw)
		if !ok {
			return c, searchParamError("Invalid applicationStatus: " + raw)
		}
		c.Status = status
	}

	var err error
	if c.FromDate, err = parseDate(get("fromDate")); err != nil {
		return c, searchParamError("Invalid fromDate")
	}
	if c.ToDate, err = parseDate(get("toDate")); err != nil {
		return c, searchParamError("Invalid toDate")
	}
	if !c.FromDate.IsZero() && !c.ToDate.IsZero() && c.ToDate.Before(c.FromDate) {
		return c, searchParamError("toDate must not be before fromDate")
	}
	if c.Limit, err = parseInt(get("limit")); err != nil {
		return c, searchParamError("Invalid limit")
	}
	if c.Offset, err = parseInt(get("offset")); err != nil || c.Offset < 0 {
		return c, searchParamError("Invalid offset")
	}

	if c.ServiceCode == "" && c.Status == "" && c.Mobile == "" && c.Locality == "" &&
		c.FromDate.IsZero() && c.ToDate.IsZero() {
		return c, searchParamError(GetSafeErrorMessage(service.ErrEmptySearch))
	}
	return c, nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Parse(time.RFC3339, raw)
}

func parseInt(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
