package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/api/shared"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/domain"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/service"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/store"
)

// MapErrorToStatusCode maps service and store errors to HTTP status codes.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	case errors.Is(err, service.ErrMissingRequestID),
		errors.Is(err, service.ErrMissingTenant),
		errors.Is(err, service.ErrEmptySearch),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	case errors.Is(err, service.ErrExternalValidation):
		return http.StatusUnprocessableEntity

	case errors.Is(err, service.ErrIDGeneration),
		errors.Is(err, service.ErrWorkflowTransition):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}

// MapErrorToCode returns the envelope code for err.
func MapErrorToCode(err error) string {
	switch MapErrorToStatusCode(err) {
	case http.StatusNotFound:
		return shared.CodeNotFound
	case http.StatusConflict:
		return shared.CodeConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return shared.CodeValidation
	case http.StatusBadGateway:
		return shared.CodeUpstream
	default:
		return shared.CodeInternal
	}
}

// GetSafeErrorMessage returns a client-facing message that never contains
// internal details.
func GetSafeErrorMessage(err error) string {
	switch {
	case err == nil:
		return "An unexpected error occurred"
	case errors.Is(err, store.ErrNotFound):
		return "Service request not found"
	case errors.Is(err, store.ErrDuplicate):
		return "Service request already exists"
	case errors.Is(err, service.ErrMissingRequestID):
		return "serviceRequestId is required"
	case errors.Is(err, service.ErrMissingTenant):
		return "tenantId is required"
	case errors.Is(err, service.ErrEmptySearch):
		return "Provide serviceRequestId or at least one search filter"
	case errors.Is(err, service.ErrExternalValidation):
		return "Boundary code or file store id is invalid"
	case errors.Is(err, service.ErrIDGeneration):
		return "Could not generate a service request id"
	case errors.Is(err, service.ErrWorkflowTransition):
		return "Workflow transition failed"
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid service request data"
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns validator output into a short message naming
// the first offending field.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Validation error"
	}

	fe := verrs[0]
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	return "Invalid " + field + ": " + validationTagMessage(fe.Tag())
}

func validationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
