package service

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the service layer. The API layer maps each of
// them to an HTTP status.
var (
	// ErrMissingRequestID is returned by Update when no service request id is given.
	ErrMissingRequestID = errors.New("service request id is required")

	// ErrMissingTenant is returned when an operation has no tenant to scope it.
	ErrMissingTenant = errors.New("tenant id is required")

	// ErrExternalValidation is returned when strict validation rejects a
	// boundary code or file store id.
	ErrExternalValidation = errors.New("external validation failed")

	// ErrIDGeneration is returned when the id generation service fails.
	ErrIDGeneration = errors.New("service request id generation failed")

	// ErrWorkflowTransition is returned when an update's workflow transition fails.
	ErrWorkflowTransition = errors.New("workflow transition failed")

	// ErrEmptySearch is returned when a search names neither an id nor a filter.
	ErrEmptySearch = errors.New("search requires a service request id or at least one filter")
)

// ServiceRequestError wraps unexpected failures with the operation that hit them.
type ServiceRequestError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *ServiceRequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("service request %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("service request %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceRequestError) Unwrap() error {
	return e.Err
}

// NewServiceRequestError creates a new ServiceRequestError.
func NewServiceRequestError(operation, message string, err error) *ServiceRequestError {
	return &ServiceRequestError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
