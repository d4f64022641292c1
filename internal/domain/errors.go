package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// The specific errors below wrap it.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyServiceRequestID is returned when a service request has no id.
	ErrEmptyServiceRequestID = fmt.Errorf("%w: service request ID cannot be empty", ErrValidation)

	// ErrEmptyTenantID is returned when a service request has no tenant.
	ErrEmptyTenantID = fmt.Errorf("%w: tenant ID cannot be empty", ErrValidation)

	// ErrInvalidStatus is returned for an application status outside the enum.
	ErrInvalidStatus = fmt.Errorf("%w: invalid application status", ErrValidation)
)
