package store

import (
	"errors"
	"fmt"
)

// Errors returned by every store implementation. Entity-specific errors wrap
// the generic ones so callers can match either.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrDuplicate     = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrServiceRequestNotFound means no service request matches the id within the tenant.
	ErrServiceRequestNotFound = fmt.Errorf("%w: service request", ErrNotFound)

	// ErrServiceRequestExists means the service request id is already taken.
	ErrServiceRequestExists = fmt.Errorf("%w: service request", ErrDuplicate)
)

// IsNotFoundError reports whether err wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError reports whether err wraps ErrDuplicate.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
