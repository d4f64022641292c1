package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/srujana-egov/pgr-on-digit3.0/internal/domain"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/platform/logger"
	"golang.org/x/sync/errgroup"
)

// Policy decides whether failed external checks abort creation.
type Policy string

// Validation policies.
const (
	// PolicyStrict aborts creation when a boundary code or file store id is invalid.
	PolicyStrict Policy = "strict"
	// PolicyLenient records the check results on the request and continues.
	PolicyLenient Policy = "lenient"
)

// ParsePolicy converts a configuration value. Anything other than "strict"
// is lenient.
func ParsePolicy(s string) Policy {
	if strings.EqualFold(strings.TrimSpace(s), string(PolicyStrict)) {
		return PolicyStrict
	}
	return PolicyLenient
}

// BoundaryChecker reports whether a boundary code exists.
type BoundaryChecker interface {
	IsValid(ctx context.Context, code string) (bool, error)
}

// FileChecker reports whether a file store id resolves to a file.
type FileChecker interface {
	IsFileAvailable(ctx context.Context, fileStoreID, tenantID string) (bool, error)
}

// RequestValidator checks boundary codes and file store ids against the
// external services. A checker error counts as invalid.
type RequestValidator struct {
	boundaries BoundaryChecker
	files      FileChecker
	policy     Policy
	logger     *slog.Logger
}

// NewRequestValidator creates a validator applying policy on create.
func NewRequestValidator(boundaries BoundaryChecker, files FileChecker, policy Policy, logger *slog.Logger) *RequestValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &RequestValidator{
		boundaries: boundaries,
		files:      files,
		policy:     policy,
		logger:     logger.With(slog.String("component", "request_validator")),
	}
}

// Policy returns the policy applied on create.
func (v *RequestValidator) Policy() Policy {
	return v.policy
}

// ValidateForCreate runs the boundary and file checks concurrently and
// records the results on sr. Blank fields are not checked and stay invalid.
// Under PolicyStrict an invalid non-blank field returns ErrExternalValidation.
func (v *RequestValidator) ValidateForCreate(ctx context.Context, sr *domain.ServiceRequest) error {
	var boundaryValid, fileValid bool
	checkBoundary := strings.TrimSpace(sr.BoundaryCode) != ""
	checkFile := strings.TrimSpace(sr.FileStoreID) != ""

	// Checks never fail the group; an error is recorded as invalid.
	g, gctx := errgroup.WithContext(ctx)
	if checkBoundary {
		g.Go(func() error {
			boundaryValid = v.boundaryValid(gctx, sr.BoundaryCode)
			return nil
		})
	}
	if checkFile {
		g.Go(func() error {
			fileValid = v.fileValid(gctx, sr.FileStoreID, sr.TenantID)
			return nil
		})
	}
	_ = g.Wait()

	sr.BoundaryValid = boundaryValid
	sr.FileValid = fileValid

	if v.policy != PolicyStrict {
		return nil
	}

	var problems []string
	if checkBoundary && !boundaryValid {
		problems = append(problems, fmt.Sprintf("invalid boundary code %q", sr.BoundaryCode))
	}
	if checkFile && !fileValid {
		problems = append(problems, fmt.Sprintf("invalid file store id %q", sr.FileStoreID))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrExternalValidation, strings.Join(problems, "; "))
	}
	return nil
}

// ValidateFileStore re-checks the file store id and records the result.
// It never fails.
func (v *RequestValidator) ValidateFileStore(ctx context.Context, sr *domain.ServiceRequest) {
	if strings.TrimSpace(sr.FileStoreID) == "" {
		sr.FileValid = false
		return
	}
	sr.FileValid = v.fileValid(ctx, sr.FileStoreID, sr.TenantID)
}

// ValidateBoundary re-checks the boundary code and records the result.
// It never fails.
func (v *RequestValidator) ValidateBoundary(ctx context.Context, sr *domain.ServiceRequest) {
	if strings.TrimSpace(sr.BoundaryCode) == "" {
		sr.BoundaryValid = false
		return
	}
	sr.BoundaryValid = v.boundaryValid(ctx, sr.BoundaryCode)
}

func (v *RequestValidator) boundaryValid(ctx context.Context, code string) bool {
	valid, err := v.boundaries.IsValid(ctx, code)
	if err != nil {
		logger.FromContextOrDefault(ctx, v.logger).Warn("boundary validation failed",
			slog.String("boundary_code", code),
			slog.String("error", err.Error()))
		return false
	}
	return valid
}

func (v *RequestValidator) fileValid(ctx context.Context, id, tenantID string) bool {
	valid, err := v.files.IsFileAvailable(ctx, id, tenantID)
	if err != nil {
		logger.FromContextOrDefault(ctx, v.logger).Warn("file store validation failed",
			slog.String("file_store_id", id),
			slog.String("error", err.Error()))
		return false
	}
	return valid
}
