package domain

import "strings"

// Status mirrors the workflow engine's current state for a service request.
type Status string

// Known application statuses.
const (
	StatusInitiated  Status = "INITIATED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusRejected   Status = "REJECTED"
	StatusVerified   Status = "VERIFIED"
	StatusApproved   Status = "APPROVED"
	StatusActive     Status = "ACTIVE"
	StatusInactive   Status = "INACTIVE"
)

var allStatuses = []Status{
	StatusInitiated,
	StatusInProgress,
	StatusCompleted,
	StatusRejected,
	StatusVerified,
	StatusApproved,
	StatusActive,
	StatusInactive,
}

// Statuses returns every known status in declaration order.
func Statuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus converts a workflow state name into a Status.
// Matching ignores case and surrounding whitespace.
func ParseStatus(s string) (Status, bool) {
	candidate := Status(strings.ToUpper(strings.TrimSpace(s)))
	if candidate.IsValid() {
		return candidate, true
	}
	return "", false
}

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	for _, known := range allStatuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s Status) String() string {
	return string(s)
}
