package attendance

import "checkin/models"

// RejectionKind classifies an expected business-rule violation.
type RejectionKind string

const (
	// KindConflict covers duplicate check-ins and repeated checkouts.
	KindConflict RejectionKind = "conflict"
	// KindInvalidTransition covers checkout instants that are not
	// after check-in or not on the check-in day.
	KindInvalidTransition RejectionKind = "invalid_transition"
	// KindNotFound covers missing records, including records owned by
	// another user.
	KindNotFound RejectionKind = "not_found"
)

// Rejection is a tagged business outcome. Transitions return it for
// every expected violation; only store failures surface as other
// error values.
type Rejection struct {
	Kind    RejectionKind
	Message string
	// Record echoes the existing record where the caller benefits
	// from seeing it (duplicate check-in, already checked out).
	Record *models.AttendanceRecord
}

func (r *Rejection) Error() string { return r.Message }

func reject(kind RejectionKind, message string) *Rejection {
	return &Rejection{Kind: kind, Message: message}
}
