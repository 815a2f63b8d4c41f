package services

import "errors"

// ErrAccessDenied is returned when an authenticated actor lacks the required
// relationship (author, assignee, admin) to the target entity. Existence is
// checked first, so a denial never masks a missing record.
var ErrAccessDenied = errors.New("access denied")

var ErrDuplicateUsername = errors.New("username already exists")

// ValidationError reports malformed or out-of-bound input with a specific
// reason. Nothing has been mutated when one is returned.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func validationError(reason string) error {
	return &ValidationError{Reason: reason}
}
