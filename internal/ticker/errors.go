package ticker

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by operations on a torn-down session.
	ErrClosed = errors.New("ticker session closed")

	// ErrNotCoop is returned when a draft accept/reject action is
	// attempted outside co-op mode.
	ErrNotCoop = errors.New("draft actions are only available in co-op mode")

	// ErrNoActiveDraft is returned when accept/reject finds no draft
	// surfaced to the operator.
	ErrNoActiveDraft = errors.New("no active draft")

	// ErrNotPending is returned when selecting an event that has no
	// pending commentary work.
	ErrNotPending = errors.New("event is not pending")
)

// ValidationError rejects operator input locally, before any network
// call. It is operator-visible and never fatal.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a local input validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
