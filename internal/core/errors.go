package core

import (
	"errors"
	"fmt"
)

// Every failure in this package is scoped to one document operation and
// surfaced synchronously to the operator; nothing is fatal and nothing
// is logged-and-swallowed.

var (
	// ErrSeriesUnavailable: the series is inactive or unknown.
	// Certification aborts entirely, no partial state.
	ErrSeriesUnavailable = errors.New("series is inactive or does not exist")

	// ErrAllocationConflict: a concurrent reservation raced on the
	// same (series, type) counter. The operator retries cleanly.
	ErrAllocationConflict = errors.New("sequence allocation conflict")

	// ErrAlreadyCancelled: cancellation is terminal.
	ErrAlreadyCancelled = errors.New("document is already cancelled")

	// ErrNotCertified: the operation needs a certified document.
	ErrNotCertified = errors.New("document is not certified")

	// ErrImmutable: certified content cannot be mutated.
	ErrImmutable = errors.New("certified document content is immutable")

	// ErrLedgerPosting: a party/register/stock update was rejected.
	// The certify transaction rolls back; the document is never left
	// half-posted.
	ErrLedgerPosting = errors.New("ledger posting failed")
)

// ValidationError is a user-facing precondition failure. It is raised
// before anything is persisted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func validationf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
