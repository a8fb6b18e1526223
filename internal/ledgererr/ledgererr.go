// Package ledgererr defines the error kinds shared by the accounting core.
//
// Concrete errors returned by the journal, invoice, budget and analytic
// packages wrap one of these sentinels, so callers classify failures with
// errors.Is while users still see the descriptive message.
package ledgererr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input shape or range violations.
	ErrValidation = errors.New("validation failed")
	// ErrUnbalanced marks a journal entry whose debits and credits differ.
	ErrUnbalanced = errors.New("unbalanced entry")
	// ErrAlreadyPosted marks an attempt to change a posted entry or document.
	ErrAlreadyPosted = errors.New("already posted")
	// ErrMissingSystemAccount marks a chart of accounts without a required system account.
	ErrMissingSystemAccount = errors.New("missing system account")
	// ErrMissingAnalyticAccount marks vendor lines that carry no analytic account.
	ErrMissingAnalyticAccount = errors.New("missing analytic account")
	// ErrNotFound marks a reference to a record that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState marks a lifecycle transition the current state does not allow.
	ErrInvalidState = errors.New("invalid state")
)

// Validationf returns an ErrValidation with a formatted description.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundf returns an ErrNotFound naming the missing record.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

// InvalidStatef returns an ErrInvalidState with a formatted description.
func InvalidStatef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}
