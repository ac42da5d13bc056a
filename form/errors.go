// form/errors.go
package form

import "errors"

// Errors returned by form transitions.
var (
	// ErrInvalidPhone is the ValidationFailure: the input was not exactly
	// 11 digits at submit time. The form stays editable.
	ErrInvalidPhone = errors.New("form: phone number must be exactly 11 digits")

	// ErrSubmitDisabled is returned when Submit is called during the reset
	// window. Nothing changes and no timer is scheduled.
	ErrSubmitDisabled = errors.New("form: submit disabled until reset")

	// ErrClosed is returned by transitions on a torn-down form.
	ErrClosed = errors.New("form: closed")
)
