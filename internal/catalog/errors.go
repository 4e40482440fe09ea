package catalog

import "errors"

var (
	// ErrNotFound is returned when a species or profile does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the viewer may not modify a species.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalid wraps input validation failures.
	ErrInvalid = errors.New("invalid input")
)

func invalid(msg string) error {
	return &validationError{msg: msg}
}

type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Unwrap() error { return ErrInvalid }
