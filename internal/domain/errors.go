package domain

import "errors"

// Sentinel errors for the application.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized access")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal server error")
)

// InvalidInputError is a rejected-input error whose Reason is safe to show
// to clients verbatim. It matches ErrInvalidInput under errors.Is.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return ErrInvalidInput.Error() + ": " + e.Reason
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

func NewInvalidInput(reason string) error {
	return &InvalidInputError{Reason: reason}
}
