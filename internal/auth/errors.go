package auth

import "errors"

// Sentinel causes of a local auth rejection. Match with errors.Is.
var (
	ErrAccountExists      = errors.New("account exists")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// RejectionError is a user-facing auth failure.
type RejectionError struct {
	Cause   error
	Message string
}

func (e *RejectionError) Error() string { return e.Message }

func (e *RejectionError) Unwrap() error { return e.Cause }

func reject(cause error, msg string) error {
	return &RejectionError{Cause: cause, Message: msg}
}
