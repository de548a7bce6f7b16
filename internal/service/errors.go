package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed input; the concrete failure is a *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateEmail is returned when registering an email that is already taken.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrNotFound indicates that no user matches the supplied email.
	ErrNotFound = errors.New("user not found")
	// ErrInvalidCredentials indicates that the password does not match the stored verifier.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated covers missing, unknown, expired and stale session tokens.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInsufficientFunds is returned when a withdrawal exceeds the current balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrStorageUnavailable wraps persistence failures.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrArchiveDisabled is returned by statement operations when no bucket is configured.
	ErrArchiveDisabled = errors.New("statement archive disabled")
)

// ValidationError describes which field was rejected and why.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func storageError(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(ErrStorageUnavailable, err))
}
