package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrNetwork          = errors.New("network failure")
	ErrRejected         = errors.New("rejected by server")
	ErrStale            = errors.New("stale ui state")
	ErrInvalidCode      = errors.New("invalid one-time code")
	ErrNotAuthenticated = errors.New("not authenticated")
)

// ValidationError is raised before any network call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: network error: %v", e.Op, e.Err) }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

func (e *NetworkError) Unwrap() error { return e.Err }

// RejectedError carries the message the backend returned with a non-success status.
type RejectedError struct {
	Op      string
	Message string
}

func (e *RejectedError) Error() string { return fmt.Sprintf("%s: %s", e.Op, e.Message) }

func (e *RejectedError) Is(target error) bool { return target == ErrRejected }

type StaleStateError struct {
	Kind string
	ID   string
}

func (e *StaleStateError) Error() string {
	return fmt.Sprintf("%s %q no longer exists", e.Kind, e.ID)
}

func (e *StaleStateError) Is(target error) bool { return target == ErrStale }
