// Package common defines shared constants and sentinel errors used across
// trackshare layers. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	ErrUsernameTaken = fmt.Errorf("username %w", ErrorAlreadyExists)
	ErrEmailTaken    = fmt.Errorf("email %w", ErrorAlreadyExists)

	// ErrReferenceMissing is returned when a row points at an entity that does
	// not exist (foreign key violation).
	ErrReferenceMissing = fmt.Errorf("referenced entity %w", ErrorNotFound)

	// Error kinds surfaced to API callers.
	ErrValidation      = errors.New("validation error")
	ErrVerification    = fmt.Errorf("verification failed: %w", ErrValidation)
	ErrConflict        = errors.New("conflict")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrDependency      = errors.New("dependency failure")
	ErrorInternal      = errors.New("internal error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Error is a failure that carries a message safe to show to API callers.
// It matches both its Kind and the wrapped cause with errors.Is.
type Error struct {
	Kind    error
	Message string
	Err     error
}

// E builds an Error of the given kind.
func E(kind error, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap builds an Error of the given kind that keeps err as its cause.
func Wrap(kind error, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Code returns a stable machine-readable name for the error kind.
func (e *Error) Code() string {
	return KindCode(e.Kind)
}

// Extensions is picked up by the GraphQL executor and attached to the error.
func (e *Error) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": e.Code()}
}

// KindCode maps an error kind to its public code.
func KindCode(kind error) string {
	switch {
	case errors.Is(kind, ErrVerification):
		return "VERIFICATION_FAILED"
	case errors.Is(kind, ErrValidation):
		return "BAD_USER_INPUT"
	case errors.Is(kind, ErrConflict):
		return "CONFLICT"
	case errors.Is(kind, ErrUnauthenticated):
		return "UNAUTHENTICATED"
	case errors.Is(kind, ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(kind, ErrorNotFound):
		return "NOT_FOUND"
	case errors.Is(kind, ErrDependency):
		return "DEPENDENCY_FAILURE"
	default:
		return "INTERNAL_SERVER_ERROR"
	}
}
