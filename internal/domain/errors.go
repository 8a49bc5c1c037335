package domain

import (
	"errors"
	"fmt"
)

// Sentinel error kinds used to classify DomainErrors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrConflict     = errors.New("conflict")
	ErrUpstream     = errors.New("upstream error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// DomainError pairs a sentinel kind with a caller-facing message.
// Handlers map the kind to an HTTP status class.
type DomainError struct {
	Err     error
	Message string
}

// Error implements the error interface.
func (e *DomainError) Error() string { return e.Message }

// Unwrap exposes the sentinel kind for errors.Is.
func (e *DomainError) Unwrap() error { return e.Err }

// NewBadRequestError reports invalid client input.
func NewBadRequestError(message string) *DomainError {
	return &DomainError{Err: ErrBadRequest, Message: message}
}

// NewNotFoundError reports a missing entity.
func NewNotFoundError(entity, id string) *DomainError {
	return &DomainError{Err: ErrNotFound, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

// NewInvalidStateError reports a transition that is not permitted from the current status.
func NewInvalidStateError(current, target string) *DomainError {
	return &DomainError{Err: ErrInvalidState, Message: fmt.Sprintf("cannot transition from %s to %s", current, target)}
}

// NewInvalidStateErrorf reports an invalid-state condition with a custom message.
func NewInvalidStateErrorf(format string, args ...any) *DomainError {
	return &DomainError{Err: ErrInvalidState, Message: fmt.Sprintf(format, args...)}
}

// NewConflictError reports a concurrent-modification conflict.
func NewConflictError(message string) *DomainError {
	return &DomainError{Err: ErrConflict, Message: message}
}

// NewUpstreamError wraps a failure reported by an external collaborator.
// The upstream message is preserved where available, never swallowed.
func NewUpstreamError(message string, cause error) *DomainError {
	if cause != nil {
		message = fmt.Sprintf("%s: %v", message, cause)
	}
	return &DomainError{Err: ErrUpstream, Message: message}
}

// NewUnauthorizedError reports a missing or invalid identity.
func NewUnauthorizedError(message string) *DomainError {
	return &DomainError{Err: ErrUnauthorized, Message: message}
}

// NewForbiddenError reports a failed ownership or role check.
func NewForbiddenError(message string) *DomainError {
	return &DomainError{Err: ErrForbidden, Message: message}
}
