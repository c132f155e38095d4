package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeInvalid           ErrorCode = "INVALID"
	ErrCodeSprintConflict    ErrorCode = "SPRINT_CONFLICT"
	ErrCodeInvalidRecurrence ErrorCode = "INVALID_RECURRENCE"
	ErrCodeScopeMismatch     ErrorCode = "SCOPE_MISMATCH"
	ErrCodeInvalidQuery      ErrorCode = "INVALID_QUERY"
	ErrCodeConflict          ErrorCode = "CONFLICT"
	ErrCodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal          ErrorCode = "INTERNAL"
)

// Error represents a domain-level error. Message is human readable and is
// surfaced to users verbatim.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NotFound reports a missing entity in the caller's scope.
func NotFound(entity string, id int64) *Error {
	return NewError(ErrCodeNotFound, fmt.Sprintf("%s %d not found", entity, id))
}

func Invalid(reason string) *Error {
	return NewError(ErrCodeInvalid, reason)
}

// MissingField reports a required request field that was not supplied.
func MissingField(field string) *Error {
	return NewError(ErrCodeInvalid, fmt.Sprintf("missing required field %q", field))
}

// OutOfRange reports a value outside the bounds of its sprint.
func OutOfRange(reason string) *Error {
	return NewError(ErrCodeInvalid, reason)
}

func SprintConflict(reason string) *Error {
	return NewError(ErrCodeSprintConflict, reason)
}

func InvalidRecurrence(reason string) *Error {
	return NewError(ErrCodeInvalidRecurrence, reason)
}

func ScopeMismatch(reason string) *Error {
	return NewError(ErrCodeScopeMismatch, reason)
}

func InvalidQuery(reason string) *Error {
	return NewError(ErrCodeInvalidQuery, reason)
}

// Common domain errors.
var (
	ErrUnauthorized   = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidPayload = NewError(ErrCodeInvalid, "invalid payload")
	ErrSlotTaken      = NewError(ErrCodeConflict, "slot was taken by a concurrent request")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// CodeOf returns the classification of err, or ErrCodeInternal for foreign errors.
func CodeOf(err error) ErrorCode {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code
	}
	return ErrCodeInternal
}
