package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeInvalid       ErrorCode = "INVALID"
	ErrCodeForbidden     ErrorCode = "FORBIDDEN"
	ErrCodeClosed        ErrorCode = "CLOSED"
	ErrCodeAlreadyClosed ErrorCode = "ALREADY_CLOSED"
	ErrCodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal      ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
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

// Common domain errors.
var (
	ErrRequestNotFound  = NewError(ErrCodeNotFound, "request not found")
	ErrCategoryNotFound = NewError(ErrCodeNotFound, "category not found")
	ErrUserNotFound     = NewError(ErrCodeNotFound, "user not found")
	ErrSessionNotFound  = NewError(ErrCodeNotFound, "session not found")

	ErrEmptySubject   = NewError(ErrCodeInvalid, "subject must not be empty")
	ErrEmptyContent   = NewError(ErrCodeInvalid, "message content must not be empty")
	ErrContentTooLong = NewError(ErrCodeInvalid, "message content is too long")
	ErrInvalidPayload = NewError(ErrCodeInvalid, "invalid payload")

	ErrForbidden   = NewError(ErrCodeForbidden, "operation not permitted for this actor")
	ErrUnknownRole = NewError(ErrCodeForbidden, "unknown role")

	ErrRequestClosed = NewError(ErrCodeClosed, "request is closed")
	ErrAlreadyClosed = NewError(ErrCodeAlreadyClosed, "request is already closed")

	ErrUnauthorized = NewError(ErrCodeUnauthorized, "unauthorized")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// CodeOf returns the code of a domain error, or ErrCodeInternal.
func CodeOf(err error) ErrorCode {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code
	}
	return ErrCodeInternal
}
