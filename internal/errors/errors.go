// Package errors provides the coded domain errors returned by the book exchange services.
//
// Usage:
//
//	// In services - return typed errors
//	if book.OwnerID == user.ID {
//	    return nil, errors.SelfExchange("you cannot request your own book")
//	}
//
//	// In callers - check with errors.Is
//	if errors.Is(err, errors.ErrNotFound) {
//	    fmt.Fprintln(os.Stderr, "no such book")
//	    return
//	}
//
//	// Or use the Code directly for switch statements
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    switch domainErr.Code {
//	    case errors.CodeNotOwner:
//	        ...
//	    }
//	}
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeNotAuthenticated   Code = "NOT_AUTHENTICATED"
	CodeNotFound           Code = "NOT_FOUND"
	CodeNotOwner           Code = "NOT_OWNER"
	CodeNotParticipant     Code = "NOT_PARTICIPANT"
	CodeDuplicateEmail     Code = "DUPLICATE_EMAIL"
	CodeDuplicateUsername  Code = "DUPLICATE_USERNAME"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeInvalidTransition  Code = "INVALID_TRANSITION"
	CodeTypeMismatch       Code = "TYPE_MISMATCH"
	CodeBookNotAvailable   Code = "BOOK_NOT_AVAILABLE"
	CodeSelfExchange       Code = "SELF_EXCHANGE"
	CodeEmptyContent       Code = "EMPTY_CONTENT"
	CodeBookInUse          Code = "BOOK_IN_USE"
	CodeValidation         Code = "VALIDATION"
	CodeInternal           Code = "INTERNAL"
)

// ExitCode returns the process exit status a command line front end should use
// for an error code.
func (c Code) ExitCode() int {
	switch c {
	case CodeValidation, CodeEmptyContent:
		return 2
	case CodeNotAuthenticated, CodeInvalidCredentials:
		return 3
	case CodeInternal:
		return 70
	default:
		return 1
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error  // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// CodeOf returns the domain code carried by err, or CodeInternal when err
// is not a domain error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotAuthenticated   = &Error{Code: CodeNotAuthenticated, Message: "not authenticated"}
	ErrNotFound           = &Error{Code: CodeNotFound, Message: "not found"}
	ErrNotOwner           = &Error{Code: CodeNotOwner, Message: "not the owner"}
	ErrNotParticipant     = &Error{Code: CodeNotParticipant, Message: "not a participant"}
	ErrDuplicateEmail     = &Error{Code: CodeDuplicateEmail, Message: "email already in use"}
	ErrDuplicateUsername  = &Error{Code: CodeDuplicateUsername, Message: "username already taken"}
	ErrInvalidCredentials = &Error{Code: CodeInvalidCredentials, Message: "invalid credentials"}
	ErrInvalidTransition  = &Error{Code: CodeInvalidTransition, Message: "invalid status transition"}
	ErrTypeMismatch       = &Error{Code: CodeTypeMismatch, Message: "exchange type does not match book"}
	ErrBookNotAvailable   = &Error{Code: CodeBookNotAvailable, Message: "book not available"}
	ErrSelfExchange       = &Error{Code: CodeSelfExchange, Message: "cannot exchange with yourself"}
	ErrEmptyContent       = &Error{Code: CodeEmptyContent, Message: "message is empty"}
	ErrBookInUse          = &Error{Code: CodeBookInUse, Message: "book is part of an open exchange"}
	ErrValidation         = &Error{Code: CodeValidation, Message: "validation error"}
	ErrInternal           = &Error{Code: CodeInternal, Message: "internal error"}
)

// Constructor functions for creating errors with custom messages.

// NotAuthenticated creates a not authenticated error.
func NotAuthenticated(msg string) *Error {
	return &Error{Code: CodeNotAuthenticated, Message: msg}
}

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// NotOwner creates a not owner error.
func NotOwner(msg string) *Error {
	return &Error{Code: CodeNotOwner, Message: msg}
}

// NotParticipant creates a not participant error.
func NotParticipant(msg string) *Error {
	return &Error{Code: CodeNotParticipant, Message: msg}
}

// DuplicateEmail creates a duplicate email error.
func DuplicateEmail(msg string) *Error {
	return &Error{Code: CodeDuplicateEmail, Message: msg}
}

// DuplicateUsername creates a duplicate username error.
func DuplicateUsername(msg string) *Error {
	return &Error{Code: CodeDuplicateUsername, Message: msg}
}

// InvalidCredentials creates an invalid credentials error.
func InvalidCredentials(msg string) *Error {
	return &Error{Code: CodeInvalidCredentials, Message: msg}
}

// InvalidTransitionf creates an invalid transition error with formatted message.
func InvalidTransitionf(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidTransition, Message: fmt.Sprintf(format, args...)}
}

// TypeMismatchf creates a type mismatch error with formatted message.
func TypeMismatchf(format string, args ...any) *Error {
	return &Error{Code: CodeTypeMismatch, Message: fmt.Sprintf(format, args...)}
}

// BookNotAvailable creates a book not available error.
func BookNotAvailable(msg string) *Error {
	return &Error{Code: CodeBookNotAvailable, Message: msg}
}

// SelfExchange creates a self exchange error.
func SelfExchange(msg string) *Error {
	return &Error{Code: CodeSelfExchange, Message: msg}
}

// EmptyContent creates an empty content error.
func EmptyContent(msg string) *Error {
	return &Error{Code: CodeEmptyContent, Message: msg}
}

// BookInUsef creates a book in use error with formatted message.
func BookInUsef(format string, args ...any) *Error {
	return &Error{Code: CodeBookInUse, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
