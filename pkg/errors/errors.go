// Package errors provides structured error types for schemalayout.
//
// Errors carry a machine-readable [Code] so the CLI, the worker protocol and
// library callers can branch on the failure category without string matching.
//
// # Error Codes
//
//   - INVALID_*: schema, graph, option or protocol input failures
//   - UNROUTABLE_LINK, SEARCH_TIMEOUT, NO_PATH: per-link routing failures
//   - NOT_FOUND, CACHE_*: lookups and cache backends
//   - INTERNAL_ERROR: unexpected internal errors
//
// Routing failures are not fatal. The layout engine records them as values
// and only converts them to *Error when a caller asks for one.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidSchema, "object %q has no name", name)
//	if errors.Is(err, errors.ErrCodeInvalidSchema) {
//	    // Handle validation error
//	}
//
//	err := errors.Wrap(errors.ErrCodeCacheBackend, origErr, "redis get %s", key)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidSchema  Code = "INVALID_SCHEMA"
	ErrCodeInvalidGraph   Code = "INVALID_GRAPH"
	ErrCodeInvalidOption  Code = "INVALID_OPTION"
	ErrCodeInvalidMethod  Code = "INVALID_METHOD"
	ErrCodeInvalidRequest Code = "INVALID_REQUEST"
	ErrCodeInvalidPath    Code = "INVALID_PATH"

	// Routing errors
	ErrCodeUnroutableLink Code = "UNROUTABLE_LINK"
	ErrCodeSearchTimeout  Code = "SEARCH_TIMEOUT"
	ErrCodeNoPath         Code = "NO_PATH"

	// Resource errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"
	ErrCodeCacheBackend Code = "CACHE_BACKEND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsRoutingFailure reports whether err carries one of the per-link routing codes.
func IsRoutingFailure(err error) bool {
	switch GetCode(err) {
	case ErrCodeUnroutableLink, ErrCodeSearchTimeout, ErrCodeNoPath:
		return true
	}
	return false
}
