// Package errors provides structured error types for flowscope.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the API and the debugger client
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures (document syntax, port references)
//   - *_NOT_FOUND: Name resolution failures during compilation
//   - NETWORK_*, SESSION_*, PROTOCOL_*: Debugger transport failures
//   - INTERNAL_*: Unexpected internal errors
//
// Compilation errors (ENTITY_NOT_FOUND, PORT_NOT_FOUND, CYCLIC_GRAPH,
// UNKNOWN_GRAPH) never carry a source position. Document syntax errors do,
// see decl.SyntaxError.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeEntityNotFound, "node[%s] is not found in graph[%s]", name, graph)
//	if errors.Is(err, errors.ErrCodeEntityNotFound) {
//	    // Handle resolution failure
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "dial %s", url)
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
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidDocument Code = "INVALID_DOCUMENT"
	ErrCodeInvalidPortRef  Code = "INVALID_PORT_REF"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"
	ErrCodeInvalidTarget   Code = "INVALID_TARGET"

	// Compilation errors
	ErrCodeEntityNotFound Code = "ENTITY_NOT_FOUND"
	ErrCodePortNotFound   Code = "PORT_NOT_FOUND"
	ErrCodeUnknownGraph   Code = "UNKNOWN_GRAPH"
	ErrCodeCyclicGraph    Code = "CYCLIC_GRAPH"

	// Resource not found errors
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"
	ErrCodeNoProgram    Code = "NO_PROGRAM"

	// Debugger transport errors
	ErrCodeNetwork       Code = "NETWORK_ERROR"
	ErrCodeSessionClosed Code = "SESSION_CLOSED"
	ErrCodeProtocol      Code = "PROTOCOL_ERROR"

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
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s", e.Message, UserMessage(e.Cause))
		}
		return e.Message
	}
	return err.Error()
}

// IsCompileError reports whether err is one of the name resolution failures
// raised while compiling a document.
func IsCompileError(err error) bool {
	switch GetCode(err) {
	case ErrCodeEntityNotFound, ErrCodePortNotFound, ErrCodeUnknownGraph, ErrCodeCyclicGraph, ErrCodeInvalidPortRef:
		return true
	}
	return false
}
