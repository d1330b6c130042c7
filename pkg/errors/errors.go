// Package errors provides structured error types for matchthumb.
//
// Every failure that leaves the composition core carries a machine-readable
// [Code] so that callers (CLI, TUI, HTTP API, job workers) can decide how to
// present it without string matching.
//
// # Error Codes
//
//   - CONFIG_LOAD: the template document or its font could not be read or parsed
//   - RESOURCE_LOAD: a layer image or font could not be read or decoded
//   - COMPOSITION_IO: the output artifact could not be written
//   - INVALID_INPUT: caller-supplied values were rejected before any work
//   - EXTERNAL_PROCESS: the video trimming process failed
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "empty sprite id")
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeResourceLoad, origErr, "decode %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Configuration errors
	ErrCodeConfigLoad Code = "CONFIG_LOAD"

	// Resource errors
	ErrCodeResourceLoad Code = "RESOURCE_LOAD"

	// Output errors
	ErrCodeCompositionIO Code = "COMPOSITION_IO"

	// Input validation errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInvalidPath  Code = "INVALID_PATH"

	// Lookup errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Collaborator errors
	ErrCodeExternalProcess Code = "EXTERNAL_PROCESS"

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
// For *Error types, returns the message without the code prefix, followed by
// the user message of its cause. For other errors, returns the error string
// as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return e.Message + ": " + UserMessage(e.Cause)
		}
		return e.Message
	}
	return err.Error()
}
