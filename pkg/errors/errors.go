// Package errors provides structured error types for the widgetgrid engine.
//
// Every failure the engine reports is an [*Error] carrying a machine-readable
// [Code]. This enables:
//   - Distinguishing caller bugs (invalid layouts, invalid operations) from
//     recoverable conditions
//   - Consistent messages in the CLI and in embedding applications
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Structural or input validation failures
//   - NOT_FOUND_*: Unknown coordinates or identities
//   - UNSUPPORTED_*: Persisted data the engine cannot read
//   - INTERNAL_*: Unexpected internal errors
//
// INVALID_LAYOUT and INVALID_OPERATION indicate a defect in the calling code:
// they are never produced by a sequence of valid public operations.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidLayout, "element %s is out of bounds", id)
//	if errors.Is(err, errors.ErrCodeInvalidLayout) {
//	    // Handle caller bug
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidFormat, origErr, "decode layout %s", path)
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
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidID        Code = "INVALID_ID"
	ErrCodeInvalidLayout    Code = "INVALID_LAYOUT"
	ErrCodeInvalidOperation Code = "INVALID_OPERATION"
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"
	ErrCodeInvalidTemplate  Code = "INVALID_TEMPLATE"

	// Resource not found errors
	ErrCodeNotFound         Code = "NOT_FOUND"
	ErrCodeTemplateNotFound Code = "TEMPLATE_NOT_FOUND"
	ErrCodeFileNotFound     Code = "FILE_NOT_FOUND"

	// Persisted data errors
	ErrCodeUnsupportedVersion Code = "UNSUPPORTED_VERSION"

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
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
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

// IsCallerBug reports whether err signals a defect in the calling code rather
// than bad persisted data: an invalid layout, an invalid operation, or a lookup
// of coordinates or identities that do not exist.
func IsCallerBug(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidLayout, ErrCodeInvalidOperation, ErrCodeNotFound:
		return true
	}
	return false
}
