// Package errors provides structured error types for the bblocks client.
//
// Every package in this module reports failures through [Error] so callers
// can branch on a machine-readable [Code] without string matching, while the
// original cause stays reachable through errors.Is / errors.As.
//
// # Error Codes
//
//   - INVALID_*: malformed input, documents or enumerated values
//   - NOT_FOUND: a fetched resource does not exist
//   - NETWORK_ERROR: transport failures and unexpected HTTP statuses
//   - UNSUPPORTED*: features outside what the engines implement
//   - CONFIGURATION: a required collaborator or resource is missing
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidEnum, "unknown status %q", s)
//	if errors.Is(err, errors.ErrCodeInvalidEnum) {
//	    // reject the document
//	}
//
//	err = errors.Wrap(errors.ErrCodeNetwork, cause, "fetch %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidEnum     Code = "INVALID_ENUM"
	ErrCodeInvalidDocument Code = "INVALID_DOCUMENT"
	ErrCodeSyntax          Code = "SYNTAX_ERROR"

	// Resource errors
	ErrCodeNotFound Code = "NOT_FOUND"
	ErrCodeNetwork  Code = "NETWORK_ERROR"

	// Capability errors
	ErrCodeUnsupported     Code = "UNSUPPORTED"
	ErrCodeUnsupportedStep Code = "UNSUPPORTED_STEP"
	ErrCodeConfiguration   Code = "CONFIGURATION"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
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

// Is reports whether any *Error in err's chain carries the given code.
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

// GetCode extracts the outermost error code from an error, if available.
// Returns empty string if the error chain contains no *Error.
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
			return e.Message + ": " + UserMessage(e.Cause)
		}
		return e.Message
	}
	return err.Error()
}
