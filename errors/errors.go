// Package errors provides the coded error taxonomy used across backupmenu
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a specific error type
type ErrorCode int

const (
	ErrUnknown ErrorCode = iota

	// ErrConfiguration covers a missing or invalid configuration file, missing
	// required fields and dangling action references
	ErrConfiguration

	// ErrUnknownAction is returned when a chain names an action absent from the registry
	ErrUnknownAction

	// ErrUnknownOption is returned when a direct option lookup misses
	ErrUnknownOption

	// ErrInvalidSelection is returned for menu input that does not map to an option
	ErrInvalidSelection

	// ErrExternalTool is returned when mount, umount or borg exit outside the accepted set
	ErrExternalTool

	// ErrRelease is returned when one or more release steps failed during unwind
	ErrRelease

	ErrCancelled
	ErrInputClosed

	// ErrLocked is returned when another instance holds the run lock
	ErrLocked
)

var codeNames = map[ErrorCode]string{
	ErrUnknown:          "unknown",
	ErrConfiguration:    "configuration",
	ErrUnknownAction:    "unknown action",
	ErrUnknownOption:    "unknown option",
	ErrInvalidSelection: "invalid selection",
	ErrExternalTool:     "external tool failure",
	ErrRelease:          "release failure",
	ErrCancelled:        "cancelled",
	ErrInputClosed:      "input closed",
	ErrLocked:           "locked",
}

// String returns a short human-readable name for the code
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// Error represents a domain-specific error with context
type Error struct {
	// Code identifies the error type
	Code ErrorCode

	// Message provides human-readable error details
	Message string

	// Op describes the operation that failed
	Op string

	// Cause is the underlying error that triggered this one
	Cause error

	// Context holds additional error context
	Context map[string]interface{}
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap implements the errors.Unwrap interface
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports a match when target is an *Error carrying the same code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithOp adds an operation name to the error
func WithOp(err error, op string) error {
	if err == nil {
		return nil
	}

	e, ok := err.(*Error)
	if !ok {
		return &Error{
			Code:    ErrUnknown,
			Message: err.Error(),
			Op:      op,
			Cause:   err,
		}
	}

	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Op:      op,
		Cause:   e.Cause,
		Context: e.Context,
	}
}

// WithContext adds context to the error
func WithContext(err error, context map[string]interface{}) error {
	if err == nil {
		return nil
	}

	e, ok := err.(*Error)
	if !ok {
		return &Error{
			Code:    ErrUnknown,
			Message: err.Error(),
			Cause:   err,
			Context: context,
		}
	}

	// Merge contexts if error already has context
	newContext := make(map[string]interface{})
	for k, v := range e.Context {
		newContext[k] = v
	}
	for k, v := range context {
		newContext[k] = v
	}

	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Op:      e.Op,
		Cause:   e.Cause,
		Context: newContext,
	}
}

// New creates a new Error
func New(code ErrorCode, message string) error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new Error with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an error with additional context
func Wrap(err error, code ErrorCode, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// GetCode returns the code of the outermost *Error in the chain
func GetCode(err error) ErrorCode {
	if err == nil {
		return ErrUnknown
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrUnknown
}

// HasCode reports whether any *Error in the chain carries code.
// Unlike GetCode it looks past outer errors with a different code.
func HasCode(err error, code ErrorCode) bool {
	return errors.Is(err, &Error{Code: code})
}

// GetContext returns the error context
func GetContext(err error) map[string]interface{} {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Context
	}
	return nil
}

// IsConfiguration returns true if the error is a configuration error
func IsConfiguration(err error) bool {
	return HasCode(err, ErrConfiguration)
}

// IsUnknownAction returns true if a chain referenced a missing action
func IsUnknownAction(err error) bool {
	return HasCode(err, ErrUnknownAction)
}

// IsUnknownOption returns true if a direct option lookup failed
func IsUnknownOption(err error) bool {
	return HasCode(err, ErrUnknownOption)
}

// IsExternalTool returns true if an external command failed
func IsExternalTool(err error) bool {
	return HasCode(err, ErrExternalTool)
}

// IsRelease returns true if the error came from scope unwinding
func IsRelease(err error) bool {
	return HasCode(err, ErrRelease)
}

// IsCancelled returns true if the error is a cancelled error
func IsCancelled(err error) bool {
	return HasCode(err, ErrCancelled)
}

// IsInputClosed returns true if the console input reached EOF
func IsInputClosed(err error) bool {
	return HasCode(err, ErrInputClosed)
}

// IsLocked returns true if another instance is running
func IsLocked(err error) bool {
	return HasCode(err, ErrLocked)
}
