package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Common sentinel errors for quick checks
var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")

	// ErrTimeout is returned when an operation times out.
	ErrTimeout = errors.New("operation timeout")

	// ErrServiceUnavailable is returned when a required collaborator is unavailable.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrInternal is returned when an internal error occurs.
	ErrInternal = errors.New("internal error")
)

// Error is the base interface for all typed errors in the system.
// It extends the standard error interface with additional context.
type Error interface {
	error
	// Code returns the error code
	Code() string
	// Message returns the human-readable error message
	Message() string
	// Unwrap returns the underlying cause
	Unwrap() error
}

// BaseError provides a foundation for all typed errors.
type BaseError struct {
	code    string
	message string
	cause   error
	stack   []uintptr
}

// Error implements the error interface.
func (e *BaseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Code returns the error code.
func (e *BaseError) Code() string {
	return e.code
}

// Message returns the error message.
func (e *BaseError) Message() string {
	return e.message
}

// Unwrap returns the underlying cause.
func (e *BaseError) Unwrap() error {
	return e.cause
}

// Stack returns the captured stack trace.
func (e *BaseError) Stack() []uintptr {
	return e.stack
}

// captureStack captures the current stack trace.
func captureStack(skip int) []uintptr {
	const maxDepth = 32
	stack := make([]uintptr, maxDepth)
	n := runtime.Callers(skip+2, stack)
	return stack[:n]
}

// StackTrace returns a formatted stack trace string.
func (e *BaseError) StackTrace() string {
	if len(e.stack) == 0 {
		return ""
	}

	var buf strings.Builder
	frames := runtime.CallersFrames(e.stack)
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			fmt.Fprintf(&buf, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		}
		if !more {
			break
		}
	}
	return buf.String()
}

// New creates a generic typed error with the given code.
func New(code, message string) *BaseError {
	return &BaseError{
		code:    code,
		message: message,
		stack:   captureStack(1),
	}
}

// Wrap wraps an existing error with a code and message.
func Wrap(err error, code, message string) *BaseError {
	return &BaseError{
		code:    code,
		message: message,
		cause:   err,
		stack:   captureStack(1),
	}
}

// InitializationError indicates a subsystem failed a startup precondition.
type InitializationError struct {
	*BaseError
	Subsystem string
}

// NewInitializationError creates a new initialization error.
func NewInitializationError(subsystem, message string, cause error) *InitializationError {
	return &InitializationError{
		BaseError: &BaseError{
			code:    CodeInitialization,
			message: message,
			cause:   cause,
			stack:   captureStack(1),
		},
		Subsystem: subsystem,
	}
}

// DiscoveryRoundError indicates a discovery round as a whole could not
// proceed. Individual per-peer failures are never surfaced this way; they
// are absorbed into round statistics.
type DiscoveryRoundError struct {
	*BaseError
}

// NewDiscoveryRoundError creates a new round-level discovery error.
func NewDiscoveryRoundError(message string, cause error) *DiscoveryRoundError {
	return &DiscoveryRoundError{
		BaseError: &BaseError{
			code:    CodeDiscoveryRound,
			message: message,
			cause:   cause,
			stack:   captureStack(1),
		},
	}
}

// ValidationError represents a configuration or input validation error.
type ValidationError struct {
	*BaseError
	Field string
	Value interface{}
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		BaseError: &BaseError{
			code:    CodeValidation,
			message: message,
			stack:   captureStack(1),
		},
		Field: field,
		Value: value,
	}
}
