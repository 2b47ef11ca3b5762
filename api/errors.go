// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for hioload-udp.

package api

import (
	"fmt"

	"github.com/containerd/errdefs"
)

// Common errors used across the library.
var (
	ErrAlreadyRegistered = fmt.Errorf("socket already registered: %w", errdefs.ErrConflict)
	ErrClosed            = fmt.Errorf("use of closed socket: %w", errdefs.ErrFailedPrecondition)
	ErrInvalidArgument   = fmt.Errorf("invalid argument: %w", errdefs.ErrInvalidArgument)
	ErrNotSupported      = fmt.Errorf("operation not supported: %w", errdefs.ErrNotImplemented)
)

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeAlreadyRegistered
)

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (context: %+v)", e.Message, e.Context)
}

// Unwrap exposes the sentinel the error was built from.
func (e *Error) Unwrap() error { return e.Err }

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// Wrap sets the underlying error reported by errors.Is and errors.As.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}
