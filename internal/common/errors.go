package common

import (
	"errors"
	"fmt"
)

// ErrCacheMiss signals that a cached collection is absent or past its TTL.
// Callers are expected to repopulate from the remote API.
var ErrCacheMiss = errors.New("cache miss")

// AppError represents an application error with additional context
type AppError struct {
	Code    string // Error code for callers
	Message string // Human-readable message
	Err     error  // Underlying error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeNetwork      = "NETWORK_ERROR"
	ErrCodeServer       = "SERVER_ERROR"
)

// Validation creates a validation error
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message}
}

// NotFound creates a not found error
func NotFound(resource string) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

// Conflict creates a conflict error
func Conflict(message string) *AppError {
	return &AppError{Code: ErrCodeConflict, Message: message}
}

// Unauthorized creates an authentication error
func Unauthorized(message string) *AppError {
	return &AppError{Code: ErrCodeUnauthorized, Message: message}
}

// Network wraps a transport-level failure
func Network(message string, err error) *AppError {
	return &AppError{Code: ErrCodeNetwork, Message: message, Err: err}
}

// Server wraps an unexpected remote failure
func Server(message string, err error) *AppError {
	return &AppError{Code: ErrCodeServer, Message: message, Err: err}
}

// IsCode reports whether err is an AppError carrying the given code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetAppError extracts an AppError from an error chain, or nil.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}
