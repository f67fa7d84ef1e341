package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a sandbox error code.
type ErrorCode string

const (
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"    // 400
	ErrInvalidConfig     ErrorCode = "INVALID_CONFIG"     // 400
	ErrUnknownCategory   ErrorCode = "UNKNOWN_CATEGORY"   // 400
	ErrPathNotAllowed    ErrorCode = "PATH_NOT_ALLOWED"   // 403
	ErrUnknownProvider   ErrorCode = "UNKNOWN_PROVIDER"   // 404
	ErrNotFound          ErrorCode = "NOT_FOUND"          // 404
	ErrInvalidTransition ErrorCode = "INVALID_TRANSITION" // 409
	ErrInternal          ErrorCode = "INTERNAL"           // 500
)

// SandboxError represents a structured error with code, status, and details.
type SandboxError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *SandboxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *SandboxError {
	return &SandboxError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewInvalidConfig creates a 400 error for a rule config value the provider cannot interpret.
func NewInvalidConfig(category, key, msg string) *SandboxError {
	return &SandboxError{
		Code:    ErrInvalidConfig,
		Status:  400,
		Message: fmt.Sprintf("invalid config for %s.%s: %s", category, key, msg),
		Details: map[string]any{"category": category, "key": key},
	}
}

// NewUnknownCategory creates a 400 error for a category outside the catalog.
func NewUnknownCategory(category string) *SandboxError {
	return &SandboxError{
		Code:    ErrUnknownCategory,
		Status:  400,
		Message: fmt.Sprintf("unknown category: %s", category),
		Details: map[string]any{"category": category},
	}
}

// NewPathNotAllowed creates a 403 error for export paths outside the allowlist.
func NewPathNotAllowed(path, reason string) *SandboxError {
	return &SandboxError{
		Code:    ErrPathNotAllowed,
		Status:  403,
		Message: fmt.Sprintf("path not allowed: %s", reason),
		Details: map[string]any{"path": path},
	}
}

// NewUnknownProvider creates a 404 error for an unregistered provider.
func NewUnknownProvider(provider string) *SandboxError {
	return &SandboxError{
		Code:    ErrUnknownProvider,
		Status:  404,
		Message: fmt.Sprintf("unknown provider: %s", provider),
		Details: map[string]any{"provider": provider},
	}
}

// NewNotFound creates a 404 error for a missing session, profile, snapshot or manifest.
func NewNotFound(kind, identifier string) *SandboxError {
	return &SandboxError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewInvalidTransition creates a 409 error for an action the current phase does not accept.
func NewInvalidTransition(action, phase string) *SandboxError {
	return &SandboxError{
		Code:    ErrInvalidTransition,
		Status:  409,
		Message: fmt.Sprintf("%s is not valid while %s", action, phase),
		Details: map[string]any{"action": action, "phase": phase},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *SandboxError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &SandboxError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error (or anything it wraps) is a SandboxError with the given code.
func Is(err error, code ErrorCode) bool {
	var sErr *SandboxError
	if stderrors.As(err, &sErr) {
		return sErr.Code == code
	}
	return false
}

// As returns the SandboxError inside err, if any.
func As(err error) (*SandboxError, bool) {
	var sErr *SandboxError
	if stderrors.As(err, &sErr) {
		return sErr, true
	}
	return nil, false
}
