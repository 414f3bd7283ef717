// Package domain defines the core domain models for GateServe.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured code.
type DomainError struct {
	Code    string // Error code (e.g., "GS-AUTH-4010")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support; two domain errors match on code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error with an underlying cause attached.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Predefined domain errors.
var (
	// ErrUsernameExists indicates a registration conflict. This is the one
	// place user existence is intentionally revealed, and only to the
	// registering client.
	ErrUsernameExists = NewDomainError("GS-USER-4090", "Username already exists")

	// ErrInvalidCredentials covers both unknown usernames and wrong
	// passwords; callers must not distinguish the two externally.
	ErrInvalidCredentials = NewDomainError("GS-AUTH-4010", "Invalid username or password")

	// ErrTokenInvalid covers missing, malformed, revoked and expired
	// tokens; callers must not distinguish "never existed" from "expired".
	ErrTokenInvalid = NewDomainError("GS-AUTH-4011", "Invalid or missing token")

	// ErrMalformedRecord indicates a pre-hashed credential record that
	// does not match the salt_hex:hash_hex format.
	ErrMalformedRecord = NewDomainError("GS-ARG-4001", "malformed credential record")

	// ErrInvalidRequest indicates an unparseable request body.
	ErrInvalidRequest = NewDomainError("GS-ARG-4002", "invalid request body")

	// ErrRateLimited indicates the caller exceeded the auth endpoint
	// throttle.
	ErrRateLimited = NewDomainError("GS-AUTH-4290", "too many requests")

	// ErrInternalServer indicates an unexpected internal failure.
	ErrInternalServer = NewDomainError("GS-SYS-5000", "internal server error")
)

// IsDomainError reports whether err is a DomainError. When code is
// non-empty, the code must match as well.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if !errors.As(err, &de) {
		return false
	}
	return code == "" || de.Code == code
}

// GetErrorCode extracts the domain error code, or "" for non-domain errors.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
