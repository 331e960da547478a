// Package shared contains common domain errors and value helpers used across
// the domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound = errors.New("entity not found")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrExpired = errors.New("expired")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "registration", "session", "portal"
	Op      string // Operation that failed, e.g., "Submit", "Login"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Registration domain errors
var (
	ErrRegistrationNotFound = NewDomainError("registration", "Find", ErrNotFound, "registration not found")
	ErrInvalidStudentID     = NewDomainError("registration", "Validate", ErrInvalidID, "invalid student ID")
	ErrUnknownClass         = NewDomainError("registration", "Validate", ErrInvalidInput, "unknown class")
	ErrUnknownGoal          = NewDomainError("registration", "Validate", ErrInvalidInput, "unknown goal")
	ErrInvalidRole          = NewDomainError("registration", "Validate", ErrInvalidInput, "unknown desired role")
	ErrInvalidGPA           = NewDomainError("registration", "Validate", ErrValueOutOfRange, "GPA must be between 0 and 4")
	ErrInvalidMark          = NewDomainError("registration", "Validate", ErrValueOutOfRange, "mark must be between 0 and 10")
)

// Session domain errors
var (
	ErrSessionNotFound = NewDomainError("session", "Get", ErrNotFound, "session not found")
	ErrSessionExpired  = NewDomainError("session", "Get", ErrExpired, "session expired")
)

// Grouping errors
var (
	ErrInvalidGroupSize = NewDomainError("grouping", "Validate", ErrValueOutOfRange, "group size must be between 1 and 50")
)

// External service errors
var (
	ErrInvalidCredentials       = NewDomainError("portal", "Authenticate", ErrUnauthorized, "invalid portal credentials")
	ErrPortalUnavailable        = NewDomainError("portal", "Request", ErrServiceUnavailable, "TLU portal is unavailable")
	ErrPortalTimeout            = NewDomainError("portal", "Request", ErrTimeout, "TLU portal request timeout")
	ErrPortalInvalidResponse    = NewDomainError("portal", "Parse", ErrInvalidFormat, "invalid response from TLU portal")
	ErrPortalTokenExpired       = NewDomainError("portal", "Request", ErrUnauthorized, "portal access token rejected")
	ErrAdminCredentialsRequired = NewDomainError("admin", "Authenticate", ErrUnauthorized, "instructor credentials required")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsUnauthorized checks if the error is an authentication failure.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrExpired)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}
