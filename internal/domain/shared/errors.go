// Package shared contains the error kinds used across the domain packages.
// This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// ErrNotFound is returned when a requested stage, grade or course key does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrEmptyInput is returned when a reduction (mean, median, mode, best
	// performer) is requested over a scope that holds no eligible data.
	ErrEmptyInput = errors.New("no eligible data in scope")

	// ErrInvalidInput is returned for malformed query parameters.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidFormat is returned when a dataset source is structurally malformed.
	ErrInvalidFormat = errors.New("invalid format")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "school", "stats", "query"
	Op      string // Operation that failed, e.g., "ResolveStage", "Mean"
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

// IsNotFound reports whether err is an "unknown scope key" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsEmptyInput reports whether err is a "no eligible data in scope" error.
func IsEmptyInput(err error) bool {
	return errors.Is(err, ErrEmptyInput)
}

// IsInvalidFormat reports whether err comes from a malformed dataset source.
func IsInvalidFormat(err error) bool {
	return errors.Is(err, ErrInvalidFormat)
}
