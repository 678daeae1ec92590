// Package errors provides a lightweight structured error type (AdminError)
// for category-based classification across the publish pipeline and CLI.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a mouseadmin error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Per-field parse/serialize errors
	CategoryField ErrorCategory = "field"

	// Template parse and render errors
	CategoryTemplate ErrorCategory = "template"

	// Remote host and cache transport errors
	CategoryNetwork ErrorCategory = "network"

	// Record store and local cache errors
	CategoryStorage ErrorCategory = "storage"

	// Runtime and infrastructure errors
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
)

// AdminError is a structured error with category, retryability, and context
type AdminError struct {
	Category  ErrorCategory `json:"category"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for AdminError
type ContextFields map[string]any

// Error implements the error interface
func (e *AdminError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *AdminError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *AdminError) WithContext(key string, value any) *AdminError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new AdminError
func New(category ErrorCategory, severity ErrorSeverity, message string) *AdminError {
	return &AdminError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Retryable: false,
	}
}

// Wrap creates a new AdminError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *AdminError {
	return &AdminError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: false,
	}
}

// WrapRetryable creates a new retryable AdminError that wraps an existing error
func WrapRetryable(err error, category ErrorCategory, severity ErrorSeverity, message string) *AdminError {
	return &AdminError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: true,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if ae, ok := err.(*AdminError); ok {
		return ae.Category == category
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if ae, ok := err.(*AdminError); ok {
		return ae.Retryable
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not an AdminError
func GetCategory(err error) ErrorCategory {
	if ae, ok := err.(*AdminError); ok {
		return ae.Category
	}
	return CategoryInternal
}
