// Package errors provides structured error types for clickgen.
// All errors include a category, code, message, and retryable flag so the
// entry point can decide which failures end the run and which are reported.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by the stage that raised them.
type ErrorCategory string

const (
	ErrCategoryValidation ErrorCategory = "VALIDATION"
	ErrCategoryConfig     ErrorCategory = "CONFIG"
	ErrCategoryExport     ErrorCategory = "EXPORT"
	ErrCategoryStorage    ErrorCategory = "STORAGE"
	ErrCategoryInternal   ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Validation codes
	CodeInvalidTimeRange = "INVALID_TIME_RANGE"
	CodeInvalidCount     = "INVALID_COUNT"

	// Config codes
	CodeInvalidConfig = "INVALID_CONFIG"
	CodeConfigLoad    = "CONFIG_LOAD_FAILED"

	// Export codes
	CodeEncodeFailed      = "ENCODE_FAILED"
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"

	// Storage codes
	CodeUploadFailed = "UPLOAD_FAILED"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// ClickgenError is the structured error type used throughout the system.
type ClickgenError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Details   map[string]interface{}
	Cause     error
	Retryable bool
}

// Error returns a formatted error string.
func (e *ClickgenError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *ClickgenError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *ClickgenError) Is(target error) bool {
	var t *ClickgenError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new ClickgenError.
func New(category ErrorCategory, code, message string) *ClickgenError {
	return &ClickgenError{
		Category:  category,
		Code:      code,
		Message:   message,
		Retryable: isRetryable(category, code),
	}
}

// Wrap creates a new ClickgenError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *ClickgenError {
	return &ClickgenError{
		Category:  category,
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: isRetryable(category, code),
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *ClickgenError) WithDetails(details map[string]interface{}) *ClickgenError {
	cp := *e
	cp.Details = details
	return &cp
}

// IsRetryable checks whether an error (or its chain) is retryable.
func IsRetryable(err error) bool {
	var ce *ClickgenError
	if errors.As(err, &ce) {
		return ce.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a ClickgenError.
func GetCategory(err error) ErrorCategory {
	var ce *ClickgenError
	if errors.As(err, &ce) {
		return ce.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not a ClickgenError.
func GetCode(err error) string {
	var ce *ClickgenError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// Only transient storage failures are worth another attempt.
func isRetryable(category ErrorCategory, code string) bool {
	switch {
	case category == ErrCategoryStorage && code == CodeUploadFailed:
		return true
	default:
		return false
	}
}

// Sentinels for errors.Is matching on category and code.
var (
	ErrInvalidTimeRange = New(ErrCategoryValidation, CodeInvalidTimeRange, "invalid time range")
	ErrInvalidCount     = New(ErrCategoryValidation, CodeInvalidCount, "invalid count")
	ErrInvalidConfig    = New(ErrCategoryConfig, CodeInvalidConfig, "invalid configuration")
	ErrEncodeFailed     = New(ErrCategoryExport, CodeEncodeFailed, "encode failed")
	ErrUploadFailed     = New(ErrCategoryStorage, CodeUploadFailed, "upload failed")
)

// Convenience constructors for common errors.

func NewValidationError(code, message string) *ClickgenError {
	return New(ErrCategoryValidation, code, message)
}

func NewConfigError(message string, cause error) *ClickgenError {
	return Wrap(ErrCategoryConfig, CodeInvalidConfig, message, cause)
}

func NewExportError(code, message string, cause error) *ClickgenError {
	return Wrap(ErrCategoryExport, code, message, cause)
}

func NewStorageError(code, message string, cause error) *ClickgenError {
	return Wrap(ErrCategoryStorage, code, message, cause)
}

func NewInternalError(message string, cause error) *ClickgenError {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
