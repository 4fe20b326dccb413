package errors

import (
	"errors"
	"fmt"
)

// Error is the structured error type for storyseek.
// It carries a stable code, a category for routing decisions
// (HTTP status mapping, retry policy) and the underlying cause.
type Error struct {
	// Code is the unique error code (e.g., "ERR_301_PROVIDER_UNREACHABLE").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Validation, Provider, Store, ...).
	Category Category

	// Cause is the underlying error, if any.
	Cause error

	// Retryable indicates the operation may succeed if retried later.
	Retryable bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors by code so errors.Is works across wrapped chains.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a new Error with the given code and message.
// Category and retryable flag are derived from the code.
func New(code string, message string, cause error) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Newf creates a new Error with a formatted message.
func Newf(code string, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Wrap creates an Error from an existing error, keeping it as the cause.
// Returns nil when err is nil.
func Wrap(code string, message string, err error) *Error {
	if err == nil {
		return nil
	}
	return New(code, message, err)
}

// ValidationError creates a caller-input error.
func ValidationError(message string) *Error {
	return New(ErrCodeInvalidInput, message, nil)
}

// ProviderError creates an embedding/summarization provider error.
func ProviderError(message string, cause error) *Error {
	return New(ErrCodeProviderUnreachable, message, cause)
}

// StoreError creates a search index / database error.
func StoreError(message string, cause error) *Error {
	return New(ErrCodeStoreQuery, message, cause)
}

// IngestItemError creates a per-entry ingestion error. These are logged
// and skipped; they never abort a whole ingestion run.
func IngestItemError(code string, message string, cause error) *Error {
	return New(code, message, cause)
}

// GetCategory extracts the category from an error chain.
// Returns CategoryInternal if no structured error is found.
func GetCategory(err error) Category {
	var se *Error
	if errors.As(err, &se) {
		return se.Category
	}
	return CategoryInternal
}

// GetCode extracts the error code from an error chain.
// Returns empty string if no structured error is found.
func GetCode(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsRetryable reports whether the error chain contains a retryable error.
func IsRetryable(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}

// IsCategory reports whether the error chain contains an error of the
// given category.
func IsCategory(err error, c Category) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Category == c
	}
	return false
}
