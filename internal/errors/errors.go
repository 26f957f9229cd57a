// Package errors provides structured error types for masar.
// Every error carries a category, a code, a message and optional details so
// that callers can inspect failures without parsing log output.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by the kind of failure.
type ErrorCategory string

const (
	ErrCategorySchema       ErrorCategory = "SCHEMA"
	ErrCategoryConstruction ErrorCategory = "CONSTRUCTION"
	ErrCategoryLookup       ErrorCategory = "LOOKUP"
	ErrCategoryRange        ErrorCategory = "RANGE"
	ErrCategoryStore        ErrorCategory = "STORE"
)

// Error codes for each category.
const (
	// Schema codes
	CodeArrayColumn    = "ARRAY_COLUMN"
	CodeDuplicateField = "DUPLICATE_FIELD"
	CodeInvalidField   = "INVALID_FIELD"

	// Construction codes
	CodeUnknownField   = "UNKNOWN_FIELD"
	CodeTypeMismatch   = "TYPE_MISMATCH"
	CodeMisalignedRows = "MISALIGNED_ROWS"

	// Lookup codes
	CodeNotFound    = "NOT_FOUND"
	CodeMissingName = "MISSING_NAME"

	// Range codes
	CodeInvalidRange = "INVALID_RANGE"

	// Store codes
	CodeOpenFailed   = "OPEN_FAILED"
	CodeQueryFailed  = "QUERY_FAILED"
	CodeInsertFailed = "INSERT_FAILED"
	CodeDuplicate    = "DUPLICATE"
)

// Category sentinels. errors.Is(err, ErrLookup) matches any LOOKUP error.
var (
	ErrSchema       = &MasarError{Category: ErrCategorySchema}
	ErrConstruction = &MasarError{Category: ErrCategoryConstruction}
	ErrLookup       = &MasarError{Category: ErrCategoryLookup}
	ErrRange        = &MasarError{Category: ErrCategoryRange}
	ErrStore        = &MasarError{Category: ErrCategoryStore}
)

// MasarError is the structured error type used throughout the system.
type MasarError struct {
	Category ErrorCategory
	Code     string
	Message  string
	Details  map[string]interface{}
	Cause    error
}

// Error returns a formatted error string.
func (e *MasarError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *MasarError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
// A target without a code matches every error of its category.
func (e *MasarError) Is(target error) bool {
	var t *MasarError
	if errors.As(target, &t) {
		if e.Category != t.Category {
			return false
		}
		return t.Code == "" || e.Code == t.Code
	}
	return false
}

// New creates a new MasarError.
func New(category ErrorCategory, code, message string) *MasarError {
	return &MasarError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}

// Wrap creates a new MasarError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *MasarError {
	return &MasarError{
		Category: category,
		Code:     code,
		Message:  message,
		Cause:    cause,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *MasarError) WithDetails(details map[string]interface{}) *MasarError {
	cp := *e
	cp.Details = details
	return &cp
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a MasarError.
func GetCategory(err error) ErrorCategory {
	var me *MasarError
	if errors.As(err, &me) {
		return me.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not a MasarError.
func GetCode(err error) string {
	var me *MasarError
	if errors.As(err, &me) {
		return me.Code
	}
	return ""
}

// Convenience constructors for common errors.

func NewSchemaError(code, message string) *MasarError {
	return New(ErrCategorySchema, code, message)
}

func NewConstructionError(code, message string) *MasarError {
	return New(ErrCategoryConstruction, code, message)
}

func NewLookupError(code, message string) *MasarError {
	return New(ErrCategoryLookup, code, message)
}

func NewRangeError(message string) *MasarError {
	return New(ErrCategoryRange, CodeInvalidRange, message)
}

func NewStoreError(code, message string, cause error) *MasarError {
	return Wrap(ErrCategoryStore, code, message, cause)
}
