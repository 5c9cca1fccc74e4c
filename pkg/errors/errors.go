package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryValidation    ErrorCategory = "validation"
	CategoryStorage       ErrorCategory = "storage"
	CategoryRemote        ErrorCategory = "remote"
	CategoryExtraction    ErrorCategory = "extraction"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// Validation errors
	CodeInvalidAmount ErrorCode = "invalid_amount"
	CodeInvalidDate   ErrorCode = "invalid_date"
	CodeInvalidBank   ErrorCode = "invalid_bank"
	CodeMissingField  ErrorCode = "missing_field"

	// Storage errors
	CodeStorageUnavailable ErrorCode = "storage_unavailable"
	CodeRecordNotFound     ErrorCode = "record_not_found"
	CodeWriteFailed        ErrorCode = "write_failed"
	CodeDuplicateConflict  ErrorCode = "duplicate_conflict"

	// Remote errors (bank API payloads surfaced by callers)
	CodeRemoteRejected    ErrorCode = "remote_rejected"
	CodeRemoteUnavailable ErrorCode = "remote_unavailable"

	// Extraction errors
	CodeMalformedReference ErrorCode = "malformed_reference"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// SyncError is the base error type for all application errors
type SyncError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *SyncError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *SyncError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *SyncError) GetExitCode() int {
	switch e.Category {
	case CategoryValidation:
		return 2
	case CategoryConfiguration:
		return 3
	case CategoryStorage:
		return 4
	case CategoryRemote:
		return 5
	case CategoryExtraction, CategoryInternal:
		return 6
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *SyncError) WithContext(key string, value interface{}) *SyncError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *SyncError) WithSuggestion(suggestion string) *SyncError {
	e.Suggestion = suggestion
	return e
}

// New creates a new SyncError
func New(category ErrorCategory, code ErrorCode, message string) *SyncError {
	return &SyncError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with SyncError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *SyncError {
	if err == nil {
		return nil
	}

	return &SyncError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Specific error constructors

// ValidationError creates a validation-related error for a single field
func ValidationError(code ErrorCode, field string, value interface{}) *SyncError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidAmount:
		message = fmt.Sprintf("invalid amount in field '%s': %v", field, value)
		suggestion = "amounts must be non-zero decimal values"
	case CodeInvalidDate:
		message = fmt.Sprintf("invalid posting date in field '%s': %v", field, value)
		suggestion = "use DD/MM/YYYY or YYYY-MM-DD date format"
	case CodeInvalidBank:
		message = fmt.Sprintf("unknown bank in field '%s': %v", field, value)
		suggestion = "supported banks: bb, santander"
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this required field"
	default:
		message = fmt.Sprintf("validation error in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	return New(CategoryValidation, code, message).
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// StorageError creates a storage-related error
func StorageError(code ErrorCode, operation string, err error) *SyncError {
	var message string
	var suggestion string

	switch code {
	case CodeStorageUnavailable:
		message = fmt.Sprintf("storage unavailable during %s", operation)
		suggestion = "check database connectivity; the batch can be safely re-run"
	case CodeRecordNotFound:
		message = fmt.Sprintf("record not found during %s", operation)
		suggestion = "verify the identifier and try again"
	case CodeWriteFailed:
		message = fmt.Sprintf("write failed during %s", operation)
		suggestion = "check database permissions and retry"
	case CodeDuplicateConflict:
		message = fmt.Sprintf("duplicate rows detected during %s", operation)
		suggestion = "run 'banksync audit-dups' to inspect and repair"
	default:
		message = fmt.Sprintf("storage error during %s", operation)
		suggestion = "check the database and try again"
	}

	var result *SyncError
	if err != nil {
		result = Wrap(err, CategoryStorage, code, message)
	} else {
		result = New(CategoryStorage, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// RemoteError creates an error carrying a bank API failure payload
func RemoteError(code ErrorCode, bank string, payload string, err error) *SyncError {
	var message string
	if payload != "" {
		message = fmt.Sprintf("bank %s rejected the request: %s", bank, payload)
	} else {
		message = fmt.Sprintf("bank %s request failed", bank)
	}

	var result *SyncError
	if err != nil {
		result = Wrap(err, CategoryRemote, code, message)
	} else {
		result = New(CategoryRemote, code, message)
	}

	return result.
		WithContext("bank", bank).
		WithContext("payload", payload)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *SyncError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this setting via flag, BANKSYNC_* env var, or config file"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	var result *SyncError
	if err != nil {
		result = Wrap(err, CategoryConfiguration, code, message)
	} else {
		result = New(CategoryConfiguration, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// InternalError creates an internal error
func InternalError(code ErrorCode, operation string, err error) *SyncError {
	message := fmt.Sprintf("internal error during %s", operation)

	var result *SyncError
	if err != nil {
		result = Wrap(err, CategoryInternal, code, message)
	} else {
		result = New(CategoryInternal, code, message)
	}

	return result.
		WithSuggestion("this is likely a bug - please report it with the error details").
		WithContext("operation", operation)
}

// Utility functions

// IsSyncError checks if an error is a SyncError
func IsSyncError(err error) bool {
	_, ok := err.(*SyncError)
	return ok
}

// AsSyncError extracts a SyncError from an error chain
func AsSyncError(err error) (*SyncError, bool) {
	var syncErr *SyncError
	if errors.As(err, &syncErr) {
		return syncErr, true
	}
	return nil, false
}

// IsStorageUnavailable reports whether the error chain carries the
// storage_unavailable code. The batch importer uses this to decide between
// a per-row error (continue) and aborting the remainder of the batch.
func IsStorageUnavailable(err error) bool {
	if syncErr, ok := AsSyncError(err); ok {
		return syncErr.Code == CodeStorageUnavailable
	}
	return false
}

// IsNotFound reports whether the error chain carries the record_not_found code
func IsNotFound(err error) bool {
	if syncErr, ok := AsSyncError(err); ok {
		return syncErr.Code == CodeRecordNotFound
	}
	return false
}

// WrapIfNeeded wraps an error if it's not already a SyncError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *SyncError {
	if err == nil {
		return nil
	}

	if syncErr, ok := AsSyncError(err); ok {
		return syncErr
	}

	return Wrap(err, category, code, message)
}

// ErrorSummary provides a summary of multiple errors
type ErrorSummary struct {
	Total      int                   `json:"total"`
	ByCategory map[ErrorCategory]int `json:"by_category"`
	ByCode     map[ErrorCode]int     `json:"by_code"`
	Errors     []*SyncError          `json:"errors"`
}

// NewErrorSummary creates a new error summary
func NewErrorSummary(errs []*SyncError) *ErrorSummary {
	summary := &ErrorSummary{
		Total:      len(errs),
		ByCategory: make(map[ErrorCategory]int),
		ByCode:     make(map[ErrorCode]int),
		Errors:     errs,
	}
	if errs == nil {
		summary.Errors = []*SyncError{}
	}

	for _, err := range errs {
		summary.ByCategory[err.Category]++
		summary.ByCode[err.Code]++
	}

	return summary
}

// Error returns a formatted error message for the summary
func (es *ErrorSummary) Error() string {
	if es.Total == 0 {
		return "no errors"
	}

	if es.Total == 1 {
		return es.Errors[0].Error()
	}

	var categories []string
	for category, count := range es.ByCategory {
		categories = append(categories, fmt.Sprintf("%s: %d", category, count))
	}

	return fmt.Sprintf("%d errors occurred (%s)", es.Total, strings.Join(categories, ", "))
}

// HasCode checks if the summary contains errors with the given code
func (es *ErrorSummary) HasCode(code ErrorCode) bool {
	count, exists := es.ByCode[code]
	return exists && count > 0
}

// GetExitCode returns the highest priority exit code from all errors
func (es *ErrorSummary) GetExitCode() int {
	if es.Total == 0 {
		return 0
	}

	maxCode := 1
	for _, err := range es.Errors {
		if code := err.GetExitCode(); code > maxCode {
			maxCode = code
		}
	}

	return maxCode
}
