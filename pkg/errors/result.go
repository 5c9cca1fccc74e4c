package errors

import "encoding/json"

// Result is the structured envelope returned at service boundaries. No error
// value crosses into the CLI layer raw: every operation reports a success
// flag, a human-readable message, and a machine error code so an operator
// can decide whether a re-run is safe.
type Result struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Code    ErrorCode   `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
	Err     *SyncError  `json:"-"`
}

// OK creates a successful result
func OK(message string, details interface{}) *Result {
	return &Result{
		Success: true,
		Message: message,
		Details: details,
	}
}

// Fail creates a failed result from a SyncError, preserving the machine code
func Fail(err *SyncError, details interface{}) *Result {
	if err == nil {
		return OK("", details)
	}
	return &Result{
		Success: false,
		Message: err.Message,
		Code:    err.Code,
		Details: details,
		Err:     err,
	}
}

// MarshalIndent renders the result as indented JSON for CLI output
func (r *Result) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
