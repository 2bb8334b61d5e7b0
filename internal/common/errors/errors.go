// Package errors provides standardized error handling for the lead bot.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Classification service errors
	ErrCodeTokenRequestFailed   ErrorCode = "TOKEN_REQUEST_FAILED"
	ErrCodeCompletionFailed     ErrorCode = "COMPLETION_FAILED"
	ErrCodeCompletionTimeout    ErrorCode = "COMPLETION_TIMEOUT"
	ErrCodeResponseNotJSON      ErrorCode = "RESPONSE_NOT_JSON"
	ErrCodeResponseSchemaFailed ErrorCode = "RESPONSE_SCHEMA_FAILED"

	// Dialog / persistence errors
	ErrCodeContextLoadFailed  ErrorCode = "CONTEXT_LOAD_FAILED"
	ErrCodeContextStoreFailed ErrorCode = "CONTEXT_STORE_FAILED"
	ErrCodeLeadAppendFailed   ErrorCode = "LEAD_APPEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// New creates a StandardError with the current UTC timestamp.
func New(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewLeadAppendError creates a retryable persistence error.
func NewLeadAppendError(details string) *StandardError {
	return New(ErrCodeLeadAppendFailed, "Failed to append lead record", details, true)
}

// NewCompletionError creates a retryable classification-service error.
func NewCompletionError(details string) *StandardError {
	return New(ErrCodeCompletionFailed, "Completion request failed", details, true)
}
