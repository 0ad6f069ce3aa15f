// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed    ErrorCode = "VALIDATION_FAILED"
	ErrCodeNotFound            ErrorCode = "NOT_FOUND"
	ErrCodeAlreadyUsed         ErrorCode = "ALREADY_USED"
	ErrCodeDuplicate           ErrorCode = "DUPLICATE"
	ErrCodeStorageFailure      ErrorCode = "STORAGE_FAILURE"
	ErrCodeCodeSpaceExhausted  ErrorCode = "CODE_SPACE_EXHAUSTED"
	ErrCodeTemplateMissing     ErrorCode = "TEMPLATE_MISSING"
	ErrCodeRelayDeliveryFailed ErrorCode = "RELAY_DELIVERY_FAILED"

	ErrCodeParseError    ErrorCode = "PARSE_ERROR"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.Cause
}

// WithMetadata attaches a key/value pair and returns the same error for chaining.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = map[string]interface{}{}
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Cause:     cause,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationError reports missing or malformed required input.
func NewValidationError(field, details string) *StandardError {
	return newError(ErrCodeValidationFailed, "Input validation failed", details, false, nil).
		WithMetadata("field", field)
}

// NewNotFoundError reports an unknown code or id.
func NewNotFoundError(resource, key string) *StandardError {
	return newError(ErrCodeNotFound, fmt.Sprintf("%s not found", resource),
		fmt.Sprintf("%s: %s", resource, key), false, nil)
}

// NewAlreadyUsedError reports a second transition on a route that is already terminal.
func NewAlreadyUsedError(code string) *StandardError {
	return newError(ErrCodeAlreadyUsed, "Route code has already been used",
		fmt.Sprintf("code: %s", code), false, nil)
}

// NewDuplicateError classifies an imported record that matches an existing participant.
func NewDuplicateError(field string, existingID int64) *StandardError {
	return newError(ErrCodeDuplicate, "Participant already exists",
		fmt.Sprintf("matched on %s, existing id %d", field, existingID), false, nil).
		WithMetadata("field", field).
		WithMetadata("existingId", existingID)
}

// NewStorageError wraps a record store failure.
func NewStorageError(operation string, err error) *StandardError {
	return newError(ErrCodeStorageFailure, "Record store operation failed",
		fmt.Sprintf("operation: %s, error: %v", operation, err), true, err)
}

// NewCodeSpaceExhaustedError reports that no free code was found within the attempt bound.
func NewCodeSpaceExhaustedError(attempts int) *StandardError {
	return newError(ErrCodeCodeSpaceExhausted, "Could not allocate a unique route code",
		fmt.Sprintf("gave up after %d attempts", attempts), false, nil)
}

// NewTemplateMissingError reports that no active template exists for a type.
func NewTemplateMissingError(templateType string) *StandardError {
	return newError(ErrCodeTemplateMissing, "No active message template",
		fmt.Sprintf("templateType: %s", templateType), false, nil)
}

// NewRelayDeliveryError wraps a failed relay transmission.
func NewRelayDeliveryError(relay string, err error) *StandardError {
	return newError(ErrCodeRelayDeliveryFailed, "Notification delivery failed",
		fmt.Sprintf("relay: %s, error: %v", relay, err), true, err)
}

func NewParseError(err error) *StandardError {
	return newError(ErrCodeParseError, "Could not parse job variables", err.Error(), false, err)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternalError, "Unexpected error", err.Error(), false, err)
}

// ==========================
// 4. Inspection
// ==========================

// CodeOf returns the code of the first StandardError in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

// HasCode reports whether err's chain carries a StandardError with the given code.
func HasCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// AsStandard normalizes any error into a StandardError.
func AsStandard(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// ==========================
// 5. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeStorageFailure,
		ErrCodeRelayDeliveryFailed:
		return 3
	default:
		return 0 // business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "PARSE"):
		return "VALIDATION"
	case code == ErrCodeNotFound || code == ErrCodeAlreadyUsed || code == ErrCodeDuplicate:
		return "WORKFLOW"
	case strings.Contains(codeStr, "STORAGE") || strings.Contains(codeStr, "CODE_SPACE"):
		return "STORAGE"
	case strings.Contains(codeStr, "TEMPLATE") || strings.Contains(codeStr, "RELAY"):
		return "NOTIFICATION"
	default:
		return "OTHER"
	}
}
