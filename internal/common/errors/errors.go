// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
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
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	ErrCodeDocumentExtractionFailed ErrorCode = "DOCUMENT_EXTRACTION_FAILED"
	ErrCodeDocumentUnevaluable      ErrorCode = "DOCUMENT_UNEVALUABLE"
	ErrCodeExtractionTimeout        ErrorCode = "EXTRACTION_TIMEOUT"

	ErrCodeKnowledgeBaseInvalid    ErrorCode = "KNOWLEDGE_BASE_INVALID"
	ErrCodeKnowledgeBaseLoadFailed ErrorCode = "KNOWLEDGE_BASE_LOAD_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeReportDeliverySkipped  ErrorCode = "REPORT_DELIVERY_SKIPPED"
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

// WithMetadata attaches a key to the error's metadata and returns the error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
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

func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Job input validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDocumentExtractionFailedError is returned when no text could be read
// from the submitted document at all.
func NewDocumentExtractionFailedError(documentName string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDocumentExtractionFailed,
		Message:   "Document could not be read",
		Details:   fmt.Sprintf("document: %s, error: %s", documentName, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDocumentUnevaluableError reports text too short to score. It is a
// precondition failure, not an evaluation outcome.
func NewDocumentUnevaluableError(documentName string, length, minimum int) *StandardError {
	return &StandardError{
		Code:      ErrCodeDocumentUnevaluable,
		Message:   "Document does not contain enough text to evaluate",
		Details:   fmt.Sprintf("document: %s, characters: %d, minimum: %d", documentName, length, minimum),
		Retryable: false,
		Metadata: map[string]interface{}{
			"characters": length,
			"minimum":    minimum,
		},
		Timestamp: time.Now().UTC(),
	}
}

func NewExtractionTimeoutError(documentName string) *StandardError {
	return &StandardError{
		Code:      ErrCodeExtractionTimeout,
		Message:   "Document text extraction timed out",
		Details:   fmt.Sprintf("document: %s", documentName),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewKnowledgeBaseInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeKnowledgeBaseInvalid,
		Message:   "Knowledge base catalog is invalid",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewKnowledgeBaseLoadFailedError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeKnowledgeBaseLoadFailed,
		Message:   "Knowledge base could not be loaded",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Report delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewReportDeliverySkippedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeReportDeliverySkipped,
		Message:   "No delivery channel available for report",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return &StandardError{
		Code:      "RESOURCE_NOT_FOUND",
		Message:   fmt.Sprintf("Resource not found in %s", service),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewAuthenticationError(details string) *StandardError {
	return &StandardError{
		Code:      "AUTHENTICATION_ERROR",
		Message:   "Authentication failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. BPMN Mapping & Retries
// ==========================

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidInput:             "INVALID_INPUT",
	ErrCodeDocumentExtractionFailed: "DOCUMENT_EXTRACTION_FAILED",
	ErrCodeDocumentUnevaluable:      "DOCUMENT_UNEVALUABLE",
	ErrCodeExtractionTimeout:        "EXTRACTION_TIMEOUT",
	ErrCodeKnowledgeBaseInvalid:     "KNOWLEDGE_BASE_INVALID",
	ErrCodeKnowledgeBaseLoadFailed:  "KNOWLEDGE_BASE_LOAD_FAILED",
	ErrCodeNotificationSendFailed:   "NOTIFICATION_SEND_FAILED",
	ErrCodeReportDeliverySkipped:    "REPORT_DELIVERY_SKIPPED",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeKnowledgeBaseLoadFailed,
		ErrCodeNotificationSendFailed:
		return 3

	case ErrCodeExtractionTimeout:
		return 2

	default:
		return 0 // Business errors: no retry
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

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
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "DOCUMENT") || strings.Contains(codeStr, "EXTRACTION"):
		return "DOCUMENT"
	case strings.Contains(codeStr, "KNOWLEDGE_BASE"):
		return "KNOWLEDGE_BASE"
	case strings.Contains(codeStr, "NOTIFICATION") || strings.Contains(codeStr, "REPORT"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
