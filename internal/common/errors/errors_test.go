package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Retry policy
// ==========================

func TestGetRetryCount(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeNotificationSendFailed, 3},
		{ErrCodeKnowledgeBaseLoadFailed, 3},
		{ErrCodeExtractionTimeout, 2},
		{ErrCodeDocumentUnevaluable, 0},
		{ErrCodeDocumentExtractionFailed, 0},
		{ErrCodeInvalidInput, 0},
		{"SOMETHING_ELSE", 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, GetRetryCount(tt.code))
			assert.Equal(t, tt.want > 0, IsRetryableErrorCode(tt.code))
		})
	}
}

// ==========================
// BPMN conversion
// ==========================

func TestConvertToBPMNError_Unevaluable(t *testing.T) {
	stdErr := NewDocumentUnevaluableError("plan.pdf", 12, 50)

	bpmnErr := ConvertToBPMNError(stdErr)

	assert.Equal(t, "DOCUMENT_UNEVALUABLE", bpmnErr.Code)
	assert.False(t, bpmnErr.Retryable)
	assert.Equal(t, 0, bpmnErr.Retries)

	vars := bpmnErr.ToErrorVariables()
	assert.Equal(t, "DOCUMENT_UNEVALUABLE", vars["errorCode"])
	assert.Equal(t, 12, vars["characters"])
	assert.Equal(t, 50, vars["minimum"])
	assert.Equal(t, "DOCUMENT_UNEVALUABLE", vars["originalErrorCode"])
}

func TestConvertToBPMNError_RetryableNotification(t *testing.T) {
	stdErr := NewNotificationSendFailedError("email", errors.New("throttled"))

	bpmnErr := ConvertToBPMNError(stdErr)

	assert.Equal(t, "NOTIFICATION_SEND_FAILED", bpmnErr.Code)
	assert.True(t, bpmnErr.Retryable)
	assert.Equal(t, 3, bpmnErr.Retries)
	assert.Contains(t, bpmnErr.Details, "throttled")
}

func TestConvertToBPMNError_UnmappedCodePassesThrough(t *testing.T) {
	stdErr := NewExternalServiceError("redis", errors.New("refused"))
	stdErr.Retryable = false

	bpmnErr := ConvertToBPMNError(stdErr)

	assert.Equal(t, "EXTERNAL_SERVICE_ERROR", bpmnErr.Code)
	assert.Equal(t, 0, bpmnErr.Retries)
}

func TestNormalize(t *testing.T) {
	typed := NewInvalidInputError("documentName is required")
	assert.Same(t, typed, Normalize(typed))

	plain := Normalize(errors.New("disk on fire"))
	require.NotNil(t, plain)
	assert.Equal(t, ErrorCode("INTERNAL_ERROR"), plain.Code)
	assert.Equal(t, "disk on fire", plain.Details)
}

func TestWithMetadata(t *testing.T) {
	err := NewKnowledgeBaseInvalidError("domain 2 has no criteria").
		WithMetadata("domain", 2)

	assert.Equal(t, 2, err.Metadata["domain"])
	assert.Contains(t, err.Error(), "KNOWLEDGE_BASE_INVALID")
}

func TestGetErrorCategory(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{ErrCodeDocumentUnevaluable, "DOCUMENT"},
		{ErrCodeExtractionTimeout, "DOCUMENT"},
		{ErrCodeKnowledgeBaseInvalid, "KNOWLEDGE_BASE"},
		{ErrCodeNotificationSendFailed, "NOTIFICATION"},
		{ErrCodeReportDeliverySkipped, "NOTIFICATION"},
		{ErrCodeInvalidInput, "VALIDATION"},
		{"TIMEOUT_ERROR", "OTHER"},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, GetErrorCategory(tt.code))
		})
	}
}
