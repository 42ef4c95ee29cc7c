package evaluatedocument

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"evaluation-workers/internal/common/camunda/camundatest"
	apperrors "evaluation-workers/internal/common/errors"
	"evaluation-workers/internal/common/logger"
	"evaluation-workers/internal/common/metrics"
	"evaluation-workers/internal/evaluation/extract"
	"evaluation-workers/internal/evaluation/knowledge"
	"evaluation-workers/internal/evaluation/scoring"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

var filler = strings.Repeat("تدريب ", 10)

func createTestConfig() *Config {
	return &Config{
		Timeout:          5 * time.Second,
		MinTextLength:    extract.MinViableLength,
		MaxDocumentBytes: 1 << 20,
	}
}

func goalsKB(t *testing.T) *knowledge.KnowledgeBase {
	t.Helper()
	kb, err := knowledge.New("test", []knowledge.Domain{
		{
			Name: "Goals",
			Criteria: []knowledge.Criterion{
				{Key: "goals.clarity", Name: "Goals", Keywords: []string{"هدف", "غرض"}, Recommendation: "Define measurable goals."},
			},
		},
	})
	require.NoError(t, err)
	return kb
}

func createTestHandler(t *testing.T, extractor extract.Extractor) *Handler {
	t.Helper()
	h, err := NewHandler(createTestConfig(), goalsKB(t), nil, extractor, logger.NewTestLogger(t))
	require.NoError(t, err)
	return h
}

func createTestInput(text string) *Input {
	return &Input{
		RequestID:    "req-001",
		ProgramName:  "Leadership Basics",
		DocumentName: "program.txt",
		Text:         text,
		SubmittedBy:  "reviewer@example.com",
	}
}

func requireCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	var stdErr *apperrors.StandardError
	require.True(t, errors.As(err, &stdErr), "expected StandardError, got %T", err)
	assert.Equal(t, code, stdErr.Code)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantStatus string
		wantPoints int
		wantPct    float64
		wantBand   string
		wantInText string
	}{
		{
			name:       "both keywords met",
			text:       "هدف البرنامج وغرض الدورة " + filler,
			wantStatus: "Met",
			wantPoints: 2,
			wantPct:    100,
			wantBand:   "high_readiness",
			wantInText: "no material findings",
		},
		{
			name:       "one keyword partially met",
			text:       "هدف البرنامج " + filler,
			wantStatus: "PartiallyMet",
			wantPoints: 1,
			wantPct:    50,
			wantBand:   "needs_improvement",
			wantInText: "Define measurable goals.",
		},
		{
			name:       "no keywords",
			text:       filler,
			wantStatus: "NotMet",
			wantPoints: 0,
			wantPct:    0,
			wantBand:   "needs_restructuring",
			wantInText: "Priorities for improvement:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := createTestHandler(t, nil)

			output, err := h.Execute(context.Background(), createTestInput(tt.text))
			require.NoError(t, err)

			assert.NotEmpty(t, output.EvaluationID)
			assert.Equal(t, "req-001", output.RequestID)
			assert.Equal(t, "Leadership Basics", output.ProgramName)
			assert.Equal(t, scoring.PolicyDistinct, output.Policy)
			assert.Equal(t, tt.wantPoints, output.TotalPoints)
			assert.Equal(t, 2, output.MaxPoints)
			assert.InDelta(t, tt.wantPct, output.Percentage, 0.001)
			assert.Equal(t, tt.wantBand, output.Band)
			assert.Contains(t, output.Narrative, tt.wantInText)
			assert.NotEmpty(t, output.EvaluatedAt)

			require.Len(t, output.Records, 1)
			assert.Equal(t, "1.1", output.Records[0].CriterionID)
			assert.Equal(t, "goals.clarity", output.Records[0].Key)
			assert.Equal(t, tt.wantStatus, output.Records[0].Status)
			assert.NotEmpty(t, output.Records[0].StatusLabel)

			require.Len(t, output.Domains, 1)
			assert.Equal(t, "Goals", output.Domains[0].Domain)
		})
	}
}

func TestHandler_Execute_ExtractsDocumentContent(t *testing.T) {
	h := createTestHandler(t, extract.NewRegistry(extract.PDF{}))

	input := createTestInput("")
	input.DocumentContent = base64.StdEncoding.EncodeToString([]byte("غرض الدورة وهدف البرنامج " + filler))

	output, err := h.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, 2, output.TotalPoints)
	assert.Equal(t, []string{"هدف", "غرض"}, output.Records[0].MatchedKeywords)
}

func TestHandler_Execute_TextTakesPrecedence(t *testing.T) {
	called := false
	h := createTestHandler(t, extract.ExtractorFunc(func(context.Context, extract.Document) (string, error) {
		called = true
		return "", nil
	}))

	input := createTestInput("هدف " + filler)
	input.DocumentContent = base64.StdEncoding.EncodeToString([]byte("ignored"))

	_, err := h.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.False(t, called)
}

func TestHandler_Execute_RecordsEvaluationMetrics(t *testing.T) {
	h := createTestHandler(t, nil)

	bandBefore := testutil.ToFloat64(metrics.EvaluationsTotal.WithLabelValues("needs_improvement"))
	partialBefore := testutil.ToFloat64(metrics.CriterionVerdicts.WithLabelValues("PartiallyMet"))

	_, err := h.Execute(context.Background(), createTestInput("هدف "+filler))
	require.NoError(t, err)

	assert.Equal(t, bandBefore+1, testutil.ToFloat64(metrics.EvaluationsTotal.WithLabelValues("needs_improvement")))
	assert.Equal(t, partialBefore+1, testutil.ToFloat64(metrics.CriterionVerdicts.WithLabelValues("PartiallyMet")))
}

// ==========================
// Failure Tests
// ==========================

func TestHandler_Execute_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *Input)
	}{
		{"missing program name", func(in *Input) { in.ProgramName = "" }},
		{"missing document name", func(in *Input) { in.DocumentName = "" }},
		{"neither text nor content", func(in *Input) { in.Text = "" }},
		{"content is not base64", func(in *Input) { in.Text = ""; in.DocumentContent = "***not base64***" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := createTestHandler(t, extract.NewRegistry(extract.PDF{}))
			input := createTestInput("هدف " + filler)
			tt.mutate(input)

			_, err := h.Execute(context.Background(), input)
			requireCode(t, err, apperrors.ErrCodeInvalidInput)
		})
	}
}

func TestHandler_Execute_DocumentTooLarge(t *testing.T) {
	h := createTestHandler(t, extract.NewRegistry(extract.PDF{}))
	h.config.MaxDocumentBytes = 10

	input := createTestInput("")
	input.DocumentContent = base64.StdEncoding.EncodeToString([]byte(filler))

	_, err := h.Execute(context.Background(), input)
	requireCode(t, err, apperrors.ErrCodeInvalidInput)
}

func TestHandler_Execute_Unevaluable(t *testing.T) {
	h := createTestHandler(t, nil)
	before := testutil.ToFloat64(metrics.DocumentsUnevaluable)

	_, err := h.Execute(context.Background(), createTestInput("   هدف   "))
	requireCode(t, err, apperrors.ErrCodeDocumentUnevaluable)

	var stdErr *apperrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.Equal(t, 3, stdErr.Metadata["characters"])
	assert.Equal(t, extract.MinViableLength, stdErr.Metadata["minimum"])
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.DocumentsUnevaluable))
}

func TestHandler_Execute_ExtractionFailed(t *testing.T) {
	h := createTestHandler(t, extract.NewRegistry(extract.PDF{}))

	input := createTestInput("")
	input.DocumentName = "program.xlsx"
	input.DocumentContent = base64.StdEncoding.EncodeToString([]byte("PK"))

	_, err := h.Execute(context.Background(), input)
	requireCode(t, err, apperrors.ErrCodeDocumentExtractionFailed)
}

func TestHandler_Execute_UnreadableDocumentIsExtractionFailure(t *testing.T) {
	h := createTestHandler(t, extract.ExtractorFunc(func(_ context.Context, doc extract.Document) (string, error) {
		return "", &extract.Failure{Document: doc.Name, Format: doc.Ext(), Err: extract.ErrNoReadableContent}
	}))
	before := testutil.ToFloat64(metrics.DocumentsUnevaluable)

	input := createTestInput("")
	input.DocumentName = "scan.pdf"
	input.DocumentContent = base64.StdEncoding.EncodeToString([]byte("%PDF-1.4"))

	_, err := h.Execute(context.Background(), input)
	requireCode(t, err, apperrors.ErrCodeDocumentExtractionFailed)
	assert.Equal(t, before, testutil.ToFloat64(metrics.DocumentsUnevaluable))
}

func TestHandler_Execute_ExtractionTimeout(t *testing.T) {
	h := createTestHandler(t, extract.ExtractorFunc(func(ctx context.Context, _ extract.Document) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	input := createTestInput("")
	input.DocumentContent = base64.StdEncoding.EncodeToString([]byte("slow"))

	_, err := h.Execute(ctx, input)
	requireCode(t, err, apperrors.ErrCodeExtractionTimeout)
}

func TestHandler_Execute_NoExtractorConfigured(t *testing.T) {
	h := createTestHandler(t, nil)

	input := createTestInput("")
	input.DocumentContent = base64.StdEncoding.EncodeToString([]byte(filler))

	_, err := h.Execute(context.Background(), input)
	requireCode(t, err, apperrors.ErrCodeInvalidInput)
}

// ==========================
// Job Handling Tests
// ==========================

func createTestJob(t *testing.T, input interface{}) entities.Job {
	t.Helper()
	vars, err := json.Marshal(input)
	require.NoError(t, err)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:       7,
		Type:      TaskType,
		Retries:   3,
		Variables: string(vars),
	}}
}

func TestHandler_Handle_CompletesJob(t *testing.T) {
	h := createTestHandler(t, nil)
	client := camundatest.NewJobClient()

	err := h.Handle(client, createTestJob(t, createTestInput("هدف "+filler)))
	require.NoError(t, err)

	require.Len(t, client.Completed(), 1)
	assert.Empty(t, client.Failed())
	assert.Empty(t, client.Thrown())

	var output Output
	require.NoError(t, json.Unmarshal([]byte(client.Completed()[0].Variables), &output))
	assert.Equal(t, int64(7), client.Completed()[0].JobKey)
	assert.Equal(t, 1, output.TotalPoints)
	assert.Equal(t, "needs_improvement", output.Band)
}

func TestHandler_Handle_UnevaluableThrowsBPMNError(t *testing.T) {
	h := createTestHandler(t, nil)
	client := camundatest.NewJobClient()

	err := h.Handle(client, createTestJob(t, createTestInput("هدف")))
	requireCode(t, err, apperrors.ErrCodeDocumentUnevaluable)

	assert.Empty(t, client.Completed())
	assert.Empty(t, client.Failed())
	require.Len(t, client.Thrown(), 1)
	assert.Equal(t, "DOCUMENT_UNEVALUABLE", client.Thrown()[0].ErrorCode)
}

func TestHandler_Handle_ExtractionTimeoutFailsWithRetries(t *testing.T) {
	h := createTestHandler(t, extract.ExtractorFunc(func(context.Context, extract.Document) (string, error) {
		return "", context.DeadlineExceeded
	}))
	client := camundatest.NewJobClient()

	input := createTestInput("")
	input.DocumentContent = base64.StdEncoding.EncodeToString([]byte("slow"))

	err := h.Handle(client, createTestJob(t, input))
	requireCode(t, err, apperrors.ErrCodeExtractionTimeout)

	assert.Empty(t, client.Thrown())
	require.Len(t, client.Failed(), 1)
	assert.Equal(t, int32(1), client.Failed()[0].Retries)
}

func TestHandler_Handle_MalformedVariables(t *testing.T) {
	h := createTestHandler(t, nil)
	client := camundatest.NewJobClient()

	job := entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 7, Type: TaskType, Retries: 3, Variables: "{not json"}}
	err := h.Handle(client, job)
	requireCode(t, err, apperrors.ErrCodeInvalidInput)
	require.Len(t, client.Thrown(), 1)
	assert.Equal(t, "INVALID_INPUT", client.Thrown()[0].ErrorCode)
}

func TestHandler_Handle_CompleteFailureIsReturned(t *testing.T) {
	h := createTestHandler(t, nil)
	client := camundatest.NewJobClient()
	client.FailWith(errors.New("gateway unavailable"))

	err := h.Handle(client, createTestJob(t, createTestInput("هدف "+filler)))
	assert.EqualError(t, err, "gateway unavailable")
}

// ==========================
// Construction Tests
// ==========================

func TestNewHandler_Validation(t *testing.T) {
	log := logger.NewNoOpLogger()

	_, err := NewHandler(&Config{Timeout: 0, MaxDocumentBytes: 1}, goalsKB(t), nil, nil, log)
	assert.Error(t, err)

	_, err = NewHandler(createTestConfig(), nil, nil, nil, log)
	assert.Error(t, err)

	h, err := NewHandler(createTestConfig(), goalsKB(t), nil, nil, log)
	require.NoError(t, err)
	assert.Equal(t, scoring.PolicyDistinct, h.engine.Policy().Name)
}

func BenchmarkHandler_Execute(b *testing.B) {
	kb := knowledge.Default()
	h, err := NewHandler(createTestConfig(), kb, nil, nil, logger.NewNoOpLogger())
	if err != nil {
		b.Fatal(err)
	}
	input := createTestInput(strings.Repeat("أهداف البرنامج واضحة مع أمثلة وتمارين وتقييم قبلي وبعدي. ", 50))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := h.Execute(context.Background(), input); err != nil {
			b.Fatal(err)
		}
	}
}
