// internal/workers/evaluation/evaluate-document/handler.go
package evaluatedocument

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "evaluation-workers/internal/common/errors"
	"evaluation-workers/internal/common/logger"
	"evaluation-workers/internal/common/metrics"
	"evaluation-workers/internal/evaluation/extract"
	"evaluation-workers/internal/evaluation/knowledge"
	"evaluation-workers/internal/evaluation/narrative"
	"evaluation-workers/internal/evaluation/scoring"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const TaskType = "evaluate-document"

type Handler struct {
	config     *Config
	kb         *knowledge.KnowledgeBase
	engine     *scoring.Engine
	extractor  extract.Extractor
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, kb *knowledge.KnowledgeBase, engine *scoring.Engine, extractor extract.Extractor, log logger.Logger) (*Handler, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if kb == nil {
		return nil, fmt.Errorf("knowledge base is required")
	}
	if engine == nil {
		engine = scoring.NewEngine(scoring.DistinctPolicy)
	}

	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		kb:         kb,
		engine:     engine,
		extractor:  extractor,
		errHandler: apperrors.NewErrorHandler(log),
		logger:     log,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		stdErr := apperrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err))
		h.errHandler.HandleJobError(ctx, client, job, stdErr)
		return stdErr
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.errHandler.HandleJobError(ctx, client, job, err)
		return err
	}

	return h.completeJob(ctx, client, job, output)
}

// Execute runs one evaluation. Failures are returned as *errors.StandardError.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	text, err := h.documentText(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := extract.CheckViable(text, h.config.MinTextLength); err != nil {
		var short *extract.UnevaluableError
		if errors.As(err, &short) {
			metrics.DocumentsUnevaluable.Inc()
			h.logger.Warn("document too short to evaluate", map[string]interface{}{
				"documentName": input.DocumentName,
				"characters":   short.Length,
				"minimum":      short.Minimum,
			})
			return nil, apperrors.NewDocumentUnevaluableError(input.DocumentName, short.Length, short.Minimum)
		}
		return nil, apperrors.NewInvalidInputError(err.Error())
	}

	res := h.engine.Evaluate(text, h.kb)
	res.Narrative = narrative.Narrate(res, input.ProgramName)
	band := narrative.BandFor(res.Percentage)

	metrics.EvaluationsTotal.WithLabelValues(band.String()).Inc()
	for status, n := range res.Counts() {
		metrics.CriterionVerdicts.WithLabelValues(status.String()).Add(float64(n))
	}

	output := buildOutput(input, res, band)

	h.logger.Info("document evaluated", map[string]interface{}{
		"evaluationId": output.EvaluationID,
		"requestId":    input.RequestID,
		"documentName": input.DocumentName,
		"totalPoints":  res.TotalPoints,
		"maxPoints":    res.MaxPoints,
		"percentage":   output.Percentage,
		"band":         output.Band,
	})

	return output, nil
}

// documentText prefers text supplied by the caller over extraction.
func (h *Handler) documentText(ctx context.Context, input *Input) (string, error) {
	if input.Text != "" {
		return input.Text, nil
	}
	if h.extractor == nil {
		return "", apperrors.NewInvalidInputError("documentContent given but no extractor is configured; supply text instead")
	}

	data, err := base64.StdEncoding.DecodeString(input.DocumentContent)
	if err != nil {
		return "", apperrors.NewInvalidInputError(fmt.Sprintf("documentContent is not valid base64: %v", err))
	}
	if len(data) > h.config.MaxDocumentBytes {
		return "", apperrors.NewInvalidInputError(fmt.Sprintf("document is %d bytes, limit is %d", len(data), h.config.MaxDocumentBytes))
	}

	text, err := h.extractor.Extract(ctx, extract.Document{Name: input.DocumentName, Data: data})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", apperrors.NewExtractionTimeoutError(input.DocumentName)
		}
		return "", apperrors.NewDocumentExtractionFailedError(input.DocumentName, err)
	}
	return text, nil
}

func buildOutput(input *Input, res *scoring.Result, band narrative.Band) *Output {
	records := make([]RecordOutput, len(res.Records))
	for i, rec := range res.Records {
		records[i] = RecordOutput{
			CriterionID:     rec.CriterionID.String(),
			Key:             rec.Key,
			Domain:          rec.Domain,
			Criterion:       rec.Criterion,
			Status:          rec.Status.String(),
			StatusLabel:     rec.Status.Label(),
			Points:          rec.Points,
			MatchedKeywords: rec.MatchedKeywords,
			Recommendation:  rec.Recommendation,
			Example:         rec.Example,
		}
	}

	return &Output{
		EvaluationID: uuid.New().String(),
		RequestID:    input.RequestID,
		ProgramName:  input.ProgramName,
		Policy:       res.Policy,
		TotalPoints:  res.TotalPoints,
		MaxPoints:    res.MaxPoints,
		Percentage:   narrative.DisplayPercentage(res.Percentage),
		Band:         band.String(),
		Narrative:    res.Narrative,
		Records:      records,
		Domains:      res.Domains,
		EvaluatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
		return err
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
		return err
	}
	return nil
}
