// internal/workers/evaluation/send-evaluation-report/handler.go
package sendevaluationreport

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"evaluation-workers/internal/common/aws"
	"evaluation-workers/internal/common/errors"
	"evaluation-workers/internal/common/logger"
	"evaluation-workers/internal/common/metrics"
	"evaluation-workers/internal/evaluation/narrative"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const TaskType = "send-evaluation-report"

type Handler struct {
	config     *Config
	sesClient  aws.SESAPI
	snsClient  aws.SNSAPI
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

// NewHandler takes the SES and SNS clients as interfaces; either may be nil
// when its channel is disabled.
func NewHandler(config *Config, sesClient aws.SESAPI, snsClient aws.SNSAPI, log logger.Logger) (*Handler, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if config.EmailEnabled && sesClient == nil {
		return nil, fmt.Errorf("email delivery enabled without an SES client")
	}
	if config.SMSEnabled && snsClient == nil {
		return nil, fmt.Errorf("SMS delivery enabled without an SNS client")
	}

	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		sesClient:  sesClient,
		snsClient:  snsClient,
		errHandler: errors.NewErrorHandler(log),
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
		stdErr := errors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err))
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

// Execute delivers the report. An e-mail failure fails the job so it can be
// retried; an SMS failure after a sent e-mail is reported as partial so the
// e-mail is not sent twice.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if err := validateInput(input, h.config.DefaultRecipient); err != nil {
		return nil, err
	}

	band := narrative.BandFor(input.Percentage)
	if input.Band != "" {
		parsed, err := narrative.ParseBand(input.Band)
		if err != nil {
			return nil, errors.NewInvalidInputError(err.Error())
		}
		band = parsed
	}

	output := &Output{
		ReportID: uuid.New().String(),
		Status:   StatusDisabled,
		SentAt:   time.Now().UTC().Format(time.RFC3339),
	}
	summary := narrative.Summary(input.ProgramName, input.Percentage)

	recipient := input.RecipientEmail
	if recipient == "" {
		recipient = h.config.DefaultRecipient
	}

	if h.config.EmailEnabled && recipient != "" {
		messageID, err := h.sendEmail(ctx, recipient, "Evaluation report: "+summary, input.Narrative)
		if err != nil {
			metrics.ReportsDelivered.WithLabelValues(ChannelEmail, "failed").Inc()
			h.logger.Error("email send failed", map[string]interface{}{
				"evaluationId": input.EvaluationID,
				"error":        err,
			})
			return nil, errors.NewNotificationSendFailedError(ChannelEmail, err)
		}
		metrics.ReportsDelivered.WithLabelValues(ChannelEmail, "sent").Inc()
		output.EmailSent = true
		output.MessageID = messageID
	}

	// SMS only for programs that need restructuring.
	if h.config.SMSEnabled && input.RecipientPhone != "" && band == narrative.BandNeedsRestructuring {
		message := summary + ". The program needs restructuring; see the e-mailed report for priorities."
		if err := h.sendSMS(ctx, input.RecipientPhone, message); err != nil {
			metrics.ReportsDelivered.WithLabelValues(ChannelSMS, "failed").Inc()
			h.logger.Error("SMS send failed", map[string]interface{}{
				"evaluationId": input.EvaluationID,
				"error":        err,
			})
			if !output.EmailSent {
				return nil, errors.NewNotificationSendFailedError(ChannelSMS, err)
			}
			output.Status = StatusPartial
		} else {
			metrics.ReportsDelivered.WithLabelValues(ChannelSMS, "sent").Inc()
			output.SMSSent = true
		}
	}

	if output.Status != StatusPartial && (output.EmailSent || output.SMSSent) {
		output.Status = StatusSent
	}

	h.logger.Info("evaluation report delivered", map[string]interface{}{
		"evaluationId": input.EvaluationID,
		"reportId":     output.ReportID,
		"band":         band.String(),
		"status":       output.Status,
		"emailSent":    output.EmailSent,
		"smsSent":      output.SMSSent,
	})

	return output, nil
}

func (h *Handler) sendEmail(ctx context.Context, to, subject, body string) (string, error) {
	out, err := h.sesClient.SendEmail(ctx, aws.TextEmail(h.config.FromEmail, to, subject, body))
	if err != nil {
		return "", err
	}
	if out != nil && out.MessageId != nil {
		return *out.MessageId, nil
	}
	return "", nil
}

func (h *Handler) sendSMS(ctx context.Context, to, message string) error {
	_, err := h.snsClient.Publish(ctx, aws.SMS(to, message, h.config.SMSSenderID))
	return err
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
