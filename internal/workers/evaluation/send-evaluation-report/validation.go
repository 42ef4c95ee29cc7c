// internal/workers/evaluation/send-evaluation-report/validation.go
package sendevaluationreport

import (
	"strings"

	"evaluation-workers/internal/common/errors"
	"evaluation-workers/internal/common/validation"
)

var inputSchema = validation.MustCompile(`{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["evaluationId", "programName", "percentage", "narrative"],
	"properties": {
		"evaluationId":   {"type": "string", "minLength": 1, "maxLength": 100},
		"programName":    {"type": "string", "minLength": 1, "maxLength": 300},
		"recipientEmail": {"type": "string", "format": "email", "maxLength": 255},
		"recipientPhone": {"type": "string", "pattern": "^\\+[1-9][0-9]{6,14}$"},
		"percentage":     {"type": "number", "minimum": 0, "maximum": 100},
		"band":           {"type": "string", "enum": ["high_readiness", "needs_improvement", "needs_restructuring"]},
		"narrative":      {"type": "string", "minLength": 1},
		"submittedBy":    {"type": "string", "maxLength": 255}
	}
}`)

// validateInput checks the job variables; fallbackEmail stands in for a
// missing recipientEmail.
func validateInput(input *Input, fallbackEmail string) error {
	result, err := inputSchema.ValidateGo(input)
	if err != nil {
		return errors.NewInvalidInputError(err.Error())
	}
	if !result.Valid {
		return errors.NewInvalidInputError(strings.Join(result.GetErrorMessages(), "; "))
	}
	if input.RecipientEmail == "" && fallbackEmail == "" && input.RecipientPhone == "" {
		return errors.NewReportDeliverySkippedError("no recipient e-mail or phone given")
	}
	return nil
}
