package evaluatedocument

import (
	"strings"

	"evaluation-workers/internal/common/errors"
	"evaluation-workers/internal/common/validation"
)

// Process variables may carry unrelated keys, so additional properties are allowed.
var inputSchema = validation.MustCompile(`{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["programName", "documentName"],
	"properties": {
		"requestId":       {"type": "string", "maxLength": 100},
		"programName":     {"type": "string", "minLength": 1, "maxLength": 300},
		"documentName":    {"type": "string", "minLength": 1, "maxLength": 255},
		"documentContent": {"type": "string"},
		"text":            {"type": "string"},
		"submittedBy":     {"type": "string", "maxLength": 255}
	},
	"anyOf": [
		{"required": ["documentContent"]},
		{"required": ["text"]}
	]
}`)

func validateInput(input *Input) error {
	result, err := inputSchema.ValidateGo(input)
	if err != nil {
		return errors.NewInvalidInputError(err.Error())
	}
	if !result.Valid {
		return errors.NewInvalidInputError(strings.Join(result.GetErrorMessages(), "; "))
	}
	return nil
}
