// internal/workers/evaluation/send-evaluation-report/models.go
package sendevaluationreport

type Input struct {
	EvaluationID   string  `json:"evaluationId"`
	ProgramName    string  `json:"programName"`
	RecipientEmail string  `json:"recipientEmail,omitempty"`
	RecipientPhone string  `json:"recipientPhone,omitempty"`
	Percentage     float64 `json:"percentage"`
	Band           string  `json:"band,omitempty"`
	Narrative      string  `json:"narrative"`
	SubmittedBy    string  `json:"submittedBy,omitempty"`
}

type Output struct {
	ReportID  string `json:"reportId"`
	Status    string `json:"status"` // "sent", "partial", "disabled"
	EmailSent bool   `json:"emailSent"`
	SMSSent   bool   `json:"smsSent"`
	MessageID string `json:"messageId,omitempty"`
	SentAt    string `json:"sentAt"` // ISO 8601
}

// Statuses
const (
	StatusSent     = "sent"
	StatusPartial  = "partial"
	StatusDisabled = "disabled"
)

// Channels, as used in metric labels.
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)
