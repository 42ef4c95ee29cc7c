package evaluatedocument

import "evaluation-workers/internal/evaluation/scoring"

// Input carries either the raw document (base64) or text that was
// extracted upstream. Text wins when both are present.
type Input struct {
	RequestID       string `json:"requestId,omitempty"`
	ProgramName     string `json:"programName"`
	DocumentName    string `json:"documentName"`
	DocumentContent string `json:"documentContent,omitempty"`
	Text            string `json:"text,omitempty"`
	SubmittedBy     string `json:"submittedBy,omitempty"`
}

type Output struct {
	EvaluationID string                  `json:"evaluationId"`
	RequestID    string                  `json:"requestId,omitempty"`
	ProgramName  string                  `json:"programName"`
	Policy       string                  `json:"policy"`
	TotalPoints  int                     `json:"totalPoints"`
	MaxPoints    int                     `json:"maxPoints"`
	Percentage   float64                 `json:"percentage"`
	Band         string                  `json:"band"`
	Narrative    string                  `json:"narrative"`
	Records      []RecordOutput          `json:"records"`
	Domains      []scoring.DomainSummary `json:"domains"`
	EvaluatedAt  string                  `json:"evaluatedAt"` // ISO 8601
}

// RecordOutput is a scoring.Record flattened for process variables.
type RecordOutput struct {
	CriterionID     string   `json:"criterionId"`
	Key             string   `json:"key,omitempty"`
	Domain          string   `json:"domain"`
	Criterion       string   `json:"criterion"`
	Status          string   `json:"status"`
	StatusLabel     string   `json:"statusLabel"`
	Points          int      `json:"points"`
	MatchedKeywords []string `json:"matchedKeywords"`
	Recommendation  string   `json:"recommendation,omitempty"`
	Example         string   `json:"example,omitempty"`
}
