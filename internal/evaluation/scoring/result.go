package scoring

import "evaluation-workers/internal/evaluation/knowledge"

// Record is the verdict for one criterion.
type Record struct {
	CriterionID     knowledge.CriterionID `json:"criterionId"`
	Key             string                `json:"key,omitempty"`
	Domain          string                `json:"domain"`
	Criterion       string                `json:"criterion"`
	MatchedKeywords []string              `json:"matchedKeywords"`
	MatchCount      int                   `json:"matchCount"`
	Status          Status                `json:"status"`
	Points          int                   `json:"points"`
	Recommendation  string                `json:"recommendation"`
	Example         string                `json:"example,omitempty"`
}

// DomainSummary aggregates the records of one domain.
type DomainSummary struct {
	Domain       string  `json:"domain"`
	TotalPoints  int     `json:"totalPoints"`
	MaxPoints    int     `json:"maxPoints"`
	Percentage   float64 `json:"percentage"`
	Met          int     `json:"met"`
	PartiallyMet int     `json:"partiallyMet"`
	NotMet       int     `json:"notMet"`
}

// Result is the outcome of one evaluation. Records follow knowledge-base
// traversal order.
type Result struct {
	Policy      string          `json:"policy"`
	Records     []Record        `json:"records"`
	Domains     []DomainSummary `json:"domains"`
	TotalPoints int             `json:"totalPoints"`
	MaxPoints   int             `json:"maxPoints"`
	Percentage  float64         `json:"percentage"`
	Narrative   string          `json:"narrative,omitempty"`
}

// DomainRecords groups records under their domain.
type DomainRecords struct {
	Domain  string
	Records []Record
}

// Deficient returns the records that are not Met, in traversal order.
func (r *Result) Deficient() []Record {
	var out []Record
	for _, rec := range r.Records {
		if rec.Status != Met {
			out = append(out, rec)
		}
	}
	return out
}

// ByDomain groups records by domain, preserving order. Domains without
// criteria are omitted.
func (r *Result) ByDomain() []DomainRecords {
	var out []DomainRecords
	for _, rec := range r.Records {
		if n := len(out); n > 0 && out[n-1].Records[0].CriterionID.Domain == rec.CriterionID.Domain {
			out[n-1].Records = append(out[n-1].Records, rec)
			continue
		}
		out = append(out, DomainRecords{Domain: rec.Domain, Records: []Record{rec}})
	}
	return out
}

// Counts returns how many records have each status.
func (r *Result) Counts() map[Status]int {
	counts := map[Status]int{Met: 0, PartiallyMet: 0, NotMet: 0}
	for _, rec := range r.Records {
		counts[rec.Status]++
	}
	return counts
}

func percentage(total, max int) float64 {
	if max == 0 {
		return 0
	}
	return float64(total) / float64(max) * 100
}
