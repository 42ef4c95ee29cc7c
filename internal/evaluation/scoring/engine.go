// Package scoring evaluates extracted document text against a knowledge base
// by keyword presence.
package scoring

import (
	"strings"

	"evaluation-workers/internal/evaluation/knowledge"
)

// Engine is stateless apart from its policy and safe for concurrent use.
type Engine struct {
	policy Policy
}

func NewEngine(policy Policy) *Engine {
	return &Engine{policy: policy}
}

func (e *Engine) Policy() Policy {
	return e.policy
}

var defaultEngine = NewEngine(DistinctPolicy)

// Evaluate scores text with the distinct-keyword policy.
func Evaluate(text string, kb *knowledge.KnowledgeBase) *Result {
	return defaultEngine.Evaluate(text, kb)
}

// Evaluate produces one record per criterion. It never fails: empty text or
// an empty knowledge base yield a zero result.
func (e *Engine) Evaluate(text string, kb *knowledge.KnowledgeBase) *Result {
	res := &Result{Policy: e.policy.Name, Records: []Record{}, Domains: []DomainSummary{}}
	if kb == nil {
		return res
	}

	lower := strings.ToLower(text)

	names := kb.DomainNames()
	res.Domains = make([]DomainSummary, len(names))
	for i, name := range names {
		res.Domains[i].Domain = name
	}
	res.Records = make([]Record, 0, kb.CriteriaCount())

	kb.Walk(func(domain string, c knowledge.Criterion) {
		matched, count := e.match(text, lower, c.Keywords)
		status := e.policy.Classify(count)

		rec := Record{
			CriterionID:     c.ID,
			Key:             c.Key,
			Domain:          domain,
			Criterion:       c.Name,
			MatchedKeywords: matched,
			MatchCount:      count,
			Status:          status,
			Points:          status.Points(),
			Recommendation:  c.Recommendation,
			Example:         c.Example,
		}
		res.Records = append(res.Records, rec)

		ds := &res.Domains[c.ID.Domain]
		ds.TotalPoints += rec.Points
		ds.MaxPoints += PointsMet
		switch status {
		case Met:
			ds.Met++
		case PartiallyMet:
			ds.PartiallyMet++
		default:
			ds.NotMet++
		}

		res.TotalPoints += rec.Points
		res.MaxPoints += PointsMet
	})

	for i := range res.Domains {
		res.Domains[i].Percentage = percentage(res.Domains[i].TotalPoints, res.Domains[i].MaxPoints)
	}
	res.Percentage = percentage(res.TotalPoints, res.MaxPoints)

	return res
}

// match returns the distinct matched keywords in keyword order and the count
// the policy classifies on.
func (e *Engine) match(text, lower string, keywords []string) ([]string, int) {
	matched := []string{}
	seen := make(map[string]struct{}, len(keywords))
	occurrences := 0

	for _, kw := range keywords {
		n := countKeyword(text, lower, kw)
		if n == 0 {
			continue
		}
		occurrences += n
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		matched = append(matched, kw)
	}

	if e.policy.Counting == CountOccurrences {
		return matched, occurrences
	}
	return matched, len(matched)
}

// countKeyword counts non-overlapping occurrences of kw in the original text
// or its lowercase form, whichever is higher. Keywords are not lowercased.
func countKeyword(text, lower, kw string) int {
	if kw == "" {
		return 0
	}
	n := strings.Count(text, kw)
	if m := strings.Count(lower, kw); m > n {
		n = m
	}
	return n
}
