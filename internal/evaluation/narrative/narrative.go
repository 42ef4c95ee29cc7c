// Package narrative renders an evaluation result as a plain-text report.
package narrative

import (
	"fmt"
	"math"
	"strings"

	"evaluation-workers/internal/evaluation/scoring"
)

// Band is the readiness tier selected by the overall percentage.
type Band int

const (
	BandNeedsRestructuring Band = iota
	BandNeedsImprovement
	BandHighReadiness
)

// Lower bounds, inclusive.
const (
	HighReadinessThreshold    = 85.0
	NeedsImprovementThreshold = 50.0
)

// BandFor picks the tier; a percentage on a boundary belongs to the higher band.
func BandFor(percentage float64) Band {
	switch {
	case percentage >= HighReadinessThreshold:
		return BandHighReadiness
	case percentage >= NeedsImprovementThreshold:
		return BandNeedsImprovement
	default:
		return BandNeedsRestructuring
	}
}

// DisplayPercentage truncates to two decimals, so the shown score never
// reaches a threshold the exact score is below.
func DisplayPercentage(percentage float64) float64 {
	return math.Floor(percentage*100+1e-9) / 100
}

func (b Band) String() string {
	switch b {
	case BandHighReadiness:
		return "high_readiness"
	case BandNeedsImprovement:
		return "needs_improvement"
	default:
		return "needs_restructuring"
	}
}

// Message is the tier sentence used in the report.
func (b Band) Message() string {
	switch b {
	case BandHighReadiness:
		return "The program shows high readiness: the material covers the evaluation criteria well and needs only minor refinement."
	case BandNeedsImprovement:
		return "The program has an adequate foundation but needs improvement in the areas listed below."
	default:
		return "The program needs comprehensive restructuring before it can be delivered."
	}
}

// ParseBand is the inverse of Band.String.
func ParseBand(s string) (Band, error) {
	switch s {
	case "high_readiness":
		return BandHighReadiness, nil
	case "needs_improvement":
		return BandNeedsImprovement, nil
	case "needs_restructuring":
		return BandNeedsRestructuring, nil
	default:
		return 0, fmt.Errorf("unknown band %q", s)
	}
}

const (
	prioritiesHeading = "Priorities for improvement:"
	noFindings        = "The evaluation is complete with no material findings: every criterion is met."
)

// Narrate is deterministic for a given result and program name.
func Narrate(res *scoring.Result, programName string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Evaluation report for the training program %q.\n", programName)
	fmt.Fprintf(&b, "Overall score: %d of %d points (%.2f%%).\n", res.TotalPoints, res.MaxPoints, DisplayPercentage(res.Percentage))
	b.WriteString(BandFor(res.Percentage).Message())
	b.WriteString("\n\n")

	groups := deficientByDomain(res)
	if len(groups) == 0 {
		b.WriteString(noFindings)
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(prioritiesHeading)
	b.WriteString("\n")
	for _, g := range groups {
		fmt.Fprintf(&b, "\n%s\n", g.Domain)
		for _, rec := range g.Records {
			fmt.Fprintf(&b, "- %s (%s): %s\n", rec.Criterion, rec.Status.Label(), rec.Recommendation)
			if rec.Example != "" {
				fmt.Fprintf(&b, "  Example: %s\n", rec.Example)
			}
		}
	}

	return b.String()
}

// Summary is a one-line form suitable for an SMS or e-mail subject.
func Summary(programName string, percentage float64) string {
	return fmt.Sprintf("%s: %.2f%% (%s)", programName, DisplayPercentage(percentage), BandFor(percentage))
}

func deficientByDomain(res *scoring.Result) []scoring.DomainRecords {
	var out []scoring.DomainRecords
	for _, g := range res.ByDomain() {
		var deficient []scoring.Record
		for _, rec := range g.Records {
			if rec.Status != scoring.Met {
				deficient = append(deficient, rec)
			}
		}
		if len(deficient) > 0 {
			out = append(out, scoring.DomainRecords{Domain: g.Domain, Records: deficient})
		}
	}
	return out
}
