package scoring

import "fmt"

// Counting selects how keyword evidence is counted for a criterion.
type Counting int

const (
	// CountDistinct counts each distinct matched keyword once.
	CountDistinct Counting = iota
	// CountOccurrences sums non-overlapping occurrences of every keyword entry.
	CountOccurrences
)

const (
	DefaultMetThreshold     = 2
	DefaultPartialThreshold = 1

	OccurrenceMetThreshold     = 3
	OccurrencePartialThreshold = 1
)

const (
	PolicyDistinct    = "distinct"
	PolicyOccurrences = "occurrences"
)

// Policy maps a match count to a Status.
type Policy struct {
	Name             string
	Counting         Counting
	MetThreshold     int
	PartialThreshold int
}

var (
	DistinctPolicy = Policy{
		Name:             PolicyDistinct,
		Counting:         CountDistinct,
		MetThreshold:     DefaultMetThreshold,
		PartialThreshold: DefaultPartialThreshold,
	}

	OccurrencePolicy = Policy{
		Name:             PolicyOccurrences,
		Counting:         CountOccurrences,
		MetThreshold:     OccurrenceMetThreshold,
		PartialThreshold: OccurrencePartialThreshold,
	}
)

// ParsePolicy resolves a named policy. Zero thresholds keep the policy's
// defaults.
func ParsePolicy(name string, met, partial int) (Policy, error) {
	var p Policy
	switch name {
	case "", PolicyDistinct:
		p = DistinctPolicy
	case PolicyOccurrences:
		p = OccurrencePolicy
	default:
		return Policy{}, fmt.Errorf("unknown match policy %q", name)
	}

	if met != 0 {
		p.MetThreshold = met
	}
	if partial != 0 {
		p.PartialThreshold = partial
	}

	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// Validate requires 1 <= partial < met so that no count maps to two statuses.
func (p Policy) Validate() error {
	if p.PartialThreshold < 1 {
		return fmt.Errorf("partial threshold must be at least 1, got %d", p.PartialThreshold)
	}
	if p.MetThreshold <= p.PartialThreshold {
		return fmt.Errorf("met threshold (%d) must exceed partial threshold (%d)", p.MetThreshold, p.PartialThreshold)
	}
	return nil
}

// Classify is total over all counts.
func (p Policy) Classify(count int) Status {
	switch {
	case count >= p.MetThreshold:
		return Met
	case count >= p.PartialThreshold:
		return PartiallyMet
	default:
		return NotMet
	}
}
