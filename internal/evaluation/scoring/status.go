package scoring

import "fmt"

// Status is the verdict for one criterion.
type Status int

const (
	NotMet Status = iota
	PartiallyMet
	Met
)

// Points awarded per status.
const (
	PointsMet          = 2
	PointsPartiallyMet = 1
	PointsNotMet       = 0
)

func (s Status) Points() int {
	switch s {
	case Met:
		return PointsMet
	case PartiallyMet:
		return PointsPartiallyMet
	default:
		return PointsNotMet
	}
}

// Severity orders statuses for reporting: NotMet is the most severe.
func (s Status) Severity() int {
	return PointsMet - s.Points()
}

func (s Status) String() string {
	switch s {
	case Met:
		return "Met"
	case PartiallyMet:
		return "PartiallyMet"
	case NotMet:
		return "NotMet"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Label is the Arabic display label used in reports.
func (s Status) Label() string {
	switch s {
	case Met:
		return "متحقق"
	case PartiallyMet:
		return "متحقق جزئياً"
	default:
		return "غير متحقق"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Met":
		*s = Met
	case "PartiallyMet":
		*s = PartiallyMet
	case "NotMet":
		*s = NotMet
	default:
		return fmt.Errorf("unknown status %q", text)
	}
	return nil
}
