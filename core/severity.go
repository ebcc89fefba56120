package core

// Severity represents the ordinal threat level used across all entities.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// AllSeverities returns all valid severities for validation
var AllSeverities = []Severity{
	SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical,
}

// IsValid checks if the severity is valid
func (s Severity) IsValid() bool {
	for _, valid := range AllSeverities {
		if s == valid {
			return true
		}
	}
	return false
}

// Ordinal returns the severity rank: low=1, medium=2, high=3, critical=4.
// Unknown severities rank 0 so they never satisfy a minimum-severity filter.
func (s Severity) Ordinal() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// AtLeast reports whether s ranks at or above min.
func (s Severity) AtLeast(min Severity) bool {
	return s.Ordinal() >= min.Ordinal()
}

// FilterAll is the sentinel filter value equivalent to "no constraint"
// on enum-typed filters.
const FilterAll = "all"
