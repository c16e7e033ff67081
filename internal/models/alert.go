package models

// Severity classifies how urgent a weather alert is. Only high and
// critical alerts are pushed to subscribers.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// ParseSeverity normalizes a raw severity string, defaulting to medium
// when the value is empty or unknown.
func ParseSeverity(s string) Severity {
	sev := Severity(s)
	if _, ok := severityRank[sev]; !ok {
		return SeverityMedium
	}
	return sev
}

// IsValid reports whether the severity is one of the known levels.
func (s Severity) IsValid() bool {
	_, ok := severityRank[s]
	return ok
}

// ShouldNotify reports whether an alert at this severity warrants a push
// notification. Low and medium alerts stay client-side only.
func (s Severity) ShouldNotify() bool {
	return severityRank[s] >= severityRank[SeverityHigh]
}

type Alert struct {
	Title    string   `json:"title" validate:"required"`
	Message  string   `json:"message" validate:"required"`
	Severity Severity `json:"severity" validate:"omitempty,oneof=low medium high critical"`
}

// Normalized returns a copy of the alert with the severity defaulted, so
// downstream dispatch never sees an empty severity.
func (a Alert) Normalized() Alert {
	a.Severity = ParseSeverity(string(a.Severity))
	return a
}
