package models

import "time"

// Severity ranks an alert. Ordering is critical > warning > info.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Rank maps severity to a sortable weight; unknown severities rank lowest.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// Alert is one advisory produced by an engine run. Alerts are ephemeral: a
// run replaces the prior alert set for its scope.
type Alert struct {
	Symbol   string   `json:"symbol"`
	RuleID   string   `json:"rule_id"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Details  string   `json:"details"`
	Region   Region   `json:"region"`
}

// Skip records a holding that could not be evaluated and why.
type Skip struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// Report is the result of one engine run: the ordered alert list plus the
// holdings that were skipped, for observability by the caller.
type Report struct {
	Scope   string    `json:"scope"` // region name or "all"
	AsOf    time.Time `json:"as_of"`
	Alerts  []Alert   `json:"alerts"`
	Skipped []Skip    `json:"skipped,omitempty"`
}
