package rules

import (
	"fmt"
	"sort"

	"PortWatch/internal/domain/models"
)

// Set is the validated, read-only decision matrix the evaluator consults.
// Construct via New (or Load); both fail loudly on a table that is missing a
// threshold for any classification/tier combination an active rule needs.
type Set struct {
	rules []models.RuleDefinition
	byID  map[string]models.RuleDefinition
}

// New validates definitions and returns an immutable Set with rules ordered
// by ascending order number.
func New(defs []models.RuleDefinition) (*Set, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("rule set is empty")
	}

	byID := make(map[string]models.RuleDefinition, len(defs))
	for _, r := range defs {
		if err := validateRule(r); err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.ID, err)
		}
		if _, dup := byID[r.ID]; dup {
			return nil, fmt.Errorf("rule %q: duplicate id", r.ID)
		}
		byID[r.ID] = r
	}

	ordered := make([]models.RuleDefinition, len(defs))
	copy(ordered, defs)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Order != ordered[j].Order {
			return ordered[i].Order < ordered[j].Order
		}
		return ordered[i].ID < ordered[j].ID
	})

	return &Set{rules: ordered, byID: byID}, nil
}

func validateRule(r models.RuleDefinition) error {
	if r.ID == "" {
		return fmt.Errorf("missing id")
	}
	if !models.IsValidAction(r.Action) {
		return fmt.Errorf("unknown action %q", r.Action)
	}
	switch r.Source {
	case models.SourcePrices, models.SourceRSI, models.SourceMACD,
		models.SourceIndices, models.SourcePortfolio, models.SourceEarnings:
	default:
		return fmt.Errorf("unknown data source %q", r.Source)
	}
	if err := validateMetric(r); err != nil {
		return err
	}
	switch r.Method {
	case models.MethodValue, models.MethodPercent, models.MethodProximity:
	case models.MethodDeltaSign:
		// sign rules carry no thresholds
		return validateSeverity(r)
	default:
		return fmt.Errorf("unknown evaluation method %q", r.Method)
	}
	switch r.Logic {
	case models.OpBelow, models.OpAbove, models.OpAt:
	default:
		return fmt.Errorf("unknown comparison %q", r.Logic)
	}

	// A lookup miss at evaluation time is a configuration error, so the
	// full classification x tier grid must resolve up front.
	for _, class := range models.AllClassifications() {
		tiers, ok := r.Thresholds[class]
		if !ok {
			return fmt.Errorf("no thresholds for classification %s", class)
		}
		for tier := 1; tier <= models.MaxTier; tier++ {
			if _, ok := tiers[tier]; !ok {
				return fmt.Errorf("no threshold for %s tier %d", class, tier)
			}
		}
	}
	return validateSeverity(r)
}

// metricsBySource pins each data source to the scalars it can supply, so a
// mismatched table entry fails at load instead of silently never firing.
var metricsBySource = map[models.DataSource][]models.Metric{
	models.SourcePrices:    {models.MetricPctBelowHigh, models.MetricPctBelowMA200, models.MetricReturn90d},
	models.SourceRSI:       {models.MetricRSI},
	models.SourceMACD:      {models.MetricMACDHist},
	models.SourceIndices:   {models.MetricRelReturn90d},
	models.SourcePortfolio: {models.MetricWeight},
	models.SourceEarnings:  {models.MetricEarningsScore},
}

func validateMetric(r models.RuleDefinition) error {
	allowed, ok := metricsBySource[r.Source]
	if !ok {
		return fmt.Errorf("unknown data source %q", r.Source)
	}
	for _, m := range allowed {
		if r.Metric == m {
			return nil
		}
	}
	return fmt.Errorf("metric %q does not belong to data source %q", r.Metric, r.Source)
}

func validateSeverity(r models.RuleDefinition) error {
	switch r.Severity {
	case models.SeverityCritical, models.SeverityWarning, models.SeverityInfo:
		return nil
	default:
		return fmt.Errorf("unknown severity %q", r.Severity)
	}
}

// All returns every rule in evaluation order.
func (s *Set) All() []models.RuleDefinition {
	return s.rules
}

// ByAction returns the rules of one action-type bucket in evaluation order.
// This is a pure read used by reporting layers.
func (s *Set) ByAction(action models.ActionType) []models.RuleDefinition {
	out := make([]models.RuleDefinition, 0, len(s.rules))
	for _, r := range s.rules {
		if r.Action == action {
			out = append(out, r)
		}
	}
	return out
}

// Get returns a rule by id.
func (s *Set) Get(id string) (models.RuleDefinition, bool) {
	r, ok := s.byID[id]
	return r, ok
}

// Threshold resolves the numeric threshold for a rule under the given
// classification and tier. New guarantees every combination resolves for
// threshold-carrying rules, so an error here means the caller asked for a
// sign rule's threshold or an unknown rule.
func (s *Set) Threshold(ruleID string, class models.Classification, tier int) (float64, error) {
	r, ok := s.byID[ruleID]
	if !ok {
		return 0, fmt.Errorf("unknown rule %q", ruleID)
	}
	if r.Method == models.MethodDeltaSign {
		return 0, fmt.Errorf("rule %q is a sign rule and has no threshold", ruleID)
	}
	v, ok := r.Thresholds[class][tier]
	if !ok {
		return 0, fmt.Errorf("no threshold for rule %q, %s tier %d", ruleID, class, tier)
	}
	return v, nil
}
