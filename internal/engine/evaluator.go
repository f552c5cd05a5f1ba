package engine

import (
	"fmt"
	"math"

	"PortWatch/internal/domain/models"
	"PortWatch/internal/rules"
)

// eps guards the strict comparisons against float noise; "at" means equal
// within eps.
const eps = 1e-9

// Facts is everything known about one holding at evaluation time. Nil
// indicator or earnings inputs mean the rules reading them stay silent.
type Facts struct {
	Holding      models.Holding
	Snapshot     models.IndicatorSnapshot
	PrevMACDHist *float64
	Earnings     *models.EarningsRecord
}

// evaluateRule applies one rule to one holding's facts. The second return is
// false when the rule does not apply, did not fire, or its input was
// unavailable; missing inputs never fire and never error.
func evaluateRule(set *rules.Set, r models.RuleDefinition, f Facts) (models.Alert, bool) {
	if !r.AppliesTo(f.Holding.Region) {
		return models.Alert{}, false
	}
	if r.Method == models.MethodDeltaSign {
		return evaluateCross(r, f)
	}

	value := metricValue(r.Metric, f)
	if value == nil {
		return models.Alert{}, false
	}
	threshold, err := set.Threshold(r.ID, f.Holding.Classification, f.Holding.Tier)
	if err != nil {
		return models.Alert{}, false
	}
	if !compare(r.Logic, *value, threshold) {
		return models.Alert{}, false
	}

	sev := r.Severity
	if escalated(r, *value, threshold) {
		sev = models.SeverityCritical
	}
	return models.Alert{
		Symbol:   f.Holding.Symbol,
		RuleID:   r.ID,
		Severity: sev,
		Message:  r.Message,
		Details:  details(r.Metric, f, *value, threshold),
		Region:   f.Holding.Region,
	}, true
}

// evaluateCross fires on a MACD histogram sign change: above means the
// histogram turned positive on the latest bar, below means it turned
// negative. Both the current and prior histogram must be available.
func evaluateCross(r models.RuleDefinition, f Facts) (models.Alert, bool) {
	cur, prev := f.Snapshot.MACDHist, f.PrevMACDHist
	if cur == nil || prev == nil {
		return models.Alert{}, false
	}

	var fired bool
	switch r.Logic {
	case models.OpAbove:
		fired = *cur > 0 && *prev <= 0
	case models.OpBelow:
		fired = *cur < 0 && *prev >= 0
	}
	if !fired {
		return models.Alert{}, false
	}
	return models.Alert{
		Symbol:   f.Holding.Symbol,
		RuleID:   r.ID,
		Severity: r.Severity,
		Message:  r.Message,
		Details:  fmt.Sprintf("MACD histogram moved from %.3f to %.3f", *prev, *cur),
		Region:   f.Holding.Region,
	}, true
}

func metricValue(m models.Metric, f Facts) *float64 {
	switch m {
	case models.MetricRSI:
		return f.Snapshot.RSI14
	case models.MetricMACDHist:
		return f.Snapshot.MACDHist
	case models.MetricPctBelowHigh:
		return f.Snapshot.PctBelow52wHigh
	case models.MetricPctBelowMA200:
		return pctBelowMA200(f.Snapshot)
	case models.MetricReturn90d:
		return f.Snapshot.Return90d
	case models.MetricRelReturn90d:
		return f.Snapshot.RelReturn90d
	case models.MetricWeight:
		w := f.Holding.Weight
		return &w
	case models.MetricEarningsScore:
		if f.Earnings == nil {
			return nil
		}
		s := float64(f.Earnings.Score)
		return &s
	default:
		return nil
	}
}

func pctBelowMA200(s models.IndicatorSnapshot) *float64 {
	if s.MA200 == nil || *s.MA200 == 0 {
		return nil
	}
	v := (*s.MA200 - s.Close) / *s.MA200 * 100
	return &v
}

func compare(op models.CompareOp, value, threshold float64) bool {
	switch op {
	case models.OpBelow:
		return value < threshold-eps
	case models.OpAbove:
		return value > threshold+eps
	case models.OpAt:
		return math.Abs(value-threshold) <= eps
	default:
		return false
	}
}

// escalated reports whether the breach runs beyond the rule's declared
// escalation multiple of the threshold. Rules without a multiplier keep
// their configured severity regardless of breach size.
func escalated(r models.RuleDefinition, value, threshold float64) bool {
	if r.EscalateAt <= 0 || threshold <= 0 {
		return false
	}
	switch r.Logic {
	case models.OpAbove:
		return value > r.EscalateAt*threshold
	case models.OpBelow:
		return value < threshold/r.EscalateAt
	default:
		return false
	}
}

func details(m models.Metric, f Facts, value, threshold float64) string {
	switch m {
	case models.MetricRSI:
		return fmt.Sprintf("Current RSI(14): %.1f, Threshold: %g", value, threshold)
	case models.MetricPctBelowHigh:
		return fmt.Sprintf("%.1f%% below 52-week high, threshold %g%%", value, threshold)
	case models.MetricPctBelowMA200:
		return fmt.Sprintf("%.1f%% below 200-day MA, threshold %g%%", value, threshold)
	case models.MetricReturn90d:
		return fmt.Sprintf("90-day return %.1f%%, threshold %g%%", value, threshold)
	case models.MetricRelReturn90d:
		return fmt.Sprintf("90-day return vs benchmark %.1f%%, threshold %g%%", value, threshold)
	case models.MetricWeight:
		return fmt.Sprintf("%.1f%% vs %.1f%% max", value*100, threshold*100)
	case models.MetricEarningsScore:
		category := ""
		if f.Earnings != nil {
			category = f.Earnings.Category
		}
		return fmt.Sprintf("Earnings score %d (%s), threshold %g", int(value), category, threshold)
	default:
		return fmt.Sprintf("value %.2f, threshold %g", value, threshold)
	}
}
