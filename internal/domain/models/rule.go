package models

// ActionType is the alert category a rule belongs to.
type ActionType string

const (
	ActionIncrease ActionType = "increase"
	ActionDecrease ActionType = "decrease"
	ActionRating   ActionType = "rating"
)

// IsValidAction returns true if a is a supported action type.
func IsValidAction(a ActionType) bool {
	switch a {
	case ActionIncrease, ActionDecrease, ActionRating:
		return true
	default:
		return false
	}
}

// DataSource names the input a rule reads its value from.
type DataSource string

const (
	SourcePrices    DataSource = "historical_prices"
	SourceRSI       DataSource = "rsi_data"
	SourceMACD      DataSource = "macd_data"
	SourceIndices   DataSource = "market_indices"
	SourcePortfolio DataSource = "portfolio"
	SourceEarnings  DataSource = "earnings"
)

// Metric names the scalar a rule reads once its data source is resolved.
type Metric string

const (
	MetricRSI           Metric = "rsi_14"
	MetricMACDHist      Metric = "macd_hist"
	MetricPctBelowHigh  Metric = "pct_below_52wk_high"
	MetricPctBelowMA200 Metric = "pct_below_ma200"
	MetricReturn90d     Metric = "return_90d"
	MetricRelReturn90d  Metric = "rel_return_90d"
	MetricWeight        Metric = "weight"
	MetricEarningsScore Metric = "earnings_score"
)

// EvalMethod selects how the rule's value is derived from its data source.
type EvalMethod string

const (
	MethodValue     EvalMethod = "value"      // raw indicator or holding value
	MethodPercent   EvalMethod = "percent"    // percentage quantity (returns, MA distance)
	MethodDeltaSign EvalMethod = "delta-sign" // sign of MACD histogram, no threshold
	MethodProximity EvalMethod = "proximity"  // percent below the 52-week high
)

// CompareOp is the comparison a rule applies between value and threshold.
type CompareOp string

const (
	OpBelow CompareOp = "below"
	OpAbove CompareOp = "above"
	OpAt    CompareOp = "at"
)

// RuleDefinition is one row of the decision matrix. Thresholds are keyed by
// classification then tier; rules using MethodDeltaSign carry no thresholds.
// Order controls evaluation order and is part of the deterministic output
// contract. EscalateAt, when positive, escalates severity to critical for a
// breach beyond EscalateAt times the threshold; rules without an explicit
// escalation multiplier keep their declared severity.
type RuleDefinition struct {
	ID         string                             `yaml:"id" json:"id"`
	Action     ActionType                         `yaml:"action" json:"action"`
	Source     DataSource                         `yaml:"source" json:"source"`
	Metric     Metric                             `yaml:"metric" json:"metric"`
	Method     EvalMethod                         `yaml:"method" json:"method"`
	Logic      CompareOp                          `yaml:"logic" json:"logic"`
	Severity   Severity                           `yaml:"severity" json:"severity"`
	EscalateAt float64                            `yaml:"escalate_at" json:"escalate_at,omitempty"`
	Order      int                                `yaml:"order" json:"order"`
	Message    string                             `yaml:"message" json:"message"`
	Regions    []Region                           `yaml:"regions" json:"regions,omitempty"` // empty = all regions
	Thresholds map[Classification]map[int]float64 `yaml:"thresholds" json:"thresholds,omitempty"`
}

// AppliesTo returns true if the rule is active for the holding's region.
func (r RuleDefinition) AppliesTo(region Region) bool {
	if len(r.Regions) == 0 {
		return true
	}
	for _, reg := range r.Regions {
		if reg == region {
			return true
		}
	}
	return false
}
