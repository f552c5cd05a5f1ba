package models

// GuidanceDirection is the company's forward guidance move for a quarter.
type GuidanceDirection string

const (
	GuidanceIncreased  GuidanceDirection = "Increased"
	GuidanceMaintained GuidanceDirection = "Maintained"
	GuidanceDecreased  GuidanceDirection = "Decreased"
)

// Surprise statuses for EPS and revenue, derived from actual vs estimate.
const (
	EPSBeat   = "Beat"
	EPSMiss   = "Miss"
	EPSInLine = "In-Line"

	RevenueUp   = "Up"
	RevenueFlat = "Flat"
	RevenueDown = "Down"
)

// Earnings score categories, the coarse 3-bucket view of the 1..10 score.
const (
	EarningsGood = "Good"
	EarningsOkay = "Okay"
	EarningsBad  = "Bad"
)

// EarningsRecord is one quarter's earnings result for a symbol. One row per
// (symbol, fiscal year, quarter), upserted on refresh. Actual/estimate
// fields are nil when the provider had no figure. Score, Category and Note
// are derived by the earnings scorer.
type EarningsRecord struct {
	Symbol        string  `json:"symbol"`
	FiscalYear    int     `json:"fiscal_year"`
	FiscalQuarter int     `json:"fiscal_quarter"`

	EPSActual       *float64 `json:"eps_actual,omitempty"`
	EPSEstimate     *float64 `json:"eps_estimate,omitempty"`
	RevenueActual   *float64 `json:"revenue_actual,omitempty"`
	RevenueEstimate *float64 `json:"revenue_estimate,omitempty"`

	Guidance    GuidanceDirection `json:"guidance"`
	ReactionPct float64           `json:"reaction_pct"` // post-earnings price move, percent

	Score    int    `json:"score"` // 1..10
	Category string `json:"category"`
	Note     string `json:"note"`
}
