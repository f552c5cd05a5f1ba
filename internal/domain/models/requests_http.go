package models

// Requests for the advisory HTTP endpoints. Defined in domain for
// consistency and reuse.

type AlertsRequest struct {
	Region string `query:"region" json:"region" default:"US" validate:"oneof=US EU INTL all"`
	Limit  int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
}

type EvaluateRequest struct {
	Region string `query:"region" json:"region" default:"all" validate:"oneof=US EU INTL all"`
}

type RulesRequest struct {
	Action string `query:"action" json:"action" validate:"omitempty,oneof=increase decrease rating"`
}

type SnapshotRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	Region string `query:"region" json:"region" default:"US" validate:"oneof=US EU INTL"`
}

type HoldingsRequest struct {
	Region string `query:"region" json:"region" default:"US" validate:"oneof=US EU INTL"`
}

type ImportHoldingsRequest struct {
	Region   string    `json:"region" validate:"required,oneof=US EU INTL"`
	Holdings []Holding `json:"holdings" validate:"required,min=1"`
}

type ImportEarningsRequest struct {
	Symbol          string   `json:"symbol" validate:"required"`
	FiscalYear      int      `json:"fiscal_year" validate:"required,gte=2000,lte=2100"`
	FiscalQuarter   int      `json:"fiscal_quarter" validate:"required,gte=1,lte=4"`
	EPSActual       *float64 `json:"eps_actual"`
	EPSEstimate     *float64 `json:"eps_estimate"`
	RevenueActual   *float64 `json:"revenue_actual"`
	RevenueEstimate *float64 `json:"revenue_estimate"`
	Guidance        string   `json:"guidance" default:"Maintained" validate:"oneof=Increased Maintained Decreased"`
	ReactionPct     float64  `json:"reaction_pct"`
}
