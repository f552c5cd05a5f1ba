package service

import (
	"context"

	"PortWatch/internal/domain/models"
)

// EvalInput is everything one engine run reads. Benchmarks carry the region
// index series used for relative-performance rules, keyed by region.
type EvalInput struct {
	Scope      string
	Holdings   []models.Holding
	Prices     map[string][]models.PricePoint
	Benchmarks map[models.Region][]models.PricePoint
	Earnings   map[string]models.EarningsRecord
}

// AlertEngine evaluates a holdings set against the decision matrix. It is a
// stateless pure function of its input: repeated calls yield identical
// ordered reports.
type AlertEngine interface {
	Evaluate(ctx context.Context, in EvalInput) (models.Report, error)
}
