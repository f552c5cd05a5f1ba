package repository

import (
	"context"

	"PortWatch/internal/domain/models"
)

// PriceStore provides daily bars for the indicator pipeline and accepts
// ingested bars. Series come back ascending by date with one bar per
// (symbol, date).
type PriceStore interface {
	LatestBars(ctx context.Context, symbol string, n int) ([]models.PricePoint, error)
	StoreBars(ctx context.Context, bars []models.PricePoint) error
	Health(ctx context.Context) error
}

// HoldingStore provides the per-region holdings set. Re-imports replace the
// region's set wholesale.
type HoldingStore interface {
	ListByRegion(ctx context.Context, region models.Region) ([]models.Holding, error)
	ReplaceRegion(ctx context.Context, region models.Region, holdings []models.Holding) error
}

// EarningsStore provides the latest processed earnings record per symbol.
type EarningsStore interface {
	Latest(ctx context.Context, symbol string) (*models.EarningsRecord, error)
	Upsert(ctx context.Context, rec models.EarningsRecord) error
}

// AlertPublisher pushes a finished report to downstream consumers.
type AlertPublisher interface {
	PublishReport(ctx context.Context, report models.Report) error
	Close() error
}

// Metrics records engine and ingest observability counters.
type Metrics interface {
	RecordRun(scope string)
	RecordAlerts(scope string, severity models.Severity, n int)
	RecordSkips(scope string, n int)
	RecordBarIngested(symbol string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
