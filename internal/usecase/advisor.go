package usecase

import (
	"context"
	"fmt"
	"time"

	"PortWatch/internal/domain/models"
	domrepo "PortWatch/internal/domain/repository"
	domsvc "PortWatch/internal/domain/service"
	"PortWatch/internal/engine"
	"PortWatch/internal/rules"
	"PortWatch/internal/services/earnings"
	"PortWatch/internal/services/indicators"
	"PortWatch/pkg/cache"
	applogger "PortWatch/pkg/logger"
	"PortWatch/pkg/util"
)

// AdvisorConfig carries the evaluation settings the use case needs.
type AdvisorConfig struct {
	Regions      []models.Region
	Benchmarks   map[models.Region]string // region -> index symbol
	LookbackDays int
	ReportTTL    time.Duration
	SnapshotTTL  time.Duration
	HoldingsTTL  time.Duration
}

// AdvisorUseCase drives engine runs and serves their results. Reports are
// cached per scope; a cache miss triggers a fresh run.
type AdvisorUseCase struct {
	cfg       AdvisorConfig
	holdings  domrepo.HoldingStore
	prices    domrepo.PriceStore
	earnings  domrepo.EarningsStore
	engine    domsvc.AlertEngine
	set       *rules.Set
	cache     cache.Service
	publisher domrepo.AlertPublisher
	metrics   domrepo.Metrics
	l         *applogger.Logger
}

func NewAdvisorUseCase(
	cfg AdvisorConfig,
	holdings domrepo.HoldingStore,
	prices domrepo.PriceStore,
	earningsStore domrepo.EarningsStore,
	eng domsvc.AlertEngine,
	set *rules.Set,
	cacheSvc cache.Service,
	publisher domrepo.AlertPublisher,
	metrics domrepo.Metrics,
	l *applogger.Logger,
) *AdvisorUseCase {
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 400
	}
	return &AdvisorUseCase{
		cfg:       cfg,
		holdings:  holdings,
		prices:    prices,
		earnings:  earningsStore,
		engine:    eng,
		set:       set,
		cache:     cacheSvc,
		publisher: publisher,
		metrics:   metrics,
		l:         l,
	}
}

// ScopeAll is the merged cross-region scope name.
const ScopeAll = "all"

func reportKey(scope string) string { return cache.GenerateKey("report", scope) }

// snapshot keys are day-scoped so a new trading day never serves yesterday's
// indicators past their TTL
func snapshotKey(symbol string) string {
	return cache.GenerateKey("snapshot", symbol+":"+util.DayString(time.Now().UTC()))
}
func holdingsKey(region models.Region) string {
	return cache.GenerateKey("holdings", string(region))
}

// RunRegion evaluates one region's holdings, caches the report under the
// region scope, and publishes the alerts downstream. Publish failures are
// logged, not returned: the report is still good.
func (uc *AdvisorUseCase) RunRegion(ctx context.Context, region models.Region) (models.Report, error) {
	if !models.IsValidRegion(region) {
		return models.Report{}, fmt.Errorf("unknown region %q", region)
	}
	start := time.Now()
	scope := string(region)

	in, err := uc.buildInput(ctx, region)
	if err != nil {
		uc.metrics.RecordError("build_input")
		return models.Report{}, err
	}

	rep, err := uc.engine.Evaluate(ctx, in)
	if err != nil {
		uc.metrics.RecordError("evaluate")
		return models.Report{}, fmt.Errorf("evaluate %s: %w", scope, err)
	}
	if rep.AsOf.IsZero() {
		rep.AsOf = time.Now().UTC()
	}

	uc.metrics.RecordRun(scope)
	uc.metrics.RecordSkips(scope, len(rep.Skipped))
	for _, sev := range []models.Severity{models.SeverityCritical, models.SeverityWarning, models.SeverityInfo} {
		n := 0
		for _, a := range rep.Alerts {
			if a.Severity == sev {
				n++
			}
		}
		if n > 0 {
			uc.metrics.RecordAlerts(scope, sev, n)
		}
	}
	uc.metrics.RecordLatency("engine_run", time.Since(start).Seconds())

	if err := uc.cache.Set(ctx, reportKey(scope), rep, uc.cfg.ReportTTL); err != nil && uc.l != nil {
		uc.l.Warn("report cache set failed", applogger.String("scope", scope), applogger.Error(err))
	}
	if uc.publisher != nil {
		if err := uc.publisher.PublishReport(ctx, rep); err != nil {
			uc.metrics.RecordError("publish")
			if uc.l != nil {
				uc.l.Error("alert publish failed", applogger.String("scope", scope), applogger.Error(err))
			}
		}
	}

	if uc.l != nil {
		uc.l.Info("engine run complete",
			applogger.String("scope", scope),
			applogger.Int("holdings", len(in.Holdings)),
			applogger.Int("alerts", len(rep.Alerts)),
			applogger.Int("skipped", len(rep.Skipped)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return rep, nil
}

// RunAll evaluates every configured region and merges the reports into the
// "all" scope. Per-region reports are cached and published along the way;
// the merged report is cached only.
func (uc *AdvisorUseCase) RunAll(ctx context.Context) (models.Report, error) {
	merged := models.Report{Scope: ScopeAll}
	var alerts []models.Alert
	for _, region := range uc.cfg.Regions {
		rep, err := uc.RunRegion(ctx, region)
		if err != nil {
			return models.Report{}, err
		}
		alerts = append(alerts, rep.Alerts...)
		merged.Skipped = append(merged.Skipped, rep.Skipped...)
		if rep.AsOf.After(merged.AsOf) {
			merged.AsOf = rep.AsOf
		}
	}
	merged.Alerts = engine.Aggregate(alerts)

	if err := uc.cache.Set(ctx, reportKey(ScopeAll), merged, uc.cfg.ReportTTL); err != nil && uc.l != nil {
		uc.l.Warn("report cache set failed", applogger.String("scope", ScopeAll), applogger.Error(err))
	}
	return merged, nil
}

// LatestReport returns the cached report for a scope, running a fresh
// evaluation on a miss.
func (uc *AdvisorUseCase) LatestReport(ctx context.Context, scope string) (models.Report, error) {
	var rep models.Report
	if err := uc.cache.Get(ctx, reportKey(scope), &rep); err == nil {
		return rep, nil
	}

	if scope == ScopeAll {
		return uc.RunAll(ctx)
	}
	return uc.RunRegion(ctx, models.Region(scope))
}

// Rules returns the active decision matrix in evaluation order.
func (uc *AdvisorUseCase) Rules() []models.RuleDefinition {
	return uc.set.All()
}

// Snapshot computes (or serves from cache) the indicator snapshot for one
// symbol, using the region's benchmark for relative performance.
func (uc *AdvisorUseCase) Snapshot(ctx context.Context, symbol string, region models.Region) (models.IndicatorSnapshot, error) {
	if symbol == "" {
		return models.IndicatorSnapshot{}, fmt.Errorf("symbol required")
	}

	var snap models.IndicatorSnapshot
	if err := uc.cache.Get(ctx, snapshotKey(symbol), &snap); err == nil {
		return snap, nil
	}

	bars, err := uc.prices.LatestBars(ctx, symbol, uc.cfg.LookbackDays)
	if err != nil {
		return models.IndicatorSnapshot{}, fmt.Errorf("bars for %s: %w", symbol, err)
	}
	snap = indicators.BuildSnapshot(symbol, bars, uc.benchmarkBars(ctx, region))

	if err := uc.cache.Set(ctx, snapshotKey(symbol), snap, uc.cfg.SnapshotTTL); err != nil && uc.l != nil {
		uc.l.Warn("snapshot cache set failed", applogger.String("symbol", symbol), applogger.Error(err))
	}
	return snap, nil
}

// Holdings returns the current holdings set for a region.
func (uc *AdvisorUseCase) Holdings(ctx context.Context, region models.Region) ([]models.Holding, error) {
	if !models.IsValidRegion(region) {
		return nil, fmt.Errorf("unknown region %q", region)
	}

	var hs []models.Holding
	if err := uc.cache.Get(ctx, holdingsKey(region), &hs); err == nil {
		return hs, nil
	}
	hs, err := uc.holdings.ListByRegion(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("holdings %s: %w", region, err)
	}
	if err := uc.cache.Set(ctx, holdingsKey(region), hs, uc.cfg.HoldingsTTL); err != nil && uc.l != nil {
		uc.l.Warn("holdings cache set failed", applogger.String("region", string(region)), applogger.Error(err))
	}
	return hs, nil
}

// ImportHoldings replaces a region's holdings wholesale and invalidates the
// caches the stale set could leak through.
func (uc *AdvisorUseCase) ImportHoldings(ctx context.Context, region models.Region, holdings []models.Holding) error {
	if !models.IsValidRegion(region) {
		return fmt.Errorf("unknown region %q", region)
	}
	if err := uc.holdings.ReplaceRegion(ctx, region, holdings); err != nil {
		return fmt.Errorf("replace holdings %s: %w", region, err)
	}
	if err := uc.cache.Delete(ctx, holdingsKey(region), reportKey(string(region)), reportKey(ScopeAll)); err != nil && uc.l != nil {
		uc.l.Warn("cache invalidation failed", applogger.String("region", string(region)), applogger.Error(err))
	}
	return nil
}

// ImportEarnings scores a raw earnings record and stores the result. The
// returned record carries the derived score, category and note.
func (uc *AdvisorUseCase) ImportEarnings(ctx context.Context, rec models.EarningsRecord) (models.EarningsRecord, error) {
	if rec.Symbol == "" {
		return models.EarningsRecord{}, fmt.Errorf("symbol required")
	}
	scored := earnings.Score(rec)
	if err := uc.earnings.Upsert(ctx, scored); err != nil {
		return models.EarningsRecord{}, fmt.Errorf("store earnings: %w", err)
	}
	return scored, nil
}

// Health reports whether the backing stores are reachable.
func (uc *AdvisorUseCase) Health(ctx context.Context) error {
	return uc.prices.Health(ctx)
}

// buildInput assembles everything one region evaluation reads. A symbol
// whose bars cannot be fetched still evaluates against its portfolio rules.
func (uc *AdvisorUseCase) buildInput(ctx context.Context, region models.Region) (domsvc.EvalInput, error) {
	holdings, err := uc.holdings.ListByRegion(ctx, region)
	if err != nil {
		return domsvc.EvalInput{}, fmt.Errorf("holdings %s: %w", region, err)
	}

	in := domsvc.EvalInput{
		Scope:      string(region),
		Holdings:   holdings,
		Prices:     make(map[string][]models.PricePoint, len(holdings)),
		Benchmarks: make(map[models.Region][]models.PricePoint, 1),
		Earnings:   make(map[string]models.EarningsRecord, len(holdings)),
	}

	seen := make(map[string]bool, len(holdings))
	for _, h := range holdings {
		if seen[h.Symbol] {
			continue
		}
		seen[h.Symbol] = true

		bars, err := uc.prices.LatestBars(ctx, h.Symbol, uc.cfg.LookbackDays)
		if err != nil {
			// portfolio and earnings rules still run for this holding
			uc.metrics.RecordError("price_fetch")
			if uc.l != nil {
				uc.l.Warn("price history unavailable", applogger.String("symbol", h.Symbol), applogger.Error(err))
			}
		} else {
			in.Prices[h.Symbol] = bars
		}

		rec, err := uc.earnings.Latest(ctx, h.Symbol)
		if err != nil {
			uc.metrics.RecordError("earnings_fetch")
			if uc.l != nil {
				uc.l.Warn("earnings unavailable", applogger.String("symbol", h.Symbol), applogger.Error(err))
			}
			continue
		}
		if rec != nil {
			in.Earnings[h.Symbol] = *rec
		}
	}

	if bench := uc.benchmarkBars(ctx, region); bench != nil {
		in.Benchmarks[region] = bench
	}
	return in, nil
}

func (uc *AdvisorUseCase) benchmarkBars(ctx context.Context, region models.Region) []models.PricePoint {
	symbol, ok := uc.cfg.Benchmarks[region]
	if !ok || symbol == "" {
		return nil
	}
	bars, err := uc.prices.LatestBars(ctx, symbol, uc.cfg.LookbackDays)
	if err != nil {
		uc.metrics.RecordError("benchmark_fetch")
		if uc.l != nil {
			uc.l.Warn("benchmark history unavailable", applogger.String("symbol", symbol), applogger.Error(err))
		}
		return nil
	}
	return bars
}
