package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"PortWatch/internal/domain/models"
	"PortWatch/internal/engine"
	"PortWatch/internal/rules"
	"PortWatch/pkg/cache"
)

type fakeHoldingStore struct {
	byRegion  map[models.Region][]models.Holding
	listCalls int
}

func (f *fakeHoldingStore) ListByRegion(_ context.Context, region models.Region) ([]models.Holding, error) {
	f.listCalls++
	return f.byRegion[region], nil
}

func (f *fakeHoldingStore) ReplaceRegion(_ context.Context, region models.Region, hs []models.Holding) error {
	f.byRegion[region] = hs
	return nil
}

type fakePriceStore struct {
	bars    map[string][]models.PricePoint
	stored  []models.PricePoint
	healthy bool
}

func (f *fakePriceStore) LatestBars(_ context.Context, symbol string, _ int) ([]models.PricePoint, error) {
	bars, ok := f.bars[symbol]
	if !ok {
		return nil, fmt.Errorf("no history for %s", symbol)
	}
	return bars, nil
}

func (f *fakePriceStore) StoreBars(_ context.Context, bars []models.PricePoint) error {
	f.stored = append(f.stored, bars...)
	return nil
}

func (f *fakePriceStore) Health(context.Context) error {
	if !f.healthy {
		return fmt.Errorf("store down")
	}
	return nil
}

type fakeEarningsStore struct {
	records map[string]models.EarningsRecord
}

func (f *fakeEarningsStore) Latest(_ context.Context, symbol string) (*models.EarningsRecord, error) {
	rec, ok := f.records[symbol]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (f *fakeEarningsStore) Upsert(_ context.Context, rec models.EarningsRecord) error {
	key := rec.Symbol
	if f.records == nil {
		f.records = make(map[string]models.EarningsRecord)
	}
	f.records[key] = rec
	return nil
}

type fakePublisher struct {
	published []models.Report
	closed    bool
}

func (f *fakePublisher) PublishReport(_ context.Context, rep models.Report) error {
	f.published = append(f.published, rep)
	return nil
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

type nopMetrics struct{}

func (nopMetrics) RecordRun(string)                          {}
func (nopMetrics) RecordAlerts(string, models.Severity, int) {}
func (nopMetrics) RecordSkips(string, int)                   {}
func (nopMetrics) RecordBarIngested(string)                  {}
func (nopMetrics) RecordError(string)                        {}
func (nopMetrics) RecordLatency(string, float64)             {}

func newTestAdvisor(t *testing.T, holdings *fakeHoldingStore, prices *fakePriceStore, earn *fakeEarningsStore, pub *fakePublisher) *AdvisorUseCase {
	t.Helper()
	set, err := rules.New(rules.Defaults())
	if err != nil {
		t.Fatalf("rules.New: %v", err)
	}
	cfg := AdvisorConfig{
		Regions:   []models.Region{models.RegionUS, models.RegionEU},
		ReportTTL: time.Minute,
	}
	return NewAdvisorUseCase(cfg, holdings, prices, earn, engine.New(set), set, cache.NewMemoryCache(), pub, nopMetrics{}, nil)
}

func overweightHolding(symbol string, region models.Region) models.Holding {
	return models.Holding{
		Symbol:         symbol,
		Region:         region,
		Classification: models.ClassCompounder,
		Tier:           1,
		Weight:         0.12,
		Quantity:       100,
		BookPrice:      50,
	}
}

func TestRunRegionPublishesAndCaches(t *testing.T) {
	holdings := &fakeHoldingStore{byRegion: map[models.Region][]models.Holding{
		models.RegionUS: {overweightHolding("AAPL", models.RegionUS)},
	}}
	prices := &fakePriceStore{bars: map[string][]models.PricePoint{}}
	pub := &fakePublisher{}
	uc := newTestAdvisor(t, holdings, prices, &fakeEarningsStore{}, pub)

	rep, err := uc.RunRegion(context.Background(), models.RegionUS)
	if err != nil {
		t.Fatalf("RunRegion: %v", err)
	}
	if rep.Scope != "US" {
		t.Errorf("scope = %q, want US", rep.Scope)
	}
	// 0.12 weight breaches the 0.08 Compounder cap even with no price history
	found := false
	for _, a := range rep.Alerts {
		if a.RuleID == "max-weight" && a.Symbol == "AAPL" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected max-weight alert for AAPL, got %+v", rep.Alerts)
	}
	if len(pub.published) != 1 {
		t.Fatalf("published %d reports, want 1", len(pub.published))
	}

	// second read must come from cache, not a fresh store scan
	calls := holdings.listCalls
	if _, err := uc.LatestReport(context.Background(), "US"); err != nil {
		t.Fatalf("LatestReport: %v", err)
	}
	if holdings.listCalls != calls {
		t.Errorf("LatestReport hit the store, want cached report")
	}
}

func TestRunRegionRejectsUnknownRegion(t *testing.T) {
	uc := newTestAdvisor(t, &fakeHoldingStore{byRegion: map[models.Region][]models.Holding{}}, &fakePriceStore{}, &fakeEarningsStore{}, &fakePublisher{})
	if _, err := uc.RunRegion(context.Background(), "ASIA"); err == nil {
		t.Fatal("expected error for unknown region")
	}
}

func TestRunAllMergesRegions(t *testing.T) {
	holdings := &fakeHoldingStore{byRegion: map[models.Region][]models.Holding{
		models.RegionUS: {overweightHolding("AAPL", models.RegionUS)},
		models.RegionEU: {overweightHolding("ASML", models.RegionEU)},
	}}
	uc := newTestAdvisor(t, holdings, &fakePriceStore{bars: map[string][]models.PricePoint{}}, &fakeEarningsStore{}, &fakePublisher{})

	rep, err := uc.RunAll(context.Background())
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if rep.Scope != ScopeAll {
		t.Errorf("scope = %q, want %q", rep.Scope, ScopeAll)
	}
	symbols := map[string]bool{}
	for _, a := range rep.Alerts {
		symbols[a.Symbol] = true
	}
	if !symbols["AAPL"] || !symbols["ASML"] {
		t.Errorf("merged report missing regions: %+v", rep.Alerts)
	}
}

func TestImportHoldingsInvalidatesReport(t *testing.T) {
	holdings := &fakeHoldingStore{byRegion: map[models.Region][]models.Holding{
		models.RegionUS: {overweightHolding("AAPL", models.RegionUS)},
	}}
	uc := newTestAdvisor(t, holdings, &fakePriceStore{bars: map[string][]models.PricePoint{}}, &fakeEarningsStore{}, &fakePublisher{})

	if _, err := uc.RunRegion(context.Background(), models.RegionUS); err != nil {
		t.Fatalf("RunRegion: %v", err)
	}

	slim := overweightHolding("MSFT", models.RegionUS)
	slim.Weight = 0.02
	if err := uc.ImportHoldings(context.Background(), models.RegionUS, []models.Holding{slim}); err != nil {
		t.Fatalf("ImportHoldings: %v", err)
	}

	rep, err := uc.LatestReport(context.Background(), "US")
	if err != nil {
		t.Fatalf("LatestReport: %v", err)
	}
	for _, a := range rep.Alerts {
		if a.Symbol == "AAPL" {
			t.Errorf("stale AAPL alert survived re-import: %+v", a)
		}
	}
}

func TestImportEarningsScoresBeforeStoring(t *testing.T) {
	earn := &fakeEarningsStore{}
	uc := newTestAdvisor(t, &fakeHoldingStore{byRegion: map[models.Region][]models.Holding{}}, &fakePriceStore{}, earn, &fakePublisher{})

	eps, epsEst := 2.4, 2.0
	rev, revEst := 110.0, 100.0
	scored, err := uc.ImportEarnings(context.Background(), models.EarningsRecord{
		Symbol:          "AAPL",
		FiscalYear:      2026,
		FiscalQuarter:   2,
		EPSActual:       &eps,
		EPSEstimate:     &epsEst,
		RevenueActual:   &rev,
		RevenueEstimate: &revEst,
		Guidance:        models.GuidanceIncreased,
	})
	if err != nil {
		t.Fatalf("ImportEarnings: %v", err)
	}
	if scored.Score == 0 || scored.Category == "" {
		t.Errorf("record stored unscored: %+v", scored)
	}
	stored, ok := earn.records["AAPL"]
	if !ok {
		t.Fatal("record not stored")
	}
	if stored.Score != scored.Score {
		t.Errorf("stored score %d != returned %d", stored.Score, scored.Score)
	}
}

func TestHealthReflectsPriceStore(t *testing.T) {
	prices := &fakePriceStore{healthy: false}
	uc := newTestAdvisor(t, &fakeHoldingStore{byRegion: map[models.Region][]models.Holding{}}, prices, &fakeEarningsStore{}, &fakePublisher{})
	if err := uc.Health(context.Background()); err == nil {
		t.Fatal("expected unhealthy store to surface")
	}
	prices.healthy = true
	if err := uc.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
}

func TestBarsIngestHandler(t *testing.T) {
	prices := &fakePriceStore{bars: map[string][]models.PricePoint{}}
	h := NewBarsIngestHandler("bars.daily", prices, nopMetrics{})

	if h.Topic() != "bars.daily" {
		t.Errorf("topic = %q", h.Topic())
	}

	good := []byte(`{"symbol":"AAPL","date":"2026-08-27","open":100,"high":105,"low":99,"close":104,"volume":1000}`)
	if err := h.Handle(context.Background(), good); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(prices.stored) != 1 {
		t.Fatalf("stored %d bars, want 1", len(prices.stored))
	}
	bar := prices.stored[0]
	if bar.Symbol != "AAPL" || bar.Close != 104 {
		t.Errorf("stored bar = %+v", bar)
	}
	if bar.Date.Hour() != 0 || bar.Date.Location() != time.UTC {
		t.Errorf("bar date not normalized to UTC midnight: %v", bar.Date)
	}

	bad := []struct {
		name string
		msg  string
	}{
		{"not json", `{`},
		{"empty symbol", `{"symbol":"","date":"2026-08-27","close":104}`},
		{"bad date", `{"symbol":"AAPL","date":"yesterday","close":104}`},
		{"non-positive close", `{"symbol":"AAPL","date":"2026-08-27","close":0}`},
		{"inverted range", `{"symbol":"AAPL","date":"2026-08-27","high":1,"low":2,"close":1.5}`},
	}
	for _, tc := range bad {
		if err := h.Handle(context.Background(), []byte(tc.msg)); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}
