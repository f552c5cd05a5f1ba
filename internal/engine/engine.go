package engine

import (
	"context"
	"sync"

	"PortWatch/internal/domain/models"
	domsvc "PortWatch/internal/domain/service"
	"PortWatch/internal/rules"
	"PortWatch/internal/services/indicators"
)

// Engine evaluates a holdings set against the decision matrix. It holds no
// mutable state; Evaluate is a pure function of its input and is safe for
// concurrent use.
type Engine struct {
	set *rules.Set
}

func New(set *rules.Set) *Engine {
	return &Engine{set: set}
}

var _ domsvc.AlertEngine = (*Engine)(nil)

// Evaluate runs every applicable rule over every valid holding and returns
// the aggregated, ordered report. Holdings that fail validation are skipped
// and recorded; a holding with no price history still sees its portfolio and
// earnings rules. AsOf is the latest bar date seen across the input.
func (e *Engine) Evaluate(ctx context.Context, in domsvc.EvalInput) (models.Report, error) {
	if err := ctx.Err(); err != nil {
		return models.Report{}, err
	}

	report := models.Report{Scope: in.Scope}
	valid := make([]models.Holding, 0, len(in.Holdings))
	for _, h := range in.Holdings {
		if err := h.Validate(); err != nil {
			report.Skipped = append(report.Skipped, models.Skip{Symbol: h.Symbol, Reason: err.Error()})
			continue
		}
		valid = append(valid, h)
	}

	facts := gatherFacts(valid, in)
	if err := ctx.Err(); err != nil {
		return models.Report{}, err
	}

	var alerts []models.Alert
	for _, h := range valid {
		f := facts[h.Symbol]
		f.Holding = h
		if rec, ok := in.Earnings[h.Symbol]; ok {
			f.Earnings = &rec
		}
		for _, r := range e.set.All() {
			if a, fired := evaluateRule(e.set, r, f); fired {
				alerts = append(alerts, a)
			}
		}
		if f.Snapshot.AsOf.After(report.AsOf) {
			report.AsOf = f.Snapshot.AsOf
		}
	}

	report.Alerts = Aggregate(alerts)
	return report, nil
}

// gatherFacts computes indicator snapshots for every distinct symbol, one
// goroutine per symbol. The prior-bar MACD histogram is kept alongside the
// snapshot for the cross rules.
func gatherFacts(valid []models.Holding, in domsvc.EvalInput) map[string]Facts {
	out := make(map[string]Facts, len(valid))
	var mu sync.Mutex
	var wg sync.WaitGroup

	seen := make(map[string]bool, len(valid))
	for _, h := range valid {
		if seen[h.Symbol] {
			continue
		}
		seen[h.Symbol] = true

		wg.Add(1)
		go func(h models.Holding) {
			defer wg.Done()
			bars := in.Prices[h.Symbol]
			snap := indicators.BuildSnapshot(h.Symbol, bars, in.Benchmarks[h.Region])
			var prev *float64
			if len(bars) > 1 {
				_, _, prev = indicators.MACD(indicators.Closes(bars[:len(bars)-1]))
			}
			mu.Lock()
			out[h.Symbol] = Facts{Snapshot: snap, PrevMACDHist: prev}
			mu.Unlock()
		}(h)
	}
	wg.Wait()
	return out
}
