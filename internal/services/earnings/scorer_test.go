package earnings

import (
	"strings"
	"testing"

	"PortWatch/internal/domain/models"
)

func f(v float64) *float64 { return &v }

func TestSurprisePct(t *testing.T) {
	got := SurprisePct(f(1.10), f(1.00))
	if got == nil || *got < 9.99 || *got > 10.01 {
		t.Fatalf("expected ~10%%, got %v", got)
	}
	if SurprisePct(nil, f(1)) != nil || SurprisePct(f(1), nil) != nil {
		t.Fatalf("missing figures must give nil")
	}
	if SurprisePct(f(1), f(0)) != nil {
		t.Fatalf("zero estimate must give nil")
	}
	// negative estimate uses absolute value as the base
	neg := SurprisePct(f(-0.90), f(-1.00))
	if neg == nil || *neg < 9.99 || *neg > 10.01 {
		t.Fatalf("expected ~10%% on negative estimate, got %v", neg)
	}
}

func TestEPSStatusBands(t *testing.T) {
	cases := []struct {
		actual, estimate float64
		want             string
	}{
		{1.10, 1.00, models.EPSBeat},
		{0.90, 1.00, models.EPSMiss},
		{1.01, 1.00, models.EPSInLine},
		{0.99, 1.00, models.EPSInLine},
	}
	for _, c := range cases {
		if got := EPSStatus(f(c.actual), f(c.estimate)); got != c.want {
			t.Errorf("EPSStatus(%v, %v) = %q, want %q", c.actual, c.estimate, got, c.want)
		}
	}
}

func TestRevenueStatusBands(t *testing.T) {
	cases := []struct {
		actual, estimate float64
		want             string
	}{
		{102, 100, models.RevenueUp},
		{98, 100, models.RevenueDown},
		{100.5, 100, models.RevenueFlat},
	}
	for _, c := range cases {
		if got := RevenueStatus(f(c.actual), f(c.estimate)); got != c.want {
			t.Errorf("RevenueStatus(%v, %v) = %q, want %q", c.actual, c.estimate, got, c.want)
		}
	}
}

func TestScoreBeatFlatMaintain(t *testing.T) {
	// EPS +10% beat, revenue flat, maintained guidance, +1% reaction.
	rec := Score(models.EarningsRecord{
		Symbol:          "AAPL",
		EPSActual:       f(1.10),
		EPSEstimate:     f(1.00),
		RevenueActual:   f(100),
		RevenueEstimate: f(100),
		Guidance:        models.GuidanceMaintained,
		ReactionPct:     1.0,
	})
	if rec.Score != 7 {
		t.Fatalf("expected score 7, got %d", rec.Score)
	}
	if rec.Category != models.EarningsGood {
		t.Fatalf("expected category Good, got %q", rec.Category)
	}
	if !strings.Contains(rec.Note, "EPS beat") || !strings.Contains(rec.Note, "Revenue flat") {
		t.Fatalf("unexpected note %q", rec.Note)
	}
}

func TestScoreClamping(t *testing.T) {
	worst := Score(models.EarningsRecord{
		EPSActual:       f(0.50),
		EPSEstimate:     f(1.00),
		RevenueActual:   f(80),
		RevenueEstimate: f(100),
		Guidance:        models.GuidanceDecreased,
		ReactionPct:     -12.0,
	})
	if worst.Score != 1 {
		t.Fatalf("expected clamp to 1, got %d", worst.Score)
	}
	if worst.Category != models.EarningsBad {
		t.Fatalf("expected Bad, got %q", worst.Category)
	}

	best := Score(models.EarningsRecord{
		EPSActual:       f(2.00),
		EPSEstimate:     f(1.00),
		RevenueActual:   f(120),
		RevenueEstimate: f(100),
		Guidance:        models.GuidanceIncreased,
		ReactionPct:     9.0,
	})
	if best.Score != 10 {
		t.Fatalf("expected clamp to 10, got %d", best.Score)
	}
	if !strings.Contains(best.Note, "Market up 9.0%") {
		t.Fatalf("expected reaction verdict in note, got %q", best.Note)
	}
}

func TestScoreMissingInputs(t *testing.T) {
	rec := Score(models.EarningsRecord{ReactionPct: 2.0})
	if rec.Score != 5 {
		t.Fatalf("no signals should stay neutral, got %d", rec.Score)
	}
	if rec.Category != models.EarningsOkay {
		t.Fatalf("expected Okay, got %q", rec.Category)
	}
	if rec.Note != "" {
		t.Fatalf("no verdicts expected, got %q", rec.Note)
	}
}
