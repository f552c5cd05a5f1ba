package engine

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"PortWatch/internal/domain/models"
	domsvc "PortWatch/internal/domain/service"
	"PortWatch/internal/rules"
)

func ptr(v float64) *float64 { return &v }

func mustSet(t *testing.T) *rules.Set {
	t.Helper()
	set, err := rules.New(rules.Defaults())
	if err != nil {
		t.Fatalf("default rules: %v", err)
	}
	return set
}

func mustRule(t *testing.T, set *rules.Set, id string) models.RuleDefinition {
	t.Helper()
	r, ok := set.Get(id)
	if !ok {
		t.Fatalf("rule %q not in default table", id)
	}
	return r
}

func holding(sym string, region models.Region, class models.Classification, tier int, weight float64) models.Holding {
	return models.Holding{Symbol: sym, Region: region, Classification: class, Tier: tier, Weight: weight, Quantity: 10}
}

func TestRSIOversoldFires(t *testing.T) {
	set := mustSet(t)
	f := Facts{
		Holding:  holding("AAPL", models.RegionUS, models.ClassCatalyst, 1, 0.03),
		Snapshot: models.IndicatorSnapshot{Symbol: "AAPL", Close: 180, RSI14: ptr(29.8)},
	}

	a, fired := evaluateRule(set, mustRule(t, set, "rsi-low"), f)
	if !fired {
		t.Fatalf("RSI 29.8 below Catalyst tier 1 threshold 30 did not fire")
	}
	if a.Severity != models.SeverityInfo {
		t.Errorf("severity = %s, want info", a.Severity)
	}
	if !strings.Contains(a.Details, "29.8") || !strings.Contains(a.Details, "30") {
		t.Errorf("details %q should carry value and threshold", a.Details)
	}

	// at the threshold exactly the rule stays silent
	f.Snapshot.RSI14 = ptr(30.0)
	if _, fired := evaluateRule(set, mustRule(t, set, "rsi-low"), f); fired {
		t.Errorf("RSI exactly at threshold should not fire a below rule")
	}
}

func TestNilIndicatorStaysSilent(t *testing.T) {
	set := mustSet(t)
	f := Facts{
		Holding:  holding("NEWCO", models.RegionUS, models.ClassCatalyst, 1, 0.03),
		Snapshot: models.IndicatorSnapshot{Symbol: "NEWCO", Close: 12},
	}
	for _, id := range []string{"rsi-low", "rsi-high", "below-ma200", "rel-weak", "rating-momentum", "dip-52wk-high"} {
		if _, fired := evaluateRule(set, mustRule(t, set, id), f); fired {
			t.Errorf("rule %s fired with nil inputs", id)
		}
	}
}

func TestWeightBreachDetails(t *testing.T) {
	set := mustSet(t)
	f := Facts{Holding: holding("MSFT", models.RegionUS, models.ClassCompounder, 1, 0.09)}

	a, fired := evaluateRule(set, mustRule(t, set, "max-weight"), f)
	if !fired {
		t.Fatalf("weight 9%% above Compounder tier 1 cap 8%% did not fire")
	}
	if a.Severity != models.SeverityWarning {
		t.Errorf("severity = %s, want warning", a.Severity)
	}
	if a.Details != "9.0% vs 8.0% max" {
		t.Errorf("details = %q", a.Details)
	}
}

func TestWeightEscalatesToCritical(t *testing.T) {
	set := mustSet(t)
	f := Facts{Holding: holding("MSFT", models.RegionUS, models.ClassCompounder, 1, 0.17)}

	a, fired := evaluateRule(set, mustRule(t, set, "max-weight"), f)
	if !fired {
		t.Fatalf("weight breach did not fire")
	}
	// 17% is past twice the 8% cap
	if a.Severity != models.SeverityCritical {
		t.Errorf("severity = %s, want critical", a.Severity)
	}
}

func TestWeightRuleRegionSplit(t *testing.T) {
	set := mustSet(t)
	f := Facts{Holding: holding("NESN", models.RegionINTL, models.ClassCompounder, 1, 0.07)}

	if _, fired := evaluateRule(set, mustRule(t, set, "max-weight"), f); fired {
		t.Errorf("US/EU weight rule fired for an INTL holding")
	}
	a, fired := evaluateRule(set, mustRule(t, set, "max-weight-intl"), f)
	if !fired {
		t.Fatalf("INTL weight rule did not fire at 7%% vs 5%% cap")
	}
	if a.Region != models.RegionINTL {
		t.Errorf("alert region = %s", a.Region)
	}
}

func TestMACDCrossRules(t *testing.T) {
	set := mustSet(t)
	base := Facts{Holding: holding("AAPL", models.RegionUS, models.ClassCatalyst, 1, 0.03)}

	cases := []struct {
		name string
		rule string
		prev float64
		cur  float64
		want bool
	}{
		{"bull cross", "macd-bull-cross", -0.4, 0.3, true},
		{"bull no cross", "macd-bull-cross", 0.2, 0.3, false},
		{"bear cross", "macd-bear-cross", 0.4, -0.1, true},
		{"bear no cross", "macd-bear-cross", -0.2, -0.1, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := base
			f.Snapshot = models.IndicatorSnapshot{Symbol: "AAPL", MACDHist: ptr(tc.cur)}
			f.PrevMACDHist = ptr(tc.prev)
			if _, fired := evaluateRule(set, mustRule(t, set, tc.rule), f); fired != tc.want {
				t.Errorf("fired = %v, want %v", fired, tc.want)
			}
		})
	}

	// no prior histogram, no cross
	f := base
	f.Snapshot = models.IndicatorSnapshot{Symbol: "AAPL", MACDHist: ptr(0.3)}
	if _, fired := evaluateRule(set, mustRule(t, set, "macd-bull-cross"), f); fired {
		t.Errorf("cross fired without a prior histogram")
	}
}

func TestEarningsRules(t *testing.T) {
	set := mustSet(t)
	f := Facts{
		Holding:  holding("AAPL", models.RegionUS, models.ClassCatalyst, 1, 0.03),
		Earnings: &models.EarningsRecord{Symbol: "AAPL", Score: 8, Category: models.EarningsGood},
	}
	a, fired := evaluateRule(set, mustRule(t, set, "earnings-strong"), f)
	if !fired {
		t.Fatalf("score 8 above 6 did not fire")
	}
	if !strings.Contains(a.Details, "8") || !strings.Contains(a.Details, models.EarningsGood) {
		t.Errorf("details = %q", a.Details)
	}

	f.Earnings = nil
	if _, fired := evaluateRule(set, mustRule(t, set, "earnings-weak"), f); fired {
		t.Errorf("earnings rule fired without an earnings record")
	}
}

func TestEvaluateSkipsInvalidHoldings(t *testing.T) {
	eng := New(mustSet(t))

	in := domsvc.EvalInput{
		Scope: string(models.RegionUS),
		Holdings: []models.Holding{
			holding("GOOD", models.RegionUS, models.ClassCompounder, 1, 0.10),
			holding("BADTIER", models.RegionUS, models.ClassCompounder, 9, 0.02),
			{Symbol: "", Region: models.RegionUS, Classification: models.ClassCatalyst, Tier: 1},
		},
	}
	rep, err := eng.Evaluate(context.Background(), in)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(rep.Skipped) != 2 {
		t.Fatalf("skipped = %v, want 2 entries", rep.Skipped)
	}

	// GOOD has no price history but its weight breach still surfaces
	if len(rep.Alerts) != 1 || rep.Alerts[0].RuleID != "max-weight" || rep.Alerts[0].Symbol != "GOOD" {
		t.Fatalf("alerts = %v, want the max-weight breach for GOOD", rep.Alerts)
	}
	for _, s := range rep.Skipped {
		if s.Symbol == "GOOD" {
			t.Errorf("holding with missing prices was skipped")
		}
	}
}

func TestEvaluateDeterministicAndOrderIndependent(t *testing.T) {
	eng := New(mustSet(t))

	hs := []models.Holding{
		holding("AAA", models.RegionUS, models.ClassCompounder, 1, 0.10),
		holding("BBB", models.RegionEU, models.ClassCatalyst, 2, 0.09),
		holding("CCC", models.RegionINTL, models.ClassCyclical, 3, 0.06),
	}
	forward := domsvc.EvalInput{Scope: "all", Holdings: hs}
	reversed := domsvc.EvalInput{Scope: "all", Holdings: []models.Holding{hs[2], hs[1], hs[0]}}

	r1, err := eng.Evaluate(context.Background(), forward)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	r2, err := eng.Evaluate(context.Background(), forward)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	r3, err := eng.Evaluate(context.Background(), reversed)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if !reflect.DeepEqual(r1.Alerts, r2.Alerts) {
		t.Errorf("repeated runs differ:\n%v\n%v", r1.Alerts, r2.Alerts)
	}
	if !reflect.DeepEqual(r1.Alerts, r3.Alerts) {
		t.Errorf("holding order changed the alert list:\n%v\n%v", r1.Alerts, r3.Alerts)
	}
}

func TestEvaluatePerRegionMatchesUnion(t *testing.T) {
	eng := New(mustSet(t))

	byRegion := map[models.Region][]models.Holding{
		models.RegionUS:   {holding("AAA", models.RegionUS, models.ClassCompounder, 1, 0.10)},
		models.RegionEU:   {holding("BBB", models.RegionEU, models.ClassCatalyst, 2, 0.09)},
		models.RegionINTL: {holding("CCC", models.RegionINTL, models.ClassCyclical, 3, 0.06)},
	}

	var union []models.Holding
	var concat []models.Alert
	for region, hs := range byRegion {
		union = append(union, hs...)
		rep, err := eng.Evaluate(context.Background(), domsvc.EvalInput{Scope: string(region), Holdings: hs})
		if err != nil {
			t.Fatalf("Evaluate %s: %v", region, err)
		}
		concat = append(concat, rep.Alerts...)
	}

	all, err := eng.Evaluate(context.Background(), domsvc.EvalInput{Scope: "all", Holdings: union})
	if err != nil {
		t.Fatalf("Evaluate union: %v", err)
	}
	if len(all.Alerts) == 0 {
		t.Fatalf("union run produced no alerts, cases are too weak")
	}

	merged := Aggregate(concat)
	if !reflect.DeepEqual(merged, all.Alerts) {
		t.Errorf("per-region runs re-aggregated differ from the union run:\n%v\n%v", merged, all.Alerts)
	}
}

func TestEvaluateAsOfTracksLatestBar(t *testing.T) {
	eng := New(mustSet(t))

	d1 := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	in := domsvc.EvalInput{
		Scope:    string(models.RegionUS),
		Holdings: []models.Holding{holding("AAA", models.RegionUS, models.ClassCompounder, 1, 0.02)},
		Prices: map[string][]models.PricePoint{
			"AAA": {
				{Symbol: "AAA", Date: d1, Close: 100, High: 101, Low: 99},
				{Symbol: "AAA", Date: d2, Close: 101, High: 102, Low: 100},
			},
		},
	}
	rep, err := eng.Evaluate(context.Background(), in)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !rep.AsOf.Equal(d2) {
		t.Errorf("AsOf = %v, want %v", rep.AsOf, d2)
	}
}

func TestEvaluateCancelledContext(t *testing.T) {
	eng := New(mustSet(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := eng.Evaluate(ctx, domsvc.EvalInput{Scope: "all"}); err == nil {
		t.Errorf("expected context error")
	}
}
