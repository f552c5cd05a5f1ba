package engine

import (
	"reflect"
	"testing"

	"PortWatch/internal/domain/models"
)

func alert(sym, rule string, sev models.Severity) models.Alert {
	return models.Alert{Symbol: sym, RuleID: rule, Severity: sev, Region: models.RegionUS}
}

func TestAggregateOrdering(t *testing.T) {
	in := []models.Alert{
		alert("MSFT", "rsi-low", models.SeverityInfo),
		alert("AAPL", "max-weight", models.SeverityWarning),
		alert("ZZZ", "below-ma200", models.SeverityCritical),
		alert("AAPL", "rsi-low", models.SeverityInfo),
		alert("AAPL", "below-ma200", models.SeverityWarning),
	}
	got := Aggregate(in)

	want := []models.Alert{
		alert("ZZZ", "below-ma200", models.SeverityCritical),
		alert("AAPL", "below-ma200", models.SeverityWarning),
		alert("AAPL", "max-weight", models.SeverityWarning),
		alert("AAPL", "rsi-low", models.SeverityInfo),
		alert("MSFT", "rsi-low", models.SeverityInfo),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Aggregate order:\n got %v\nwant %v", got, want)
	}
}

func TestAggregateDedupesKeepingHighestSeverity(t *testing.T) {
	in := []models.Alert{
		alert("AAPL", "max-weight", models.SeverityWarning),
		alert("AAPL", "max-weight", models.SeverityCritical),
		alert("AAPL", "max-weight", models.SeverityInfo),
	}
	got := Aggregate(in)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Severity != models.SeverityCritical {
		t.Errorf("severity = %s, want critical", got[0].Severity)
	}
}

func TestAggregateInputOrderIrrelevant(t *testing.T) {
	a := []models.Alert{
		alert("AAPL", "rsi-low", models.SeverityInfo),
		alert("MSFT", "max-weight", models.SeverityWarning),
		alert("AAPL", "max-weight", models.SeverityWarning),
	}
	b := []models.Alert{a[2], a[0], a[1]}
	if !reflect.DeepEqual(Aggregate(a), Aggregate(b)) {
		t.Errorf("aggregation depends on input order")
	}
}

func TestAggregateEmpty(t *testing.T) {
	if got := Aggregate(nil); len(got) != 0 {
		t.Errorf("Aggregate(nil) = %v", got)
	}
}
