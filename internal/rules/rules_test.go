package rules

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"PortWatch/internal/domain/models"
)

func fullGrid(v float64) map[models.Classification]map[int]float64 {
	out := make(map[models.Classification]map[int]float64)
	for _, class := range models.AllClassifications() {
		tiers := make(map[int]float64)
		for tier := 1; tier <= models.MaxTier; tier++ {
			tiers[tier] = v
		}
		out[class] = tiers
	}
	return out
}

func validRule(id string, order int) models.RuleDefinition {
	return models.RuleDefinition{
		ID:         id,
		Action:     models.ActionIncrease,
		Source:     models.SourceRSI,
		Metric:     models.MetricRSI,
		Method:     models.MethodValue,
		Logic:      models.OpBelow,
		Severity:   models.SeverityInfo,
		Order:      order,
		Message:    "test",
		Thresholds: fullGrid(30),
	}
}

func TestDefaultsValidate(t *testing.T) {
	set, err := New(Defaults())
	if err != nil {
		t.Fatalf("default table failed validation: %v", err)
	}
	if got := len(set.All()); got != 13 {
		t.Fatalf("expected 13 default rules, got %d", got)
	}
}

func TestNewRejectsBadTables(t *testing.T) {
	missing := validRule("missing-tier", 1)
	missing.Thresholds = fullGrid(30)
	delete(missing.Thresholds[models.ClassCatalyst], 2)

	noClass := validRule("missing-class", 1)
	noClass.Thresholds = fullGrid(30)
	delete(noClass.Thresholds, models.ClassCyclical)

	mismatch := validRule("metric-mismatch", 1)
	mismatch.Metric = models.MetricWeight

	badSev := validRule("bad-severity", 1)
	badSev.Severity = "fatal"

	cases := []struct {
		name string
		defs []models.RuleDefinition
		want string
	}{
		{"empty set", nil, "empty"},
		{"missing tier", []models.RuleDefinition{missing}, "tier 2"},
		{"missing classification", []models.RuleDefinition{noClass}, "Cyclical"},
		{"metric source mismatch", []models.RuleDefinition{mismatch}, "does not belong"},
		{"unknown severity", []models.RuleDefinition{badSev}, "severity"},
		{"duplicate id", []models.RuleDefinition{validRule("dup", 1), validRule("dup", 2)}, "duplicate"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.defs); err == nil {
				t.Fatalf("expected error, got nil")
			} else if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestDeltaSignRulesNeedNoThresholds(t *testing.T) {
	r := models.RuleDefinition{
		ID:       "cross",
		Action:   models.ActionIncrease,
		Source:   models.SourceMACD,
		Metric:   models.MetricMACDHist,
		Method:   models.MethodDeltaSign,
		Logic:    models.OpAbove,
		Severity: models.SeverityInfo,
		Order:    1,
		Message:  "cross",
	}
	set, err := New([]models.RuleDefinition{r})
	if err != nil {
		t.Fatalf("sign rule without thresholds rejected: %v", err)
	}
	if _, err := set.Threshold("cross", models.ClassCompounder, 1); err == nil {
		t.Errorf("expected error resolving a sign rule threshold")
	}
}

func TestOrderingAndByAction(t *testing.T) {
	a := validRule("bravo", 20)
	b := validRule("alpha", 10)
	c := validRule("alpha-2", 20)
	c.Action = models.ActionDecrease
	c.Logic = models.OpAbove

	set, err := New([]models.RuleDefinition{a, b, c})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var ids []string
	for _, r := range set.All() {
		ids = append(ids, r.ID)
	}
	want := []string{"alpha", "alpha-2", "bravo"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("order %v, want %v", ids, want)
		}
	}

	dec := set.ByAction(models.ActionDecrease)
	if len(dec) != 1 || dec[0].ID != "alpha-2" {
		t.Errorf("ByAction(decrease) = %v", dec)
	}
}

func TestThresholdLookup(t *testing.T) {
	set, err := New(Defaults())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	v, err := set.Threshold("rsi-low", models.ClassCatalyst, 1)
	if err != nil {
		t.Fatalf("Threshold: %v", err)
	}
	if v != 30 {
		t.Errorf("rsi-low Catalyst tier 1 = %g, want 30", v)
	}

	if _, err := set.Threshold("no-such-rule", models.ClassCatalyst, 1); err == nil {
		t.Errorf("expected error for unknown rule")
	}
}

func TestLoadFromYAML(t *testing.T) {
	doc := `
rules:
  - id: rsi-low
    action: increase
    source: rsi_data
    metric: rsi_14
    method: value
    logic: below
    severity: info
    order: 10
    message: "RSI oversold"
    thresholds:
      Compounder: {1: 35, 2: 32, 3: 30}
      Catalyst: {1: 30, 2: 28, 3: 25}
      Cyclical: {1: 28, 2: 25, 3: 22}
`
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write temp rules: %v", err)
	}

	set, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	r, ok := set.Get("rsi-low")
	if !ok {
		t.Fatalf("loaded rule not found")
	}
	if r.Metric != models.MetricRSI || r.Logic != models.OpBelow {
		t.Errorf("rule fields not decoded: %+v", r)
	}
	v, err := set.Threshold("rsi-low", models.ClassCyclical, 3)
	if err != nil || v != 22 {
		t.Errorf("Threshold = %g, %v; want 22", v, err)
	}
}

func TestLoadOrDefaultsFallsBack(t *testing.T) {
	set, err := LoadOrDefaults("")
	if err != nil {
		t.Fatalf("LoadOrDefaults: %v", err)
	}
	if _, ok := set.Get("max-weight"); !ok {
		t.Errorf("built-in table missing max-weight")
	}
}
