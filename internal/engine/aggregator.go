package engine

import (
	"sort"

	"PortWatch/internal/domain/models"
)

// Aggregate dedupes and orders an alert list into the report order the API
// exposes: severity descending, then symbol, then rule id. When the same
// (symbol, rule) pair appears more than once, only the highest severity
// survives. The result is independent of input order.
func Aggregate(alerts []models.Alert) []models.Alert {
	type key struct {
		symbol string
		rule   string
	}
	best := make(map[key]models.Alert, len(alerts))
	for _, a := range alerts {
		k := key{a.Symbol, a.RuleID}
		if cur, ok := best[k]; !ok || a.Severity.Rank() > cur.Severity.Rank() {
			best[k] = a
		}
	}

	out := make([]models.Alert, 0, len(best))
	for _, a := range best {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if ri, rj := out[i].Severity.Rank(), out[j].Severity.Rank(); ri != rj {
			return ri > rj
		}
		if out[i].Symbol != out[j].Symbol {
			return out[i].Symbol < out[j].Symbol
		}
		return out[i].RuleID < out[j].RuleID
	})
	return out
}
