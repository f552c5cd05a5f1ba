package rules

import "PortWatch/internal/domain/models"

// flat builds a threshold grid with one value for every classification and
// tier.
func flat(v float64) map[models.Classification]map[int]float64 {
	out := make(map[models.Classification]map[int]float64, models.MaxTier)
	for _, class := range models.AllClassifications() {
		out[class] = map[int]float64{1: v, 2: v, 3: v}
	}
	return out
}

// byClass builds a threshold grid with one value per classification applied
// to every tier.
func byClass(compounder, catalyst, cyclical float64) map[models.Classification]map[int]float64 {
	return map[models.Classification]map[int]float64{
		models.ClassCompounder: {1: compounder, 2: compounder, 3: compounder},
		models.ClassCatalyst:   {1: catalyst, 2: catalyst, 3: catalyst},
		models.ClassCyclical:   {1: cyclical, 2: cyclical, 3: cyclical},
	}
}

// Defaults is the built-in decision matrix, used when no rules file is
// configured. Loaded files replace it wholesale.
func Defaults() []models.RuleDefinition {
	return []models.RuleDefinition{
		{
			ID: "rsi-low", Action: models.ActionIncrease,
			Source: models.SourceRSI, Metric: models.MetricRSI, Method: models.MethodValue, Logic: models.OpBelow,
			Severity: models.SeverityInfo, Order: 10,
			Message: "RSI oversold, consider adding",
			Thresholds: map[models.Classification]map[int]float64{
				models.ClassCompounder: {1: 35, 2: 32, 3: 30},
				models.ClassCatalyst:   {1: 30, 2: 28, 3: 25},
				models.ClassCyclical:   {1: 28, 2: 25, 3: 22},
			},
		},
		{
			ID: "dip-52wk-high", Action: models.ActionIncrease,
			Source: models.SourcePrices, Metric: models.MetricPctBelowHigh, Method: models.MethodProximity, Logic: models.OpAbove,
			Severity: models.SeverityInfo, Order: 20,
			Message:    "Trading well below 52-week high",
			Thresholds: byClass(10, 20, 25),
		},
		{
			ID: "macd-bull-cross", Action: models.ActionIncrease,
			Source: models.SourceMACD, Metric: models.MetricMACDHist, Method: models.MethodDeltaSign, Logic: models.OpAbove,
			Severity: models.SeverityInfo, Order: 30,
			Message: "MACD above signal line",
		},
		{
			ID: "earnings-strong", Action: models.ActionIncrease,
			Source: models.SourceEarnings, Metric: models.MetricEarningsScore, Method: models.MethodValue, Logic: models.OpAbove,
			Severity: models.SeverityInfo, Order: 40,
			Message:    "Strong earnings quarter",
			Thresholds: flat(6),
		},
		{
			ID: "rsi-high", Action: models.ActionDecrease,
			Source: models.SourceRSI, Metric: models.MetricRSI, Method: models.MethodValue, Logic: models.OpAbove,
			Severity: models.SeverityInfo, Order: 50,
			Message:    "RSI overbought, consider trimming",
			Thresholds: byClass(75, 70, 72),
		},
		{
			ID: "macd-bear-cross", Action: models.ActionDecrease,
			Source: models.SourceMACD, Metric: models.MetricMACDHist, Method: models.MethodDeltaSign, Logic: models.OpBelow,
			Severity: models.SeverityInfo, Order: 60,
			Message: "MACD below signal line",
		},
		{
			ID: "max-weight", Action: models.ActionDecrease,
			Source: models.SourcePortfolio, Metric: models.MetricWeight, Method: models.MethodValue, Logic: models.OpAbove,
			Severity: models.SeverityWarning, EscalateAt: 2, Order: 70,
			Message:    "Position exceeds portfolio weight cap",
			Regions:    []models.Region{models.RegionUS, models.RegionEU},
			Thresholds: byClass(0.08, 0.06, 0.05),
		},
		{
			ID: "max-weight-intl", Action: models.ActionDecrease,
			Source: models.SourcePortfolio, Metric: models.MetricWeight, Method: models.MethodValue, Logic: models.OpAbove,
			Severity: models.SeverityWarning, EscalateAt: 2, Order: 80,
			Message:    "Position exceeds international weight cap",
			Regions:    []models.Region{models.RegionINTL},
			Thresholds: flat(0.05),
		},
		{
			ID: "below-ma200", Action: models.ActionDecrease,
			Source: models.SourcePrices, Metric: models.MetricPctBelowMA200, Method: models.MethodPercent, Logic: models.OpAbove,
			Severity: models.SeverityWarning, Order: 90,
			Message:    "Price broke below the 200-day average",
			Thresholds: byClass(5, 10, 12),
		},
		{
			ID: "earnings-weak", Action: models.ActionDecrease,
			Source: models.SourceEarnings, Metric: models.MetricEarningsScore, Method: models.MethodValue, Logic: models.OpBelow,
			Severity: models.SeverityWarning, Order: 100,
			Message:    "Weak earnings quarter",
			Thresholds: flat(4),
		},
		{
			ID: "rel-weak", Action: models.ActionDecrease,
			Source: models.SourceIndices, Metric: models.MetricRelReturn90d, Method: models.MethodPercent, Logic: models.OpBelow,
			Severity: models.SeverityInfo, Order: 110,
			Message:    "Lagging the region benchmark",
			Thresholds: byClass(-10, -15, -20),
		},
		{
			ID: "rating-momentum", Action: models.ActionRating,
			Source: models.SourcePrices, Metric: models.MetricReturn90d, Method: models.MethodPercent, Logic: models.OpAbove,
			Severity: models.SeverityInfo, Order: 120,
			Message:    "Sustained strength, review tier upgrade",
			Thresholds: byClass(25, 30, 35),
		},
		{
			ID: "rating-slump", Action: models.ActionRating,
			Source: models.SourcePrices, Metric: models.MetricReturn90d, Method: models.MethodPercent, Logic: models.OpBelow,
			Severity: models.SeverityWarning, Order: 130,
			Message:    "Sustained weakness, review tier downgrade",
			Thresholds: byClass(-25, -30, -35),
		},
	}
}
