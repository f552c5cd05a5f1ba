package indicators

import "PortWatch/internal/domain/models"

// Lookbacks for the standard indicator set, in trading bars. All functions
// here work on series indices, so non-trading-day calendar gaps are
// irrelevant.
const (
	RSIPeriod     = 14
	MACDFast      = 12
	MACDSlow      = 26
	MACDSignalLen = 9
	MAShort       = 50
	MALong        = 200
	RangeWindow   = 252 // trading days in 52 weeks
	ReturnWindow  = 90
)

// Closes extracts the close column from a bar series.
func Closes(bars []models.PricePoint) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// EMASeries computes the exponential moving average of values with the
// given period. The seed is the simple average of the first period values;
// subsequent values use ema = v*k + prev*(1-k), k = 2/(period+1). The
// result is aligned so out[i] is the EMA ending at values[period-1+i];
// it returns nil when len(values) < period.
func EMASeries(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	out := make([]float64, 0, len(values)-period+1)
	seed := 0.0
	for _, v := range values[:period] {
		seed += v
	}
	ema := seed / float64(period)
	out = append(out, ema)

	k := 2.0 / (float64(period) + 1.0)
	for _, v := range values[period:] {
		ema = v*k + ema*(1.0-k)
		out = append(out, ema)
	}
	return out
}

// SMA returns the simple mean of the trailing period values, or nil when
// the series is shorter than the period.
func SMA(values []float64, period int) *float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	sum := 0.0
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	m := sum / float64(period)
	return &m
}

func ptr(v float64) *float64 { return &v }
