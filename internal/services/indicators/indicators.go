package indicators

import (
	"math"

	"PortWatch/internal/domain/models"
)

// RSI computes the Wilder-smoothed Relative Strength Index over the given
// period. The initial average gain/loss is the simple mean of the first
// period changes; later changes are smoothed as avg = (avg*(p-1)+cur)/p.
// Requires at least period+1 closes; returns nil otherwise. When the
// average loss is zero the RSI is 100.
func RSI(closes []float64, period int) *float64 {
	if period <= 0 || len(closes) < period+1 {
		return nil
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return ptr(100.0)
	}
	rs := avgGain / avgLoss
	return ptr(100.0 - 100.0/(1.0+rs))
}

// MACD computes the MACD(12,26,9) line, signal and histogram from closes.
// The line needs at least MACDSlow closes; the signal and histogram need
// MACDSlow+MACDSignalLen and stay nil until enough points accumulate.
func MACD(closes []float64) (line, signal, hist *float64) {
	if len(closes) < MACDSlow {
		return nil, nil, nil
	}

	fast := EMASeries(closes, MACDFast)
	slow := EMASeries(closes, MACDSlow)

	// Both series end at the last close; align fast to slow's start.
	offset := len(fast) - len(slow)
	macd := make([]float64, len(slow))
	for i := range slow {
		macd[i] = fast[offset+i] - slow[i]
	}
	line = ptr(macd[len(macd)-1])

	if len(closes) < MACDSlow+MACDSignalLen {
		return line, nil, nil
	}
	sig := EMASeries(macd, MACDSignalLen)
	signal = ptr(sig[len(sig)-1])
	hist = ptr(*line - *signal)
	return line, signal, hist
}

// Range52Week scans the trailing RangeWindow bars and returns the high and
// low of the window. Requires at least one bar.
func Range52Week(bars []models.PricePoint) (high, low float64, ok bool) {
	if len(bars) == 0 {
		return 0, 0, false
	}
	start := len(bars) - RangeWindow
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, b := range bars[start:] {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	return high, low, true
}

// RangePosition returns where current sits within [low, high] as 0..1,
// clamped. A degenerate range reports the midpoint.
func RangePosition(current, high, low float64) float64 {
	if high == low {
		return 0.5
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos
}

// PctBelowHigh returns how far current is below high, in percent.
func PctBelowHigh(current, high float64) float64 {
	if high == 0 {
		return 0
	}
	return (high - current) / high * 100.0
}

// ReturnOverWindow computes the percent change between the latest close and
// the close window bars earlier. Returns nil when the series holds fewer
// than window closes, or the base close is zero.
func ReturnOverWindow(closes []float64, window int) *float64 {
	if window <= 0 || len(closes) < window {
		return nil
	}
	base := closes[len(closes)-window]
	if base == 0 {
		return nil
	}
	return ptr((closes[len(closes)-1]/base - 1.0) * 100.0)
}
