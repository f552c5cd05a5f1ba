package indicators

import "PortWatch/internal/domain/models"

// BuildSnapshot derives the full indicator snapshot for one symbol from its
// ascending bar series, plus the region benchmark series for relative
// performance. Indicators whose lookback exceeds the series stay nil. An
// empty bar series yields a zero-value snapshot with every indicator nil.
func BuildSnapshot(symbol string, bars, benchmark []models.PricePoint) models.IndicatorSnapshot {
	snap := models.IndicatorSnapshot{Symbol: symbol}
	if len(bars) == 0 {
		return snap
	}

	closes := Closes(bars)
	last := bars[len(bars)-1]
	snap.AsOf = last.Date
	snap.Close = last.Close

	snap.RSI14 = RSI(closes, RSIPeriod)
	snap.MACDLine, snap.MACDSignal, snap.MACDHist = MACD(closes)
	snap.MA50 = SMA(closes, MAShort)
	snap.MA200 = SMA(closes, MALong)

	if high, low, ok := Range52Week(bars); ok {
		snap.High52w = &high
		snap.Low52w = &low
		pos := RangePosition(last.Close, high, low)
		snap.Position52w = &pos
		below := PctBelowHigh(last.Close, high)
		snap.PctBelow52wHigh = &below
	}

	snap.Return90d = ReturnOverWindow(closes, ReturnWindow)
	if snap.Return90d != nil && len(benchmark) > 0 {
		if benchRet := ReturnOverWindow(Closes(benchmark), ReturnWindow); benchRet != nil {
			rel := *snap.Return90d - *benchRet
			snap.RelReturn90d = &rel
		}
	}
	return snap
}
