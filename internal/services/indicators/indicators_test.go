package indicators

import (
	"math"
	"testing"
	"time"

	"PortWatch/internal/domain/models"
)

func barsFromCloses(symbol string, closes []float64) []models.PricePoint {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]models.PricePoint, len(closes))
	for i, c := range closes {
		bars[i] = models.PricePoint{
			Symbol: symbol,
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

func rising(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100.0 + float64(i)
	}
	return out
}

func falling(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 500.0 - float64(i)
	}
	return out
}

func TestRSIInsufficientData(t *testing.T) {
	if got := RSI(rising(14), 14); got != nil {
		t.Fatalf("expected nil RSI for 14 closes, got %v", *got)
	}
	if got := RSI(rising(15), 14); got == nil {
		t.Fatalf("expected RSI for 15 closes")
	}
}

func TestRSIBounds(t *testing.T) {
	series := [][]float64{
		rising(60),
		falling(60),
		{100, 101, 99, 102, 98, 103, 97, 104, 96, 105, 95, 106, 94, 107, 93, 108, 92},
	}
	for _, closes := range series {
		rsi := RSI(closes, 14)
		if rsi == nil {
			t.Fatalf("expected RSI for %d closes", len(closes))
		}
		if *rsi < 0 || *rsi > 100 {
			t.Fatalf("RSI out of bounds: %v", *rsi)
		}
	}
}

func TestRSIConvergence(t *testing.T) {
	up := RSI(rising(120), 14)
	if up == nil || *up != 100 {
		t.Fatalf("strictly increasing series should give RSI 100, got %v", up)
	}
	down := RSI(falling(120), 14)
	if down == nil || *down > 1 {
		t.Fatalf("strictly decreasing series should converge to 0, got %v", *down)
	}
}

func TestEMASeriesSeed(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6}
	ema := EMASeries(values, 3)
	if len(ema) != 4 {
		t.Fatalf("expected 4 EMA points, got %d", len(ema))
	}
	if ema[0] != 2 { // simple mean of 1,2,3
		t.Fatalf("expected seed 2, got %v", ema[0])
	}
	k := 2.0 / 4.0
	want := values[3]*k + ema[0]*(1-k)
	if math.Abs(ema[1]-want) > 1e-12 {
		t.Fatalf("expected %v, got %v", want, ema[1])
	}
	if EMASeries(values, 7) != nil {
		t.Fatalf("expected nil for short series")
	}
}

func TestMACDAvailability(t *testing.T) {
	line, signal, hist := MACD(rising(25))
	if line != nil || signal != nil || hist != nil {
		t.Fatalf("expected all nil below 26 closes")
	}

	line, signal, hist = MACD(rising(30))
	if line == nil {
		t.Fatalf("expected MACD line at 30 closes")
	}
	if signal != nil || hist != nil {
		t.Fatalf("signal/hist must stay nil until 35 closes")
	}

	line, signal, hist = MACD(rising(60))
	if line == nil || signal == nil || hist == nil {
		t.Fatalf("expected full MACD at 60 closes")
	}
}

func TestMACDHistogramSign(t *testing.T) {
	for _, closes := range [][]float64{rising(80), falling(80)} {
		line, signal, hist := MACD(closes)
		if line == nil || signal == nil || hist == nil {
			t.Fatalf("expected full MACD")
		}
		diff := *line - *signal
		if math.Abs(*hist-diff) > 1e-12 {
			t.Fatalf("histogram %v != line-signal %v", *hist, diff)
		}
		if (diff > 0) != (*hist > 0) && diff != 0 {
			t.Fatalf("histogram sign mismatch: hist=%v diff=%v", *hist, diff)
		}
	}
}

func TestSMA(t *testing.T) {
	got := SMA([]float64{1, 2, 3, 4, 5}, 5)
	if got == nil || *got != 3 {
		t.Fatalf("expected 3, got %v", got)
	}
	if SMA([]float64{1, 2}, 5) != nil {
		t.Fatalf("expected nil for short series")
	}
	trailing := SMA([]float64{10, 10, 1, 2, 3}, 3)
	if trailing == nil || *trailing != 2 {
		t.Fatalf("expected trailing mean 2, got %v", trailing)
	}
}

func TestRange52Week(t *testing.T) {
	bars := barsFromCloses("T", rising(300))
	high, low, ok := Range52Week(bars)
	if !ok {
		t.Fatalf("expected a range")
	}
	// Window covers the last 252 bars only.
	wantLow := bars[300-252].Low
	if low != wantLow {
		t.Fatalf("expected low %v, got %v", wantLow, low)
	}
	if high != bars[299].High {
		t.Fatalf("expected high %v, got %v", bars[299].High, high)
	}
	if _, _, ok := Range52Week(nil); ok {
		t.Fatalf("empty series must not produce a range")
	}
}

func TestRangePosition(t *testing.T) {
	if got := RangePosition(15, 20, 10); got != 0.5 {
		t.Fatalf("expected 0.5, got %v", got)
	}
	if got := RangePosition(5, 20, 10); got != 0 {
		t.Fatalf("expected clamp to 0, got %v", got)
	}
	if got := RangePosition(7, 7, 7); got != 0.5 {
		t.Fatalf("degenerate range should give 0.5, got %v", got)
	}
}

func TestReturnOverWindow(t *testing.T) {
	if got := ReturnOverWindow(rising(89), 90); got != nil {
		t.Fatalf("expected nil below 90 closes, got %v", *got)
	}
	closes := make([]float64, 90)
	for i := range closes {
		closes[i] = 100
	}
	closes[89] = 110
	got := ReturnOverWindow(closes, 90)
	if got == nil || math.Abs(*got-10.0) > 1e-9 {
		t.Fatalf("expected +10%%, got %v", got)
	}
}

func TestBuildSnapshotShortSeries(t *testing.T) {
	snap := BuildSnapshot("SHRT", barsFromCloses("SHRT", rising(10)), nil)
	if snap.RSI14 != nil || snap.MACDLine != nil || snap.MA200 != nil || snap.Return90d != nil {
		t.Fatalf("short series must leave deep-lookback indicators nil: %+v", snap)
	}
	if snap.High52w == nil || snap.PctBelow52wHigh == nil {
		t.Fatalf("range indicators are defined for any non-empty series")
	}
	if snap.Close != 109 {
		t.Fatalf("expected close 109, got %v", snap.Close)
	}
}

func TestBuildSnapshotRelativeReturn(t *testing.T) {
	bars := barsFromCloses("AAA", rising(260))
	bench := barsFromCloses("IDX", make([]float64, 260))
	for i := range bench {
		bench[i].Close = 100 // flat benchmark
	}
	snap := BuildSnapshot("AAA", bars, bench)
	if snap.Return90d == nil || snap.RelReturn90d == nil {
		t.Fatalf("expected 90d and relative returns")
	}
	if math.Abs(*snap.RelReturn90d-*snap.Return90d) > 1e-9 {
		t.Fatalf("flat benchmark should make relative equal absolute: %v vs %v",
			*snap.RelReturn90d, *snap.Return90d)
	}

	noBench := BuildSnapshot("AAA", bars, nil)
	if noBench.RelReturn90d != nil {
		t.Fatalf("missing benchmark must leave relative return nil")
	}
}
