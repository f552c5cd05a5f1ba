package models

import "time"

// IndicatorSnapshot holds the technical indicators derived from a symbol's
// trailing price window. It is a computed view, recomputable on demand and
// never persisted as a source of truth. Fields are nil when the trailing
// window is shorter than the indicator's required lookback.
type IndicatorSnapshot struct {
	Symbol string    `json:"symbol"`
	AsOf   time.Time `json:"as_of"`
	Close  float64   `json:"close"`

	RSI14      *float64 `json:"rsi_14,omitempty"`
	MACDLine   *float64 `json:"macd_line,omitempty"`
	MACDSignal *float64 `json:"macd_signal,omitempty"`
	MACDHist   *float64 `json:"macd_hist,omitempty"`
	MA50       *float64 `json:"ma_50,omitempty"`
	MA200      *float64 `json:"ma_200,omitempty"`

	High52w         *float64 `json:"high_52w,omitempty"`
	Low52w          *float64 `json:"low_52w,omitempty"`
	Position52w     *float64 `json:"position_52w,omitempty"`       // 0..1 within the 52-week range
	PctBelow52wHigh *float64 `json:"pct_below_52w_high,omitempty"` // percent below the 52-week high

	Return90d    *float64 `json:"return_90d,omitempty"`     // percent
	RelReturn90d *float64 `json:"rel_return_90d,omitempty"` // percent, vs region benchmark
}
