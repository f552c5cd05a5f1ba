package models

import "time"

// PricePoint is one daily OHLCV bar for a symbol. Bars are immutable once
// written, ordered ascending by date, one row per (symbol, date).
type PricePoint struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}
