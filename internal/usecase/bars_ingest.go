package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"PortWatch/internal/domain/models"
	domrepo "PortWatch/internal/domain/repository"
	pkgkafka "PortWatch/pkg/kafka"
	"PortWatch/pkg/util"
)

// BarsIngestHandler consumes daily bars from Kafka and writes them to the
// price store.
type BarsIngestHandler struct {
	topic   string
	prices  domrepo.PriceStore
	metrics domrepo.Metrics
}

func NewBarsIngestHandler(topic string, prices domrepo.PriceStore, metrics domrepo.Metrics) *BarsIngestHandler {
	return &BarsIngestHandler{topic: topic, prices: prices, metrics: metrics}
}

func (h *BarsIngestHandler) Topic() string { return h.topic }

// incoming message schema: {symbol, date, open, high, low, close, volume}
func (h *BarsIngestHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol string  `json:"symbol"`
		Date   string  `json:"date"`
		Open   float64 `json:"open"`
		High   float64 `json:"high"`
		Low    float64 `json:"low"`
		Close  float64 `json:"close"`
		Volume float64 `json:"volume"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.Symbol == "" {
		h.metrics.RecordError("consumer_empty_symbol")
		return fmt.Errorf("bar without symbol")
	}
	date, ok := util.ParseTime(m.Date)
	if !ok {
		h.metrics.RecordError("consumer_bad_date")
		return fmt.Errorf("bar for %s has unparseable date %q", m.Symbol, m.Date)
	}
	if m.Close <= 0 || m.High < m.Low {
		h.metrics.RecordError("consumer_bad_bar")
		return fmt.Errorf("bar for %s fails sanity checks", m.Symbol)
	}

	start := time.Now()
	err := h.prices.StoreBars(ctx, []models.PricePoint{{
		Symbol: m.Symbol,
		Date:   util.DayStart(date),
		Open:   m.Open,
		High:   m.High,
		Low:    m.Low,
		Close:  m.Close,
		Volume: m.Volume,
	}})
	h.metrics.RecordLatency("ch_insert", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordBarIngested(m.Symbol)
	return nil
}

var _ pkgkafka.MessageHandler = (*BarsIngestHandler)(nil)
