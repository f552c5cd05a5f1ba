package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"PortWatch/internal/domain/models"
	domrepo "PortWatch/internal/domain/repository"
	pkgch "PortWatch/pkg/clickhouse"
	applogger "PortWatch/pkg/logger"
)

// CHPriceStore implements PriceStore backed by ClickHouse.
type CHPriceStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHPriceStore(ch *pkgch.Client, database string) *CHPriceStore {
	return &CHPriceStore{db: ch.DB(), table: database + ".price_daily"}
}

// SetLogger injects a structured logger.
func (s *CHPriceStore) SetLogger(l *applogger.Logger) { s.l = l }

var _ domrepo.PriceStore = (*CHPriceStore)(nil)

// LatestBars returns the trailing n daily bars for a symbol, ascending by
// date. Fewer rows than n is not an error.
func (s *CHPriceStore) LatestBars(ctx context.Context, symbol string, n int) ([]models.PricePoint, error) {
	start := time.Now()
	q := fmt.Sprintf(`
		SELECT symbol, date, open, high, low, close, volume
		FROM %s
		WHERE symbol = ?
		ORDER BY date DESC
		LIMIT ?
	`, s.table)

	rows, err := s.db.QueryContext(ctx, q, symbol, n)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse latest_bars query error",
				applogger.String("symbol", symbol),
				applogger.Int("limit", n),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("latest bars: %w", err)
	}
	defer rows.Close()

	tmp := make([]models.PricePoint, 0, n)
	for rows.Next() {
		var p models.PricePoint
		if err := rows.Scan(&p.Symbol, &p.Date, &p.Open, &p.High, &p.Low, &p.Close, &p.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		tmp = append(tmp, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	// flip DESC result into ascending order
	out := make([]models.PricePoint, len(tmp))
	for i, p := range tmp {
		out[len(tmp)-1-i] = p
	}

	if s.l != nil {
		s.l.Debug("clickhouse latest_bars ok",
			applogger.String("symbol", symbol),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

// StoreBars inserts daily bars in one batch. The table dedupes on
// (symbol, date) at merge time, so replays are harmless.
func (s *CHPriceStore) StoreBars(ctx context.Context, bars []models.PricePoint) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	q := fmt.Sprintf("INSERT INTO %s (symbol, date, open, high, low, close, volume) VALUES (?, ?, ?, ?, ?, ?, ?)", s.table)
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, b.Symbol, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert bar %s %s: %w", b.Symbol, b.Date.Format("2006-01-02"), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	if s.l != nil {
		s.l.Debug("clickhouse store_bars ok", applogger.Int("rows", len(bars)))
	}
	return nil
}

// Health pings the underlying connection pool.
func (s *CHPriceStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
