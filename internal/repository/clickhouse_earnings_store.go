package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"PortWatch/internal/domain/models"
	domrepo "PortWatch/internal/domain/repository"
	pkgch "PortWatch/pkg/clickhouse"
	applogger "PortWatch/pkg/logger"
)

// CHEarningsStore implements EarningsStore backed by ClickHouse. One row per
// (symbol, fiscal_year, fiscal_quarter); upserts win by updated_at.
type CHEarningsStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHEarningsStore(ch *pkgch.Client, database string) *CHEarningsStore {
	return &CHEarningsStore{db: ch.DB(), table: database + ".earnings"}
}

// SetLogger injects a structured logger.
func (s *CHEarningsStore) SetLogger(l *applogger.Logger) { s.l = l }

var _ domrepo.EarningsStore = (*CHEarningsStore)(nil)

// Latest returns the most recent quarter's record for a symbol, or nil when
// the symbol has no earnings history.
func (s *CHEarningsStore) Latest(ctx context.Context, symbol string) (*models.EarningsRecord, error) {
	q := fmt.Sprintf(`
		SELECT symbol, fiscal_year, fiscal_quarter,
			   eps_actual, eps_estimate, revenue_actual, revenue_estimate,
			   guidance, reaction_pct, score, category, note
		FROM %s FINAL
		WHERE symbol = ?
		ORDER BY fiscal_year DESC, fiscal_quarter DESC
		LIMIT 1
	`, s.table)

	var rec models.EarningsRecord
	var year uint16
	var quarter, score uint8
	var guidance string
	err := s.db.QueryRowContext(ctx, q, symbol).Scan(
		&rec.Symbol, &year, &quarter,
		&rec.EPSActual, &rec.EPSEstimate, &rec.RevenueActual, &rec.RevenueEstimate,
		&guidance, &rec.ReactionPct, &score, &rec.Category, &rec.Note,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse latest_earnings query error",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("latest earnings: %w", err)
	}

	rec.FiscalYear = int(year)
	rec.FiscalQuarter = int(quarter)
	rec.Guidance = models.GuidanceDirection(guidance)
	rec.Score = int(score)
	return &rec, nil
}

// Upsert writes a scored earnings record for one quarter.
func (s *CHEarningsStore) Upsert(ctx context.Context, rec models.EarningsRecord) error {
	q := fmt.Sprintf(`
		INSERT INTO %s
			(symbol, fiscal_year, fiscal_quarter,
			 eps_actual, eps_estimate, revenue_actual, revenue_estimate,
			 guidance, reaction_pct, score, category, note, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.table)

	if _, err := s.db.ExecContext(ctx, q,
		rec.Symbol, uint16(rec.FiscalYear), uint8(rec.FiscalQuarter),
		rec.EPSActual, rec.EPSEstimate, rec.RevenueActual, rec.RevenueEstimate,
		string(rec.Guidance), rec.ReactionPct, uint8(rec.Score), rec.Category, rec.Note,
		time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("upsert earnings %s %dQ%d: %w", rec.Symbol, rec.FiscalYear, rec.FiscalQuarter, err)
	}
	return nil
}
