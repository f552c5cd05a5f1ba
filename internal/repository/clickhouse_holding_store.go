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

// CHHoldingStore implements HoldingStore backed by ClickHouse. The table is
// a ReplacingMergeTree keyed by (region, symbol); a region re-import wins by
// imported_at and FINAL collapses older rows on read.
type CHHoldingStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHHoldingStore(ch *pkgch.Client, database string) *CHHoldingStore {
	return &CHHoldingStore{db: ch.DB(), table: database + ".holdings"}
}

// SetLogger injects a structured logger.
func (s *CHHoldingStore) SetLogger(l *applogger.Logger) { s.l = l }

var _ domrepo.HoldingStore = (*CHHoldingStore)(nil)

// ListByRegion returns the current holdings set for one region, ordered by
// symbol.
func (s *CHHoldingStore) ListByRegion(ctx context.Context, region models.Region) ([]models.Holding, error) {
	q := fmt.Sprintf(`
		SELECT symbol, region, classification, tier, weight, book_price, quantity
		FROM %s FINAL
		WHERE region = ?
		ORDER BY symbol ASC
	`, s.table)

	rows, err := s.db.QueryContext(ctx, q, string(region))
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse list_holdings query error",
				applogger.String("region", string(region)),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("list holdings: %w", err)
	}
	defer rows.Close()

	out := make([]models.Holding, 0, 64)
	for rows.Next() {
		var h models.Holding
		var region, class string
		var tier uint8
		if err := rows.Scan(&h.Symbol, &region, &class, &tier, &h.Weight, &h.BookPrice, &h.Quantity); err != nil {
			return nil, fmt.Errorf("scan holding: %w", err)
		}
		h.Region = models.Region(region)
		h.Classification = models.Classification(class)
		h.Tier = int(tier)
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// ReplaceRegion writes a fresh holdings set for a region. All rows share one
// imported_at so the replace is atomic from the reader's point of view.
func (s *CHHoldingStore) ReplaceRegion(ctx context.Context, region models.Region, holdings []models.Holding) error {
	importedAt := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	q := fmt.Sprintf("INSERT INTO %s (region, symbol, classification, tier, weight, book_price, quantity, imported_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)", s.table)
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, h := range holdings {
		if _, err := stmt.ExecContext(ctx,
			string(region), h.Symbol, string(h.Classification), uint8(h.Tier),
			h.Weight, h.BookPrice, h.Quantity, importedAt,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert holding %s: %w", h.Symbol, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	if s.l != nil {
		s.l.Info("holdings replaced",
			applogger.String("region", string(region)),
			applogger.Int("rows", len(holdings)),
		)
	}
	return nil
}
