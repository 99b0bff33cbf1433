// Package storage persists the fill history in SQLite.
//
// The fills table is append-only: Apply writes a fill once and nothing ever
// updates or deletes it. Load order is execution order (seq), which is what
// makes the ledger replayable from disk.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS fills (
    seq         INTEGER PRIMARY KEY AUTOINCREMENT,
    id          TEXT    NOT NULL UNIQUE,
    market_id   TEXT    NOT NULL,
    strategy    TEXT    NOT NULL,
    size        INTEGER NOT NULL,
    yes_price   REAL    NOT NULL,
    no_price    REAL    NOT NULL,
    fees        REAL    NOT NULL DEFAULT 0,
    gas_cost    REAL    NOT NULL DEFAULT 0,
    cash_delta  REAL    NOT NULL,
    executed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fills_market ON fills(market_id);
CREATE INDEX IF NOT EXISTS idx_fills_at     ON fills(executed_at);
`

// SQLiteStorage implements ports.LedgerStorage on a local SQLite file
// (pure Go driver, no CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (or creates) the database at the given path and
// applies the schema.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// SaveFill appends one fill. Saving the same fill ID twice is an error —
// fills are immutable and never rewritten.
func (s *SQLiteStorage) SaveFill(ctx context.Context, f domain.Fill) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fills (id, market_id, strategy, size, yes_price, no_price,
		                   fees, gas_cost, cash_delta, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.MarketID, f.Strategy.String(), f.Size, f.YesPrice, f.NoPrice,
		f.Fees, f.GasCost, f.CashDelta, f.ExecutedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("storage.SaveFill: insert %s: %w", f.ID, err)
	}
	return nil
}

// LoadFills returns the full fill history in execution order.
func (s *SQLiteStorage) LoadFills(ctx context.Context) ([]domain.Fill, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, market_id, strategy, size, yes_price, no_price,
		       fees, gas_cost, cash_delta, executed_at
		FROM fills
		ORDER BY seq ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage.LoadFills: query: %w", err)
	}
	defer rows.Close()

	var fills []domain.Fill
	for rows.Next() {
		var f domain.Fill
		var strategy, executedAt string

		if err := rows.Scan(
			&f.ID, &f.MarketID, &strategy, &f.Size, &f.YesPrice, &f.NoPrice,
			&f.Fees, &f.GasCost, &f.CashDelta, &executedAt,
		); err != nil {
			return nil, fmt.Errorf("storage.LoadFills: scan row: %w", err)
		}

		f.Strategy, err = parseStrategy(strategy)
		if err != nil {
			return nil, fmt.Errorf("storage.LoadFills: fill %s: %w", f.ID, err)
		}
		f.ExecutedAt, _ = time.Parse(time.RFC3339Nano, executedAt)
		fills = append(fills, f)
	}

	return fills, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func parseStrategy(s string) (domain.Strategy, error) {
	switch s {
	case domain.DirectDoubleBuy.String():
		return domain.DirectDoubleBuy, nil
	case domain.SplitThenSell.String():
		return domain.SplitThenSell, nil
	default:
		return 0, fmt.Errorf("unknown strategy %q", s)
	}
}
