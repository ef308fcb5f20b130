// Package sqlite persists the trade journal and run summaries to SQLite
// for analysis and audit.
package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"trading-botv1/internal/model"
)

// Journal records every executed trade as it happens and the final
// balances once at shutdown. It satisfies the result sink port.
type Journal struct {
	mu  sync.Mutex
	db  *sql.DB
	log *slog.Logger
}

// NewJournal opens (or creates) a SQLite journal database.
func NewJournal(dbPath string, log *slog.Logger) (*Journal, error) {
	if log == nil {
		log = slog.Default()
	}
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_sync=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS trades (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		side        TEXT NOT NULL,
		price       REAL NOT NULL,
		base_amount REAL NOT NULL,
		quote_value REAL NOT NULL,
		executed_at DATETIME NOT NULL,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_trades_side ON trades(side);
	CREATE INDEX IF NOT EXISTS idx_trades_executed_at ON trades(executed_at);

	CREATE TABLE IF NOT EXISTS runs (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		quote        REAL NOT NULL,
		base         REAL NOT NULL,
		trade_count  INTEGER NOT NULL,
		finished_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	log.Info("trade journal opened", "path", dbPath)
	return &Journal{db: db, log: log}, nil
}

// RecordTrade persists one trade as it executes.
func (j *Journal) RecordTrade(t model.Trade) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(
		`INSERT INTO trades (side, price, base_amount, quote_value, executed_at)
		 VALUES (?, ?, ?, ?, ?)`,
		string(t.Side),
		t.Price,
		t.BaseAmount,
		t.QuoteValue,
		t.TS.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("record trade: %w", err)
	}
	return nil
}

// Persist stores the run summary. Trades already recorded through
// RecordTrade are not re-inserted; any the journal has not seen yet
// (e.g. when per-trade recording was disabled) are written now.
func (j *Journal) Persist(final model.Balance, trades []model.Trade) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	var recorded int
	if err := j.db.QueryRow(`SELECT COUNT(*) FROM trades`).Scan(&recorded); err != nil {
		return fmt.Errorf("persist run: %w", err)
	}
	for i := recorded; i < len(trades); i++ {
		t := trades[i]
		if _, err := j.db.Exec(
			`INSERT INTO trades (side, price, base_amount, quote_value, executed_at)
			 VALUES (?, ?, ?, ?, ?)`,
			string(t.Side), t.Price, t.BaseAmount, t.QuoteValue,
			t.TS.UTC().Format(time.RFC3339),
		); err != nil {
			return fmt.Errorf("persist run: backfill trade %d: %w", i, err)
		}
	}

	_, err := j.db.Exec(
		`INSERT INTO runs (quote, base, trade_count) VALUES (?, ?, ?)`,
		final.Quote, final.Base, len(trades),
	)
	if err != nil {
		return fmt.Errorf("persist run: %w", err)
	}
	j.log.Info("run summary persisted",
		"quote", final.Quote, "base", final.Base, "trades", len(trades))
	return nil
}

// TradeRecord represents a row from the trades table.
type TradeRecord struct {
	ID         int64   `json:"id"`
	Side       string  `json:"side"`
	Price      float64 `json:"price"`
	BaseAmount float64 `json:"base_amount"`
	QuoteValue float64 `json:"quote_value"`
	ExecutedAt string  `json:"executed_at"`
}

// Trades returns the last N trades, newest first.
func (j *Journal) Trades(limit int) ([]TradeRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.Query(
		`SELECT id, side, price, base_amount, quote_value, executed_at
		 FROM trades ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var trades []TradeRecord
	for rows.Next() {
		var t TradeRecord
		if err := rows.Scan(&t.ID, &t.Side, &t.Price, &t.BaseAmount,
			&t.QuoteValue, &t.ExecutedAt); err != nil {
			continue
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}
