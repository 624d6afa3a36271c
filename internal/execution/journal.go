package execution

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"mltrader/internal/model"
)

// Journal persists acknowledgements and timeouts to SQLite for audit.
type Journal struct {
	mu    sync.Mutex
	db    *sql.DB
	runID string
}

// NewJournal opens (or creates) a SQLite journal database. Every row it
// writes is tagged with runID.
func NewJournal(dbPath, runID string) (*Journal, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("journal open: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS fills (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id      TEXT NOT NULL,
		order_id    TEXT NOT NULL,
		code        TEXT NOT NULL,
		side        TEXT NOT NULL,
		qty         REAL NOT NULL,
		price       REAL NOT NULL,
		commission  REAL NOT NULL,
		pnl         REAL NOT NULL,
		pnl_net     REAL NOT NULL,
		is_open     INTEGER NOT NULL,
		cash        REAL NOT NULL,
		filled_at   DATETIME NOT NULL,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS order_timeouts (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id      TEXT NOT NULL,
		order_id    TEXT NOT NULL,
		code        TEXT NOT NULL,
		kind        TEXT NOT NULL,
		reason      TEXT,
		at          DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_fills_run ON fills(run_id);
	CREATE INDEX IF NOT EXISTS idx_fills_code ON fills(code);
	CREATE INDEX IF NOT EXISTS idx_timeouts_run ON order_timeouts(run_id);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal schema: %w", err)
	}

	slog.Info("trade journal opened", "path", dbPath, "run_id", runID)
	return &Journal{db: db, runID: runID}, nil
}

// RecordAck persists a fill.
func (j *Journal) RecordAck(ack model.Ack) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(
		`INSERT INTO fills (run_id, order_id, code, side, qty, price, commission, pnl, pnl_net, is_open, cash, filled_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.runID,
		ack.OrderID,
		ack.Code,
		string(ack.Side),
		ack.Qty,
		ack.Price,
		ack.Commission,
		ack.PnL,
		ack.PnLNet,
		ack.IsOpen,
		ack.Cash,
		ack.FilledAt.UTC().Format(time.RFC3339),
	)
	return err
}

// RecordTimeout persists an unfilled order.
func (j *Journal) RecordTimeout(to model.Timeout) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(
		`INSERT INTO order_timeouts (run_id, order_id, code, kind, reason, at) VALUES (?, ?, ?, ?, ?, ?)`,
		j.runID, to.OrderID, to.Code, string(to.Kind), to.Reason, to.At.UTC().Format(time.RFC3339),
	)
	return err
}

// FillRecord is a row from the fills table.
type FillRecord struct {
	ID         int64   `json:"id"`
	RunID      string  `json:"run_id"`
	OrderID    string  `json:"order_id"`
	Code       string  `json:"code"`
	Side       string  `json:"side"`
	Qty        float64 `json:"qty"`
	Price      float64 `json:"price"`
	Commission float64 `json:"commission"`
	PnL        float64 `json:"pnl"`
	PnLNet     float64 `json:"pnl_net"`
	IsOpen     bool    `json:"is_open"`
	FilledAt   string  `json:"filled_at"`
}

// GetFills returns the last N fills of this run, newest first.
func (j *Journal) GetFills(limit int) ([]FillRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.Query(
		`SELECT id, run_id, order_id, code, side, qty, price, commission, pnl, pnl_net, is_open, filled_at
		 FROM fills WHERE run_id = ? ORDER BY id DESC LIMIT ?`, j.runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fills []FillRecord
	for rows.Next() {
		var f FillRecord
		if err := rows.Scan(&f.ID, &f.RunID, &f.OrderID, &f.Code, &f.Side, &f.Qty, &f.Price,
			&f.Commission, &f.PnL, &f.PnLNet, &f.IsOpen, &f.FilledAt); err != nil {
			return nil, fmt.Errorf("journal scan: %w", err)
		}
		fills = append(fills, f)
	}
	return fills, rows.Err()
}

// CountTimeouts returns how many timeouts this run recorded.
func (j *Journal) CountTimeouts() (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var n int
	err := j.db.QueryRow(`SELECT COUNT(*) FROM order_timeouts WHERE run_id = ?`, j.runID).Scan(&n)
	return n, err
}

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}
