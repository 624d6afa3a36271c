// Package sqlite persists bars, run summaries and per-bar predictions.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"mltrader/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

const defaultBatchSize = 500

// WriterConfig configures the SQLite writer.
type WriterConfig struct {
	DBPath string // path to SQLite database file, e.g. "data/bars.db"
}

// Writer is a single-connection SQLite writer with transaction batching.
type Writer struct {
	db *sql.DB
}

// DB returns the underlying sql.DB.
func (w *Writer) DB() *sql.DB { return w.db }

// New opens the database in WAL mode and creates the schema.
func New(cfg WriterConfig) (*Writer, error) {
	db, err := open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	// Set connection pool for single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	slog.Debug("sqlite opened", "path", cfg.DBPath)
	return &Writer{db: db}, nil
}

func open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	return db, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS bars (
			code    TEXT    NOT NULL,
			ts      INTEGER NOT NULL,
			open    REAL    NOT NULL,
			high    REAL    NOT NULL,
			low     REAL    NOT NULL,
			close   REAL    NOT NULL,
			volume  REAL    NOT NULL,
			PRIMARY KEY (code, ts)
		);

		CREATE TABLE IF NOT EXISTS runs (
			run_id     TEXT    PRIMARY KEY,
			code       TEXT    NOT NULL,
			summary    TEXT    NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS predictions (
			run_id  TEXT    NOT NULL,
			bar     INTEGER NOT NULL,
			ts      INTEGER NOT NULL,
			y_true  INTEGER NOT NULL,
			y_pred  INTEGER NOT NULL,
			PRIMARY KEY (run_id, bar)
		);
	`)
	return err
}

// WriteBars upserts bars for code in batched transactions.
func (w *Writer) WriteBars(code string, bars []model.Bar) error {
	start := time.Now()
	for lo := 0; lo < len(bars); lo += defaultBatchSize {
		hi := min(lo+defaultBatchSize, len(bars))
		if err := w.insertBatch(code, bars[lo:hi]); err != nil {
			return fmt.Errorf("sqlite insert bars: %w", err)
		}
	}
	slog.Debug("sqlite committed bars", "code", code, "count", len(bars), "took", time.Since(start))
	return nil
}

// insertBatch inserts a batch of bars in a single transaction.
func (w *Writer) insertBatch(code string, bars []model.Bar) error {
	tx, err := w.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO bars (code, ts, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.Exec(code, b.TS.UnixMilli(), b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// Prediction is one live bar's realised and predicted label.
type Prediction struct {
	Bar  int
	TS   time.Time
	True model.Label
	Pred model.Label
}

// SaveRun stores the JSON-encoded run summary.
func (w *Writer) SaveRun(runID, code string, summary any) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal run summary: %w", err)
	}
	_, err = w.db.Exec(`INSERT OR REPLACE INTO runs (run_id, code, summary, created_at) VALUES (?, ?, ?, ?)`,
		runID, code, string(data), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("sqlite insert run: %w", err)
	}
	return nil
}

// SavePredictions stores the live prediction sequence of a run.
func (w *Writer) SavePredictions(runID string, preds []Prediction) error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO predictions (run_id, bar, ts, y_true, y_pred) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite prepare predictions: %w", err)
	}
	defer stmt.Close()

	for _, p := range preds {
		if _, err := stmt.Exec(runID, p.Bar, p.TS.UnixMilli(), int(p.True), int(p.Pred)); err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlite insert prediction %d: %w", p.Bar, err)
		}
	}
	return tx.Commit()
}

// Close closes the database.
func (w *Writer) Close() error {
	return w.db.Close()
}
