package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mltrader/internal/model"
)

// ErrRunNotFound is returned by ReadRun for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// Reader provides read-only access to bars and stored runs.
type Reader struct {
	db *sql.DB
}

// NewReader opens a SQLite connection for reading.
func NewReader(dbPath string) (*Reader, error) {
	db, err := open(dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)
	return &Reader{db: db}, nil
}

// ReadBars returns bars for code after afterTS (0 = all), ascending by timestamp.
func (r *Reader) ReadBars(code string, afterTS time.Time) ([]model.Bar, error) {
	var after int64
	if !afterTS.IsZero() {
		after = afterTS.UnixMilli()
	}
	rows, err := r.db.Query(`
		SELECT ts, open, high, low, close, volume
		FROM bars
		WHERE code = ? AND ts > ?
		ORDER BY ts ASC
	`, code, after)
	if err != nil {
		return nil, fmt.Errorf("sqlite query bars: %w", err)
	}
	defer rows.Close()

	var bars []model.Bar
	for rows.Next() {
		var b model.Bar
		var ms int64
		if err := rows.Scan(&ms, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("sqlite scan bars: %w", err)
		}
		b.TS = time.UnixMilli(ms).UTC()
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// ReadRun decodes a stored run summary into dst.
func (r *Reader) ReadRun(runID string, dst any) error {
	var data string
	err := r.db.QueryRow(`SELECT summary FROM runs WHERE run_id = ?`, runID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return fmt.Errorf("sqlite read run: %w", err)
	}
	if err := json.Unmarshal([]byte(data), dst); err != nil {
		return fmt.Errorf("unmarshal run summary: %w", err)
	}
	return nil
}

// ReadPredictions returns the stored prediction sequence of a run, by bar.
func (r *Reader) ReadPredictions(runID string) ([]Prediction, error) {
	rows, err := r.db.Query(`
		SELECT bar, ts, y_true, y_pred FROM predictions
		WHERE run_id = ? ORDER BY bar ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("sqlite query predictions: %w", err)
	}
	defer rows.Close()

	var out []Prediction
	for rows.Next() {
		var p Prediction
		var ms int64
		var yt, yp int
		if err := rows.Scan(&p.Bar, &ms, &yt, &yp); err != nil {
			return nil, fmt.Errorf("sqlite scan predictions: %w", err)
		}
		p.TS = time.UnixMilli(ms).UTC()
		p.True, p.Pred = model.Label(yt), model.Label(yp)
		out = append(out, p)
	}
	return out, rows.Err()
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.db.Close()
}
