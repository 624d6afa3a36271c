// Package marketdata loads bar series from files, SQLite, or a seeded
// random walk.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mltrader/internal/model"
)

var ErrUnknownFormat = errors.New("unknown data format")

// Supported formats.
const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
	FormatSQLite  = "sqlite"
	FormatRandom  = "random"
)

// Source produces the full bar history of one instrument.
type Source interface {
	Load(ctx context.Context, code string) (*model.Series, error)
}

// Options tune sources that need more than a path.
type Options struct {
	Bars     int           // random: number of bars
	Seed     int64         // random: rng seed
	Interval time.Duration // random: bar spacing
	Start    time.Time     // random: first bar; SQLite: load bars after this time
}

// New returns the source for format.
func New(format, path string, opts Options) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatCSV:
		return &CSVSource{Path: path}, nil
	case FormatParquet:
		return &ParquetSource{Path: path}, nil
	case FormatSQLite:
		return &SQLiteSource{Path: path, After: opts.Start}, nil
	case FormatRandom:
		return &RandomWalk{Bars: opts.Bars, Seed: opts.Seed, Interval: opts.Interval, Start: opts.Start}, nil
	default:
		return nil, fmt.Errorf("%w %q (use: csv, parquet, sqlite, random)", ErrUnknownFormat, format)
	}
}

// finish validates loaded bars and logs the range.
func finish(code, from string, bars []model.Bar) (*model.Series, error) {
	s, err := model.NewSeries(code, bars)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", from, code, err)
	}
	slog.Info("bars loaded", "code", code, "source", from, "bars", s.Len(),
		"first", bars[0].TS, "last", bars[len(bars)-1].TS)
	return s, nil
}
