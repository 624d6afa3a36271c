package marketdata

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"mltrader/internal/model"
)

var ErrMissingColumn = errors.New("csv: missing column")

// CSVSource reads a headered OHLCV file. The timestamp column may be named
// timestamp, time, date, datetime or ts; values are RFC 3339, a
// "2006-01-02 15:04:05" style date, or unix seconds/milliseconds.
type CSVSource struct {
	Path string
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (c *CSVSource) Load(ctx context.Context, code string) (*model.Series, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c.Path, err)
	}
	defer f.Close()

	bars, err := ReadCSV(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Path, err)
	}
	return finish(code, "csv", bars)
}

// ReadCSV parses bars from r without validating them.
func ReadCSV(ctx context.Context, r io.Reader) ([]model.Bar, error) {
	cr := csv.NewReader(bufio.NewReaderSize(r, 1<<20))
	cr.ReuseRecord = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var bars []model.Bar
	for line := 2; ; line++ {
		if line%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		b, err := parseRecord(rec, idx)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		bars = append(bars, b)
	}
	return bars, nil
}

type csvIndex struct{ ts, open, high, low, close, volume int }

func columnIndex(header []string) (csvIndex, error) {
	idx := csvIndex{-1, -1, -1, -1, -1, -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "timestamp", "time", "date", "datetime", "ts", "open_time":
			idx.ts = i
		case "open", "o":
			idx.open = i
		case "high", "h":
			idx.high = i
		case "low", "l":
			idx.low = i
		case "close", "c":
			idx.close = i
		case "volume", "vol", "v":
			idx.volume = i
		}
	}
	for name, i := range map[string]int{"timestamp": idx.ts, "open": idx.open, "high": idx.high, "low": idx.low, "close": idx.close, "volume": idx.volume} {
		if i < 0 {
			return idx, fmt.Errorf("%w %q", ErrMissingColumn, name)
		}
	}
	return idx, nil
}

func parseRecord(rec []string, idx csvIndex) (model.Bar, error) {
	var b model.Bar
	ts, err := ParseTime(rec[idx.ts])
	if err != nil {
		return b, err
	}
	b.TS = ts
	fields := []struct {
		dst *float64
		col int
	}{{&b.Open, idx.open}, {&b.High, idx.high}, {&b.Low, idx.low}, {&b.Close, idx.close}, {&b.Volume, idx.volume}}
	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[f.col]), 64)
		if err != nil {
			return b, fmt.Errorf("column %d: %w", f.col, err)
		}
		*f.dst = v
	}
	return b, nil
}

// ParseTime accepts the layouts listed on CSVSource. Integers of 12 or more
// digits are milliseconds, shorter ones seconds.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if len(strings.TrimLeft(s, "-")) >= 12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
