// Package parquet reads and writes bar files and exports feature matrices.
package parquet

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"mltrader/internal/model"
)

// BarRow is the on-disk layout of one bar. Timestamps are unix milliseconds.
type BarRow struct {
	Timestamp int64   `parquet:"t"`
	Open      float64 `parquet:"o"`
	High      float64 `parquet:"h"`
	Low       float64 `parquet:"l"`
	Close     float64 `parquet:"c"`
	Volume    float64 `parquet:"v"`
}

// ReadBars loads every row of a bar file in file order.
func ReadBars(path string) ([]model.Bar, error) {
	rows, err := parquet.ReadFile[BarRow](path)
	if err != nil {
		return nil, fmt.Errorf("parquet read %s: %w", path, err)
	}
	bars := make([]model.Bar, len(rows))
	for i, r := range rows {
		bars[i] = model.Bar{
			TS:     time.UnixMilli(r.Timestamp).UTC(),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		}
	}
	return bars, nil
}

// WriteBars writes bars to path, replacing any existing file.
func WriteBars(path string, bars []model.Bar) error {
	rows := make([]BarRow, len(bars))
	for i, b := range bars {
		rows[i] = BarRow{
			Timestamp: b.TS.UnixMilli(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		}
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("parquet write %s: %w", path, err)
	}
	return nil
}

// FeatureRow is one bar of an exported feature matrix. Values follow the
// column order stored under the "columns" key of the file metadata.
type FeatureRow struct {
	Timestamp int64     `parquet:"t"`
	Bar       int64     `parquet:"bar"`
	Label     int32     `parquet:"label"`
	Values    []float64 `parquet:"values,list"`
}

const columnsKey = "columns"

// WriteFeatures exports a feature matrix with its column names.
func WriteFeatures(path string, columns []string, rows []FeatureRow) error {
	for i, r := range rows {
		if len(r.Values) != len(columns) {
			return fmt.Errorf("feature row %d: %d values for %d columns", i, len(r.Values), len(columns))
		}
	}
	err := parquet.WriteFile(path, rows,
		parquet.KeyValueMetadata(columnsKey, strings.Join(columns, ",")))
	if err != nil {
		return fmt.Errorf("parquet write features %s: %w", path, err)
	}
	return nil
}

// ReadFeatures loads an exported feature matrix and its column names.
func ReadFeatures(path string) ([]string, []FeatureRow, error) {
	columns, err := readColumns(path)
	if err != nil {
		return nil, nil, err
	}
	rows, err := parquet.ReadFile[FeatureRow](path)
	if err != nil {
		return nil, nil, fmt.Errorf("parquet read features %s: %w", path, err)
	}
	return columns, rows, nil
}

func readColumns(path string) ([]string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer fh.Close()
	st, err := fh.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	f, err := parquet.OpenFile(fh, st.Size())
	if err != nil {
		return nil, fmt.Errorf("parquet open %s: %w", path, err)
	}
	v, ok := f.Lookup(columnsKey)
	if !ok || v == "" {
		return nil, nil
	}
	return strings.Split(v, ","), nil
}
