package marketdata

import (
	"context"
	"time"

	"mltrader/internal/model"
	parquetstore "mltrader/internal/store/parquet"
	sqlitestore "mltrader/internal/store/sqlite"
)

// ParquetSource reads a bar file written by store/parquet.
type ParquetSource struct {
	Path string
}

func (p *ParquetSource) Load(ctx context.Context, code string) (*model.Series, error) {
	bars, err := parquetstore.ReadBars(p.Path)
	if err != nil {
		return nil, err
	}
	return finish(code, "parquet", bars)
}

// SQLiteSource reads the bars table of a store/sqlite database.
type SQLiteSource struct {
	Path  string
	After time.Time
}

func (s *SQLiteSource) Load(ctx context.Context, code string) (*model.Series, error) {
	r, err := sqlitestore.NewReader(s.Path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	bars, err := r.ReadBars(code, s.After)
	if err != nil {
		return nil, err
	}
	return finish(code, "sqlite", bars)
}
