// cmd/barimport loads bars from any supported source and writes them to the
// SQLite bar store and/or a Parquet file, so later backtests can read them
// with --format=sqlite or --format=parquet.
//
// Usage:
//
//	go run ./cmd/barimport --code=ENJ/USDT --in=data/ENJUSDT.csv --db=data/bars.db
//	go run ./cmd/barimport --code=ENJ/USDT --in-format=random --bars=8000 --parquet=data/enj.parquet
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"mltrader/internal/logger"
	"mltrader/internal/marketdata"
	parquetstore "mltrader/internal/store/parquet"
	sqlitestore "mltrader/internal/store/sqlite"
)

func main() {
	code := flag.String("code", "ENJ/USDT", "Instrument code")
	in := flag.String("in", "", "Input path")
	inFormat := flag.String("in-format", marketdata.FormatCSV, "Input format: csv|parquet|sqlite|random")
	bars := flag.Int("bars", 5000, "Bars to generate for --in-format=random")
	seed := flag.Int64("seed", 1, "Seed for --in-format=random")
	dbPath := flag.String("db", "", "SQLite bar store to upsert into")
	pqPath := flag.String("parquet", "", "Parquet file to write")
	level := flag.String("log-level", "info", "Log level")
	flag.Parse()

	lg := logger.Init("barimport", logger.ParseLevel(*level))
	if *dbPath == "" && *pqPath == "" {
		log.Fatal("[barimport] nothing to do: set --db and/or --parquet")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	src, err := marketdata.New(*inFormat, *in, marketdata.Options{Bars: *bars, Seed: *seed})
	if err != nil {
		log.Fatalf("[barimport] %v", err)
	}
	series, err := src.Load(ctx, *code)
	if err != nil {
		log.Fatalf("[barimport] load: %v", err)
	}

	if *dbPath != "" {
		w, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: *dbPath})
		if err != nil {
			log.Fatalf("[barimport] %v", err)
		}
		err = w.WriteBars(*code, series.Bars)
		w.Close()
		if err != nil {
			log.Fatalf("[barimport] %v", err)
		}
		lg.Info("bars stored", "code", *code, "db", *dbPath, "bars", series.Len())
	}
	if *pqPath != "" {
		if err := parquetstore.WriteBars(*pqPath, series.Bars); err != nil {
			log.Fatalf("[barimport] %v", err)
		}
		lg.Info("bars written", "code", *code, "parquet", *pqPath, "bars", series.Len())
	}
}
