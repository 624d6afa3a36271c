// cmd/backtest trains the random-forest strategy on the leading window of
// one instrument's bar history and paper-trades the rest.
//
// Usage:
//
//	go run ./cmd/backtest --data=data/ENJUSDT.csv --format=csv --pretrain=3500
//	go run ./cmd/backtest --format=random --bars=6000
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mltrader/config"
	"mltrader/internal/classifier"
	"mltrader/internal/execution"
	"mltrader/internal/feature"
	"mltrader/internal/label"
	"mltrader/internal/logger"
	"mltrader/internal/marketdata"
	"mltrader/internal/metrics"
	"mltrader/internal/model"
	"mltrader/internal/notification"
	"mltrader/internal/portfolio"
	"mltrader/internal/report"
	parquetstore "mltrader/internal/store/parquet"
	redisstore "mltrader/internal/store/redis"
	sqlitestore "mltrader/internal/store/sqlite"
	"mltrader/internal/strategy"
)

const modelName = "Random Forest Classifier"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[backtest] config: %v", err)
	}

	// Flags override the environment
	flag.StringVar(&cfg.Code, "code", cfg.Code, "Instrument code")
	flag.StringVar(&cfg.DataPath, "data", cfg.DataPath, "Bar data path")
	flag.StringVar(&cfg.DataFormat, "format", cfg.DataFormat, "Bar data format: csv|parquet|sqlite|random")
	flag.IntVar(&cfg.RandomBars, "bars", cfg.RandomBars, "Bars to generate for --format=random")
	flag.IntVar(&cfg.NumPreTrain, "pretrain", cfg.NumPreTrain, "Training window size in bars")
	flag.StringVar(&cfg.FeaturesOut, "features-out", cfg.FeaturesOut, "Write the feature matrix to this parquet file")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("[backtest] invalid config: %v", err)
	}

	lg := logger.Init("backtest", logger.ParseLevel(cfg.LogLevel))
	runID := logger.NewRunID(cfg.Code, time.Now())

	ctx, cancel := context.WithCancel(logger.WithRunID(context.Background(), runID))
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		lg.Warn("interrupt received, stopping", logger.Attrs(ctx)...)
		cancel()
	}()

	lg.Info("backtest starting", append(logger.Attrs(ctx), "config", cfg)...)
	if err := run(ctx, cfg, runID, lg); err != nil {
		lg.Error("backtest failed", append(logger.Attrs(ctx), "err", err)...)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, runID string, lg *slog.Logger) error {
	progress := metrics.NewProgress(runID)
	m := metrics.NewMetrics(prometheus.DefaultRegisterer)
	if cfg.MetricsAddr != "" {
		srv := metrics.NewServer(cfg.MetricsAddr, progress, lg)
		srv.Start()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Stop(sctx)
		}()
	}

	// Market data
	src, err := marketdata.New(cfg.DataFormat, cfg.DataPath, marketdata.Options{Bars: cfg.RandomBars, Seed: cfg.Seed})
	if err != nil {
		return err
	}
	series, err := src.Load(ctx, cfg.Code)
	if err != nil {
		return fmt.Errorf("load bars: %w", err)
	}

	// Paper account
	if err := os.MkdirAll(filepath.Dir(cfg.JournalPath), 0o755); err != nil {
		return fmt.Errorf("journal dir: %w", err)
	}
	journal, err := execution.NewJournal(cfg.JournalPath, runID)
	if err != nil {
		return err
	}
	defer journal.Close()
	ledger := portfolio.NewLedger(cfg.Cash)
	paper := execution.NewPaperEngine(execution.PaperConfig{
		CommissionRate: cfg.CommissionRate,
		MinCommission:  cfg.MinCommission,
	}, ledger, lg)

	deps := strategy.Deps{
		Metrics:  m,
		Progress: progress,
		Journal:  journal,
		Notifier: notification.New(notification.Config{
			WebhookURL:    cfg.WebhookURL,
			TelegramToken: cfg.TelegramToken,
			TelegramChat:  cfg.TelegramChat,
		}, lg),
	}
	if cfg.RedisAddr != "" {
		pub, err := redisstore.New(redisstore.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}, runID, lg)
		if err != nil {
			lg.Warn("signal publishing disabled", "err", err)
		} else {
			defer pub.Close()
			deps.Publisher = pub
		}
	}

	// Strategy
	scfg := strategy.DefaultConfig(cfg.Code)
	scfg.PreTrain = cfg.NumPreTrain
	scfg.Label = label.Params{Horizon: cfg.PredHorizon, Threshold: cfg.PctChange}
	fc := classifier.DefaultForestConfig()
	fc.Trees, fc.MaxDepth, fc.MinLeaf, fc.Seed = cfg.ForestTrees, cfg.ForestMaxDepth, cfg.ForestMinLeaf, cfg.Seed
	forest := classifier.NewRandomForest(fc)
	ctrl := strategy.New(scfg, forest, paper, deps, lg)

	res, err := ctrl.Run(ctx, series)
	if err != nil {
		progress.SetPhase("failed")
		return err
	}

	// Scoring
	yTrue, yPred := res.Scored()
	scores, err := report.Score(yTrue, yPred)
	if err != nil {
		return err
	}
	acct := ledger.GetSummary()
	m.Accuracy.Set(scores.Accuracy)
	m.WeightedF1.Set(scores.WeightedF1)
	m.RealizedPnL.Set(acct.RealizedPnL - acct.Commission)

	summary := report.Summary{
		RunID:       runID,
		Code:        cfg.Code,
		ModelName:   modelName,
		Features:    feature.Names(scfg.Columns),
		Bars:        series.Len(),
		TrainRows:   res.TrainRows,
		LiveBars:    series.Len() - res.Start,
		Scores:      scores,
		Trades:      report.AnalyzeTrades(paper.Record()),
		Account:     acct,
		Return:      acct.Equity/cfg.Cash - 1,
		BuyAndHold:  report.BuyAndHold(series.Bars[res.Start:]),
		MaxDrawdown: report.MaxDrawdown(res.Equity),
		Timeouts:    len(res.Timeouts),
		Rejected:    res.Rejected,
	}
	summary.Print(os.Stdout)

	if err := persist(cfg.JournalPath, runID, summary, series, res); err != nil {
		lg.Warn("run not persisted", "err", err)
	}
	if cfg.FeaturesOut != "" {
		if err := exportFeatures(cfg.FeaturesOut, ctrl, series, scfg.Columns); err != nil {
			lg.Warn("feature export failed", "err", err)
		} else {
			lg.Info("features exported", "path", cfg.FeaturesOut)
		}
	}

	deps.Notifier.Send(ctx, notification.Alert{
		Level: notification.AlertInfo,
		Title: "Backtest complete " + cfg.Code,
		Message: fmt.Sprintf("accuracy %.4f, f1 %.4f, trades %d, return %.2f%% (buy & hold %.2f%%)",
			scores.Accuracy, scores.WeightedF1, summary.Trades.Trades, summary.Return*100, summary.BuyAndHold*100),
	})
	return nil
}

// persist stores the summary and the live prediction sequence.
func persist(dbPath, runID string, summary report.Summary, series *model.Series, res *strategy.Result) error {
	w, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: dbPath})
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.SaveRun(runID, summary.Code, summary); err != nil {
		return err
	}
	preds := make([]sqlitestore.Prediction, len(res.YPred))
	for i := range res.YPred {
		t := res.Start + i
		preds[i] = sqlitestore.Prediction{Bar: t, TS: series.At(t).TS, True: res.YTrue[i], Pred: res.YPred[i]}
	}
	return w.SavePredictions(runID, preds)
}

// exportFeatures writes every bar's model inputs and label.
func exportFeatures(path string, ctrl *strategy.Controller, series *model.Series, cols []feature.Column) error {
	frame, labels := ctrl.Frame(), ctrl.Labels()
	m := frame.Matrix(0, frame.Len(), cols)
	rows := make([]parquetstore.FeatureRow, len(m.Rows))
	for i, t := range m.Index {
		rows[i] = parquetstore.FeatureRow{
			Timestamp: series.At(t).TS.UnixMilli(),
			Bar:       int64(t),
			Label:     int32(labels[t]),
			Values:    m.Rows[i],
		}
	}
	return parquetstore.WriteFeatures(path, feature.Names(cols), rows)
}
