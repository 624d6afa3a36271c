// Package config loads backtest settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Instrument and data
	Code       string
	DataPath   string
	DataFormat string // csv | parquet | sqlite | random
	RandomBars int

	// Strategy
	PredHorizon int
	PctChange   float64
	NumPreTrain int

	// Paper account
	Cash           float64
	CommissionRate float64
	MinCommission  float64

	// Classifier
	ForestTrees    int
	ForestMaxDepth int
	ForestMinLeaf  int
	Seed           int64

	// Infrastructure
	JournalPath   string
	RedisAddr     string // empty disables signal publishing
	RedisPassword string
	MetricsAddr   string // empty disables the metrics server
	FeaturesOut   string // empty disables feature export

	// Alerts
	WebhookURL    string
	TelegramToken string
	TelegramChat  string

	LogLevel string
}

// Load reads an optional .env file then the environment, with defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var errs []error
	c := &Config{
		Code:       getEnv("CODE", "ENJ/USDT"),
		DataPath:   getEnv("DATA_PATH", "data/ENJUSDT.csv"),
		DataFormat: strings.ToLower(getEnv("DATA_FORMAT", "csv")),
		RandomBars: getEnvInt("RANDOM_BARS", 5000, &errs),

		PredHorizon: getEnvInt("PRED_HORIZON", 2, &errs),
		PctChange:   getEnvFloat("PCT_CHANGE", 0.004, &errs),
		NumPreTrain: getEnvInt("NUM_PRE_TRAIN", 3500, &errs),

		Cash:           getEnvFloat("CASH", 55800, &errs),
		CommissionRate: getEnvFloat("COMMISSION_RATE", 0.001, &errs),
		MinCommission:  getEnvFloat("MIN_COMMISSION", 0, &errs),

		ForestTrees:    getEnvInt("FOREST_TREES", 100, &errs),
		ForestMaxDepth: getEnvInt("FOREST_MAX_DEPTH", 12, &errs),
		ForestMinLeaf:  getEnvInt("FOREST_MIN_LEAF", 1, &errs),
		Seed:           int64(getEnvInt("SEED", 1, &errs)),

		JournalPath:   getEnv("JOURNAL_PATH", "data/journal.db"),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		MetricsAddr:   getEnv("METRICS_ADDR", ""),
		FeaturesOut:   getEnv("FEATURES_OUT", ""),

		WebhookURL:    getEnv("WEBHOOK_URL", ""),
		TelegramToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChat:  getEnv("TELEGRAM_CHAT_ID", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate rejects settings the run cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if c.Code == "" {
		errs = append(errs, errors.New("CODE must be set"))
	}
	if c.PredHorizon <= 0 {
		errs = append(errs, fmt.Errorf("PRED_HORIZON must be positive, got %d", c.PredHorizon))
	}
	if c.PctChange < 0 {
		errs = append(errs, fmt.Errorf("PCT_CHANGE must not be negative, got %g", c.PctChange))
	}
	if c.NumPreTrain <= 0 {
		errs = append(errs, fmt.Errorf("NUM_PRE_TRAIN must be positive, got %d", c.NumPreTrain))
	}
	if c.Cash <= 0 {
		errs = append(errs, fmt.Errorf("CASH must be positive, got %g", c.Cash))
	}
	if c.CommissionRate < 0 || c.CommissionRate >= 1 {
		errs = append(errs, fmt.Errorf("COMMISSION_RATE must be in [0, 1), got %g", c.CommissionRate))
	}
	if c.MinCommission < 0 {
		errs = append(errs, fmt.Errorf("MIN_COMMISSION must not be negative, got %g", c.MinCommission))
	}
	if c.ForestTrees <= 0 {
		errs = append(errs, fmt.Errorf("FOREST_TREES must be positive, got %d", c.ForestTrees))
	}
	switch c.DataFormat {
	case "csv", "parquet", "sqlite", "random":
	default:
		errs = append(errs, fmt.Errorf("DATA_FORMAT %q not one of csv, parquet, sqlite, random", c.DataFormat))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int, errs *[]error) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64, errs *[]error) float64 {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return f
}

// LogValue keeps secrets out of the startup log line.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("code", c.Code),
		slog.String("data", c.DataFormat+":"+c.DataPath),
		slog.Int("horizon", c.PredHorizon),
		slog.Float64("pct_change", c.PctChange),
		slog.Int("pre_train", c.NumPreTrain),
		slog.Float64("cash", c.Cash),
		slog.Float64("commission_rate", c.CommissionRate),
		slog.Int("trees", c.ForestTrees),
		slog.Int64("seed", c.Seed),
		slog.Bool("redis", c.RedisAddr != ""),
		slog.Bool("metrics", c.MetricsAddr != ""),
		slog.Bool("telegram", c.TelegramToken != ""),
	)
}
