package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	c, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if c.Code != "ENJ/USDT" || c.PredHorizon != 2 || c.PctChange != 0.004 || c.NumPreTrain != 3500 {
		t.Errorf("strategy defaults %+v", c)
	}
	if c.Cash != 55800 || c.CommissionRate != 0.001 || c.MinCommission != 0 {
		t.Errorf("account defaults %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestLoad_EnvOverridesAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	os.WriteFile(filepath.Join(dir, ".env"), []byte("CODE=BTC/USDT\nPRED_HORIZON=5\n"), 0o644)
	t.Setenv("PCT_CHANGE", "0.01")
	// godotenv writes to the process environment
	t.Cleanup(func() {
		os.Unsetenv("CODE")
		os.Unsetenv("PRED_HORIZON")
	})

	c, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if c.Code != "BTC/USDT" || c.PredHorizon != 5 || c.PctChange != 0.01 {
		t.Errorf("got %+v", c)
	}
}

func TestLoad_BadNumber(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("NUM_PRE_TRAIN", "lots")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "NUM_PRE_TRAIN") {
		t.Errorf("expected NUM_PRE_TRAIN error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	base := Config{Code: "X", PredHorizon: 2, NumPreTrain: 10, Cash: 1, ForestTrees: 1, DataFormat: "csv"}
	if err := base.Validate(); err != nil {
		t.Fatalf("base invalid: %v", err)
	}
	cases := map[string]func(*Config){
		"PRED_HORIZON":    func(c *Config) { c.PredHorizon = 0 },
		"PCT_CHANGE":      func(c *Config) { c.PctChange = -0.1 },
		"NUM_PRE_TRAIN":   func(c *Config) { c.NumPreTrain = 0 },
		"COMMISSION_RATE": func(c *Config) { c.CommissionRate = 1 },
		"DATA_FORMAT":     func(c *Config) { c.DataFormat = "xlsx" },
	}
	for key, mutate := range cases {
		c := base
		mutate(&c)
		err := c.Validate()
		if err == nil || !strings.Contains(err.Error(), key) {
			t.Errorf("%s: got %v", key, err)
		}
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(old) })
}
