package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestInitWriter_JSONWithService(t *testing.T) {
	var buf bytes.Buffer
	log := InitWriter(&buf, "backtest", slog.LevelInfo)
	log.Info("hello", "bar", 3)
	log.Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatal(err)
	}
	if rec["service"] != "backtest" || rec["msg"] != "hello" {
		t.Errorf("unexpected record %v", rec)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRunID_RoundTrip(t *testing.T) {
	ctx := context.Background()
	if id := RunID(ctx); id != "" {
		t.Errorf("expected empty run id, got %q", id)
	}
	if Attrs(ctx) != nil {
		t.Error("expected nil attrs without run id")
	}

	ctx = WithRunID(ctx, "ENJUSDT-1")
	if id := RunID(ctx); id != "ENJUSDT-1" {
		t.Errorf("got %q", id)
	}
	if len(Attrs(ctx)) != 1 {
		t.Error("expected one attr")
	}
}

func TestNewRunID(t *testing.T) {
	ts := time.Date(2024, 1, 15, 10, 30, 0, 123456789, time.UTC)
	id := NewRunID("ENJ/USDT", ts)
	if !strings.HasPrefix(id, "ENJUSDT-") {
		t.Errorf("expected ENJUSDT- prefix, got %s", id)
	}
	if !strings.HasSuffix(id, "123456789") {
		t.Errorf("expected nanoseconds suffix, got %s", id)
	}
}
