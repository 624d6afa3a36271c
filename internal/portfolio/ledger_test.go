package portfolio

import (
	"errors"
	"math"
	"testing"
	"time"
)

var ts = time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestLedger_RoundTrip(t *testing.T) {
	l := NewLedger(1000)
	if err := l.Buy("ENJ", 10, 90, 0.9, ts); err != nil {
		t.Fatal(err)
	}
	if !near(l.Cash(), 1000-900-0.9) {
		t.Errorf("cash after buy = %f", l.Cash())
	}
	if l.Quantity("ENJ") != 10 {
		t.Errorf("qty = %f", l.Quantity("ENJ"))
	}

	pnl, net, err := l.Sell("ENJ", 10, 100, 1.0, ts.Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if !near(pnl, 100) {
		t.Errorf("pnl = %f, want 100", pnl)
	}
	if !near(net, 100-0.9-1.0) {
		t.Errorf("net = %f, want 98.1", net)
	}
	if l.Quantity("ENJ") != 0 {
		t.Errorf("position should be closed")
	}
	s := l.GetSummary()
	if !near(s.Cash, 1000+98.1) || !near(s.Equity, s.Cash) || s.Fills != 2 || s.OpenPositions != 0 {
		t.Errorf("summary %+v", s)
	}
}

func TestLedger_WeightedAverage(t *testing.T) {
	l := NewLedger(10000)
	_ = l.Buy("A", 10, 100, 0, ts)
	_ = l.Buy("A", 10, 110, 0, ts)
	pos, ok := l.Position("A")
	if !ok || !near(pos.AvgPrice, 105) || pos.Qty != 20 {
		t.Errorf("position %+v", pos)
	}
	l.Mark("A", 120)
	if !near(l.GetSummary().UnrealizedPnL, 300) {
		t.Errorf("unrealized = %f", l.GetSummary().UnrealizedPnL)
	}
}

func TestLedger_Errors(t *testing.T) {
	l := NewLedger(100)
	if err := l.Buy("A", 10, 100, 0, ts); !errors.Is(err, ErrInsufficientCash) {
		t.Errorf("expected ErrInsufficientCash, got %v", err)
	}
	if _, _, err := l.Sell("A", 1, 100, 0, ts); !errors.Is(err, ErrNoPosition) {
		t.Errorf("expected ErrNoPosition, got %v", err)
	}
	if err := l.Buy("A", 0, 100, 0, ts); !errors.Is(err, ErrInvalidFill) {
		t.Errorf("expected ErrInvalidFill, got %v", err)
	}
}

func TestLedger_SellCapsAtHolding(t *testing.T) {
	l := NewLedger(1000)
	_ = l.Buy("A", 5, 100, 0, ts)
	pnl, _, err := l.Sell("A", 50, 110, 0, ts)
	if err != nil {
		t.Fatal(err)
	}
	if !near(pnl, 50) {
		t.Errorf("pnl = %f, want 50", pnl)
	}
}
