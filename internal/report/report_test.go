package report

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/sdcoffey/big"
	"github.com/sdcoffey/techan"

	"mltrader/internal/model"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestScore_HandComputed(t *testing.T) {
	// class -1: F1 1 (support 1); class 0: F1 2/3 (support 1); class 1: F1 2/3 (support 2)
	yTrue := []model.Label{1, 1, 0, -1}
	yPred := []model.Label{1, 0, 0, -1}
	s, err := Score(yTrue, yPred)
	if err != nil {
		t.Fatal(err)
	}
	if s.Samples != 4 || !near(s.Accuracy, 0.75) {
		t.Errorf("samples=%d accuracy=%f", s.Samples, s.Accuracy)
	}
	if !near(s.WeightedF1, 0.75) {
		t.Errorf("weighted F1=%f, want 0.75", s.WeightedF1)
	}
}

func TestScore_SkipsUndefined(t *testing.T) {
	yTrue := []model.Label{1, model.LabelUndefined, 0}
	yPred := []model.Label{1, 1, model.LabelUndefined}
	s, err := Score(yTrue, yPred)
	if err != nil {
		t.Fatal(err)
	}
	if s.Samples != 1 || s.Accuracy != 1 {
		t.Errorf("%+v", s)
	}
}

func TestScore_LengthMismatch(t *testing.T) {
	if _, err := Score([]model.Label{1}, nil); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("expected ErrLengthMismatch, got %v", err)
	}
}

func TestScore_Empty(t *testing.T) {
	s, err := Score(nil, nil)
	if err != nil || s.Accuracy != 0 || s.WeightedF1 != 0 {
		t.Errorf("%+v %v", s, err)
	}
}

func TestMaxDrawdown(t *testing.T) {
	curve := []Point{{0, 100}, {1, 120}, {2, 90}, {3, 130}, {4, 117}}
	if dd := MaxDrawdown(curve); !near(dd, -25) {
		t.Errorf("drawdown=%f, want -25", dd)
	}
	if MaxDrawdown(nil) != 0 {
		t.Error("empty curve")
	}
}

func TestBuyAndHold(t *testing.T) {
	bars := []model.Bar{{Close: 100}, {Close: 90}, {Close: 110}}
	if r := BuyAndHold(bars); !near(r, 0.1) {
		t.Errorf("return=%f", r)
	}
}

func TestAnalyzeTrades(t *testing.T) {
	rec := techan.NewTradingRecord()
	ts := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	op := func(side techan.OrderSide, price float64) {
		rec.Operate(techan.Order{Side: side, Security: "A", Price: big.NewDecimal(price), Amount: big.NewDecimal(2), ExecutionTime: ts})
		ts = ts.Add(time.Minute)
	}
	op(techan.BUY, 100)
	op(techan.SELL, 110) // +20
	op(techan.BUY, 100)
	op(techan.SELL, 95) // -10

	s := AnalyzeTrades(rec)
	if s.Trades != 2 || s.Wins != 1 {
		t.Fatalf("%+v", s)
	}
	if !near(s.GrossProfit, 10) || !near(s.WinRate, 0.5) || !near(s.ProfitFactor, 2) {
		t.Errorf("%+v", s)
	}
}

func TestSummary_Print(t *testing.T) {
	var buf bytes.Buffer
	Summary{RunID: "ENJ-1", Code: "ENJ/USDT", ModelName: "Random Forest Classifier"}.Print(&buf)
	out := buf.String()
	for _, want := range []string{"BACKTEST COMPLETE", "ENJ/USDT", "F1 (weighted)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}
