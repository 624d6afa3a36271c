package sqlite

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"mltrader/internal/model"
)

func openPair(t *testing.T) (*Writer, *Reader) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bars.db")
	w, err := New(WriterConfig{DBPath: path})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { w.Close() })
	r, err := NewReader(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { r.Close() })
	return w, r
}

func TestBars_RoundTripAndOrder(t *testing.T) {
	w, r := openPair(t)
	ts := time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC)
	bars := []model.Bar{
		{TS: ts.Add(10 * time.Minute), Open: 3, High: 3, Low: 3, Close: 3, Volume: 3},
		{TS: ts, Open: 1, High: 1.2, Low: 0.9, Close: 1.1, Volume: 10},
		{TS: ts.Add(5 * time.Minute), Open: 2, High: 2, Low: 2, Close: 2, Volume: 2},
	}
	if err := w.WriteBars("ENJ/USDT", bars); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteBars("BTC/USDT", bars[:1]); err != nil {
		t.Fatal(err)
	}

	got, err := r.ReadBars("ENJ/USDT", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("read %d bars, want 3", len(got))
	}
	for i, want := range []float64{1.1, 2, 3} {
		if got[i].Close != want {
			t.Errorf("bar %d close = %v, want %v", i, got[i].Close, want)
		}
	}
	if !got[0].TS.Equal(ts) {
		t.Errorf("ts = %v", got[0].TS)
	}

	after, err := r.ReadBars("ENJ/USDT", ts)
	if err != nil {
		t.Fatal(err)
	}
	if len(after) != 2 {
		t.Errorf("afterTS filter returned %d bars", len(after))
	}
}

func TestBars_UpsertReplaces(t *testing.T) {
	w, r := openPair(t)
	ts := time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC)
	w.WriteBars("X", []model.Bar{{TS: ts, Open: 1, High: 1, Low: 1, Close: 1}})
	w.WriteBars("X", []model.Bar{{TS: ts, Open: 1, High: 1, Low: 1, Close: 5}})
	got, _ := r.ReadBars("X", time.Time{})
	if len(got) != 1 || got[0].Close != 5 {
		t.Errorf("got %+v", got)
	}
}

func TestRuns_SummaryAndPredictions(t *testing.T) {
	w, r := openPair(t)
	type summary struct {
		Code     string  `json:"code"`
		Accuracy float64 `json:"accuracy"`
	}
	if err := w.SaveRun("run-1", "ENJ/USDT", summary{"ENJ/USDT", 0.61}); err != nil {
		t.Fatal(err)
	}
	var got summary
	if err := r.ReadRun("run-1", &got); err != nil {
		t.Fatal(err)
	}
	if got.Accuracy != 0.61 {
		t.Errorf("got %+v", got)
	}
	if err := r.ReadRun("missing", &got); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}

	ts := time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC)
	preds := []Prediction{
		{Bar: 101, TS: ts.Add(time.Minute), True: model.LabelDown, Pred: model.LabelFlat},
		{Bar: 100, TS: ts, True: model.LabelUp, Pred: model.LabelUp},
	}
	if err := w.SavePredictions("run-1", preds); err != nil {
		t.Fatal(err)
	}
	out, err := r.ReadPredictions("run-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[0].Bar != 100 || out[1].True != model.LabelDown || out[1].Pred != model.LabelFlat {
		t.Errorf("got %+v", out)
	}
}
