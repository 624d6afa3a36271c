package parquet

import (
	"path/filepath"
	"testing"
	"time"

	"mltrader/internal/model"
)

func TestBars_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.parquet")
	ts := time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC)
	in := []model.Bar{
		{TS: ts, Open: 1.5, High: 1.6, Low: 1.4, Close: 1.55, Volume: 1200},
		{TS: ts.Add(5 * time.Minute), Open: 1.55, High: 1.7, Low: 1.5, Close: 1.65, Volume: 800.5},
	}
	if err := WriteBars(path, in); err != nil {
		t.Fatal(err)
	}
	out, err := ReadBars(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(in) {
		t.Fatalf("read %d bars, want %d", len(out), len(in))
	}
	for i := range in {
		got := out[i]
		got.TS = in[i].TS
		if !out[i].TS.Equal(in[i].TS) || got != in[i] {
			t.Errorf("bar %d: got %+v, want %+v", i, out[i], in[i])
		}
	}
}

func TestFeatures_ColumnsInMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.parquet")
	cols := []string{"rsi", "mfi"}
	rows := []FeatureRow{
		{Timestamp: 1000, Bar: 99, Label: 1, Values: []float64{55.2, 40}},
		{Timestamp: 2000, Bar: 100, Label: -1, Values: []float64{60.1, 42}},
	}
	if err := WriteFeatures(path, cols, rows); err != nil {
		t.Fatal(err)
	}
	gotCols, gotRows, err := ReadFeatures(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(gotCols) != 2 || gotCols[0] != "rsi" || gotCols[1] != "mfi" {
		t.Errorf("columns = %v", gotCols)
	}
	if len(gotRows) != 2 || gotRows[1].Label != -1 || gotRows[1].Values[0] != 60.1 {
		t.Errorf("rows = %+v", gotRows)
	}
}

func TestFeatures_WidthMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.parquet")
	err := WriteFeatures(path, []string{"rsi"}, []FeatureRow{{Values: []float64{1, 2}}})
	if err == nil {
		t.Fatal("expected width error")
	}
}
