package feature

import (
	"errors"
	"math"
	"testing"

	"mltrader/internal/marketdata"
	"mltrader/internal/model"
)

func testSeries(t *testing.T, n int) *model.Series {
	t.Helper()
	s := marketdata.GenerateRandomWalk("TEST/USDT", n, 7)
	if err := s.Validate(); err != nil {
		t.Fatalf("generated series invalid: %v", err)
	}
	return s
}

func bitEqual(a, b float64) bool {
	return math.Float64bits(a) == math.Float64bits(b)
}

func TestBuild_ValidatesAgainstColumns(t *testing.T) {
	f := NewBuilder(DefaultParams()).Build(testSeries(t, 150))
	if err := f.Validate(Columns); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	err := f.Validate([]Column{ColRSI, "not_a_feature"})
	if !errors.Is(err, ErrColumnMismatch) {
		t.Errorf("expected ErrColumnMismatch, got %v", err)
	}
	err = f.Validate([]Column{ColRSI, ColRSI})
	if !errors.Is(err, ErrColumnMismatch) {
		t.Errorf("duplicate: expected ErrColumnMismatch, got %v", err)
	}
}

func TestBuild_ColumnsExcludeRawPrices(t *testing.T) {
	for _, c := range Columns {
		switch c {
		case AuxMA10, AuxMA20, AuxMA50, AuxMA100, AuxBBUpper, AuxBBLower:
			t.Errorf("auxiliary column %s must not be a model input", c)
		}
	}
	if len(Columns) != 15 {
		t.Errorf("len(Columns)=%d, want 15", len(Columns))
	}
}

func TestBuild_WarmupRows(t *testing.T) {
	p := DefaultParams()
	if got := p.Warmup(); got != 99 {
		t.Fatalf("Warmup()=%d, want 99", got)
	}
	f := NewBuilder(p).Build(testSeries(t, 300))

	if f.Row(p.Warmup()-1, Columns).Complete() {
		t.Errorf("row %d should still be warming up", p.Warmup()-1)
	}
	for i := p.Warmup(); i < f.Len(); i++ {
		if !f.Row(i, Columns).Complete() {
			t.Fatalf("row %d incomplete after warm-up: %v", i, f.Row(i, Columns).Values)
		}
	}
}

func TestBuild_DerivedRatios(t *testing.T) {
	s := testSeries(t, 200)
	f := NewBuilder(DefaultParams()).Build(s)
	ma10, _ := f.Column(AuxMA10)
	ma20, _ := f.Column(AuxMA20)
	upper, _ := f.Column(AuxBBUpper)
	lower, _ := f.Column(AuxBBLower)

	i := 150
	c := s.Bars[i].Close
	row := f.Row(i, Columns)

	check := func(col Column, want float64) {
		t.Helper()
		got, ok := row.Get(col)
		if !ok {
			t.Fatalf("column %s missing", col)
		}
		if math.Abs(got-want) > 1e-12 {
			t.Errorf("%s: got %g want %g", col, got, want)
		}
	}
	check(ColMA10Dist, (c-ma10[i])/c)
	check(ColDelta10_20, (ma10[i]-ma20[i])/c)
	check(ColMomentum, c/s.Bars[i-2].Close-1)
	check(ColBBUpper, (upper[i]-c)/c)
	check(ColBBLower, (lower[i]-c)/c)
	check(ColBBWidth, (upper[i]-lower[i])/c)
}

func TestBuild_Deterministic(t *testing.T) {
	s := testSeries(t, 250)
	b := NewBuilder(DefaultParams())
	f1, f2 := b.Build(s), b.Build(s)

	for _, c := range f1.Columns() {
		a, _ := f1.Column(c)
		z, ok := f2.Column(c)
		if !ok {
			t.Fatalf("column %s missing on second build", c)
		}
		for i := range a {
			if !bitEqual(a[i], z[i]) {
				t.Fatalf("column %s row %d differs: %v vs %v", c, i, a[i], z[i])
			}
		}
	}
}

func TestMatrix_AlignsWithRowExtraction(t *testing.T) {
	f := NewBuilder(DefaultParams()).Build(testSeries(t, 220))
	m := f.Matrix(0, 220, Columns)

	if len(m.Rows) != 220 || len(m.Index) != 220 {
		t.Fatalf("matrix has %d rows", len(m.Rows))
	}
	for _, i := range []int{0, 50, 99, 150, 219} {
		row := f.Row(i, Columns)
		for j := range Columns {
			if m.Columns[j] != row.Columns[j] {
				t.Fatalf("column order differs at %d", j)
			}
			if !bitEqual(m.Rows[i][j], row.Values[j]) {
				t.Fatalf("row %d col %s: batch %v, single %v", i, Columns[j], m.Rows[i][j], row.Values[j])
			}
		}
	}
}

func TestBuild_PrefixMatchesFull(t *testing.T) {
	s := testSeries(t, 260)
	b := NewBuilder(DefaultParams())
	full := b.Build(s)
	prefix := b.Build(s.Head(180))

	for i := 0; i < 180; i++ {
		a := full.Row(i, Columns).Values
		z := prefix.Row(i, Columns).Values
		for j := range a {
			if !bitEqual(a[j], z[j]) {
				t.Fatalf("bar %d column %s depends on later bars", i, Columns[j])
			}
		}
	}
}

func TestBuild_ShortSeries(t *testing.T) {
	f := NewBuilder(DefaultParams()).Build(testSeries(t, 5))
	if f.Len() != 5 {
		t.Fatalf("Len=%d", f.Len())
	}
	for i := 0; i < 5; i++ {
		if f.Row(i, Columns).Complete() {
			t.Errorf("row %d complete on a 5-bar series", i)
		}
	}
}

func TestRow_OutOfRange(t *testing.T) {
	f := NewBuilder(DefaultParams()).Build(testSeries(t, 10))
	if f.Row(10, Columns).Complete() || f.Row(-1, Columns).Complete() {
		t.Error("out-of-range rows must be incomplete")
	}
}
