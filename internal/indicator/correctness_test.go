package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/sdcoffey/big"
	"github.com/sdcoffey/techan"
)

// ────────────────────────────────────────────────────────────
// Helpers
// ────────────────────────────────────────────────────────────

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f, diff=%.6f)", label, got, want, tol, math.Abs(got-want))
	}
}

func assertUndefined(t *testing.T, label string, got float64) {
	t.Helper()
	if !math.IsNaN(got) {
		t.Errorf("%s: got %.6f, want undefined", label, got)
	}
}

// ────────────────────────────────────────────────────────────
// SMA
// ────────────────────────────────────────────────────────────

func TestSMA_Correctness_Period3(t *testing.T) {
	// closes 100, 101, 99, 103, 102
	// SMA(3)[2] = (100+101+99)/3 = 100
	// SMA(3)[3] = (101+99+103)/3 = 101
	// SMA(3)[4] = (99+103+102)/3 = 101.3333
	got := SMA([]float64{100, 101, 99, 103, 102}, 3)

	assertUndefined(t, "SMA(3)[0]", got[0])
	assertUndefined(t, "SMA(3)[1]", got[1])
	assertClose(t, "SMA(3)[2]", got[2], 100.0, 1e-12)
	assertClose(t, "SMA(3)[3]", got[3], 101.0, 1e-12)
	assertClose(t, "SMA(3)[4]", got[4], 101.333333, 1e-6)
}

func TestSMA_WarmupAndMeanForAllWindows(t *testing.T) {
	x := make([]float64, 60)
	for i := range x {
		x[i] = 50 + math.Sin(float64(i)/3)*7
	}
	for w := 1; w <= 20; w++ {
		got := SMA(x, w)
		for i := range x {
			if i < w-1 {
				assertUndefined(t, "warm-up", got[i])
				continue
			}
			sum := 0.0
			for j := i - w + 1; j <= i; j++ {
				sum += x[j]
			}
			assertClose(t, "mean", got[i], sum/float64(w), 1e-9)
		}
	}
}

func TestSMA_ShorterThanWindow(t *testing.T) {
	got := SMA([]float64{1, 2}, 5)
	if len(got) != 2 {
		t.Fatalf("len=%d, want 2", len(got))
	}
	for _, v := range got {
		assertUndefined(t, "short series", v)
	}
	if out := SMA(nil, 3); len(out) != 0 {
		t.Errorf("nil input: len=%d", len(out))
	}
}

func TestSMA_UndefinedInputPropagates(t *testing.T) {
	got := SMA([]float64{1, math.NaN(), 3, 4, 5}, 2)
	assertUndefined(t, "[1]", got[1])
	assertUndefined(t, "[2]", got[2])
	assertClose(t, "[3]", got[3], 3.5, 1e-12)
}

func TestSMA_MatchesTechan(t *testing.T) {
	closes := []float64{10, 10.5, 11, 10.2, 9.8, 10.1, 10.9, 11.4, 11.1, 12.0, 11.7, 11.9}
	series := techan.NewTimeSeries()
	start := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		candle := techan.NewCandle(techan.NewTimePeriod(start.Add(time.Duration(i)*5*time.Minute), 5*time.Minute))
		candle.OpenPrice = big.NewDecimal(c)
		candle.MaxPrice = big.NewDecimal(c)
		candle.MinPrice = big.NewDecimal(c)
		candle.ClosePrice = big.NewDecimal(c)
		series.AddCandle(candle)
	}

	const w = 4
	ref := techan.NewSimpleMovingAverage(techan.NewClosePriceIndicator(series), w)
	got := SMA(closes, w)
	for i := w - 1; i < len(closes); i++ {
		assertClose(t, "SMA vs techan", got[i], ref.Calculate(i).Float(), 1e-9)
	}
}

// ────────────────────────────────────────────────────────────
// Rolling std / min / max / pct change
// ────────────────────────────────────────────────────────────

func TestRollingStd_Sample(t *testing.T) {
	// 2,4,4,4,5,5,7,9 → sample std over all 8 = 2.13809
	x := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	got := RollingStd(x, 8)
	assertUndefined(t, "[6]", got[6])
	assertClose(t, "[7]", got[7], 2.138090, 1e-6)
}

func TestRollingMinMax(t *testing.T) {
	x := []float64{3, 1, 4, 1, 5, 9, 2}
	lo := RollingMin(x, 3)
	hi := RollingMax(x, 3)
	wantLo := []float64{0, 0, 1, 1, 1, 1, 2}
	wantHi := []float64{0, 0, 4, 4, 5, 9, 9}
	for i := 2; i < len(x); i++ {
		assertClose(t, "min", lo[i], wantLo[i], 0)
		assertClose(t, "max", hi[i], wantHi[i], 0)
	}
	assertUndefined(t, "min[1]", lo[1])
}

func TestPctChange_Lag2(t *testing.T) {
	got := PctChange([]float64{100, 101, 102, 99}, 2)
	assertUndefined(t, "[1]", got[1])
	assertClose(t, "[2]", got[2], 0.02, 1e-12)
	assertClose(t, "[3]", got[3], 99.0/101.0-1, 1e-12)
}

// ────────────────────────────────────────────────────────────
// Bollinger
// ────────────────────────────────────────────────────────────

func TestBollinger_TypicalPrice(t *testing.T) {
	// h=l=c so typical price equals close: 1,2,3 → mean 2, sample std 1
	x := []float64{1, 2, 3}
	b := Bollinger(x, x, x, 3, 2)
	assertUndefined(t, "upper[1]", b.Upper[1])
	assertClose(t, "middle", b.Middle[2], 2, 1e-12)
	assertClose(t, "upper", b.Upper[2], 4, 1e-12)
	assertClose(t, "lower", b.Lower[2], 0, 1e-12)
}

func TestTypicalPrice(t *testing.T) {
	tp := TypicalPrice([]float64{12}, []float64{9}, []float64{10.5})
	assertClose(t, "hlc3", tp[0], 10.5, 1e-12)
}

// ────────────────────────────────────────────────────────────
// RSI
// ────────────────────────────────────────────────────────────

func TestRSI_Correctness_Period2(t *testing.T) {
	// alpha = 1/2, closes 1,2,3,2 → diffs +1,+1,-1
	// t=2: up avg = (1+0.5)/(1.5) = 1, down = 0 → saturates to 100
	// t=3: up = 0.75/1.75, down = 1/1.75 → rs = 0.75 → 42.857143
	got := RSI([]float64{1, 2, 3, 2}, 2)
	assertUndefined(t, "RSI[0]", got[0])
	assertUndefined(t, "RSI[1]", got[1])
	assertClose(t, "RSI[2]", got[2], 100, 1e-9)
	assertClose(t, "RSI[3]", got[3], 42.857143, 1e-6)
}

func TestRSI_FlatSeriesIsUndefined(t *testing.T) {
	got := RSI([]float64{5, 5, 5, 5, 5, 5}, 3)
	for i, v := range got {
		if IsDefined(v) {
			t.Errorf("RSI[%d] = %f, want undefined on zero movement", i, v)
		}
	}
}

func TestRSI_Bounds(t *testing.T) {
	x := make([]float64, 200)
	for i := range x {
		x[i] = 100 + 10*math.Sin(float64(i)/5) + float64(i%7)
	}
	got := RSI(x, 14)
	for i := 0; i < 14; i++ {
		assertUndefined(t, "warm-up", got[i])
	}
	for i := 14; i < len(x); i++ {
		if got[i] < 0 || got[i] > 100 {
			t.Fatalf("RSI[%d] = %f out of [0,100]", i, got[i])
		}
	}
}

// ────────────────────────────────────────────────────────────
// EWM / EMA
// ────────────────────────────────────────────────────────────

func TestEWM_Adjusted(t *testing.T) {
	// alpha 0.5: weights 1, 0.5, 0.25 from newest to oldest
	out := EWM([]float64{1, 2, 3}, 0.5, 1)
	assertClose(t, "EWM[0]", out[0], 1, 1e-12)
	assertClose(t, "EWM[1]", out[1], 2.5/1.5, 1e-12)
	assertClose(t, "EWM[2]", out[2], 4.25/1.75, 1e-12)
}

func TestEWM_MinPeriodsAndGaps(t *testing.T) {
	out := EWM([]float64{math.NaN(), 4, math.NaN(), 4}, 0.5, 2)
	assertUndefined(t, "EWM[0]", out[0])
	assertUndefined(t, "EWM[1] before min periods", out[1])
	assertUndefined(t, "EWM[2] undefined input", out[2])
	assertClose(t, "EWM[3]", out[3], 4, 1e-12)
}

func TestEMA_Span(t *testing.T) {
	// period 3: alpha 0.5
	out := EMA([]float64{1, 2, 3}, 3)
	assertUndefined(t, "EMA[1]", out[1])
	assertClose(t, "EMA[2]", out[2], 4.25/1.75, 1e-12)
}

// ────────────────────────────────────────────────────────────
// Stochastic
// ────────────────────────────────────────────────────────────

func TestStochastic_Rising(t *testing.T) {
	// strictly rising input sits at the top of every window
	x := []float64{1, 2, 3, 4, 5, 6, 7}
	k, d := Stochastic(x, 2, 2, 3)
	// stoch defined from 2, K from 3, D from 4
	assertUndefined(t, "K[2]", k[2])
	assertClose(t, "K[3]", k[3], 100, 1e-12)
	assertUndefined(t, "D[3]", d[3])
	assertClose(t, "D[4]", d[4], 100, 1e-12)
}

func TestStochastic_Mixed(t *testing.T) {
	// lookback 3, K=1, D=1 → plain normalised value
	x := []float64{10, 20, 15, 30, 25}
	k, _ := Stochastic(x, 1, 1, 3)
	assertClose(t, "K[2]", k[2], 50, 1e-12)     // (15-10)/(20-10)
	assertClose(t, "K[3]", k[3], 100, 1e-12)    // (30-15)/(30-15)
	assertClose(t, "K[4]", k[4], 66.6667, 1e-4) // (25-15)/(30-15)
}

func TestStochastic_ZeroRangeIsUndefined(t *testing.T) {
	k, d := Stochastic([]float64{4, 4, 4, 4, 4}, 1, 1, 3)
	for i := range k {
		assertUndefined(t, "K", k[i])
		assertUndefined(t, "D", d[i])
	}
}

// ────────────────────────────────────────────────────────────
// MFI
// ────────────────────────────────────────────────────────────

func TestMFI_Correctness_Period2(t *testing.T) {
	// typical price = price, volume 1: flows +11 (t1), -10 (t2), +12 (t3)
	// MFI[2] = 100*11/21, MFI[3] = 100*12/22
	p := []float64{10, 11, 10, 12}
	v := []float64{1, 1, 1, 1}
	got := MFI(p, p, p, v, 2)
	assertUndefined(t, "MFI[0]", got[0])
	assertUndefined(t, "MFI[1]", got[1])
	assertClose(t, "MFI[2]", got[2], 52.380952, 1e-6)
	assertClose(t, "MFI[3]", got[3], 54.545455, 1e-6)
}

func TestMFI_NoDirectionalFlowIsUndefined(t *testing.T) {
	p := []float64{10, 10, 10, 10}
	got := MFI(p, p, p, []float64{5, 5, 5, 5}, 2)
	for i, v := range got {
		if IsDefined(v) {
			t.Errorf("MFI[%d] = %f, want undefined", i, v)
		}
	}
}

func TestMFI_ShortSeries(t *testing.T) {
	p := []float64{10, 11}
	got := MFI(p, p, p, []float64{1, 1}, 14)
	if len(got) != 2 {
		t.Fatalf("len=%d", len(got))
	}
	assertUndefined(t, "MFI[1]", got[1])
}

// ────────────────────────────────────────────────────────────
// No lookahead
// ────────────────────────────────────────────────────────────

func TestIndicators_NoLookahead(t *testing.T) {
	n := 80
	h, l, c, v := make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
	for i := 0; i < n; i++ {
		c[i] = 100 + 5*math.Sin(float64(i)/4) + float64(i%3)
		h[i] = c[i] + 1
		l[i] = c[i] - 1
		v[i] = 1000 + float64(i*13%17)
	}
	cut := 50

	full := MFI(h, l, c, v, 14)
	part := MFI(h[:cut], l[:cut], c[:cut], v[:cut], 14)
	fullRSI := RSI(c, 14)
	partRSI := RSI(c[:cut], 14)
	for i := 0; i < cut; i++ {
		if !sameValue(full[i], part[i]) || !sameValue(fullRSI[i], partRSI[i]) {
			t.Fatalf("index %d changed when future bars were removed", i)
		}
	}
}

func sameValue(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return a == b
}
