// Package indicator provides technical indicator calculations over price series.
//
// Every function is a pure batch transform: it takes one or more aligned
// float64 columns and returns columns of the same length. Positions whose
// look-back window is not yet full, or whose ratio has a zero denominator,
// hold NaN ("undefined"). A value at index t only ever depends on inputs at
// indices <= t.
package indicator

import "math"

// Undefined is the marker for warm-up and degenerate positions.
var Undefined = math.NaN()

// IsDefined reports whether v carries a value.
func IsDefined(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// undefinedSeries returns n NaNs.
func undefinedSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = Undefined
	}
	return out
}

// window returns x[t-w+1..t] and whether all of it is defined.
func window(x []float64, t, w int) ([]float64, bool) {
	if w <= 0 || t-w+1 < 0 {
		return nil, false
	}
	win := x[t-w+1 : t+1]
	for _, v := range win {
		if math.IsNaN(v) {
			return nil, false
		}
	}
	return win, true
}
