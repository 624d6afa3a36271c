package indicator

import "math"

// SMA is the arithmetic mean over the trailing period values.
// Undefined for t < period-1 and for any window holding an undefined input.
func SMA(x []float64, period int) []float64 {
	out := undefinedSeries(len(x))
	for t := range x {
		win, ok := window(x, t, period)
		if !ok {
			continue
		}
		sum := 0.0
		for _, v := range win {
			sum += v
		}
		out[t] = sum / float64(period)
	}
	return out
}

// RollingStd is the sample (n-1) standard deviation over the trailing period values.
func RollingStd(x []float64, period int) []float64 {
	out := undefinedSeries(len(x))
	if period < 2 {
		return out
	}
	for t := range x {
		win, ok := window(x, t, period)
		if !ok {
			continue
		}
		mean := 0.0
		for _, v := range win {
			mean += v
		}
		mean /= float64(period)
		ss := 0.0
		for _, v := range win {
			d := v - mean
			ss += d * d
		}
		out[t] = math.Sqrt(ss / float64(period-1))
	}
	return out
}

// RollingMin is the minimum over the trailing period values.
func RollingMin(x []float64, period int) []float64 {
	return rollingExtreme(x, period, math.Min)
}

// RollingMax is the maximum over the trailing period values.
func RollingMax(x []float64, period int) []float64 {
	return rollingExtreme(x, period, math.Max)
}

func rollingExtreme(x []float64, period int, pick func(a, b float64) float64) []float64 {
	out := undefinedSeries(len(x))
	for t := range x {
		win, ok := window(x, t, period)
		if !ok {
			continue
		}
		m := win[0]
		for _, v := range win[1:] {
			m = pick(m, v)
		}
		out[t] = m
	}
	return out
}

// PctChange is x[t]/x[t-lag] - 1. Undefined for t < lag or a zero base.
func PctChange(x []float64, lag int) []float64 {
	out := undefinedSeries(len(x))
	if lag <= 0 {
		return out
	}
	for t := lag; t < len(x); t++ {
		base := x[t-lag]
		if base == 0 || math.IsNaN(base) || math.IsNaN(x[t]) {
			continue
		}
		out[t] = x[t]/base - 1
	}
	return out
}
