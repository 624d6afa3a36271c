package indicator

import "math"

// EWM is the adjusted exponentially weighted mean of x with smoothing
// factor alpha in (0, 1]:
//
//	y[t] = sum_i (1-alpha)^i x[t-i] / sum_i (1-alpha)^i
//
// taken over the defined inputs seen so far. y[t] is undefined until
// minPeriods defined inputs have been seen, and wherever x[t] is undefined.
func EWM(x []float64, alpha float64, minPeriods int) []float64 {
	out := undefinedSeries(len(x))
	if alpha <= 0 || alpha > 1 {
		return out
	}
	decay := 1 - alpha
	var num, den float64
	count := 0
	for t, v := range x {
		if math.IsNaN(v) {
			continue
		}
		num = v + decay*num
		den = 1 + decay*den
		count++
		if count >= minPeriods {
			out[t] = num / den
		}
	}
	return out
}

// EMA is the span-style exponential moving average, alpha = 2/(period+1),
// defined once period inputs have been seen.
func EMA(x []float64, period int) []float64 {
	if period <= 0 {
		return undefinedSeries(len(x))
	}
	return EWM(x, 2/float64(period+1), period)
}
