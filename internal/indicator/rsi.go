package indicator

import "math"

// RSI computes the Relative Strength Index over closes.
//
// Close-to-close differences are split into up and down moves and each side
// is smoothed with EWM, alpha = 1/period (center of mass period-1). A value
// needs period differences, so index t < period is undefined. When the
// smoothed down move is zero the index saturates to 100; when both sides are
// zero it is undefined.
func RSI(close []float64, period int) []float64 {
	out := undefinedSeries(len(close))
	if period <= 0 || len(close) < 2 {
		return out
	}

	up := undefinedSeries(len(close))
	down := undefinedSeries(len(close))
	for t := 1; t < len(close); t++ {
		delta := close[t] - close[t-1]
		if math.IsNaN(delta) {
			continue
		}
		up[t], down[t] = math.Max(delta, 0), math.Max(-delta, 0)
	}

	alpha := 1 / float64(period)
	avgUp := EWM(up, alpha, period)
	avgDown := EWM(down, alpha, period)
	for t := range out {
		if math.IsNaN(avgUp[t]) || math.IsNaN(avgDown[t]) {
			continue
		}
		out[t] = rsiValue(avgUp[t], avgDown[t])
	}
	return out
}

func rsiValue(avgUp, avgDown float64) float64 {
	if avgDown == 0 {
		if avgUp == 0 {
			return Undefined
		}
		return 100
	}
	rs := math.Abs(avgUp / avgDown)
	return 100 - 100/(1+rs)
}
