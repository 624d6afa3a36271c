package indicator

// MFI computes the Money Flow Index over period bars.
//
// Raw money flow is typical price times volume. Bar t's flow counts as
// positive when its typical price rose from bar t-1, negative when it fell,
// and neither when unchanged. The index at t sums flows over bars
// t-period+1..t, so t < period is undefined. A window with no directional
// flow at all is undefined.
func MFI(high, low, close, volume []float64, period int) []float64 {
	n := len(close)
	out := undefinedSeries(n)
	if period <= 0 || n <= period {
		return out
	}

	tp := TypicalPrice(high, low, close)
	pos := make([]float64, n)
	neg := make([]float64, n)
	for t := 1; t < n; t++ {
		flow := tp[t] * volume[t]
		switch {
		case tp[t] > tp[t-1]:
			pos[t] = flow
		case tp[t] < tp[t-1]:
			neg[t] = flow
		}
	}

	for t := period; t < n; t++ {
		var p, q float64
		for j := t - period + 1; j <= t; j++ {
			p += pos[j]
			q += neg[j]
		}
		if p+q == 0 {
			continue
		}
		out[t] = 100 * p / (p + q)
	}
	return out
}
