package indicator

// Stochastic normalises x into [0,100] against its trailing lookback range,
// then smooths: K is the kWindow mean of the normalised series, D is the
// dWindow mean of K. A zero-range window is undefined.
func Stochastic(x []float64, kWindow, dWindow, lookback int) (k, d []float64) {
	lo := RollingMin(x, lookback)
	hi := RollingMax(x, lookback)

	stoch := undefinedSeries(len(x))
	for t := range x {
		if !IsDefined(lo[t]) || !IsDefined(hi[t]) || !IsDefined(x[t]) {
			continue
		}
		rng := hi[t] - lo[t]
		if rng == 0 {
			continue
		}
		stoch[t] = (x[t] - lo[t]) / rng * 100
	}

	k = SMA(stoch, kWindow)
	d = SMA(k, dWindow)
	return k, d
}
