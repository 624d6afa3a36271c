package indicator

// Bands holds aligned Bollinger band columns.
type Bands struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// TypicalPrice is (high+low+close)/3 per bar.
func TypicalPrice(high, low, close []float64) []float64 {
	out := make([]float64, len(close))
	for i := range close {
		out[i] = (high[i] + low[i] + close[i]) / 3
	}
	return out
}

// Bollinger computes bands on the typical price: mean over lookback bars
// plus/minus mult sample standard deviations.
func Bollinger(high, low, close []float64, lookback int, mult float64) Bands {
	tp := TypicalPrice(high, low, close)
	mean := SMA(tp, lookback)
	std := RollingStd(tp, lookback)

	b := Bands{
		Upper:  undefinedSeries(len(tp)),
		Middle: mean,
		Lower:  undefinedSeries(len(tp)),
	}
	for i := range tp {
		if !IsDefined(mean[i]) || !IsDefined(std[i]) {
			continue
		}
		b.Upper[i] = mean[i] + mult*std[i]
		b.Lower[i] = mean[i] - mult*std[i]
	}
	return b
}
