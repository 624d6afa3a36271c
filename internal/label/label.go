// Package label derives the supervised target from forward price movement.
//
// Labels look forward by construction: the label at bar t is computed from
// close[t+horizon]. They are targets only and never enter a feature row.
package label

import (
	"mltrader/internal/indicator"
	"mltrader/internal/model"
)

// Params configures the forward window and the flat band.
type Params struct {
	Horizon   int     // bars to look ahead
	Threshold float64 // |return| <= Threshold is flat
}

// DefaultParams is two bars ahead with a 0.4% flat band.
func DefaultParams() Params {
	return Params{Horizon: 2, Threshold: 0.004}
}

// ForwardReturn is (close[t+h] - close[t]) / close[t]; undefined past the tail.
func ForwardReturn(close []float64, horizon int) []float64 {
	out := make([]float64, len(close))
	for t := range close {
		out[t] = indicator.Undefined
		if horizon <= 0 || t+horizon >= len(close) || close[t] == 0 {
			continue
		}
		out[t] = (close[t+horizon] - close[t]) / close[t]
	}
	return out
}

// Classify maps a forward return onto the three classes.
func Classify(r, threshold float64) model.Label {
	switch {
	case !indicator.IsDefined(r):
		return model.LabelUndefined
	case r > threshold:
		return model.LabelUp
	case r < -threshold:
		return model.LabelDown
	default:
		return model.LabelFlat
	}
}

// Generate labels every bar of s.
func Generate(s *model.Series, p Params) []model.Label {
	r := ForwardReturn(s.Closes(), p.Horizon)
	out := make([]model.Label, len(r))
	for t, v := range r {
		out[t] = Classify(v, p.Threshold)
	}
	return out
}
