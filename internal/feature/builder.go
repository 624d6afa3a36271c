// Package feature turns a bar series into the model's feature matrix.
//
// The Builder runs every indicator once over the whole series and attaches
// the derived, close-normalised ratios. Each value at bar t depends only on
// bars <= t, so a frame built over a longer series agrees with one built
// over any prefix of it.
package feature

import (
	"mltrader/internal/indicator"
	"mltrader/internal/model"
)

// Params holds the look-back windows of every indicator.
type Params struct {
	MAWindows   [4]int // short to long
	BBLookback  int
	BBMult      float64
	RSIWindow   int
	StochK      int
	StochD      int
	StochWindow int
	MFIPeriod   int
	MomentumLag int
}

// DefaultParams returns the parameters the strategy trades with.
func DefaultParams() Params {
	return Params{
		MAWindows:   [4]int{10, 20, 50, 100},
		BBLookback:  20,
		BBMult:      1.5,
		RSIWindow:   14,
		StochK:      3,
		StochD:      3,
		StochWindow: 14,
		MFIPeriod:   14,
		MomentumLag: 2,
	}
}

// Warmup is the first bar index at which every column can be defined.
func (p Params) Warmup() int {
	w := 0
	for _, m := range p.MAWindows {
		w = max(w, m-1)
	}
	w = max(w, p.BBLookback-1)
	w = max(w, p.RSIWindow+p.StochWindow-1+p.StochK-1+p.StochD-1)
	w = max(w, p.MFIPeriod)
	w = max(w, p.MomentumLag)
	return w
}

// Builder computes feature frames.
type Builder struct {
	params Params
}

// NewBuilder creates a builder with the given indicator parameters.
func NewBuilder(p Params) *Builder {
	return &Builder{params: p}
}

func (b *Builder) Params() Params { return b.params }

// Build runs all indicators over s and returns the aligned frame.
func (b *Builder) Build(s *model.Series) *Frame {
	p := b.params
	high, low, close, vol := s.Highs(), s.Lows(), s.Closes(), s.Volumes()
	f := newFrame(len(close))

	rsi := indicator.RSI(close, p.RSIWindow)
	k, d := indicator.Stochastic(rsi, p.StochK, p.StochD, p.StochWindow)
	f.add(ColRSI, rsi)
	f.add(ColStochK, k)
	f.add(ColStochD, d)
	f.add(ColMFI, indicator.MFI(high, low, close, vol, p.MFIPeriod))

	auxMA := [4]Column{AuxMA10, AuxMA20, AuxMA50, AuxMA100}
	distCols := [4]Column{ColMA10Dist, ColMA20Dist, ColMA50Dist, ColMA100Dist}
	var ma [4][]float64
	for i, w := range p.MAWindows {
		ma[i] = indicator.SMA(close, w)
		f.add(auxMA[i], ma[i])
	}
	for i := range ma {
		f.add(distCols[i], ratio(close, func(t int) float64 { return close[t] - ma[i][t] }))
	}

	deltaCols := [3]Column{ColDelta10_20, ColDelta20_50, ColDelta50_100}
	for i := range deltaCols {
		f.add(deltaCols[i], ratio(close, func(t int) float64 { return ma[i][t] - ma[i+1][t] }))
	}

	f.add(ColMomentum, indicator.PctChange(close, p.MomentumLag))

	bands := indicator.Bollinger(high, low, close, p.BBLookback, p.BBMult)
	f.add(AuxBBUpper, bands.Upper)
	f.add(AuxBBLower, bands.Lower)
	f.add(ColBBUpper, ratio(close, func(t int) float64 { return bands.Upper[t] - close[t] }))
	f.add(ColBBLower, ratio(close, func(t int) float64 { return bands.Lower[t] - close[t] }))
	f.add(ColBBWidth, ratio(close, func(t int) float64 { return bands.Upper[t] - bands.Lower[t] }))

	return f
}

// ratio divides num(t) by close[t]; NaN numerators stay undefined.
func ratio(close []float64, num func(t int) float64) []float64 {
	out := make([]float64, len(close))
	for t := range close {
		v := num(t)
		if !indicator.IsDefined(v) || close[t] == 0 {
			out[t] = indicator.Undefined
			continue
		}
		out[t] = v / close[t]
	}
	return out
}
