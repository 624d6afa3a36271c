package model

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	ErrEmptySeries      = errors.New("series has no bars")
	ErrUnordered        = errors.New("bar timestamps must be strictly ascending")
	ErrNonPositivePrice = errors.New("bar prices must be positive")
	ErrNegativeVolume   = errors.New("bar volume must not be negative")
)

// Bar is one OHLCV sample for a fixed time interval.
type Bar struct {
	TS     time.Time `json:"ts"` // interval start (UTC)
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Validate checks the price and volume constraints of a single bar.
func (b Bar) Validate() error {
	if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
		return ErrNonPositivePrice
	}
	if b.Volume < 0 {
		return ErrNegativeVolume
	}
	return nil
}

// Series is a time-ascending sequence of bars for one instrument.
// Index 0 is the oldest bar.
type Series struct {
	Code string `json:"code"`
	Bars []Bar  `json:"bars"`
}

// NewSeries validates bars and wraps them in a Series.
func NewSeries(code string, bars []Bar) (*Series, error) {
	s := &Series{Code: code, Bars: bars}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks ordering and per-bar constraints.
func (s *Series) Validate() error {
	if len(s.Bars) == 0 {
		return ErrEmptySeries
	}
	for i, b := range s.Bars {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("bar %d (%s): %w", i, b.TS.Format(time.RFC3339), err)
		}
		if i > 0 && !b.TS.After(s.Bars[i-1].TS) {
			return fmt.Errorf("bar %d (%s): %w", i, b.TS.Format(time.RFC3339), ErrUnordered)
		}
	}
	return nil
}

func (s *Series) Len() int { return len(s.Bars) }

// At returns the bar at position i.
func (s *Series) At(i int) Bar { return s.Bars[i] }

// IndexOf returns the position of the bar stamped ts.
func (s *Series) IndexOf(ts time.Time) (int, bool) {
	i := sort.Search(len(s.Bars), func(i int) bool { return !s.Bars[i].TS.Before(ts) })
	if i < len(s.Bars) && s.Bars[i].TS.Equal(ts) {
		return i, true
	}
	return -1, false
}

// Head returns a series holding the first n bars. The bar slice is shared.
func (s *Series) Head(n int) *Series {
	if n > len(s.Bars) {
		n = len(s.Bars)
	}
	if n < 0 {
		n = 0
	}
	return &Series{Code: s.Code, Bars: s.Bars[:n:n]}
}

func (s *Series) Opens() []float64   { return s.column(func(b Bar) float64 { return b.Open }) }
func (s *Series) Highs() []float64   { return s.column(func(b Bar) float64 { return b.High }) }
func (s *Series) Lows() []float64    { return s.column(func(b Bar) float64 { return b.Low }) }
func (s *Series) Closes() []float64  { return s.column(func(b Bar) float64 { return b.Close }) }
func (s *Series) Volumes() []float64 { return s.column(func(b Bar) float64 { return b.Volume }) }

func (s *Series) column(f func(Bar) float64) []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = f(b)
	}
	return out
}
