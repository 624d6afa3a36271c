package marketdata

import (
	"context"
	"math"
	"math/rand"
	"time"

	"mltrader/internal/model"
)

const (
	defaultRandomBars = 5000
	defaultInterval   = 5 * time.Minute
	startPrice        = 1.0
	barVol            = 0.006
)

var defaultStart = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

// RandomWalk generates a reproducible synthetic series for runs without
// data files.
type RandomWalk struct {
	Bars     int
	Seed     int64
	Interval time.Duration
	Start    time.Time
}

func (r *RandomWalk) Load(ctx context.Context, code string) (*model.Series, error) {
	n := r.Bars
	if n <= 0 {
		n = defaultRandomBars
	}
	interval := r.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	start := r.Start
	if start.IsZero() {
		start = defaultStart
	}
	return finish(code, "random", randomBars(n, r.Seed, start, interval))
}

// GenerateRandomWalk returns n valid bars from seed with default spacing.
func GenerateRandomWalk(code string, n int, seed int64) *model.Series {
	return &model.Series{Code: code, Bars: randomBars(n, seed, defaultStart, defaultInterval)}
}

// randomBars walks the close with slowly drifting regimes so the labels are
// not pure noise. Each bar opens at the previous close.
func randomBars(n int, seed int64, start time.Time, interval time.Duration) []model.Bar {
	rng := rand.New(rand.NewSource(seed))
	bars := make([]model.Bar, n)
	price, drift := startPrice, 0.0
	ts := start
	for i := range bars {
		if i%200 == 0 {
			drift = (rng.Float64() - 0.5) * barVol * 0.5
		}
		open := price
		ret := drift + rng.NormFloat64()*barVol
		close := math.Max(open*math.Exp(ret), 1e-6)
		high := math.Max(open, close) * (1 + rng.Float64()*barVol*0.5)
		low := math.Min(open, close) * (1 - rng.Float64()*barVol*0.5)
		vol := 10_000 + rng.Float64()*5_000
		bars[i] = model.Bar{TS: ts, Open: open, High: high, Low: low, Close: close, Volume: vol}
		price = close
		ts = ts.Add(interval)
	}
	return bars
}
