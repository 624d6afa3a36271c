package classifier

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"mltrader/internal/model"
)

// ForestConfig controls the random forest.
type ForestConfig struct {
	Trees       int   // number of trees
	MaxDepth    int   // 0 = unlimited
	MinLeaf     int   // minimum samples per leaf
	MaxFeatures int   // features tried per split; 0 = sqrt(width)
	Seed        int64 // base seed; tree i uses Seed+i
	Workers     int   // parallel tree builders; 0 = 1
}

// DefaultForestConfig mirrors a stock random forest: 100 bootstrapped
// trees, sqrt feature sampling.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{Trees: 100, MaxDepth: 12, MinLeaf: 1, Seed: 1, Workers: 4}
}

// RandomForest is a bagged ensemble of gini trees. Prediction averages leaf
// class probabilities and picks the most likely class; ties go to the
// lower class.
type RandomForest struct {
	cfg   ForestConfig
	width int
	trees []*tree
}

// NewRandomForest creates an unfitted forest.
func NewRandomForest(cfg ForestConfig) *RandomForest {
	if cfg.Trees <= 0 {
		cfg.Trees = 1
	}
	if cfg.MinLeaf <= 0 {
		cfg.MinLeaf = 1
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &RandomForest{cfg: cfg}
}

// Fit trains all trees. Results depend only on the data and Seed, never on
// Workers.
func (f *RandomForest) Fit(X [][]float64, y []model.Label) error {
	if len(X) == 0 {
		return ErrNoRows
	}
	if len(X) != len(y) {
		return fmt.Errorf("%w: %d rows, %d labels", ErrShape, len(X), len(y))
	}
	width := len(X[0])
	classes := make([]int, len(y))
	for i := range X {
		if len(X[i]) != width {
			return fmt.Errorf("%w: row %d has %d values, want %d", ErrShape, i, len(X[i]), width)
		}
		c := model.ClassIndex(y[i])
		if c < 0 {
			return fmt.Errorf("classifier: row %d has undefined label", i)
		}
		classes[i] = c
	}

	mtry := f.cfg.MaxFeatures
	if mtry <= 0 {
		mtry = int(math.Max(1, math.Floor(math.Sqrt(float64(width)))))
	}
	tcfg := treeConfig{maxDepth: f.cfg.MaxDepth, minLeaf: f.cfg.MinLeaf, maxFeatures: mtry}

	trees := make([]*tree, f.cfg.Trees)
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < f.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				rng := rand.New(rand.NewSource(f.cfg.Seed + int64(i)))
				trees[i] = buildTree(X, classes, bootstrap(len(X), rng), tcfg, rng)
			}
		}()
	}
	for i := range trees {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	f.width = width
	f.trees = trees
	return nil
}

// Predict returns the majority-probability class for x.
func (f *RandomForest) Predict(x []float64) (model.Label, error) {
	p, err := f.PredictProba(x)
	if err != nil {
		return model.LabelUndefined, err
	}
	best := 0
	for c := 1; c < numClasses; c++ {
		if p[c] > p[best] {
			best = c
		}
	}
	return model.Classes[best], nil
}

// PredictProba returns averaged class probabilities ordered as model.Classes.
func (f *RandomForest) PredictProba(x []float64) ([numClasses]float64, error) {
	var out [numClasses]float64
	if len(f.trees) == 0 {
		return out, ErrNotFitted
	}
	if len(x) != f.width {
		return out, fmt.Errorf("%w: got %d values, want %d", ErrShape, len(x), f.width)
	}
	for _, t := range f.trees {
		p := t.proba(x)
		for c := range out {
			out[c] += p[c]
		}
	}
	for c := range out {
		out[c] /= float64(len(f.trees))
	}
	return out, nil
}

func bootstrap(n int, rng *rand.Rand) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = rng.Intn(n)
	}
	return idx
}
