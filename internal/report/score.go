// Package report scores predictions and summarises a finished run.
package report

import (
	"errors"
	"fmt"

	"mltrader/internal/model"
)

var ErrLengthMismatch = errors.New("report: true and predicted sequences differ in length")

// Confusion is a 3x3 count matrix indexed [true][pred] in model.Classes order.
type Confusion [3][3]int

// NewConfusion counts pairs where both labels are defined.
func NewConfusion(yTrue, yPred []model.Label) (Confusion, error) {
	var c Confusion
	if len(yTrue) != len(yPred) {
		return c, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(yTrue), len(yPred))
	}
	for i := range yTrue {
		ti, pi := model.ClassIndex(yTrue[i]), model.ClassIndex(yPred[i])
		if ti < 0 || pi < 0 {
			continue
		}
		c[ti][pi]++
	}
	return c, nil
}

// Total number of counted pairs.
func (c Confusion) Total() int {
	n := 0
	for i := range c {
		for j := range c[i] {
			n += c[i][j]
		}
	}
	return n
}

// Accuracy is the share of correct predictions.
func (c Confusion) Accuracy() float64 {
	n := c.Total()
	if n == 0 {
		return 0
	}
	hit := 0
	for i := range c {
		hit += c[i][i]
	}
	return float64(hit) / float64(n)
}

// F1 for class index k; zero when precision and recall are both zero.
func (c Confusion) F1(k int) float64 {
	tp := c[k][k]
	var fp, fn int
	for i := range c {
		if i != k {
			fp += c[i][k]
			fn += c[k][i]
		}
	}
	if 2*tp+fp+fn == 0 {
		return 0
	}
	return 2 * float64(tp) / float64(2*tp+fp+fn)
}

// WeightedF1 averages per-class F1 weighted by true-class support.
func (c Confusion) WeightedF1() float64 {
	n := c.Total()
	if n == 0 {
		return 0
	}
	sum := 0.0
	for k := range c {
		support := 0
		for j := range c[k] {
			support += c[k][j]
		}
		sum += float64(support) * c.F1(k)
	}
	return sum / float64(n)
}

// Scores are the model quality figures of a run.
type Scores struct {
	Samples    int       `json:"samples"`
	Accuracy   float64   `json:"accuracy"`
	WeightedF1 float64   `json:"f1_weighted"`
	Confusion  Confusion `json:"confusion"`
}

// Score computes accuracy and weighted F1 over aligned sequences.
func Score(yTrue, yPred []model.Label) (Scores, error) {
	c, err := NewConfusion(yTrue, yPred)
	if err != nil {
		return Scores{}, err
	}
	return Scores{
		Samples:    c.Total(),
		Accuracy:   c.Accuracy(),
		WeightedF1: c.WeightedF1(),
		Confusion:  c,
	}, nil
}
