// Package classifier provides the three-class model used for decisioning.
//
// Implementations are trained once with Fit and are read-only afterwards,
// so a fitted Classifier can be shared without locking.
package classifier

import (
	"errors"

	"mltrader/internal/model"
)

var (
	ErrNotFitted = errors.New("classifier: predict called before fit")
	ErrShape     = errors.New("classifier: row width does not match training data")
	ErrNoRows    = errors.New("classifier: no training rows")
)

// Classifier learns a mapping from feature rows to labels.
type Classifier interface {
	// Fit trains on X (one row per sample) and matching defined labels y.
	Fit(X [][]float64, y []model.Label) error

	// Predict returns the class for a single row.
	Predict(x []float64) (model.Label, error)
}
