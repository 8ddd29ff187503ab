// Package classifier predicts delivery performance from a feature vector.
package classifier

import (
	"errors"

	"github.com/chrisdamba/orderly/internal/features"
)

// ErrModelUnavailable means no model could be loaded or trained.
var ErrModelUnavailable = errors.New("model not available")

type Classifier interface {
	Predict(v features.Vector) (int, error)
	// PredictProbabilities returns one probability per entry of Classes.
	PredictProbabilities(v features.Vector) ([]float64, error)
	Classes() []int
	// FeatureImportances is aligned with features.Names and sums to 1.
	FeatureImportances() []float64
}
