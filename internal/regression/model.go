// Package regression provides the regression models that guide greedy
// acquisition. A Model is trained from scratch on every call to Fit, which
// returns an immutable Predictor; no state carries over between fits.
package regression

import (
	"errors"
	"fmt"

	"github.com/GoSim-25-26J-441/seqlearn/pkg/config"
)

var (
	ErrSingular   = errors.New("training design matrix is singular")
	ErrDimension  = errors.New("feature dimension mismatch")
	ErrEmptyInput = errors.New("no training rows")
)

// Model trains a predictor on a set of feature rows and responses
type Model interface {
	Fit(features [][]float64, responses []float64) (Predictor, error)
}

// Predictor estimates responses for feature rows
type Predictor interface {
	Predict(features [][]float64) ([]float64, error)
}

// Factory yields a fresh, untrained model
type Factory func() Model

// NewFactory builds the factory for a configured model
func NewFactory(m config.Model) (Factory, error) {
	if err := config.ValidateModel(m); err != nil {
		return nil, err
	}
	switch m.Name {
	case "linear":
		intercept := m.FitIntercept()
		return func() Model { return &Linear{Intercept: intercept} }, nil
	case "ridge":
		intercept, alpha := m.FitIntercept(), m.Alpha
		return func() Model { return &Linear{Intercept: intercept, Alpha: alpha} }, nil
	case "knn":
		k := m.K
		return func() Model { return &KNN{K: k} }, nil
	}
	return nil, fmt.Errorf("unknown model: %s", m.Name)
}

// checkTrainingShape validates that rows and responses line up and returns
// the feature dimension.
func checkTrainingShape(features [][]float64, responses []float64) (int, error) {
	if len(features) == 0 {
		return 0, ErrEmptyInput
	}
	if len(features) != len(responses) {
		return 0, fmt.Errorf("%w: %d rows, %d responses", ErrDimension, len(features), len(responses))
	}
	dim := len(features[0])
	if dim == 0 {
		return 0, fmt.Errorf("%w: rows have no features", ErrDimension)
	}
	for i, row := range features {
		if len(row) != dim {
			return 0, fmt.Errorf("%w: row %d has %d features, expected %d", ErrDimension, i, len(row), dim)
		}
	}
	return dim, nil
}

func checkPredictShape(features [][]float64, dim int) error {
	for i, row := range features {
		if len(row) != dim {
			return fmt.Errorf("%w: row %d has %d features, model expects %d", ErrDimension, i, len(row), dim)
		}
	}
	return nil
}
