package acquisition

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration reports a bad shape or size relationship
	// between the dataset and the run parameters.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrIndexExhaustion reports that the dataset cannot supply
	// n_init+n_iter distinct candidates. It is always reported together
	// with ErrInvalidConfiguration, before any replication starts.
	ErrIndexExhaustion = errors.New("not enough candidates")
	// ErrModelFit reports that the regression model failed to fit or predict.
	ErrModelFit = errors.New("model fit failed")
	// ErrNoPrediction reports that every holdout prediction was NaN.
	ErrNoPrediction = errors.New("model produced no comparable prediction")
)

// ModelFitError identifies the replication and iteration at which the
// model failed. It matches both ErrModelFit and the underlying cause.
type ModelFitError struct {
	Replication int
	Iteration   int
	Stage       string // "fit" or "predict"
	Err         error
}

func (e *ModelFitError) Error() string {
	return fmt.Sprintf("model %s failed at replication %d, iteration %d: %v", e.Stage, e.Replication, e.Iteration, e.Err)
}

func (e *ModelFitError) Unwrap() []error {
	return []error{ErrModelFit, e.Err}
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}
