// Package acquisition simulates greedy sequential learning over a fully
// labelled dataset.
//
// Each replication hides every response except a random initial sample,
// then repeatedly fits a model on what has been revealed, predicts the
// hidden candidates and reveals the one with the highest prediction. All
// replications of a run draw their initial samples from a single seeded
// generator in order, so a run is reproducible only as a whole: the same
// seed and replication count always yield the same history, but two runs
// of five replications do not reproduce one run of ten.
package acquisition

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoSim-25-26J-441/seqlearn/internal/regression"
	"github.com/GoSim-25-26J-441/seqlearn/pkg/logger"
	"github.com/GoSim-25-26J-441/seqlearn/pkg/models"
	"github.com/GoSim-25-26J-441/seqlearn/pkg/utils"
)

// Params are the replication parameters of one run
type Params struct {
	NInit int
	NIter int
	NRepl int
	Seed  int64
}

// ProgressReporter is called after every completed acquisition step and
// once after each replication's initial sample (iteration -1).
type ProgressReporter func(replication, iteration int)

// Simulator runs replicated greedy acquisition with a model factory
type Simulator struct {
	factory  regression.Factory
	log      *slog.Logger
	progress ProgressReporter
}

// NewSimulator creates a simulator that trains a fresh model from factory
// at every acquisition step.
func NewSimulator(factory regression.Factory) *Simulator {
	return &Simulator{
		factory: factory,
		log:     logger.Default,
	}
}

// WithLogger sets the logger used for run and replication events
func (s *Simulator) WithLogger(l *slog.Logger) *Simulator {
	if l != nil {
		s.log = l
	}
	return s
}

// WithProgressReporter sets a callback for step-level progress
func (s *Simulator) WithProgressReporter(fn ProgressReporter) *Simulator {
	s.progress = fn
	return s
}

// Simulate is shorthand for NewSimulator(factory).Run(ctx, ds, p).
func Simulate(ctx context.Context, ds *models.Dataset, p Params, factory regression.Factory) (*models.History, error) {
	return NewSimulator(factory).Run(ctx, ds, p)
}

// Validate checks the run preconditions without simulating anything.
func Validate(ds *models.Dataset, p Params) error {
	if ds == nil {
		return invalidf("dataset is required")
	}
	if err := ds.Validate(); err != nil {
		return invalidf("%v", err)
	}
	if p.NInit < 1 {
		return invalidf("n_init must be at least 1, got %d", p.NInit)
	}
	if p.NIter < 0 {
		return invalidf("n_iter cannot be negative, got %d", p.NIter)
	}
	if p.NRepl < 1 {
		return invalidf("n_repl must be at least 1, got %d", p.NRepl)
	}
	if need := p.NInit + p.NIter; ds.Len() < need {
		return fmt.Errorf("%w: %w: n_init+n_iter=%d exceeds %d candidates",
			ErrInvalidConfiguration, ErrIndexExhaustion, need, ds.Len())
	}
	return nil
}

// Run executes p.NRepl replications in order and returns the complete
// acquisition history. Any failure aborts the whole run and no partial
// history is returned. Cancellation of ctx is observed between steps.
func (s *Simulator) Run(ctx context.Context, ds *models.Dataset, p Params) (*models.History, error) {
	if s.factory == nil {
		return nil, invalidf("model factory is required")
	}
	if err := Validate(ds, p); err != nil {
		return nil, err
	}

	start := time.Now()
	s.log.Info("acquisition run started",
		"candidates", ds.Len(), "features", ds.Dim(),
		"n_init", p.NInit, "n_iter", p.NIter, "n_repl", p.NRepl, "seed", p.Seed)

	rng := utils.NewRandSource(p.Seed)
	history := &models.History{
		NInit:   p.NInit,
		NIter:   p.NIter,
		Seed:    p.Seed,
		Indices: make([][]int, p.NRepl),
	}
	for r := 0; r < p.NRepl; r++ {
		row, err := s.replicate(ctx, ds, p, rng, r)
		if err != nil {
			s.log.Warn("acquisition run aborted", "replication", r, "error", err)
			return nil, err
		}
		history.Indices[r] = row
		s.log.Debug("replication finished", "replication", r, "best_pick", row[len(row)-1])
	}

	s.log.Info("acquisition run finished", "n_repl", p.NRepl, "elapsed", time.Since(start))
	return history, nil
}

// replicate runs one replication, consuming the initial sample from the
// shared generator.
func (s *Simulator) replicate(ctx context.Context, ds *models.Dataset, p Params, rng *utils.RandSource, r int) ([]int, error) {
	n := ds.Len()
	row := make([]int, 0, p.NInit+p.NIter)
	row = append(row, rng.Sample(n, p.NInit)...)

	inTrain := make([]bool, n)
	for _, idx := range row {
		inTrain[idx] = true
	}
	s.report(r, -1)

	holdout := make([]int, 0, n)
	for it := 0; it < p.NIter; it++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		predictor, err := s.factory().Fit(ds.Rows(row), ds.Targets(row))
		if err != nil {
			return nil, &ModelFitError{Replication: r, Iteration: it, Stage: "fit", Err: err}
		}

		// Ascending enumeration makes the first maximum the lowest index.
		holdout = holdout[:0]
		for idx := 0; idx < n; idx++ {
			if !inTrain[idx] {
				holdout = append(holdout, idx)
			}
		}

		estimates, err := predictor.Predict(ds.Rows(holdout))
		if err != nil {
			return nil, &ModelFitError{Replication: r, Iteration: it, Stage: "predict", Err: err}
		}
		if len(estimates) != len(holdout) {
			return nil, &ModelFitError{Replication: r, Iteration: it, Stage: "predict",
				Err: fmt.Errorf("%w: %d estimates for %d candidates", regression.ErrDimension, len(estimates), len(holdout))}
		}

		best := utils.ArgMax(estimates)
		if best < 0 {
			return nil, &ModelFitError{Replication: r, Iteration: it, Stage: "predict", Err: ErrNoPrediction}
		}
		pick := holdout[best]
		inTrain[pick] = true
		row = append(row, pick)
		s.report(r, it)
	}
	return row, nil
}

func (s *Simulator) report(replication, iteration int) {
	if s.progress != nil {
		s.progress(replication, iteration)
	}
}
