// Package experiment runs every model an experiment names against one
// dataset and summarizes each acquisition history.
package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/GoSim-25-26J-441/seqlearn/internal/acquisition"
	"github.com/GoSim-25-26J-441/seqlearn/internal/regression"
	"github.com/GoSim-25-26J-441/seqlearn/internal/summary"
	"github.com/GoSim-25-26J-441/seqlearn/pkg/config"
	"github.com/GoSim-25-26J-441/seqlearn/pkg/logger"
	"github.com/GoSim-25-26J-441/seqlearn/pkg/models"
)

// DefaultParallelism bounds how many models are simulated at once
const DefaultParallelism = 4

// Series is the outcome for one model
type Series struct {
	Label   string
	Model   config.Model
	History *models.History
	Summary *models.Summary
}

// Result holds one Series per model, primary model first
type Result struct {
	Series  []Series
	Elapsed time.Duration
}

// Primary returns the series of the experiment's main model
func (r *Result) Primary() *Series {
	return &r.Series[0]
}

// ProgressReporter receives simulator progress tagged with the model label.
// It may be called from several goroutines at once.
type ProgressReporter func(label string, replication, iteration int)

// FactoryWrapper decorates the factory built for a model
type FactoryWrapper func(label string, factory regression.Factory) regression.Factory

// Runner simulates the models of an experiment. Each model gets its own
// simulator seeded with the experiment seed, so every model starts from
// the same initial samples; models may run concurrently but each run stays
// sequential.
type Runner struct {
	log         *slog.Logger
	parallelism int
	progress    ProgressReporter
	wrap        FactoryWrapper
}

// NewRunner creates a runner with the default logger and parallelism
func NewRunner() *Runner {
	return &Runner{
		log:         logger.Default,
		parallelism: DefaultParallelism,
	}
}

// WithLogger sets the logger handed to each simulator
func (r *Runner) WithLogger(l *slog.Logger) *Runner {
	if l != nil {
		r.log = l
	}
	return r
}

// WithParallelism limits concurrent model simulations; n < 1 means one.
func (r *Runner) WithParallelism(n int) *Runner {
	if n < 1 {
		n = 1
	}
	r.parallelism = n
	return r
}

// WithProgressReporter sets a progress callback
func (r *Runner) WithProgressReporter(fn ProgressReporter) *Runner {
	r.progress = fn
	return r
}

// WithFactoryWrapper installs a decorator applied to every model factory
func (r *Runner) WithFactoryWrapper(fn FactoryWrapper) *Runner {
	r.wrap = fn
	return r
}

// Params converts the experiment's simulation block
func Params(exp *config.Experiment) acquisition.Params {
	return acquisition.Params{
		NInit: exp.Simulation.NInit,
		NIter: exp.Simulation.NIter,
		NRepl: exp.Simulation.NRepl,
		Seed:  exp.Simulation.Seed,
	}
}

// Models returns the main model followed by the comparison models
func Models(exp *config.Experiment) []config.Model {
	return append([]config.Model{exp.Model}, exp.Compare...)
}

// Run simulates and summarizes every model. The first failure cancels the
// remaining models and no result is returned.
func (r *Runner) Run(ctx context.Context, exp *config.Experiment, ds *models.Dataset) (*Result, error) {
	if exp == nil {
		return nil, fmt.Errorf("%w: experiment is required", acquisition.ErrInvalidConfiguration)
	}
	params := Params(exp)
	if err := acquisition.Validate(ds, params); err != nil {
		return nil, err
	}
	quantile := exp.Report.UpperQuantile
	if quantile == 0 {
		quantile = summary.DefaultUpperQuantile
	}

	specs := Models(exp)
	factories := make([]regression.Factory, len(specs))
	for i, m := range specs {
		f, err := regression.NewFactory(m)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", acquisition.ErrInvalidConfiguration, err)
		}
		if r.wrap != nil {
			f = r.wrap(m.DisplayLabel(), f)
		}
		factories[i] = f
	}

	start := time.Now()
	out := make([]Series, len(specs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism)
	for i, m := range specs {
		label := m.DisplayLabel()
		g.Go(func() error {
			sim := acquisition.NewSimulator(factories[i]).WithLogger(r.log.With("model", label))
			if r.progress != nil {
				sim.WithProgressReporter(func(replication, iteration int) {
					r.progress(label, replication, iteration)
				})
			}
			history, err := sim.Run(gctx, ds, params)
			if err != nil {
				return fmt.Errorf("model %s: %w", label, err)
			}
			sum, err := summary.SummarizeWithQuantile(history, ds.Responses, params.NInit, quantile)
			if err != nil {
				return fmt.Errorf("model %s: %w", label, err)
			}
			out[i] = Series{Label: label, Model: m, History: history, Summary: sum}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Result{Series: out, Elapsed: time.Since(start)}, nil
}
