package simd

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/GoSim-25-26J-441/seqlearn/internal/experiment"
	"github.com/GoSim-25-26J-441/seqlearn/internal/metrics"
	"github.com/GoSim-25-26J-441/seqlearn/pkg/logger"
	"github.com/GoSim-25-26J-441/seqlearn/pkg/models"
)

// RunExecutor manages asynchronous run execution and per-run cancellation.
type RunExecutor struct {
	store    *RunStore
	metrics  *metrics.Collector
	notifier *Notifier

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

var (
	ErrRunNotFound        = errors.New("run not found")
	ErrRunTerminal        = errors.New("run is terminal")
	ErrRunIDMissing       = errors.New("run_id is required")
	ErrRunExists          = errors.New("run already exists")
	ErrInvalidInput       = errors.New("invalid run input")
	ErrResultsUnavailable = errors.New("results not available")
	ErrModelNotFound      = errors.New("model not found in run")
)

// NewRunExecutor creates an executor. collector may be nil.
func NewRunExecutor(store *RunStore, collector *metrics.Collector) *RunExecutor {
	return &RunExecutor{
		store:   store,
		metrics: collector,
		cancels: make(map[string]context.CancelFunc),
	}
}

// SetNotifier enables completion callbacks for runs that request one
func (e *RunExecutor) SetNotifier(n *Notifier) {
	e.notifier = n
}

// Start begins executing a run asynchronously.
// Returns the updated run state (RUNNING) or an error.
func (e *RunExecutor) Start(runID string) (*RunRecord, error) {
	if runID == "" {
		return nil, ErrRunIDMissing
	}

	rec, ok := e.store.Get(runID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	switch {
	case rec.Run.Status == models.RunStatusRunning:
		return rec, nil
	case rec.Run.Status.IsTerminal():
		return nil, fmt.Errorf("%w: %s", ErrRunTerminal, runID)
	}

	updated, err := e.store.SetStatus(runID, models.RunStatusRunning, "")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.mu.Lock()
	if old, exists := e.cancels[runID]; exists {
		old()
	}
	e.cancels[runID] = cancel
	e.mu.Unlock()

	e.wg.Add(1)
	go e.runSimulation(ctx, runID)
	return updated, nil
}

// Stop requests cancellation for a run and marks it cancelled. The
// simulator observes the cancellation at its next step.
func (e *RunExecutor) Stop(runID string) (*RunRecord, error) {
	if runID == "" {
		return nil, ErrRunIDMissing
	}

	updated, err := e.store.SetStatus(runID, models.RunStatusCancelled, "")
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	cancel, ok := e.cancels[runID]
	e.mu.Unlock()
	if ok {
		cancel()
	}
	return updated, nil
}

// Shutdown cancels every executing run and waits for the goroutines to exit.
func (e *RunExecutor) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	ids := make([]string, 0, len(e.cancels))
	for id := range e.cancels {
		ids = append(ids, id)
	}
	e.mu.Unlock()
	for _, id := range ids {
		if _, err := e.Stop(id); err != nil && !errors.Is(err, ErrRunTerminal) {
			logger.Warn("failed to stop run during shutdown", "run_id", id, "error", err)
		}
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *RunExecutor) cleanup(runID string) {
	e.mu.Lock()
	if cancel, ok := e.cancels[runID]; ok {
		cancel()
		delete(e.cancels, runID)
	}
	e.mu.Unlock()
}

func (e *RunExecutor) runSimulation(ctx context.Context, runID string) {
	defer e.wg.Done()
	defer e.cleanup(runID)

	rec, ok := e.store.Get(runID)
	if !ok {
		logger.Error("run not found", "run_id", runID)
		return
	}

	finish := func(string) {}
	if e.metrics != nil {
		finish = e.metrics.RunStarted()
	}

	runner := experiment.NewRunner().WithLogger(logger.With("run_id", runID))
	var observe func(replication, iteration int)
	if e.metrics != nil {
		observe = e.metrics.Progress(rec.Experiment.Simulation.NIter)
		runner.WithFactoryWrapper(e.metrics.InstrumentFactory)
	}
	runner.WithProgressReporter(func(_ string, replication, iteration int) {
		if iteration >= 0 {
			e.store.AddProgress(runID)
		}
		if observe != nil {
			observe(replication, iteration)
		}
	})

	logger.Info("starting experiment run", "run_id", runID,
		"models", len(rec.Experiment.Compare)+1,
		"n_repl", rec.Experiment.Simulation.NRepl,
		"n_iter", rec.Experiment.Simulation.NIter)

	res, err := runner.Run(ctx, rec.Experiment, rec.Dataset)
	if err != nil {
		if ctx.Err() != nil {
			logger.Info("experiment run cancelled", "run_id", runID)
			finish(metrics.OutcomeCancelled)
			e.notify(runID)
			return
		}
		logger.Error("experiment run failed", "run_id", runID, "error", err)
		if _, setErr := e.store.SetStatus(runID, models.RunStatusFailed, err.Error()); setErr != nil {
			logger.Error("failed to set failed status", "run_id", runID, "error", setErr)
		}
		finish(metrics.OutcomeFailed)
		e.notify(runID)
		return
	}

	results := make([]SeriesResult, len(res.Series))
	for i, s := range res.Series {
		results[i] = SeriesResult{Label: s.Label, Model: s.Model.Name, History: s.History, Summary: s.Summary}
	}
	if _, err := e.store.Complete(runID, results); err != nil {
		// Stopped after the last step but before the results were stored.
		logger.Info("experiment run finished after cancellation", "run_id", runID, "error", err)
		finish(metrics.OutcomeCancelled)
		e.notify(runID)
		return
	}

	primary := res.Primary().Summary
	logger.Info("experiment run completed", "run_id", runID,
		"elapsed", res.Elapsed,
		"final_median", primary.Median[len(primary.Median)-1],
		"optimum", primary.Optimum)
	finish(metrics.OutcomeCompleted)
	e.notify(runID)
}

func (e *RunExecutor) notify(runID string) {
	if e.notifier == nil {
		return
	}
	rec, ok := e.store.Get(runID)
	if !ok || rec.Input == nil || rec.Input.CallbackURL == "" {
		return
	}
	e.notifier.Notify(rec.Input.CallbackURL, getCallbackSecret(rec), rec)
}
