package simd

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/seqlearn/pkg/config"
	"github.com/GoSim-25-26J-441/seqlearn/pkg/models"
	"github.com/GoSim-25-26J-441/seqlearn/pkg/utils"
)

// Run is the externally visible state of an experiment run
type Run struct {
	ID              string           `json:"id"`
	Status          models.RunStatus `json:"status"`
	CreatedAtUnixMs int64            `json:"created_at_unix_ms"`
	StartedAtUnixMs int64            `json:"started_at_unix_ms,omitempty"`
	EndedAtUnixMs   int64            `json:"ended_at_unix_ms,omitempty"`
	Error           string           `json:"error,omitempty"`
	Progress        Progress         `json:"progress"`
}

// Progress counts completed acquisition steps over all models of a run
type Progress struct {
	CompletedSteps int `json:"completed_steps"`
	TotalSteps     int `json:"total_steps"`
}

// RunInput is what a client submits: the experiment YAML and, unless the
// experiment embeds its data inline, the candidate table as CSV text.
type RunInput struct {
	ExperimentYAML string `json:"experiment_yaml"`
	DatasetCSV     string `json:"dataset_csv,omitempty"`
	CallbackURL    string `json:"callback_url,omitempty"`
	CallbackSecret string `json:"callback_secret,omitempty"`
}

// SeriesResult is the stored outcome for one model of a run
type SeriesResult struct {
	Label   string          `json:"label"`
	Model   string          `json:"model"`
	History *models.History `json:"history"`
	Summary *models.Summary `json:"summary"`
}

// RunRecord bundles a run with its parsed input and, once completed, its
// results. Records returned by the store are snapshots.
type RunRecord struct {
	Run        Run
	Input      *RunInput
	Experiment *config.Experiment
	Dataset    *models.Dataset
	Results    []SeriesResult
}

type RunStore struct {
	mu   sync.RWMutex
	runs map[string]*RunRecord
}

func NewRunStore() *RunStore {
	return &RunStore{
		runs: make(map[string]*RunRecord),
	}
}

func nowUnixMs() int64 {
	return time.Now().UTC().UnixMilli()
}

// Create stores a pending run. An empty runID gets a generated one.
func (s *RunStore) Create(runID string, input *RunInput, exp *config.Experiment, ds *models.Dataset) (*RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if runID == "" {
		runID = utils.GenerateRunID()
	}
	if _, exists := s.runs[runID]; exists {
		return nil, fmt.Errorf("%w: %s", ErrRunExists, runID)
	}

	total := 0
	if exp != nil {
		total = exp.Simulation.NIter * exp.Simulation.NRepl * (1 + len(exp.Compare))
	}
	rec := &RunRecord{
		Run: Run{
			ID:              runID,
			Status:          models.RunStatusPending,
			CreatedAtUnixMs: nowUnixMs(),
			Progress:        Progress{TotalSteps: total},
		},
		Input:      input,
		Experiment: exp,
		Dataset:    ds,
	}
	s.runs[runID] = rec
	return rec.snapshot(), nil
}

func (s *RunStore) Get(runID string) (*RunRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.runs[runID]
	if !ok {
		return nil, false
	}
	return rec.snapshot(), true
}

// List returns up to limit runs, newest first, optionally filtered by status.
func (s *RunStore) List(limit int, status models.RunStatus) []*RunRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	out := make([]*RunRecord, 0, minInt(limit, len(s.runs)))
	for _, rec := range s.runs {
		if status != "" && rec.Run.Status != status {
			continue
		}
		out = append(out, rec.snapshot())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Run.CreatedAtUnixMs != out[j].Run.CreatedAtUnixMs {
			return out[i].Run.CreatedAtUnixMs > out[j].Run.CreatedAtUnixMs
		}
		return out[i].Run.ID < out[j].Run.ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// SetStatus moves a run to status. Terminal runs never change again.
func (s *RunStore) SetStatus(runID string, status models.RunStatus, errMsg string) (*RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if rec.Run.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: %s is %s", ErrRunTerminal, runID, rec.Run.Status)
	}

	rec.Run.Status = status
	if errMsg != "" {
		rec.Run.Error = errMsg
	}

	switch status {
	case models.RunStatusRunning:
		if rec.Run.StartedAtUnixMs == 0 {
			rec.Run.StartedAtUnixMs = nowUnixMs()
		}
	case models.RunStatusCompleted, models.RunStatusFailed, models.RunStatusCancelled:
		rec.Run.EndedAtUnixMs = nowUnixMs()
	}

	return rec.snapshot(), nil
}

// AddProgress records one completed acquisition step
func (s *RunStore) AddProgress(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.runs[runID]; ok {
		rec.Run.Progress.CompletedSteps++
	}
}

// Complete stores the results and marks a running run completed. Results
// are dropped if the run was cancelled meanwhile.
func (s *RunStore) Complete(runID string, results []SeriesResult) (*RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if rec.Run.Status != models.RunStatusRunning {
		return nil, fmt.Errorf("%w: %s is %s", ErrRunTerminal, runID, rec.Run.Status)
	}
	rec.Results = results
	rec.Run.Status = models.RunStatusCompleted
	rec.Run.EndedAtUnixMs = nowUnixMs()
	return rec.snapshot(), nil
}

func (r *RunRecord) snapshot() *RunRecord {
	cp := *r
	cp.Results = append([]SeriesResult(nil), r.Results...)
	return &cp
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
