package models

import (
	"fmt"
	"math"
)

// RunStatus represents the status of an experiment run
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are possible
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed || s == RunStatusCancelled
}

// Dataset is the fixed candidate universe: one feature row and one true
// response per candidate. The candidate index is the row position.
type Dataset struct {
	Features     [][]float64 `json:"features"`
	Responses    []float64   `json:"responses"`
	FeatureNames []string    `json:"feature_names,omitempty"`
	ResponseName string      `json:"response_name,omitempty"`
}

// Len returns the number of candidates
func (d *Dataset) Len() int {
	return len(d.Responses)
}

// Dim returns the feature dimension, or 0 for an empty dataset
func (d *Dataset) Dim() int {
	if len(d.Features) == 0 {
		return 0
	}
	return len(d.Features[0])
}

// Validate checks shape compatibility and that every value is finite.
func (d *Dataset) Validate() error {
	if d.Len() == 0 {
		return fmt.Errorf("dataset has no candidates")
	}
	if len(d.Features) != len(d.Responses) {
		return fmt.Errorf("dataset has %d feature rows but %d responses", len(d.Features), len(d.Responses))
	}
	dim := d.Dim()
	if dim == 0 {
		return fmt.Errorf("dataset needs at least one feature column")
	}
	if len(d.FeatureNames) != 0 && len(d.FeatureNames) != dim {
		return fmt.Errorf("dataset names %d features but rows have %d", len(d.FeatureNames), dim)
	}
	for i, row := range d.Features {
		if len(row) != dim {
			return fmt.Errorf("feature row %d has %d values, expected %d", i, len(row), dim)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("feature row %d column %d is not finite", i, j)
			}
		}
	}
	for i, v := range d.Responses {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("response %d is not finite", i)
		}
	}
	return nil
}

// Rows returns the feature rows at the given candidate indices. The rows
// share storage with the dataset and must not be modified.
func (d *Dataset) Rows(indices []int) [][]float64 {
	out := make([][]float64, len(indices))
	for i, idx := range indices {
		out[i] = d.Features[idx]
	}
	return out
}

// Targets returns the responses at the given candidate indices
func (d *Dataset) Targets(indices []int) []float64 {
	out := make([]float64, len(indices))
	for i, idx := range indices {
		out[i] = d.Responses[idx]
	}
	return out
}

// History is the acquisition history of a simulation: one row per
// replication. Columns [0, NInit) hold the initial random sample in draw
// order and columns [NInit, NInit+NIter) the greedy picks in order.
type History struct {
	NInit   int     `json:"n_init"`
	NIter   int     `json:"n_iter"`
	Seed    int64   `json:"seed"`
	Indices [][]int `json:"indices"`
}

// Width returns NInit+NIter, the number of columns in every row
func (h *History) Width() int {
	return h.NInit + h.NIter
}

// Validate checks shape compatibility and that every value is finite.
func (d *Dataset) Validate() error {
	if d.Len() == 0 {
		return fmt.Errorf("dataset has no candidates")
	}
	if len(d.Features) != len(d.Responses) {
		return fmt.Errorf("dataset has %d feature rows but %d responses", len(d.Features), len(d.Responses))
	}
	dim := d.Dim()
	if dim == 0 {
		return fmt.Errorf("dataset needs at least one feature column")
	}
	if len(d.FeatureNames) != 0 && len(d.FeatureNames) != dim {
		return fmt.Errorf("dataset names %d features but rows have %d", len(d.FeatureNames), dim)
	}
	for i, row := range d.Features {
		if len(row) != dim {
			return fmt.Errorf("feature row %d has %d values, expected %d", i, len(row), dim)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("feature row %d column %d is not finite", i, j)
			}
		}
	}
	for i, v := range d.Responses {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("response %d is not finite", i)
		}
	}
	return nil
}

// Rows returns the feature rows at the given candidate indices. The rows
// share storage with the dataset and must not be modified.
func (d *Dataset) Rows(indices []int) [][]float64 {
	out := make([][]float64, len(indices))
	for i, idx := range indices {
		out[i] = d.Features[idx]
	}
	return out
}

// Targets returns the responses at the given candidate indices
func (d *Dataset) Targets(indices []int) []float64 {
	out := make([]float64, len(indices))
	for i, idx := range indices {
		out[i] = d.Responses[idx]
	}
	return out
}

// History is the acquisition history of a simulation: one row per
// replication. Columns [0, NInit) hold the initial random sample in draw
// order and columns [NInit, NInit+NIter) the greedy picks in order.
type History struct {
	NInit   int     `json:"n_init"`
	NIter   int     `json:"n_iter"`
	Seed    int64   `json:"seed"`
	Indices [][]int `json:"indices"`
}

// Width returns NInit+NIter, the number of columns in every row
func (h *History) Width() int {
	return h.NInit + h.NIter
}

// Initial returns a copy of replication r's initial sample
func (h *History) Initial(r int) []int {
	return append([]int(nil), h.Indices[r][:h.NInit]...)
}

// Acquired returns a copy of replication r's greedy picks in order
func (h *History) Acquired(r int) []int {
	return append([]int(nil), h.Indices[r][h.NInit:]...)
}

// Validate checks shape and per-row uniqueness against a candidate count n.
func (h *History) Validate(n int) error {
	if h.NInit < 1 {
		return fmt.Errorf("history n_init must be positive, got %d", h.NInit)
	}
	if h.NIter < 0 {
		return fmt.Errorf("history n_iter cannot be negative, got %d", h.NIter)
	}
	width := h.Width()
	for r, row := range h.Indices {
		if len(row) != width {
			return fmt.Errorf("replication %d has %d entries, expected %d", r, len(row), width)
		}
		seen := make(map[int]bool, width)
		for c, idx := range row {
			if idx < 0 || idx >= n {
				return fmt.Errorf("replication %d column %d: index %d outside [0, %d)", r, c, idx, n)
			}
			if seen[idx] {
				return fmt.Errorf("replication %d column %d: index %d repeated", r, c, idx)
			}
			seen[idx] = true
		}
	}
	return nil
}

// Summary holds the per-step statistics of a history. Every curve has
// len(Steps) == NIter+1 points; step 0 stands for the initial sample.
type Summary struct {
	Steps         []int     `json:"steps"`
	Median        []float64 `json:"median"`
	Upper         []float64 `json:"upper"`
	Mean          []float64 `json:"mean"`
	Optimum       float64   `json:"optimum"`
	UpperQuantile float64   `json:"upper_quantile"`
	Replications  int       `json:"replications"`
}

// FirstStepReaching returns the first step whose median best-so-far is at
// least target, or -1 if the median never reaches it.
func (s *Summary) FirstStepReaching(target float64) int {
	for i, v := range s.Median {
		if v >= target {
			return s.Steps[i]
		}
	}
	return -1
}
