// Package summary reduces an acquisition history to per-step statistics.
//
// The reduction runs in stages that each return a new matrix: index
// history to true response values, initial-sample collapse, best-so-far
// (running maximum) per replication, and finally the cross-replication
// median, upper quantile and mean at every step.
package summary

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/GoSim-25-26J-441/seqlearn/internal/acquisition"
	"github.com/GoSim-25-26J-441/seqlearn/pkg/models"
	"github.com/GoSim-25-26J-441/seqlearn/pkg/utils"
)

// DefaultUpperQuantile is the quantile reported as the upper curve
const DefaultUpperQuantile = 0.9

// Summarize computes the median and 90th-percentile best-so-far curves of
// history, plus the global optimum of responses.
func Summarize(history *models.History, responses []float64, nInit int) (*models.Summary, error) {
	return SummarizeWithQuantile(history, responses, nInit, DefaultUpperQuantile)
}

// SummarizeWithQuantile is Summarize with a caller-chosen upper quantile in (0, 1).
func SummarizeWithQuantile(history *models.History, responses []float64, nInit int, quantile float64) (*models.Summary, error) {
	if err := check(history, responses, nInit); err != nil {
		return nil, err
	}
	if !(quantile > 0 && quantile < 1) {
		return nil, invalidf("upper quantile must be in (0, 1), got %v", quantile)
	}

	values, err := Values(history, responses)
	if err != nil {
		return nil, err
	}
	collapsed, err := CollapseInitial(values, nInit)
	if err != nil {
		return nil, err
	}
	best := BestSoFar(collapsed)

	steps := len(best[0])
	s := &models.Summary{
		Steps:         make([]int, steps),
		Median:        make([]float64, steps),
		Upper:         make([]float64, steps),
		Mean:          make([]float64, steps),
		Optimum:       floats.Max(responses),
		UpperQuantile: quantile,
		Replications:  len(best),
	}
	column := make([]float64, len(best))
	for t := 0; t < steps; t++ {
		for r, row := range best {
			column[r] = row[t]
		}
		s.Steps[t] = t
		s.Median[t] = utils.Median(column)
		s.Upper[t] = utils.Percentile(column, quantile*100)
		s.Mean[t] = utils.Mean(column)
	}
	return s, nil
}

// Values maps every recorded index to its true response.
func Values(history *models.History, responses []float64) ([][]float64, error) {
	out := make([][]float64, len(history.Indices))
	for r, row := range history.Indices {
		vals := make([]float64, len(row))
		for c, idx := range row {
			if idx < 0 || idx >= len(responses) {
				return nil, invalidf("replication %d column %d: index %d outside [0, %d)", r, c, idx, len(responses))
			}
			vals[c] = responses[idx]
		}
		out[r] = vals
	}
	return out, nil
}

// CollapseInitial replaces the first nInit columns of each row by their
// mean, giving rows of length width-nInit+1.
func CollapseInitial(values [][]float64, nInit int) ([][]float64, error) {
	out := make([][]float64, len(values))
	for r, row := range values {
		if nInit < 1 || nInit > len(row) {
			return nil, invalidf("replication %d has %d columns, cannot collapse n_init=%d", r, len(row), nInit)
		}
		collapsed := make([]float64, 0, len(row)-nInit+1)
		collapsed = append(collapsed, utils.Mean(row[:nInit]))
		collapsed = append(collapsed, row[nInit:]...)
		out[r] = collapsed
	}
	return out, nil
}

// BestSoFar returns the running maximum of each row.
func BestSoFar(values [][]float64) [][]float64 {
	out := make([][]float64, len(values))
	for r, row := range values {
		out[r] = utils.CumMax(row)
	}
	return out
}

func check(history *models.History, responses []float64, nInit int) error {
	if history == nil || len(history.Indices) == 0 {
		return invalidf("history has no replications")
	}
	if len(responses) == 0 {
		return invalidf("response vector is empty")
	}
	if nInit < 1 {
		return invalidf("n_init must be at least 1, got %d", nInit)
	}
	if history.NInit != nInit {
		return invalidf("n_init %d does not match the history's n_init %d", nInit, history.NInit)
	}
	width := history.Width()
	for r, row := range history.Indices {
		if len(row) != width {
			return invalidf("replication %d has %d columns, expected %d", r, len(row), width)
		}
	}
	return nil
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", acquisition.ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}
