package summary

import (
	"fmt"

	"github.com/GoSim-25-26J-441/seqlearn/pkg/models"
)

// Comparison contrasts two summaries of the same dataset, typically two
// models run with the same seed.
type Comparison struct {
	LabelA string `json:"label_a"`
	LabelB string `json:"label_b"`
	// MedianDiff is B.Median - A.Median per step.
	MedianDiff []float64 `json:"median_diff"`
	// StepsToOptimumA/B are the first steps whose median reaches the
	// optimum, or -1 if it never does.
	StepsToOptimumA int `json:"steps_to_optimum_a"`
	StepsToOptimumB int `json:"steps_to_optimum_b"`
	// Better names the label whose final median is higher, or "" on a tie.
	Better string `json:"better,omitempty"`
}

// Compare contrasts a against b step by step
func Compare(labelA string, a *models.Summary, labelB string, b *models.Summary) (*Comparison, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("both summaries are required")
	}
	if len(a.Median) != len(b.Median) {
		return nil, fmt.Errorf("summaries cover %d and %d steps", len(a.Median), len(b.Median))
	}
	if len(a.Median) == 0 {
		return nil, fmt.Errorf("summaries are empty")
	}
	if a.Optimum != b.Optimum {
		return nil, fmt.Errorf("summaries come from different datasets (optimum %v vs %v)", a.Optimum, b.Optimum)
	}

	c := &Comparison{
		LabelA:          labelA,
		LabelB:          labelB,
		MedianDiff:      make([]float64, len(a.Median)),
		StepsToOptimumA: a.FirstStepReaching(a.Optimum),
		StepsToOptimumB: b.FirstStepReaching(b.Optimum),
	}
	for i := range a.Median {
		c.MedianDiff[i] = b.Median[i] - a.Median[i]
	}
	last := len(a.Median) - 1
	switch {
	case a.Median[last] > b.Median[last]:
		c.Better = labelA
	case b.Median[last] > a.Median[last]:
		c.Better = labelB
	}
	return c, nil
}
