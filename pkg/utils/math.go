package utils

import (
	"math"
	"sort"
)

// Mean calculates the mean of a slice of float64 values
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Percentile calculates the percentile of a slice of float64 values
// percentile should be between 0 and 100
func Percentile(values []float64, percentile float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	index := (percentile / 100.0) * float64(len(sorted)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))

	if lower == upper {
		return sorted[lower]
	}

	// Linear interpolation between lower and upper
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Median calculates the 50th percentile
func Median(values []float64) float64 {
	return Percentile(values, 50)
}

// CumMax returns the running maximum of values, left to right.
func CumMax(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if i > 0 && out[i-1] > v {
			v = out[i-1]
		}
		out[i] = v
	}
	return out
}

// ArgMax returns the position of the largest value. Ties resolve to the
// lowest position and NaN entries are never selected. It returns -1 when
// values is empty or holds only NaN.
func ArgMax(values []float64) int {
	best := -1
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if best < 0 || v > values[best] {
			best = i
		}
	}
	return best
}
