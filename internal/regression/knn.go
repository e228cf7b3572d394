package regression

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// KNN predicts the mean response of the K nearest training rows by
// Euclidean distance. Equidistant neighbours are taken in training order.
type KNN struct {
	K int
}

// KNNPredictor keeps the training rows it averages over
type KNNPredictor struct {
	k         int
	features  [][]float64
	responses []float64
}

// Fit stores a copy of the training data; K is capped at the row count.
func (m *KNN) Fit(features [][]float64, responses []float64) (Predictor, error) {
	if _, err := checkTrainingShape(features, responses); err != nil {
		return nil, err
	}
	if m.K < 1 {
		return nil, fmt.Errorf("knn k must be positive, got %d", m.K)
	}
	k := m.K
	if k > len(features) {
		k = len(features)
	}
	rows := make([][]float64, len(features))
	for i, row := range features {
		rows[i] = append([]float64(nil), row...)
	}
	return &KNNPredictor{
		k:         k,
		features:  rows,
		responses: append([]float64(nil), responses...),
	}, nil
}

// Predict averages the responses of the nearest neighbours of each row
func (p *KNNPredictor) Predict(features [][]float64) ([]float64, error) {
	if err := checkPredictShape(features, len(p.features[0])); err != nil {
		return nil, err
	}
	order := make([]int, len(p.features))
	dist := make([]float64, len(p.features))
	out := make([]float64, len(features))
	for i, row := range features {
		for j, train := range p.features {
			order[j] = j
			dist[j] = floats.Distance(row, train, 2)
		}
		sort.SliceStable(order, func(a, b int) bool { return dist[order[a]] < dist[order[b]] })
		sum := 0.0
		for _, j := range order[:p.k] {
			sum += p.responses[j]
		}
		out[i] = sum / float64(p.k)
	}
	return out, nil
}
