package regression

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// rankTolerance is the smallest singular value of the centered design
// matrix, relative to its largest, that still counts toward its rank. A
// design whose condition number cond(Xc) exceeds 1/rankTolerance is rank
// deficient. The bound applies to Xc itself, not to XcᵀXc.
const rankTolerance = 1e-10

// Linear is least-squares linear regression with an optional L2 penalty.
// Alpha == 0 gives ordinary least squares. The intercept is never
// penalized: it is recovered from the column means after solving on
// centered data.
type Linear struct {
	Intercept bool
	Alpha     float64
}

// LinearPredictor is a fitted linear model
type LinearPredictor struct {
	Coef      []float64
	Intercept float64
}

// Fit solves the least-squares problem on centered data. Without a
// penalty it uses the SVD of Xc and fails with ErrSingular only when Xc is
// rank deficient; with Alpha > 0 it solves (XcᵀXc + αI)β = Xcᵀyc by
// Cholesky factorization.
func (l *Linear) Fit(features [][]float64, responses []float64) (Predictor, error) {
	dim, err := checkTrainingShape(features, responses)
	if err != nil {
		return nil, err
	}
	n := len(features)

	xMean := make([]float64, dim)
	yMean := 0.0
	if l.Intercept {
		for _, row := range features {
			floats.Add(xMean, row)
		}
		floats.Scale(1/float64(n), xMean)
		yMean = floats.Sum(responses) / float64(n)
	}

	x := mat.NewDense(n, dim, nil)
	y := mat.NewVecDense(n, nil)
	for i, row := range features {
		for j, v := range row {
			x.Set(i, j, v-xMean[j])
		}
		y.SetVec(i, responses[i]-yMean)
	}

	var beta mat.VecDense
	if l.Alpha > 0 {
		err = solveRidge(&beta, x, y, l.Alpha)
	} else {
		err = solveLeastSquares(&beta, x, y)
	}
	if err != nil {
		return nil, err
	}

	coef := make([]float64, dim)
	for j := range coef {
		coef[j] = beta.AtVec(j)
	}
	return &LinearPredictor{
		Coef:      coef,
		Intercept: yMean - floats.Dot(coef, xMean),
	}, nil
}

func solveLeastSquares(dst *mat.VecDense, x *mat.Dense, y *mat.VecDense) error {
	n, dim := x.Dims()
	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return fmt.Errorf("%w: SVD did not converge", ErrSingular)
	}
	rank := svd.Rank(rankTolerance)
	if rank < dim {
		return fmt.Errorf("%w: rank %d with %d features over %d rows", ErrSingular, rank, dim, n)
	}
	if err := svd.SolveVecTo(dst, y, rank); err != nil {
		return fmt.Errorf("%w: %v", ErrSingular, err)
	}
	return nil
}

func solveRidge(dst *mat.VecDense, x *mat.Dense, y *mat.VecDense, alpha float64) error {
	_, dim := x.Dims()
	gram := mat.NewSymDense(dim, nil)
	gram.SymOuterK(1, x.T())
	for j := 0; j < dim; j++ {
		gram.SetSym(j, j, gram.At(j, j)+alpha)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(gram); !ok {
		return fmt.Errorf("%w: penalized normal equations are not positive definite", ErrSingular)
	}
	var xty mat.VecDense
	xty.MulVec(x.T(), y)
	if err := chol.SolveVecTo(dst, &xty); err != nil {
		return fmt.Errorf("%w: %v", ErrSingular, err)
	}
	return nil
}

// Predict evaluates the linear model on each row
func (p *LinearPredictor) Predict(features [][]float64) ([]float64, error) {
	if err := checkPredictShape(features, len(p.Coef)); err != nil {
		return nil, err
	}
	out := make([]float64, len(features))
	for i, row := range features {
		out[i] = p.Intercept + floats.Dot(p.Coef, row)
	}
	return out, nil
}
