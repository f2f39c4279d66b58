package forecast

import (
	"errors"
	"math"
)

// ridgeSolve fits least squares with an L2 penalty via the normal
// equations (XᵀX + λI)β = Xᵀy. The intercept is left unpenalized.
func ridgeSolve(X [][]float64, y []float64, lambda float64) ([]float64, error) {
	p := len(X[0])

	A := make([][]float64, p)
	b := make([]float64, p)
	for i := range A {
		A[i] = make([]float64, p)
	}
	for r := range X {
		for i := 0; i < p; i++ {
			b[i] += X[r][i] * y[r]
			for j := 0; j < p; j++ {
				A[i][j] += X[r][i] * X[r][j]
			}
		}
	}
	for i := 1; i < p; i++ {
		A[i][i] += lambda
	}

	return gaussSolve(A, b)
}

// gaussSolve solves Ax = b in place with partial pivoting.
func gaussSolve(A [][]float64, b []float64) ([]float64, error) {
	n := len(b)
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(A[r][col]) > math.Abs(A[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(A[pivot][col]) < 1e-12 {
			return nil, errors.New("normal equations are singular")
		}
		A[col], A[pivot] = A[pivot], A[col]
		b[col], b[pivot] = b[pivot], b[col]

		for r := col + 1; r < n; r++ {
			f := A[r][col] / A[col][col]
			if f == 0 {
				continue
			}
			for c := col; c < n; c++ {
				A[r][c] -= f * A[col][c]
			}
			b[r] -= f * b[col]
		}
	}

	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		s := b[i]
		for j := i + 1; j < n; j++ {
			s -= A[i][j] * x[j]
		}
		x[i] = s / A[i][i]
	}
	return x, nil
}
