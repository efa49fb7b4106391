package solver

import (
	"fmt"
	"math"
)

// PivotTolerance is the magnitude at or below which a pivot is treated as zero.
const PivotTolerance = 1e-12

// Validate checks that matrix is a non-empty augmented matrix of n rows with
// n+1 finite entries each.
//
// Returns:
//   - error: *ValidationError describing the first problem found, nil if valid
func Validate(matrix [][]float64) error {
	n := len(matrix)
	if n == 0 {
		return &ValidationError{Reason: "matrix has no rows", Row: -1}
	}
	for i, row := range matrix {
		if len(row) != n+1 {
			return &ValidationError{
				Reason: fmt.Sprintf("expected %d columns, got %d", n+1, len(row)),
				Row:    i,
			}
		}
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return &ValidationError{Reason: "entry is not a finite number", Row: i}
			}
		}
	}
	return nil
}

// Solve solves the linear system encoded by an augmented matrix using
// Gauss-Jordan elimination with partial pivoting.
//
// For an n-unknown system the matrix has n rows of n+1 entries; the last
// column is the right-hand side. The matrix is used as scratch space and is
// mutated in place, so callers must treat it as consumed.
//
// Algorithm, for each column i:
//  1. Pick the row at or below i with the largest |a[k][i]| as the pivot row
//  2. Fail with SingularMatrixError if that magnitude is within PivotTolerance
//  3. Swap the pivot row into position i
//  4. Divide row i by the pivot so the diagonal becomes exactly 1
//  5. Subtract multiples of row i from every other row to zero column i
//
// After n iterations column n holds the solution.
//
// Parameters:
//   - matrix: Augmented matrix, n rows by n+1 columns
//
// Returns:
//   - []float64: Solution vector of length n, index i is unknown i
//   - error: *ValidationError or *SingularMatrixError
//
// Example:
//
//	x, err := solver.Solve([][]float64{{2, 1, 5}, {1, -1, 1}})
//	// x == []float64{2, 1}
func Solve(matrix [][]float64) ([]float64, error) {
	if err := Validate(matrix); err != nil {
		return nil, err
	}

	n := len(matrix)
	for i := 0; i < n; i++ {
		pivotRow := i
		for k := i + 1; k < n; k++ {
			if math.Abs(matrix[k][i]) > math.Abs(matrix[pivotRow][i]) {
				pivotRow = k
			}
		}
		if math.Abs(matrix[pivotRow][i]) <= PivotTolerance {
			return nil, &SingularMatrixError{Column: i}
		}

		matrix[i], matrix[pivotRow] = matrix[pivotRow], matrix[i]

		pivot := matrix[i][i]
		for k := i + 1; k <= n; k++ {
			matrix[i][k] /= pivot
		}
		matrix[i][i] = 1

		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			factor := matrix[j][i]
			if factor == 0 {
				continue
			}
			for k := i; k <= n; k++ {
				matrix[j][k] -= factor * matrix[i][k]
			}
		}
	}

	solution := make([]float64, n)
	for i, row := range matrix {
		solution[i] = row[n]
	}
	return solution, nil
}

// Clone returns a deep copy of matrix. Useful when the caller still needs the
// original coefficients after Solve has consumed its argument.
func Clone(matrix [][]float64) [][]float64 {
	out := make([][]float64, len(matrix))
	for i, row := range matrix {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// Residual returns max_i |A[i]·x - b[i]| for the augmented matrix and a
// candidate solution. The matrix is not modified.
func Residual(matrix [][]float64, x []float64) float64 {
	n := len(matrix)
	worst := 0.0
	for i := 0; i < n; i++ {
		sum := 0.0
		for j := 0; j < n && j < len(x); j++ {
			sum += matrix[i][j] * x[j]
		}
		if d := math.Abs(sum - matrix[i][n]); d > worst {
			worst = d
		}
	}
	return worst
}
