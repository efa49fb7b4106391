// Package solver implements the numerical core every worker runs: solving a
// dense linear system given as an augmented matrix by Gauss-Jordan
// elimination with partial pivoting.
//
// # Input Format
//
// A system of n equations in n unknowns is encoded as n rows of n+1 numbers.
// The first n entries of a row are the coefficients, the last one is the
// right-hand side:
//
//	2x +  y = 5        [[2,  1, 5],
//	 x -  y = 1   ==>   [1, -1, 1]]
//
// # Semantics
//
// Arithmetic is plain float64. No rounding is applied; formatting to a fixed
// number of decimals is left to whoever displays the result. The input
// matrix is reused as scratch space and is left in reduced row echelon form
// (or partially reduced, on error).
//
// # Errors
//
// Solve returns *ValidationError (matches ErrInvalidMatrix) for an empty or
// ragged matrix and *SingularMatrixError (matches ErrSingularMatrix) when a
// pivot column has no entry larger than PivotTolerance at or below the
// diagonal.
package solver
