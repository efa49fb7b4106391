package solver

import (
	"errors"
	"fmt"
)

// Sentinel errors returned (wrapped) by Solve.
var (
	// ErrInvalidMatrix is returned when the augmented matrix is malformed.
	ErrInvalidMatrix = errors.New("invalid augmented matrix")

	// ErrSingularMatrix is returned when the coefficient matrix has no unique solution.
	ErrSingularMatrix = errors.New("singular matrix")
)

// ValidationError describes why a matrix was rejected before elimination.
// It matches ErrInvalidMatrix with errors.Is.
type ValidationError struct {
	Reason string
	Row    int // offending row, -1 when the whole matrix is at fault
}

func (e *ValidationError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("%v: %s", ErrInvalidMatrix, e.Reason)
	}
	return fmt.Sprintf("%v: row %d: %s", ErrInvalidMatrix, e.Row, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidMatrix }

// SingularMatrixError reports the column in which no usable pivot was found.
// It matches ErrSingularMatrix with errors.Is.
type SingularMatrixError struct {
	Column int
}

func (e *SingularMatrixError) Error() string {
	return fmt.Sprintf("%v: no non-zero pivot in column %d", ErrSingularMatrix, e.Column)
}

func (e *SingularMatrixError) Unwrap() error { return ErrSingularMatrix }
