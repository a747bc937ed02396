package linalg

import "errors"

var (
	// ErrDimensionMismatch indicates operands whose shapes do not fit the operation.
	ErrDimensionMismatch = errors.New("linalg: dimension mismatch")

	// ErrSingular indicates a linear system whose matrix is singular or numerically singular.
	ErrSingular = errors.New("linalg: matrix is singular")

	// ErrShape indicates empty or ragged input rows.
	ErrShape = errors.New("linalg: invalid shape")
)
