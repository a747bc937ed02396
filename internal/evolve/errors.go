package evolve

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidStep indicates h <= 0 or a non-finite h, t0 or tf.
	ErrInvalidStep = errors.New("evolve: invalid step size or time bounds")

	// ErrTimeReversed indicates tf < t0.
	ErrTimeReversed = errors.New("evolve: end time before start time")

	// ErrNotSquare indicates an initial matrix that is not square.
	ErrNotSquare = errors.New("evolve: initial matrix is not square")
)

// StepError wraps a backend failure with the step at which it happened.
// No partial result accompanies it.
type StepError struct {
	Method  string
	Step    int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("evolve: %s step %d (t=%.6g): %v", e.Method, e.Step, e.Time, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
