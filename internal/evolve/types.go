package evolve

import (
	"fmt"
	"math"

	"github.com/san-kum/qevolve/internal/linalg"
)

// Hamiltonian returns the generator at time t. It is called again on every
// use and never cached.
type Hamiltonian[M any] func(t float64) M

// Constant returns a Hamiltonian that is the same matrix at all times.
func Constant[M any](h M) Hamiltonian[M] {
	return func(float64) M { return h }
}

// Derivative is the right-hand side f(t, U, H) of the governing equation.
type Derivative[M any] func(b linalg.Backend[M], t float64, u M, h Hamiltonian[M]) (M, error)

// Observer is notified after every completed step. i counts from 1 and t is
// the time reached.
type Observer[M any] interface {
	OnStep(i int, t float64, u M)
}

// Integrator advances U from t0 to tf in fixed steps of h and returns the
// final operator. Observers see every completed step.
type Integrator[M any] interface {
	Name() string
	Order() int
	Step(t0, tf float64, u0 M, h float64, H Hamiltonian[M]) (M, error)
	AddObserver(o Observer[M])
}

// MaxSteps bounds the step count. Past 2^53 steps t += h stops advancing
// reliably in float64.
const MaxSteps = 1 << 53

// Steps returns ceil((tf-t0)/h), the number of outer iterations every
// integrator performs. Counts above MaxSteps are rejected with ErrInvalidStep.
func Steps(t0, tf, h float64) (int, error) {
	if !finite(t0) || !finite(tf) || !finite(h) || h <= 0 {
		return 0, ErrInvalidStep
	}
	if tf < t0 {
		return 0, ErrTimeReversed
	}
	n := math.Ceil((tf - t0) / h)
	if math.IsInf(n, 0) || n > MaxSteps {
		return 0, ErrInvalidStep
	}
	return int(n), nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

type stepper[M any] struct {
	name      string
	b         linalg.Backend[M]
	observers []Observer[M]
}

func (s *stepper[M]) Name() string { return s.name }

func (s *stepper[M]) AddObserver(o Observer[M]) { s.observers = append(s.observers, o) }

func (s *stepper[M]) prepare(t0, tf float64, u0 M, h float64) (int, error) {
	n, err := Steps(t0, tf, h)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", s.name, err)
	}
	if r, c := s.b.Dims(u0); r != c || r < 1 {
		return 0, fmt.Errorf("%s: %dx%d: %w", s.name, r, c, ErrNotSquare)
	}
	return n, nil
}

// guard wraps H so every evaluation is checked against the d×d shape of U.
// A mismatched H is recorded and replaced by the zero matrix so the stage
// arithmetic cannot panic; callers test err before committing a step.
func (s *stepper[M]) guard(d int, H Hamiltonian[M]) *shapeGuard[M] {
	g := &shapeGuard[M]{b: s.b, d: d, zero: s.b.Scale(0, s.b.Identity(d))}
	g.H = func(t float64) M {
		m := H(t)
		if r, c := g.b.Dims(m); r != g.d || c != g.d {
			if g.err == nil {
				g.err = fmt.Errorf("hamiltonian at t=%g is %dx%d, want %dx%d: %w", t, r, c, g.d, g.d, linalg.ErrDimensionMismatch)
			}
			return g.zero
		}
		return m
	}
	return g
}

type shapeGuard[M any] struct {
	b    linalg.Backend[M]
	d    int
	zero M
	err  error
	H    Hamiltonian[M]
}

// sameShape reports ErrDimensionMismatch when x and y differ in shape.
func sameShape[M any](b linalg.Backend[M], x, y M) error {
	xr, xc := b.Dims(x)
	yr, yc := b.Dims(y)
	if xr != yr || xc != yc {
		return fmt.Errorf("%dx%d vs %dx%d: %w", xr, xc, yr, yc, linalg.ErrDimensionMismatch)
	}
	return nil
}

func (s *stepper[M]) notify(i int, t float64, u M) {
	for _, o := range s.observers {
		o.OnStep(i, t, u)
	}
}

func (s *stepper[M]) fail(i int, t float64, err error) error {
	return &StepError{Method: s.name, Step: i, Time: t, Wrapped: err}
}

func real2c(x float64) complex128 {
	return complex(x, 0)
}
