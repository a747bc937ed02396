package evolve

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/qevolve/internal/linalg"
)

type namedIntegrator[M any] struct {
	name  string
	calls int // Hamiltonian evaluations per step
	build func(b linalg.Backend[M]) Integrator[M]
}

func allIntegrators[M any]() []namedIntegrator[M] {
	return []namedIntegrator[M]{
		{"rk2", 2, func(b linalg.Backend[M]) Integrator[M] { return NewRK2(b, nil) }},
		{"rk4", 4, func(b linalg.Backend[M]) Integrator[M] { return NewRK4(b, nil) }},
		{"rkn2", 2, func(b linalg.Backend[M]) Integrator[M] { return NewRKN2(b, nil) }},
		{"rkn4", 4, func(b linalg.Backend[M]) Integrator[M] { return NewRKN4(b, nil) }},
		{"srk2", 5, func(b linalg.Backend[M]) Integrator[M] { return NewSRK2(b) }},
		{"sv2", 10, func(b linalg.Backend[M]) Integrator[M] { return NewSV2(b) }},
	}
}

func pick[M any](names ...string) []namedIntegrator[M] {
	var out []namedIntegrator[M]
	for _, n := range allIntegrators[M]() {
		for _, want := range names {
			if n.name == want {
				out = append(out, n)
			}
		}
	}
	return out
}

// forBackends runs fn once per backend as a subtest.
func forBackends(t *testing.T, cd func(t *testing.T, b linalg.Backend[*mat.CDense]), sp func(t *testing.T, b linalg.Backend[*linalg.Pair])) {
	t.Run("cdense", func(t *testing.T) { cd(t, linalg.NewCDense()) })
	t.Run("split", func(t *testing.T) { sp(t, linalg.NewSplit()) })
}

func mustRows[M any](t *testing.T, b linalg.Backend[M], rows [][]complex128) M {
	t.Helper()
	m, err := b.FromRows(rows)
	if err != nil {
		t.Fatalf("FromRows: %v", err)
	}
	return m
}

var (
	pauliX = [][]complex128{{0, 1}, {1, 0}}
	pauliZ = [][]complex128{{1, 0}, {0, -1}}
	// mixed has nonzero real and imaginary parts so both S and K are exercised.
	mixed = [][]complex128{{0.5, 1 - 0.5i}, {1 + 0.5i, -0.5}}
)

// exactPauliX returns exp(-iσx t) = cos t I - i sin t σx.
func exactPauliX[M any](t *testing.T, b linalg.Backend[M], tt float64) M {
	c, s := complex(math.Cos(tt), 0), complex(0, -math.Sin(tt))
	return mustRows(t, b, [][]complex128{{c, s}, {s, c}})
}

// unitarityError returns ‖UᴴU - I‖_F.
func unitarityError[M any](b linalg.Backend[M], u M) float64 {
	d, _ := b.Dims(u)
	uu, err := b.Mul(b.ConjTranspose(u), u)
	if err != nil {
		return math.Inf(1)
	}
	return linalg.FrobeniusNorm(b, b.Sub(uu, b.Identity(d)))
}

type countingHamiltonian[M any] struct {
	h     M
	calls int
}

func (c *countingHamiltonian[M]) at(float64) M {
	c.calls++
	return c.h
}

type stepRecorder[M any] struct {
	steps []int
	times []float64
}

func (r *stepRecorder[M]) OnStep(i int, t float64, u M) {
	r.steps = append(r.steps, i)
	r.times = append(r.times, t)
}

type unitarityTracker[M any] struct {
	b     linalg.Backend[M]
	worst []float64
}

func (u *unitarityTracker[M]) OnStep(i int, t float64, m M) {
	u.worst = append(u.worst, unitarityError(u.b, m))
}

func maxOf(xs []float64) float64 {
	m := 0.0
	for _, x := range xs {
		m = math.Max(m, x)
	}
	return m
}
