package metrics

import (
	"math"

	"github.com/san-kum/qevolve/internal/linalg"
)

// Unitarity tracks ‖UᴴU - I‖_F. Steps whose error exceeds the tolerance are
// counted as violations.
type Unitarity[M any] struct {
	b          linalg.Backend[M]
	tolerance  float64
	worst      float64
	violations int
	samples    int
}

func NewUnitarity[M any](b linalg.Backend[M], tolerance float64) *Unitarity[M] {
	return &Unitarity[M]{b: b, tolerance: tolerance}
}

func (u *Unitarity[M]) Name() string { return "unitarity" }

func (u *Unitarity[M]) OnStep(i int, t float64, m M) {
	u.samples++
	e := UnitarityError(u.b, m)
	if e > u.tolerance {
		u.violations++
	}
	u.worst = math.Max(u.worst, e)
}

func (u *Unitarity[M]) Value() float64 { return u.worst }

// Fraction is the share of steps within tolerance. It is 1 before any step.
func (u *Unitarity[M]) Fraction() float64 {
	if u.samples == 0 {
		return 1
	}
	return 1 - float64(u.violations)/float64(u.samples)
}

func (u *Unitarity[M]) Reset() {
	u.worst = 0
	u.violations = 0
	u.samples = 0
}

// UnitarityError returns ‖UᴴU - I‖_F, or +Inf for a non-square or non-finite U.
func UnitarityError[M any](b linalg.Backend[M], u M) float64 {
	r, c := b.Dims(u)
	if r != c || !linalg.IsFinite(b, u) {
		return math.Inf(1)
	}
	uu, err := b.Mul(b.ConjTranspose(u), u)
	if err != nil {
		return math.Inf(1)
	}
	return linalg.FrobeniusNorm(b, b.Sub(uu, b.Identity(r)))
}
