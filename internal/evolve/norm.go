package evolve

import (
	"math"

	"github.com/san-kum/qevolve/internal/linalg"
)

// NormOf returns sqrt(trace(UᴴU)/d), the root-mean-square singular value of
// a d×d matrix. It is 1 for any unitary U.
func NormOf[M any](b linalg.Backend[M], u M) float64 {
	d, _ := b.Dims(u)
	uu, err := b.Mul(b.ConjTranspose(u), u)
	if err != nil || d == 0 {
		return math.NaN()
	}
	return math.Sqrt(real(b.Trace(uu)) / float64(d))
}

// NormU rescales U so that NormOf(U) == 1. A zero matrix is returned as is.
func NormU[M any](b linalg.Backend[M], u M) M {
	n := NormOf(b, u)
	if n == 0 || math.IsNaN(n) {
		return u
	}
	return b.Scale(real2c(1/n), u)
}
