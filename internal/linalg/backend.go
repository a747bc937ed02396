package linalg

import (
	"math"
	"math/cmplx"
)

// Backend is the set of complex matrix operations the integrators need.
//
// Add, Sub, AddScaled and Scale expect same-shaped operands and never fail;
// shape errors can only enter through Mul and Solve, which report them as
// ErrDimensionMismatch. Results are always newly allocated; operands are
// never modified.
type Backend[M any] interface {
	Name() string
	Dims(a M) (r, c int)
	Identity(d int) M
	FromRows(rows [][]complex128) (M, error)
	ToRows(a M) [][]complex128

	Add(a, b M) M
	Sub(a, b M) M
	// AddScaled returns a + alpha*b.
	AddScaled(a M, alpha complex128, b M) M
	Scale(alpha complex128, a M) M
	Mul(a, b M) (M, error)
	// Solve returns x such that a*x = b.
	Solve(a, b M) (M, error)

	Trace(a M) complex128
	// Real and Imag return the parts as complex matrices with zero imaginary part.
	Real(a M) M
	Imag(a M) M
	ConjTranspose(a M) M
}

// FrobeniusNorm returns sqrt(sum |a_ij|^2).
func FrobeniusNorm[M any](b Backend[M], a M) float64 {
	sum := 0.0
	for _, row := range b.ToRows(a) {
		for _, v := range row {
			sum += real(v)*real(v) + imag(v)*imag(v)
		}
	}
	return math.Sqrt(sum)
}

// MaxAbsDiff returns the largest elementwise |x_ij - y_ij|, or +Inf when the
// shapes differ.
func MaxAbsDiff[M any](b Backend[M], x, y M) float64 {
	xr, xc := b.Dims(x)
	yr, yc := b.Dims(y)
	if xr != yr || xc != yc {
		return math.Inf(1)
	}
	xs, ys := b.ToRows(x), b.ToRows(y)
	worst := 0.0
	for i := range xs {
		for j := range xs[i] {
			worst = math.Max(worst, cmplx.Abs(xs[i][j]-ys[i][j]))
		}
	}
	return worst
}

// IsFinite reports whether every entry of a is free of NaN and Inf.
func IsFinite[M any](b Backend[M], a M) bool {
	for _, row := range b.ToRows(a) {
		for _, v := range row {
			if cmplx.IsNaN(v) || cmplx.IsInf(v) {
				return false
			}
		}
	}
	return true
}

func checkRows(rows [][]complex128) (int, int, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, 0, ErrShape
	}
	c := len(rows[0])
	for _, row := range rows {
		if len(row) != c {
			return 0, 0, ErrShape
		}
	}
	return len(rows), c, nil
}
