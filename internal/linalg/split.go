package linalg

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Pair is a complex matrix Re + i*Im stored as two real matrices.
type Pair struct {
	Re *mat.Dense
	Im *mat.Dense
}

// Split is the backend over *Pair. Real and Imag are free, which suits the
// split-variable integrator.
type Split struct{}

func NewSplit() *Split {
	return &Split{}
}

func (s *Split) Name() string { return "split" }

func (s *Split) Dims(a *Pair) (int, int) { return a.Re.Dims() }

func (s *Split) Identity(d int) *Pair {
	re := mat.NewDense(d, d, nil)
	for i := 0; i < d; i++ {
		re.Set(i, i, 1)
	}
	return &Pair{Re: re, Im: mat.NewDense(d, d, nil)}
}

func (s *Split) FromRows(rows [][]complex128) (*Pair, error) {
	r, c, err := checkRows(rows)
	if err != nil {
		return nil, err
	}
	re := mat.NewDense(r, c, nil)
	im := mat.NewDense(r, c, nil)
	for i, row := range rows {
		for j, v := range row {
			re.Set(i, j, real(v))
			im.Set(i, j, imag(v))
		}
	}
	return &Pair{Re: re, Im: im}, nil
}

func (s *Split) ToRows(a *Pair) [][]complex128 {
	r, c := a.Re.Dims()
	rows := make([][]complex128, r)
	for i := range rows {
		rows[i] = make([]complex128, c)
		for j := range rows[i] {
			rows[i][j] = complex(a.Re.At(i, j), a.Im.At(i, j))
		}
	}
	return rows
}

func (s *Split) Add(a, b *Pair) *Pair {
	var re, im mat.Dense
	re.Add(a.Re, b.Re)
	im.Add(a.Im, b.Im)
	return &Pair{Re: &re, Im: &im}
}

func (s *Split) Sub(a, b *Pair) *Pair {
	var re, im mat.Dense
	re.Sub(a.Re, b.Re)
	im.Sub(a.Im, b.Im)
	return &Pair{Re: &re, Im: &im}
}

func (s *Split) AddScaled(a *Pair, alpha complex128, b *Pair) *Pair {
	return s.Add(a, s.Scale(alpha, b))
}

// Scale computes (x + iy)(A + iB) = (xA - yB) + i(yA + xB).
func (s *Split) Scale(alpha complex128, a *Pair) *Pair {
	x, y := real(alpha), imag(alpha)
	var xa, yb, ya, xb, re, im mat.Dense
	xa.Scale(x, a.Re)
	yb.Scale(y, a.Im)
	ya.Scale(y, a.Re)
	xb.Scale(x, a.Im)
	re.Sub(&xa, &yb)
	im.Add(&ya, &xb)
	return &Pair{Re: &re, Im: &im}
}

// Mul computes (A + iB)(C + iD) = (AC - BD) + i(AD + BC).
func (s *Split) Mul(a, b *Pair) (*Pair, error) {
	ar, ac := a.Re.Dims()
	br, bc := b.Re.Dims()
	if ac != br {
		return nil, fmt.Errorf("mul %dx%d by %dx%d: %w", ar, ac, br, bc, ErrDimensionMismatch)
	}
	var ac1, bd, ad, bc1, re, im mat.Dense
	ac1.Mul(a.Re, b.Re)
	bd.Mul(a.Im, b.Im)
	ad.Mul(a.Re, b.Im)
	bc1.Mul(a.Im, b.Re)
	re.Sub(&ac1, &bd)
	im.Add(&ad, &bc1)
	return &Pair{Re: &re, Im: &im}, nil
}

// Solve solves (A + iB)(X + iY) = C + iD through the real embedding
//
//	[A -B] [X]   [C]
//	[B  A] [Y] = [D]
func (s *Split) Solve(a, b *Pair) (*Pair, error) {
	n, ac := a.Re.Dims()
	br, bc := b.Re.Dims()
	if n != ac || br != n {
		return nil, fmt.Errorf("solve %dx%d with rhs %dx%d: %w", n, ac, br, bc, ErrDimensionMismatch)
	}

	lhs := mat.NewDense(2*n, 2*n, nil)
	rhs := mat.NewDense(2*n, bc, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			re, im := a.Re.At(i, j), a.Im.At(i, j)
			lhs.Set(i, j, re)
			lhs.Set(i, n+j, -im)
			lhs.Set(n+i, j, im)
			lhs.Set(n+i, n+j, re)
		}
		for j := 0; j < bc; j++ {
			rhs.Set(i, j, b.Re.At(i, j))
			rhs.Set(n+i, j, b.Im.At(i, j))
		}
	}

	var x mat.Dense
	if err := x.Solve(lhs, rhs); err != nil {
		var cond mat.Condition
		if errors.As(err, &cond) {
			return nil, fmt.Errorf("condition %g: %w", float64(cond), ErrSingular)
		}
		return nil, fmt.Errorf("%v: %w", err, ErrSingular)
	}

	re := mat.NewDense(n, bc, nil)
	im := mat.NewDense(n, bc, nil)
	re.Copy(x.Slice(0, n, 0, bc))
	im.Copy(x.Slice(n, 2*n, 0, bc))
	return &Pair{Re: re, Im: im}, nil
}

func (s *Split) Trace(a *Pair) complex128 {
	return complex(mat.Trace(a.Re), mat.Trace(a.Im))
}

func (s *Split) Real(a *Pair) *Pair {
	r, c := a.Re.Dims()
	return &Pair{Re: mat.DenseCopyOf(a.Re), Im: mat.NewDense(r, c, nil)}
}

func (s *Split) Imag(a *Pair) *Pair {
	r, c := a.Im.Dims()
	return &Pair{Re: mat.DenseCopyOf(a.Im), Im: mat.NewDense(r, c, nil)}
}

func (s *Split) ConjTranspose(a *Pair) *Pair {
	var re, im mat.Dense
	re.CloneFrom(a.Re.T())
	im.Scale(-1, a.Im.T())
	return &Pair{Re: &re, Im: &im}
}
