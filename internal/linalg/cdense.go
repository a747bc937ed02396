package linalg

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
	"gonum.org/v1/gonum/mat"
)

// singularTol is the relative pivot size below which a factorization is
// treated as singular.
const singularTol = 1e-14

// CDense is the native complex backend over *mat.CDense.
type CDense struct{}

func NewCDense() *CDense {
	return &CDense{}
}

func (c *CDense) Name() string { return "cdense" }

func (c *CDense) Dims(a *mat.CDense) (int, int) { return a.Dims() }

func (c *CDense) Identity(d int) *mat.CDense {
	m := mat.NewCDense(d, d, nil)
	for i := 0; i < d; i++ {
		m.Set(i, i, 1)
	}
	return m
}

func (c *CDense) FromRows(rows [][]complex128) (*mat.CDense, error) {
	r, cols, err := checkRows(rows)
	if err != nil {
		return nil, err
	}
	data := make([]complex128, 0, r*cols)
	for _, row := range rows {
		data = append(data, row...)
	}
	return mat.NewCDense(r, cols, data), nil
}

func (c *CDense) ToRows(a *mat.CDense) [][]complex128 {
	r, cols := a.Dims()
	rows := make([][]complex128, r)
	for i := range rows {
		rows[i] = make([]complex128, cols)
		for j := range rows[i] {
			rows[i][j] = a.At(i, j)
		}
	}
	return rows
}

func (c *CDense) Add(a, b *mat.CDense) *mat.CDense {
	return c.AddScaled(a, 1, b)
}

func (c *CDense) Sub(a, b *mat.CDense) *mat.CDense {
	return c.AddScaled(a, -1, b)
}

func (c *CDense) AddScaled(a *mat.CDense, alpha complex128, b *mat.CDense) *mat.CDense {
	dst := clone(a)
	cblas128.Axpy(alpha, flat(clone(b)), flat(dst))
	return dst
}

func (c *CDense) Scale(alpha complex128, a *mat.CDense) *mat.CDense {
	dst := clone(a)
	cblas128.Scal(alpha, flat(dst))
	return dst
}

func (c *CDense) Mul(a, b *mat.CDense) (*mat.CDense, error) {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ac != br {
		return nil, fmt.Errorf("mul %dx%d by %dx%d: %w", ar, ac, br, bc, ErrDimensionMismatch)
	}
	dst := mat.NewCDense(ar, bc, nil)
	cblas128.Gemm(blas.NoTrans, blas.NoTrans, 1, a.RawCMatrix(), b.RawCMatrix(), 0, dst.RawCMatrix())
	return dst, nil
}

// Solve factorizes a with partial pivoting and applies the unit-lower and
// upper triangular solves to the permuted right-hand side.
func (c *CDense) Solve(a, b *mat.CDense) (*mat.CDense, error) {
	n, ac := a.Dims()
	br, bc := b.Dims()
	if n != ac || br != n {
		return nil, fmt.Errorf("solve %dx%d with rhs %dx%d: %w", n, ac, br, bc, ErrDimensionMismatch)
	}

	lu := clone(a).RawCMatrix()
	perm, err := factorize(lu)
	if err != nil {
		return nil, err
	}

	x := mat.NewCDense(n, bc, nil)
	for i, p := range perm {
		for j := 0; j < bc; j++ {
			x.Set(i, j, b.At(p, j))
		}
	}
	raw := x.RawCMatrix()
	lower := cblas128.Triangular{Uplo: blas.Lower, Diag: blas.Unit, N: n, Data: lu.Data, Stride: lu.Stride}
	upper := cblas128.Triangular{Uplo: blas.Upper, Diag: blas.NonUnit, N: n, Data: lu.Data, Stride: lu.Stride}
	cblas128.Trsm(blas.Left, blas.NoTrans, 1, lower, raw)
	cblas128.Trsm(blas.Left, blas.NoTrans, 1, upper, raw)
	return x, nil
}

func (c *CDense) Trace(a *mat.CDense) complex128 {
	r, cols := a.Dims()
	var sum complex128
	for i := 0; i < r && i < cols; i++ {
		sum += a.At(i, i)
	}
	return sum
}

func (c *CDense) Real(a *mat.CDense) *mat.CDense {
	return mapEntries(a, func(v complex128) complex128 { return complex(real(v), 0) })
}

func (c *CDense) Imag(a *mat.CDense) *mat.CDense {
	return mapEntries(a, func(v complex128) complex128 { return complex(imag(v), 0) })
}

func (c *CDense) ConjTranspose(a *mat.CDense) *mat.CDense {
	r, cols := a.Dims()
	dst := mat.NewCDense(cols, r, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < cols; j++ {
			dst.Set(j, i, cmplx.Conj(a.At(i, j)))
		}
	}
	return dst
}

// factorize overwrites m with its LU factors (unit lower part below the
// diagonal) and returns the row permutation.
func factorize(m cblas128.General) ([]int, error) {
	n := m.Rows
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}

	scale := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if v := cmplx.Abs(m.Data[i*m.Stride+j]); v > scale {
				scale = v
			}
		}
	}
	if scale == 0 {
		return nil, ErrSingular
	}

	for k := 0; k < n; k++ {
		pivot := k
		best := cmplx.Abs(m.Data[k*m.Stride+k])
		for i := k + 1; i < n; i++ {
			if v := cmplx.Abs(m.Data[i*m.Stride+k]); v > best {
				pivot, best = i, v
			}
		}
		if best <= singularTol*scale {
			return nil, fmt.Errorf("pivot %d: %w", k, ErrSingular)
		}
		if pivot != k {
			rowK := m.Data[k*m.Stride : k*m.Stride+n]
			rowP := m.Data[pivot*m.Stride : pivot*m.Stride+n]
			for j := range rowK {
				rowK[j], rowP[j] = rowP[j], rowK[j]
			}
			perm[k], perm[pivot] = perm[pivot], perm[k]
		}

		diag := m.Data[k*m.Stride+k]
		for i := k + 1; i < n; i++ {
			f := m.Data[i*m.Stride+k] / diag
			m.Data[i*m.Stride+k] = f
			if f == 0 {
				continue
			}
			for j := k + 1; j < n; j++ {
				m.Data[i*m.Stride+j] -= f * m.Data[k*m.Stride+j]
			}
		}
	}
	return perm, nil
}

// clone returns a contiguous copy of a.
func clone(a *mat.CDense) *mat.CDense {
	r, c := a.Dims()
	dst := mat.NewCDense(r, c, nil)
	dst.Copy(a)
	return dst
}

func flat(a *mat.CDense) cblas128.Vector {
	raw := a.RawCMatrix()
	return cblas128.Vector{N: raw.Rows * raw.Cols, Data: raw.Data, Inc: 1}
}

func mapEntries(a *mat.CDense, fn func(complex128) complex128) *mat.CDense {
	dst := clone(a)
	raw := dst.RawCMatrix()
	for i := range raw.Data {
		raw.Data[i] = fn(raw.Data[i])
	}
	return dst
}
