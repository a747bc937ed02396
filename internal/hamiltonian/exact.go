package hamiltonian

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var errNoEigen = errors.New("hamiltonian: eigendecomposition failed")

// Exact returns the propagator exp(-iHt) of a constant generator.
//
// H = K + iS is embedded as the real symmetric matrix
//
//	M = [K -S]
//	    [S  K]
//
// whose eigenpairs (λ, v) give exp(-iHt) = V cos(Λt) Vᵀ - J V sin(Λt) Vᵀ,
// with J the real form of multiplication by i.
func Exact(g *Generator, t float64) ([][]complex128, error) {
	if !g.Constant() {
		return nil, fmt.Errorf("%s: %w", g.Name, ErrTimeDependent)
	}
	h := g.At(0)
	d := g.Dim
	n := 2 * d

	sym := mat.NewSymDense(n, nil)
	for i := 0; i < d; i++ {
		for j := i; j < d; j++ {
			re, im := real(h[i][j]), imag(h[i][j])
			sym.SetSym(i, j, re)
			sym.SetSym(d+i, d+j, re)
			sym.SetSym(i, d+j, -im)
			sym.SetSym(j, d+i, im)
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(sym, true); !ok {
		return nil, fmt.Errorf("%s: %w", g.Name, errNoEigen)
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	cosV := mat.DenseCopyOf(&vecs)
	sinV := mat.DenseCopyOf(&vecs)
	for k, lambda := range vals {
		c, s := math.Cos(lambda*t), math.Sin(lambda*t)
		for i := 0; i < n; i++ {
			cosV.Set(i, k, c*vecs.At(i, k))
			sinV.Set(i, k, s*vecs.At(i, k))
		}
	}

	var re, im mat.Dense
	re.Mul(cosV, vecs.T())
	im.Mul(sinV, vecs.T())

	// Left column block of re - J·im: top is the real part, bottom the imaginary.
	out := zeros(d)
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			out[i][j] = complex(re.At(i, j)+im.At(d+i, j), re.At(d+i, j)-im.At(i, j))
		}
	}
	return out, nil
}
