// Package linalg provides the complex matrix backends used by the integrators.
//
// Integrator code is written once against [Backend], a generic interface over
// the concrete matrix kind M. Two implementations ship with the package:
//
//   - [CDense]: M is *mat.CDense, with products and triangular solves done
//     through gonum's complex BLAS (cblas128)
//   - [Split]: M is *[Pair], a complex matrix held as two real *mat.Dense
//     parts, with products and solves done through gonum's real routines
//
// A backend is chosen by the caller and injected into the integrator; the
// kind is fixed for the lifetime of a call:
//
//	b := linalg.NewCDense()
//	u0 := b.Identity(2)
//	rk := evolve.NewRK4(b, nil)
//	u, err := rk.Step(0, 1, u0, 0.01, h)
package linalg
