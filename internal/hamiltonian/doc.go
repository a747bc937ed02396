// Package hamiltonian provides named generators H(t) for the integrators in
// package evolve.
//
// A [Generator] is a sum of fixed matrices with scalar time coefficients:
//
//	H(t) = Σ c_k(t) A_k
//
// The matrices are converted to a backend once by [Build]; every call of the
// returned function rebuilds H(t) from them.
//
//	g, err := hamiltonian.Lookup("rabi", map[string]float64{"rabi": 0.1})
//	H, err := hamiltonian.Build(b, g)
//	u, err := evolve.NewSRK2(b).Step(0, 10, b.Identity(g.Dim), 0.01, H)
//
// Constant generators also have a closed-form propagator, see [Exact].
package hamiltonian
