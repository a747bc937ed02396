package evolve

import "github.com/san-kum/qevolve/internal/linalg"

// DUdt is the Schrödinger equation for evolution operators: -i H(t) U.
func DUdt[M any](b linalg.Backend[M], t float64, u M, h Hamiltonian[M]) (M, error) {
	var zero M
	hu, err := b.Mul(h(t), u)
	if err != nil {
		return zero, err
	}
	if err := sameShape(b, hu, u); err != nil {
		return zero, err
	}
	return b.Scale(-1i, hu), nil
}

// S is the imaginary part of H(t).
func S[M any](b linalg.Backend[M], t float64, h Hamiltonian[M]) M {
	return b.Imag(h(t))
}

// K is the real part of H(t).
func K[M any](b linalg.Backend[M], t float64, h Hamiltonian[M]) M {
	return b.Real(h(t))
}

// Fu is d/dt of the real part U in the split form of dU/dt = -iHU: S*U - K*V.
func Fu[M any](b linalg.Backend[M], u, v M, t float64, h Hamiltonian[M]) (M, error) {
	su, err := b.Mul(S(b, t, h), u)
	if err != nil {
		return su, err
	}
	kv, err := b.Mul(K(b, t, h), v)
	if err != nil {
		return kv, err
	}
	if err := sameShape(b, su, u); err != nil {
		return su, err
	}
	if err := sameShape(b, kv, u); err != nil {
		return kv, err
	}
	return b.Sub(su, kv), nil
}

// Fv is d/dt of V in the split form: K*U + S*V.
func Fv[M any](b linalg.Backend[M], u, v M, t float64, h Hamiltonian[M]) (M, error) {
	ku, err := b.Mul(K(b, t, h), u)
	if err != nil {
		return ku, err
	}
	sv, err := b.Mul(S(b, t, h), v)
	if err != nil {
		return sv, err
	}
	if err := sameShape(b, ku, u); err != nil {
		return ku, err
	}
	if err := sameShape(b, sv, u); err != nil {
		return sv, err
	}
	return b.Add(ku, sv), nil
}
