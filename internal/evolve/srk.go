package evolve

import "github.com/san-kum/qevolve/internal/linalg"

// SRK2 is a second-order symplectic Runge-Kutta method. Each stage solves
//
//	(I + i(h/4)H(τ)) k = rhs
//
// instead of evaluating the derivative directly, which keeps UᴴU fixed for
// constant Hermitian H up to round-off.
type SRK2[M any] struct {
	stepper[M]
}

func NewSRK2[M any](b linalg.Backend[M]) *SRK2[M] {
	return &SRK2[M]{stepper: stepper[M]{name: "srk2", b: b}}
}

func (r *SRK2[M]) Order() int { return 2 }

func (r *SRK2[M]) Step(t0, tf float64, u0 M, h float64, H Hamiltonian[M]) (M, error) {
	var zero M
	n, err := r.prepare(t0, tf, u0, h)
	if err != nil {
		return zero, err
	}

	b := r.b
	d, _ := b.Dims(u0)
	id := b.Identity(d)
	g := r.guard(d, H)
	quarter := complex(0, 0.25*h)
	u, t := u0, t0
	for i := 0; i < n; i++ {
		t1, t2 := t+0.25*h, t+0.75*h

		rhs1, err := b.Mul(g.H(t1), u)
		if err != nil {
			return zero, r.fail(i, t, err)
		}
		k1, err := b.Solve(b.AddScaled(id, quarter, g.H(t1)), b.Scale(-1i, rhs1))
		if err != nil {
			return zero, r.fail(i, t, err)
		}

		hu, err := b.Mul(g.H(t2), u)
		if err != nil {
			return zero, r.fail(i, t, err)
		}
		hk, err := b.Mul(g.H(t2), k1)
		if err != nil {
			return zero, r.fail(i, t, err)
		}
		rhs2 := b.AddScaled(b.Scale(-1i, hu), complex(0, -0.5*h), hk)
		k2, err := b.Solve(b.AddScaled(id, quarter, g.H(t2)), rhs2)
		if err != nil {
			return zero, r.fail(i, t, err)
		}

		u = b.AddScaled(u, real2c(0.5*h), b.Add(k1, k2))
		if g.err != nil {
			return zero, r.fail(i, t, g.err)
		}
		t += h
		r.notify(i+1, t, u)
	}
	return u, nil
}
