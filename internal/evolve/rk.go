package evolve

import "github.com/san-kum/qevolve/internal/linalg"

// RK2 is the explicit midpoint method.
type RK2[M any] struct {
	stepper[M]
	f Derivative[M]
}

// NewRK2 returns an RK2 integrator. A nil f selects DUdt.
func NewRK2[M any](b linalg.Backend[M], f Derivative[M]) *RK2[M] {
	if f == nil {
		f = DUdt[M]
	}
	return &RK2[M]{stepper: stepper[M]{name: "rk2", b: b}, f: f}
}

func (r *RK2[M]) Order() int { return 2 }

func (r *RK2[M]) Step(t0, tf float64, u0 M, h float64, H Hamiltonian[M]) (M, error) {
	var zero M
	n, err := r.prepare(t0, tf, u0, h)
	if err != nil {
		return zero, err
	}

	b := r.b
	d, _ := b.Dims(u0)
	g := r.guard(d, H)
	u, t := u0, t0
	for i := 0; i < n; i++ {
		k1, err := r.f(b, t, u, g.H)
		if err != nil {
			return zero, r.fail(i, t, err)
		}
		k2, err := r.f(b, t+0.5*h, b.AddScaled(u, real2c(0.5*h), k1), g.H)
		if err != nil {
			return zero, r.fail(i, t, err)
		}

		u = b.AddScaled(u, real2c(h), k2)
		if g.err != nil {
			return zero, r.fail(i, t, g.err)
		}
		t += h
		r.notify(i+1, t, u)
	}
	return u, nil
}

// RK4 is the classical four-stage method.
type RK4[M any] struct {
	stepper[M]
	f Derivative[M]
}

// NewRK4 returns an RK4 integrator. A nil f selects DUdt.
func NewRK4[M any](b linalg.Backend[M], f Derivative[M]) *RK4[M] {
	if f == nil {
		f = DUdt[M]
	}
	return &RK4[M]{stepper: stepper[M]{name: "rk4", b: b}, f: f}
}

func (r *RK4[M]) Order() int { return 4 }

func (r *RK4[M]) Step(t0, tf float64, u0 M, h float64, H Hamiltonian[M]) (M, error) {
	var zero M
	n, err := r.prepare(t0, tf, u0, h)
	if err != nil {
		return zero, err
	}

	b := r.b
	d, _ := b.Dims(u0)
	g := r.guard(d, H)
	hc := real2c(h)
	u, t := u0, t0
	for i := 0; i < n; i++ {
		d1, err := r.f(b, t, u, g.H)
		if err != nil {
			return zero, r.fail(i, t, err)
		}
		k1 := b.Scale(hc, d1)

		d2, err := r.f(b, t+0.5*h, b.AddScaled(u, 0.5, k1), g.H)
		if err != nil {
			return zero, r.fail(i, t, err)
		}
		k2 := b.Scale(hc, d2)

		d3, err := r.f(b, t+0.5*h, b.AddScaled(u, 0.5, k2), g.H)
		if err != nil {
			return zero, r.fail(i, t, err)
		}
		k3 := b.Scale(hc, d3)

		d4, err := r.f(b, t+h, b.Add(u, k3), g.H)
		if err != nil {
			return zero, r.fail(i, t, err)
		}
		k4 := b.Scale(hc, d4)

		u = b.AddScaled(u, 1.0/6.0, weighted(b, k1, k2, k3, k4))
		if g.err != nil {
			return zero, r.fail(i, t, g.err)
		}
		t += h
		r.notify(i+1, t, u)
	}
	return u, nil
}

// weighted returns k1 + 2*k2 + 2*k3 + k4.
func weighted[M any](b linalg.Backend[M], k1, k2, k3, k4 M) M {
	return b.Add(b.AddScaled(b.AddScaled(k1, 2, k2), 2, k3), k4)
}
