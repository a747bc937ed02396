package evolve

import "github.com/san-kum/qevolve/internal/linalg"

// RKN2 is RK2 with each stage derivative renormalized by NormU before use.
// Only the stages are rescaled; the accumulated U is not.
type RKN2[M any] struct {
	stepper[M]
	f Derivative[M]
}

func NewRKN2[M any](b linalg.Backend[M], f Derivative[M]) *RKN2[M] {
	if f == nil {
		f = DUdt[M]
	}
	return &RKN2[M]{stepper: stepper[M]{name: "rkn2", b: b}, f: f}
}

func (r *RKN2[M]) Order() int { return 2 }

func (r *RKN2[M]) Step(t0, tf float64, u0 M, h float64, H Hamiltonian[M]) (M, error) {
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
		d1, err := r.f(b, t, u, g.H)
		if err != nil {
			return zero, r.fail(i, t, err)
		}
		k1 := NormU(b, d1)

		d2, err := r.f(b, t+0.5*h, b.AddScaled(u, real2c(0.5*h), k1), g.H)
		if err != nil {
			return zero, r.fail(i, t, err)
		}
		k2 := NormU(b, d2)

		u = b.AddScaled(u, real2c(h), k2)
		if g.err != nil {
			return zero, r.fail(i, t, g.err)
		}
		t += h
		r.notify(i+1, t, u)
	}
	return u, nil
}

// RKN4 is the four-stage variant with renormalized stages. Its stage layout
// differs from classical RK4: k1 is taken at t+h/2 and k4 is evaluated at
// U+h*k2. These choices are kept deliberately since they change results.
type RKN4[M any] struct {
	stepper[M]
	f Derivative[M]
}

func NewRKN4[M any](b linalg.Backend[M], f Derivative[M]) *RKN4[M] {
	if f == nil {
		f = DUdt[M]
	}
	return &RKN4[M]{stepper: stepper[M]{name: "rkn4", b: b}, f: f}
}

// Order is the nominal order of the four-stage family. With k4 taken at
// U+h*k2 the observed order on linear problems is 3.
func (r *RKN4[M]) Order() int { return 4 }

func (r *RKN4[M]) Step(t0, tf float64, u0 M, h float64, H Hamiltonian[M]) (M, error) {
	var zero M
	n, err := r.prepare(t0, tf, u0, h)
	if err != nil {
		return zero, err
	}

	b := r.b
	d, _ := b.Dims(u0)
	g := r.guard(d, H)
	half := real2c(0.5 * h)
	u, t := u0, t0
	for i := 0; i < n; i++ {
		d1, err := r.f(b, t+0.5*h, u, g.H)
		if err != nil {
			return zero, r.fail(i, t, err)
		}
		k1 := NormU(b, d1)

		d2, err := r.f(b, t+0.5*h, b.AddScaled(u, half, k1), g.H)
		if err != nil {
			return zero, r.fail(i, t, err)
		}
		k2 := NormU(b, d2)

		d3, err := r.f(b, t+0.5*h, b.AddScaled(u, half, k2), g.H)
		if err != nil {
			return zero, r.fail(i, t, err)
		}
		k3 := NormU(b, d3)

		d4, err := r.f(b, t+h, b.AddScaled(u, real2c(h), k2), g.H)
		if err != nil {
			return zero, r.fail(i, t, err)
		}
		k4 := NormU(b, d4)

		u = b.AddScaled(u, real2c(h/6), weighted(b, k1, k2, k3, k4))
		if g.err != nil {
			return zero, r.fail(i, t, g.err)
		}
		t += h
		r.notify(i+1, t, u)
	}
	return u, nil
}
