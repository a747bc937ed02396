package evolve

import "github.com/san-kum/qevolve/internal/linalg"

// SV2 is the Störmer-Verlet method on the split state U = Un - iVn, with
// Un = Re U and Vn = -Im U. Each step takes an implicit half step in V, an
// implicit full step in U and closes V with the trapezoidal rule.
type SV2[M any] struct {
	stepper[M]
}

func NewSV2[M any](b linalg.Backend[M]) *SV2[M] {
	return &SV2[M]{stepper: stepper[M]{name: "sv2", b: b}}
}

func (v *SV2[M]) Order() int { return 2 }

func (v *SV2[M]) Step(t0, tf float64, u0 M, h float64, H Hamiltonian[M]) (M, error) {
	var zero M
	n, err := v.prepare(t0, tf, u0, h)
	if err != nil {
		return zero, err
	}

	b := v.b
	d, _ := b.Dims(u0)
	id := b.Identity(d)
	g := v.guard(d, H)
	half := real2c(0.5 * h)
	un, vn := Split(b, u0)
	tn := t0
	for i := 0; i < n; i++ {
		tm, te := tn+0.5*h, tn+h

		u1 := un
		ku, err := b.Mul(K(b, tm, g.H), u1)
		if err != nil {
			return zero, v.fail(i, tn, err)
		}
		sv, err := b.Mul(S(b, tm, g.H), vn)
		if err != nil {
			return zero, v.fail(i, tn, err)
		}
		l1, err := b.Solve(b.AddScaled(id, -half, S(b, tm, g.H)), b.Add(ku, sv))
		if err != nil {
			return zero, v.fail(i, tn, err)
		}
		v1 := b.AddScaled(vn, half, l1)
		v2 := v1

		k1, err := Fu(b, u1, v1, tn, g.H)
		if err != nil {
			return zero, v.fail(i, tn, err)
		}
		su, err := b.Mul(S(b, te, g.H), b.AddScaled(un, half, k1))
		if err != nil {
			return zero, v.fail(i, tn, err)
		}
		kv, err := b.Mul(K(b, te, g.H), v1)
		if err != nil {
			return zero, v.fail(i, tn, err)
		}
		k2, err := b.Solve(b.AddScaled(id, -half, S(b, te, g.H)), b.Sub(su, kv))
		if err != nil {
			return zero, v.fail(i, tn, err)
		}
		u2 := b.AddScaled(un, half, b.Add(k1, k2))

		l2, err := Fv(b, u2, v2, tm, g.H)
		if err != nil {
			return zero, v.fail(i, tn, err)
		}

		if g.err != nil {
			return zero, v.fail(i, tn, g.err)
		}
		un = u2
		vn = b.AddScaled(vn, half, b.Add(l1, l2))
		tn += h
		if len(v.observers) > 0 {
			v.notify(i+1, tn, Recombine(b, un, vn))
		}
	}
	return Recombine(b, un, vn), nil
}

// Split returns Un = Re U and Vn = -Im U.
func Split[M any](b linalg.Backend[M], u M) (un, vn M) {
	return b.Real(u), b.Scale(-1, b.Imag(u))
}

// Recombine returns Un - iVn.
func Recombine[M any](b linalg.Backend[M], un, vn M) M {
	return b.AddScaled(un, -1i, vn)
}
