package evolve

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/qevolve/internal/linalg"
)

func TestSteps(t *testing.T) {
	tests := []struct {
		name      string
		t0, tf, h float64
		want      int
		wantErr   error
	}{
		{"exact division", 0, 1, 0.25, 4, nil},
		{"remainder rounds up", 0, 1, 0.3, 4, nil},
		{"equal bounds", 2, 2, 0.1, 0, nil},
		{"offset start", 1, 2, 0.125, 8, nil},
		{"zero h", 0, 1, 0, 0, ErrInvalidStep},
		{"negative h", 0, 1, -0.1, 0, ErrInvalidStep},
		{"nan t0", math.NaN(), 1, 0.1, 0, ErrInvalidStep},
		{"inf tf", 0, math.Inf(1), 0.1, 0, ErrInvalidStep},
		{"reversed", 1, 0, 0.1, 0, ErrTimeReversed},
		{"step underflows", 0, 1, 1e-300, 0, ErrInvalidStep},
		{"huge interval", 0, 1e300, 1, 0, ErrInvalidStep},
		{"at cap", 0, MaxSteps, 1, MaxSteps, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Steps(tt.t0, tt.tf, tt.h)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Steps() error = %v, want %v", err, tt.wantErr)
			}
			if n != tt.want {
				t.Errorf("Steps() = %d, want %d", n, tt.want)
			}
		})
	}
}

func TestZeroHamiltonian(t *testing.T) {
	forBackends(t, testZeroHamiltonian[*mat.CDense], testZeroHamiltonian[*linalg.Pair])
}

func testZeroHamiltonian[M any](t *testing.T, b linalg.Backend[M]) {
	u0 := mustRows(t, b, [][]complex128{{1 + 2i, -0.5}, {0.25i, 3}})
	zero := mustRows(t, b, [][]complex128{{0, 0}, {0, 0}})

	for _, m := range allIntegrators[M]() {
		t.Run(m.name, func(t *testing.T) {
			u, err := m.build(b).Step(0, 1.7, u0, 0.1, Constant(zero))
			if err != nil {
				t.Fatalf("Step: %v", err)
			}
			if d := linalg.MaxAbsDiff(b, u, u0); d > 1e-15 {
				t.Errorf("U changed under H=0: max diff %e", d)
			}
		})
	}
}

func TestHamiltonianCallCount(t *testing.T) {
	forBackends(t, testHamiltonianCallCount[*mat.CDense], testHamiltonianCallCount[*linalg.Pair])
}

func testHamiltonianCallCount[M any](t *testing.T, b linalg.Backend[M]) {
	tests := []struct {
		t0, tf, h float64
		steps     int
	}{
		{0, 1, 0.3, 4},
		{0, 1, 0.25, 4},
		{0.5, 0.5, 0.1, 0},
	}

	for _, m := range allIntegrators[M]() {
		for _, tt := range tests {
			stub := &countingHamiltonian[M]{h: mustRows(t, b, pauliZ)}
			if _, err := m.build(b).Step(tt.t0, tt.tf, b.Identity(2), tt.h, stub.at); err != nil {
				t.Fatalf("%s: Step: %v", m.name, err)
			}
			if want := m.calls * tt.steps; stub.calls != want {
				t.Errorf("%s [%g,%g] h=%g: H called %d times, want %d", m.name, tt.t0, tt.tf, tt.h, stub.calls, want)
			}
		}
	}
}

func TestEqualBoundsReturnsInitial(t *testing.T) {
	b := linalg.NewCDense()
	u0 := mustRows(t, b, [][]complex128{{2, 1i}, {0, 1}})
	for _, m := range allIntegrators[*mat.CDense]() {
		stub := &countingHamiltonian[*mat.CDense]{h: mustRows(t, b, pauliX)}
		u, err := m.build(b).Step(3, 3, u0, 0.1, stub.at)
		if err != nil {
			t.Fatalf("%s: %v", m.name, err)
		}
		if !equalRows(b.ToRows(u), b.ToRows(u0)) {
			t.Errorf("%s: expected the initial matrix back for zero steps", m.name)
		}
		if stub.calls != 0 {
			t.Errorf("%s: H called %d times for zero steps", m.name, stub.calls)
		}
	}
}

func TestDiagonalHamiltonian(t *testing.T) {
	forBackends(t, testDiagonalHamiltonian[*mat.CDense], testDiagonalHamiltonian[*linalg.Pair])
}

func testDiagonalHamiltonian[M any](t *testing.T, b linalg.Backend[M]) {
	h := mustRows(t, b, pauliZ)
	want := mustRows(t, b, [][]complex128{
		{cmplx.Exp(-1i), 0},
		{0, cmplx.Exp(1i)},
	})

	for _, m := range pick[M]("rk4", "rkn4", "srk2", "sv2") {
		t.Run(m.name, func(t *testing.T) {
			u, err := m.build(b).Step(0, 1, b.Identity(2), 0.01, Constant(h))
			if err != nil {
				t.Fatalf("Step: %v", err)
			}
			if d := linalg.MaxAbsDiff(b, u, want); d > 1e-4 {
				t.Errorf("error %e exceeds 1e-4", d)
			}
		})
	}
}

func TestTimeDependentHamiltonian(t *testing.T) {
	// H(t) = t σz has U(t) = diag(exp(-i t²/2), exp(i t²/2)).
	b := linalg.NewCDense()
	z := mustRows(t, b, pauliZ)
	H := func(tt float64) *mat.CDense { return b.Scale(complex(tt, 0), z) }
	want := mustRows(t, b, [][]complex128{
		{cmplx.Exp(-0.5i), 0},
		{0, cmplx.Exp(0.5i)},
	})

	// The renormalized methods fix the stage norm to 1 and cannot follow a
	// generator whose magnitude changes with t.
	for _, m := range pick[*mat.CDense]("rk2", "rk4", "srk2", "sv2") {
		u, err := m.build(b).Step(0, 1, b.Identity(2), 0.01, H)
		if err != nil {
			t.Fatalf("%s: %v", m.name, err)
		}
		if d := linalg.MaxAbsDiff(b, u, want); d > 1e-3 {
			t.Errorf("%s: error %e exceeds 1e-3", m.name, d)
		}
	}
}

func TestConvergenceOrder(t *testing.T) {
	b := linalg.NewCDense()
	h := mustRows(t, b, pauliX)
	exact := exactPauliX(t, b, 1)
	steps := []float64{1.0 / 8, 1.0 / 16, 1.0 / 32, 1.0 / 64}

	tests := []struct {
		name   string
		build  func() Integrator[*mat.CDense]
		lo, hi float64
	}{
		{"rk2", func() Integrator[*mat.CDense] { return NewRK2(b, nil) }, 1.8, 2.2},
		{"rk4", func() Integrator[*mat.CDense] { return NewRK4(b, nil) }, 3.7, 4.3},
		{"srk2", func() Integrator[*mat.CDense] { return NewSRK2(b) }, 1.8, 2.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sols := make([]*mat.CDense, len(steps))
			errs := make([]float64, len(steps))
			for i, dt := range steps {
				u, err := tt.build().Step(0, 1, b.Identity(2), dt, Constant(h))
				if err != nil {
					t.Fatalf("Step: %v", err)
				}
				sols[i] = u
				errs[i] = linalg.MaxAbsDiff(b, u, exact)
			}

			for i := 0; i+1 < len(errs); i++ {
				p := math.Log2(errs[i] / errs[i+1])
				if p < tt.lo || p > tt.hi {
					t.Errorf("observed order %.3f at h=%g outside [%.1f, %.1f]", p, steps[i], tt.lo, tt.hi)
				}
			}

			// Richardson: the order follows from successive differences alone.
			for i := 0; i+2 < len(sols); i++ {
				d1 := linalg.MaxAbsDiff(b, sols[i], sols[i+1])
				d2 := linalg.MaxAbsDiff(b, sols[i+1], sols[i+2])
				p := math.Log2(d1 / d2)
				if p < tt.lo || p > tt.hi {
					t.Errorf("richardson order %.3f at h=%g outside [%.1f, %.1f]", p, steps[i], tt.lo, tt.hi)
				}
			}
		})
	}
}

func TestNormalizedStability(t *testing.T) {
	b := linalg.NewCDense()
	h := mustRows(t, b, pauliX)

	for _, m := range pick[*mat.CDense]("rkn2", "rkn4") {
		t.Run(m.name, func(t *testing.T) {
			integ := m.build(b)
			worst := 0.0
			integ.AddObserver(observerFunc[*mat.CDense](func(i int, tt float64, u *mat.CDense) {
				n := NormOf(b, u)
				worst = math.Max(worst, math.Abs(n*n-1))
			}))

			u, err := integ.Step(0, 100, b.Identity(2), 0.01, Constant(h))
			if err != nil {
				t.Fatalf("Step: %v", err)
			}
			if worst > 1e-4 {
				t.Errorf("trace(UᴴU)/d drifted by %e over the trajectory", worst)
			}
			if !linalg.IsFinite(b, u) {
				t.Error("final matrix is not finite")
			}
		})
	}
}

func TestSymplecticPreservation(t *testing.T) {
	b := linalg.NewCDense()
	h := mustRows(t, b, mixed)
	const (
		dt = 0.1
		tf = 100.0
	)

	final := map[string]float64{}
	trackers := map[string]*unitarityTracker[*mat.CDense]{}
	for _, m := range pick[*mat.CDense]("rk2", "rk4", "srk2", "sv2") {
		integ := m.build(b)
		tr := &unitarityTracker[*mat.CDense]{b: b}
		integ.AddObserver(tr)
		u, err := integ.Step(0, tf, b.Identity(2), dt, Constant(h))
		if err != nil {
			t.Fatalf("%s: %v", m.name, err)
		}
		final[m.name] = unitarityError(b, u)
		trackers[m.name] = tr
	}

	if final["srk2"] > 1e-10 {
		t.Errorf("srk2 unitarity error %e, want round-off level", final["srk2"])
	}
	if final["srk2"] >= final["rk2"] || final["srk2"] >= final["rk4"] {
		t.Errorf("srk2 (%e) should beat rk2 (%e) and rk4 (%e)", final["srk2"], final["rk2"], final["rk4"])
	}
	if final["sv2"] >= final["rk2"] {
		t.Errorf("sv2 (%e) should beat rk2 (%e)", final["sv2"], final["rk2"])
	}

	// sv2 oscillates around the invariant instead of drifting away from it.
	w := trackers["sv2"].worst
	first, second := maxOf(w[:len(w)/2]), maxOf(w[len(w)/2:])
	if second > 2*first {
		t.Errorf("sv2 unitarity error grows: first half %e, second half %e", first, second)
	}
}

func TestSplitRoundTrip(t *testing.T) {
	forBackends(t, testSplitRoundTrip[*mat.CDense], testSplitRoundTrip[*linalg.Pair])
}

func testSplitRoundTrip[M any](t *testing.T, b linalg.Backend[M]) {
	u := mustRows(t, b, [][]complex128{{0.3 - 0.7i, 1.25 + 2i}, {-4 + 0.125i, 0.5}})
	un, vn := Split(b, u)
	if got, want := b.ToRows(Recombine(b, un, vn)), b.ToRows(u); !equalRows(got, want) {
		t.Errorf("Recombine(Split(U)) = %v, want %v", got, want)
	}

	final, err := NewSV2(b).Step(0, 1, b.Identity(2), 0.05, Constant(mustRows(t, b, mixed)))
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	un, vn = Split(b, final)
	if got, want := b.ToRows(Recombine(b, un, vn)), b.ToRows(final); !equalRows(got, want) {
		t.Errorf("split round-trip of the sv2 result differs: %v vs %v", got, want)
	}
}

func equalRows(a, b [][]complex128) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}
	return true
}

func TestInvalidInput(t *testing.T) {
	b := linalg.NewCDense()
	h := Constant(mustRows(t, b, pauliZ))
	rect := mat.NewCDense(2, 3, nil)

	for _, m := range allIntegrators[*mat.CDense]() {
		integ := m.build(b)
		if _, err := integ.Step(0, 1, b.Identity(2), 0, h); !errors.Is(err, ErrInvalidStep) {
			t.Errorf("%s: h=0 error = %v, want ErrInvalidStep", m.name, err)
		}
		if _, err := integ.Step(math.NaN(), 1, b.Identity(2), 0.1, h); !errors.Is(err, ErrInvalidStep) {
			t.Errorf("%s: NaN t0 error = %v, want ErrInvalidStep", m.name, err)
		}
		if _, err := integ.Step(1, 0, b.Identity(2), 0.1, h); !errors.Is(err, ErrTimeReversed) {
			t.Errorf("%s: reversed error = %v, want ErrTimeReversed", m.name, err)
		}
		if _, err := integ.Step(0, 1, rect, 0.1, h); !errors.Is(err, ErrNotSquare) {
			t.Errorf("%s: rectangular error = %v, want ErrNotSquare", m.name, err)
		}
	}
}

func TestDimensionMismatch(t *testing.T) {
	forBackends(t, testDimensionMismatch[*mat.CDense], testDimensionMismatch[*linalg.Pair])
}

func testDimensionMismatch[M any](t *testing.T, b linalg.Backend[M]) {
	hs := map[string]Hamiltonian[M]{
		"3x3": Constant(b.Identity(3)),
		"3x2": Constant(mustRows(t, b, [][]complex128{{0, 1}, {1, 0}, {0, 0}})),
		"1x2": Constant(mustRows(t, b, [][]complex128{{1, 0}})),
	}
	for hname, h := range hs {
		for _, m := range allIntegrators[M]() {
			_, err := m.build(b).Step(0, 1, b.Identity(2), 0.1, h)
			if !errors.Is(err, linalg.ErrDimensionMismatch) {
				t.Errorf("%s/%s: error = %v, want ErrDimensionMismatch", m.name, hname, err)
			}
			var se *StepError
			if !errors.As(err, &se) {
				t.Errorf("%s/%s: expected a *StepError, got %T", m.name, hname, err)
			} else if se.Step != 0 || se.Method != m.name {
				t.Errorf("%s/%s: StepError = %+v", m.name, hname, se)
			}
		}
	}
}

func TestShapeChangeMidRun(t *testing.T) {
	forBackends(t, testShapeChangeMidRun[*mat.CDense], testShapeChangeMidRun[*linalg.Pair])
}

func testShapeChangeMidRun[M any](t *testing.T, b linalg.Backend[M]) {
	good := mustRows(t, b, pauliX)
	bad := mustRows(t, b, [][]complex128{{0, 1}, {1, 0}, {0, 0}})
	h := func(t float64) M {
		if t >= 0.5 {
			return bad
		}
		return good
	}
	for _, m := range allIntegrators[M]() {
		_, err := m.build(b).Step(0, 1, b.Identity(2), 0.25, h)
		var se *StepError
		if !errors.As(err, &se) || !errors.Is(err, linalg.ErrDimensionMismatch) {
			t.Fatalf("%s: error = %v, want a StepError wrapping ErrDimensionMismatch", m.name, err)
		}
		if se.Step > 2 {
			t.Errorf("%s: failed at step %d, want at most 2", m.name, se.Step)
		}
	}
}

func TestSingularStage(t *testing.T) {
	forBackends(t, testSingularStage[*mat.CDense], testSingularStage[*linalg.Pair])
}

func testSingularStage[M any](t *testing.T, b linalg.Backend[M]) {
	// With h=1: I + i(h/4)(4i I) = 0 for srk2, and I - (h/2) Im(2i I) = 0 for sv2.
	tests := []struct {
		integ Integrator[M]
		h     M
	}{
		{NewSRK2(b), mustRows(t, b, [][]complex128{{4i, 0}, {0, 4i}})},
		{NewSV2(b), mustRows(t, b, [][]complex128{{2i, 0}, {0, 2i}})},
	}
	for _, tt := range tests {
		_, err := tt.integ.Step(0, 1, b.Identity(2), 1, Constant(tt.h))
		if !errors.Is(err, linalg.ErrSingular) {
			t.Errorf("%s: error = %v, want ErrSingular", tt.integ.Name(), err)
		}
	}
}

func TestObserverSteps(t *testing.T) {
	b := linalg.NewSplit()
	for _, m := range allIntegrators[*linalg.Pair]() {
		integ := m.build(b)
		rec := &stepRecorder[*linalg.Pair]{}
		integ.AddObserver(rec)
		if _, err := integ.Step(1, 2, b.Identity(2), 0.3, Constant(mustRows(t, b, pauliX))); err != nil {
			t.Fatalf("%s: %v", m.name, err)
		}
		if len(rec.steps) != 4 {
			t.Fatalf("%s: observed %d steps, want 4", m.name, len(rec.steps))
		}
		for i, s := range rec.steps {
			if s != i+1 {
				t.Errorf("%s: step index %d, want %d", m.name, s, i+1)
			}
			if want := 1 + float64(i+1)*0.3; math.Abs(rec.times[i]-want) > 1e-12 {
				t.Errorf("%s: step time %g, want %g", m.name, rec.times[i], want)
			}
		}
		// The last step overshoots tf without clamping.
		if last := rec.times[len(rec.times)-1]; last <= 2 {
			t.Errorf("%s: final time %g should pass tf", m.name, last)
		}
	}
}

func TestInputsUntouched(t *testing.T) {
	b := linalg.NewCDense()
	u0 := mustRows(t, b, [][]complex128{{1, 2i}, {3, 4}})
	before := b.ToRows(u0)
	h := mustRows(t, b, mixed)
	hBefore := b.ToRows(h)
	for _, m := range allIntegrators[*mat.CDense]() {
		if _, err := m.build(b).Step(0, 0.5, u0, 0.1, Constant(h)); err != nil {
			t.Fatalf("%s: %v", m.name, err)
		}
	}
	if !equalRows(b.ToRows(u0), before) || !equalRows(b.ToRows(h), hBefore) {
		t.Error("integrators modified their inputs")
	}
}

type observerFunc[M any] func(i int, t float64, u M)

func (f observerFunc[M]) OnStep(i int, t float64, u M) { f(i, t, u) }
