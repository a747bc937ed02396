package metrics

import (
	"fmt"
	"io"
	"math"

	"github.com/san-kum/qevolve/internal/evolve"
	"github.com/san-kum/qevolve/internal/linalg"
)

// NormDrift is the largest |‖U‖² - ‖U0‖²| seen, with ‖·‖ as in evolve.NormOf.
type NormDrift[M any] struct {
	b        linalg.Backend[M]
	initial  float64
	maxDrift float64
	samples  int
}

func NewNormDrift[M any](b linalg.Backend[M], u0 M) *NormDrift[M] {
	n := evolve.NormOf(b, u0)
	return &NormDrift[M]{b: b, initial: n * n}
}

func (d *NormDrift[M]) Name() string { return "norm_drift" }

func (d *NormDrift[M]) OnStep(i int, t float64, u M) {
	n := evolve.NormOf(d.b, u)
	drift := math.Abs(n*n - d.initial)
	if math.IsNaN(drift) {
		drift = math.Inf(1)
	}
	d.maxDrift = math.Max(d.maxDrift, drift)
	d.samples++
}

func (d *NormDrift[M]) Value() float64 { return d.maxDrift }

func (d *NormDrift[M]) Reset() {
	d.maxDrift = 0
	d.samples = 0
}

// NormReporter writes "t norm" lines for every k-th step.
type NormReporter[M any] struct {
	b     linalg.Backend[M]
	w     io.Writer
	every int
	lines int
	err   error
}

func NewNormReporter[M any](b linalg.Backend[M], w io.Writer, every int) *NormReporter[M] {
	if every < 1 {
		every = 1
	}
	return &NormReporter[M]{b: b, w: w, every: every}
}

func (r *NormReporter[M]) OnStep(i int, t float64, u M) {
	if r.err != nil || i%r.every != 0 {
		return
	}
	_, r.err = fmt.Fprintf(r.w, "%.6f %.12f\n", t, evolve.NormOf(r.b, u))
	if r.err == nil {
		r.lines++
	}
}

// Lines returns how many lines were written.
func (r *NormReporter[M]) Lines() int { return r.lines }

// Err returns the first write error. Reporting stops after it.
func (r *NormReporter[M]) Err() error { return r.err }
