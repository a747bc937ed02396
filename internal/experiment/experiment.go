// Package experiment runs configured integrations and collects their metrics.
package experiment

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/qevolve/internal/config"
	"github.com/san-kum/qevolve/internal/evolve"
	"github.com/san-kum/qevolve/internal/hamiltonian"
	"github.com/san-kum/qevolve/internal/linalg"
	"github.com/san-kum/qevolve/internal/metrics"
)

// unitarityTolerance is the per-step ‖UᴴU - I‖_F counted as a violation.
const unitarityTolerance = 1e-8

type Result struct {
	Method      string
	Backend     string
	Hamiltonian string
	Dim         int
	Steps       int
	FinalTime   float64
	Final       [][]complex128
	// ExactError is the max-entry distance to exp(-iHt), NaN when H depends on t.
	ExactError float64
	Metrics    map[string]float64
	Samples    []metrics.Sample
	Elapsed    time.Duration
}

type options struct {
	report        io.Writer
	reportEvery   int
	progress      func(Progress)
	progressEvery int
}

// Progress is a snapshot of a run in flight.
type Progress struct {
	Step  int
	Steps int
	Time  float64
	Norm  float64
}

type Option func(*options)

// WithReport writes "t norm" to w every n steps while the run integrates.
func WithReport(w io.Writer, every int) Option {
	return func(o *options) {
		o.report = w
		o.reportEvery = every
	}
}

// WithProgress calls fn every n steps and after the last one. fn runs on the
// integrating goroutine.
func WithProgress(every int, fn func(Progress)) Option {
	return func(o *options) {
		o.progress = fn
		o.progressEvery = every
	}
}

// Run integrates one configuration from U0 = I. The context is checked
// before the run starts; Step itself is not interruptible.
func Run(ctx context.Context, cfg *config.Config, opts ...Option) (*Result, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g, err := hamiltonian.Lookup(cfg.Hamiltonian, cfg.HamiltonianParams())
	if err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case "cdense":
		return runWith[*mat.CDense](linalg.NewCDense(), cfg, g, o)
	case "split":
		return runWith[*linalg.Pair](linalg.NewSplit(), cfg, g, o)
	}
	return nil, fmt.Errorf("%q: %w", cfg.Backend, ErrUnknownBackend)
}

func runWith[M any](b linalg.Backend[M], cfg *config.Config, g *hamiltonian.Generator, o options) (*Result, error) {
	integ, err := NewIntegrator(cfg.Method, b)
	if err != nil {
		return nil, err
	}
	H, err := hamiltonian.Build(b, g)
	if err != nil {
		return nil, err
	}
	n, err := evolve.Steps(cfg.T0, cfg.Tf, cfg.H)
	if err != nil {
		return nil, err
	}

	u0 := b.Identity(g.Dim)
	drift := metrics.NewNormDrift(b, u0)
	unit := metrics.NewUnitarity(b, unitarityTolerance)
	integ.AddObserver(drift)
	integ.AddObserver(unit)

	var traj *metrics.Trajectory[M]
	if cfg.SampleEvery > 0 {
		traj = metrics.NewTrajectory(b, cfg.SampleEvery)
		traj.Start(cfg.T0, u0)
		integ.AddObserver(traj)
	}

	var rep *metrics.NormReporter[M]
	if o.report != nil && o.reportEvery > 0 {
		rep = metrics.NewNormReporter(b, o.report, o.reportEvery)
		integ.AddObserver(rep)
	}

	if o.progress != nil {
		every := o.progressEvery
		if every < 1 {
			every = 1
		}
		integ.AddObserver(&progressObserver[M]{b: b, steps: n, every: every, fn: o.progress})
	}

	start := time.Now()
	u, err := integ.Step(cfg.T0, cfg.Tf, u0, cfg.H, H)
	elapsed := time.Since(start)
	if err != nil {
		return nil, err
	}
	if rep != nil && rep.Err() != nil {
		return nil, fmt.Errorf("norm report: %w", rep.Err())
	}

	res := &Result{
		Method:      cfg.Method,
		Backend:     b.Name(),
		Hamiltonian: g.Name,
		Dim:         g.Dim,
		Steps:       n,
		FinalTime:   cfg.T0 + float64(n)*cfg.H,
		Final:       b.ToRows(u),
		ExactError:  math.NaN(),
		Metrics:     metrics.Values[M](drift, unit),
		Elapsed:     elapsed,
	}
	res.Metrics["unitarity_fraction"] = unit.Fraction()
	if traj != nil {
		res.Samples = traj.Samples()
	}

	if g.Constant() {
		rows, err := hamiltonian.Exact(g, res.FinalTime-cfg.T0)
		if err != nil {
			return nil, err
		}
		exact, err := b.FromRows(rows)
		if err != nil {
			return nil, err
		}
		res.ExactError = linalg.MaxAbsDiff(b, u, exact)
		res.Metrics["exact_error"] = res.ExactError
	}
	return res, nil
}

type progressObserver[M any] struct {
	b     linalg.Backend[M]
	steps int
	every int
	fn    func(Progress)
}

func (p *progressObserver[M]) OnStep(i int, t float64, u M) {
	if i%p.every != 0 && i != p.steps {
		return
	}
	p.fn(Progress{Step: i, Steps: p.steps, Time: t, Norm: evolve.NormOf(p.b, u)})
}
