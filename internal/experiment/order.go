package experiment

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/qevolve/internal/analysis"
	"github.com/san-kum/qevolve/internal/config"
	"github.com/san-kum/qevolve/internal/linalg"
)

// ErrUnevenSteps is returned when the halved step sizes do not all end on
// the same final time, which makes the solutions incomparable.
var ErrUnevenSteps = errors.New("experiment: step sizes do not divide the interval evenly")

// OrderReport holds a step-halving study. Errors and Orders are empty when
// the Hamiltonian has no closed-form propagator; Richardson works either way.
type OrderReport struct {
	Method     string
	Steps      []float64
	Errors     []float64
	Orders     []float64
	Richardson []float64
}

// StudyOrder runs cfg at h, h/2, ..., h/2^(levels-1) and estimates the
// observed order of the method.
func StudyOrder(ctx context.Context, cfg *config.Config, levels int) (*OrderReport, error) {
	if levels < 3 {
		return nil, fmt.Errorf("order study needs at least 3 levels, got %d", levels)
	}

	cfgs := make([]*config.Config, levels)
	for i := range cfgs {
		cfgs[i] = cfg.Clone()
		cfgs[i].H = cfg.H / math.Pow(2, float64(i))
		cfgs[i].SampleEvery = 0
	}
	results, err := Batch(ctx, cfgs, 0)
	if err != nil {
		return nil, err
	}

	tol := 1e-9 * math.Max(1, math.Abs(results[0].FinalTime))
	for _, res := range results[1:] {
		if math.Abs(res.FinalTime-results[0].FinalTime) > tol {
			return nil, fmt.Errorf("final times %g and %g: %w", results[0].FinalTime, res.FinalTime, ErrUnevenSteps)
		}
	}

	rep := &OrderReport{Method: cfg.Method}
	exact := true
	for i, res := range results {
		rep.Steps = append(rep.Steps, cfgs[i].H)
		if math.IsNaN(res.ExactError) {
			exact = false
		}
		rep.Errors = append(rep.Errors, res.ExactError)
	}
	if exact {
		rep.Orders = analysis.ConvergenceOrder(rep.Errors)
	} else {
		rep.Errors = nil
	}

	b := linalg.NewCDense()
	for i := 0; i+2 < len(results); i++ {
		coarse, err := b.FromRows(results[i].Final)
		if err != nil {
			return nil, err
		}
		mid, err := b.FromRows(results[i+1].Final)
		if err != nil {
			return nil, err
		}
		fine, err := b.FromRows(results[i+2].Final)
		if err != nil {
			return nil, err
		}
		rep.Richardson = append(rep.Richardson, analysis.Richardson(b, coarse, mid, fine))
	}
	return rep, nil
}
