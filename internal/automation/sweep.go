package automation

import (
	"context"
	"fmt"

	"github.com/san-kum/qevolve/internal/config"
	"github.com/san-kum/qevolve/internal/experiment"
)

// Sweep varies one parameter of Base over N evenly spaced values in
// [Min, Max]. Param is any name config.Config.Set accepts.
type Sweep struct {
	Base  *config.Config
	Param string
	Min   float64
	Max   float64
	N     int
}

type SweepPoint struct {
	Value  float64
	Result *experiment.Result
}

func (s *Sweep) Values() []float64 {
	if s.N < 1 {
		return nil
	}
	if s.N == 1 {
		return []float64{s.Min}
	}
	vals := make([]float64, s.N)
	for i := range vals {
		vals[i] = s.Min + (s.Max-s.Min)*float64(i)/float64(s.N-1)
	}
	return vals
}

// RunSweep executes the sweep concurrently through experiment.Batch.
func RunSweep(ctx context.Context, s *Sweep, workers int) ([]SweepPoint, error) {
	vals := s.Values()
	if len(vals) == 0 {
		return nil, fmt.Errorf("sweep of %s needs at least one point, got %d", s.Param, s.N)
	}

	cfgs := make([]*config.Config, len(vals))
	for i, v := range vals {
		cfgs[i] = s.Base.Clone()
		cfgs[i].Set(s.Param, v)
	}
	results, err := experiment.Batch(ctx, cfgs, workers)
	if err != nil {
		return nil, err
	}

	points := make([]SweepPoint, len(vals))
	for i, v := range vals {
		points[i] = SweepPoint{Value: v, Result: results[i]}
	}
	return points, nil
}
