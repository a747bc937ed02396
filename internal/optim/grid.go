// Package optim searches run parameters for the smallest metric value.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/qevolve/internal/config"
	"github.com/san-kum/qevolve/internal/experiment"
)

var ErrUnknownMetric = errors.New("optim: unknown metric")

// ElapsedMS names the wall time of a run, which is not in Result.Metrics.
const ElapsedMS = "elapsed_ms"

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d params but %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("optim: no values for %s", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Point is one evaluated grid cell.
type Point struct {
	Params map[string]float64
	Value  float64
	Result *experiment.Result
}

// Grid returns the cartesian product of the ranges, last parameter varying
// fastest.
func (g *GridSearch) Grid() []map[string]float64 {
	var out []map[string]float64
	g.expand(0, map[string]float64{}, &out)
	return out
}

func (g *GridSearch) expand(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*out = append(*out, current)
		return
	}
	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[name] = val
		g.expand(depth+1, next, out)
	}
}

// Search runs base at every grid point and returns the point with the
// smallest metric, along with all points in grid order. Points whose metric
// is NaN never win.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metric string, workers int) (*Point, []Point, error) {
	grid := g.Grid()
	cfgs := make([]*config.Config, len(grid))
	for i, params := range grid {
		cfgs[i] = base.Clone()
		for k, v := range params {
			cfgs[i].Set(k, v)
		}
	}

	results, err := experiment.Batch(ctx, cfgs, workers)
	if err != nil {
		return nil, nil, err
	}

	points := make([]Point, len(grid))
	best := -1
	for i, res := range results {
		val, err := metricOf(res, metric)
		if err != nil {
			return nil, nil, err
		}
		points[i] = Point{Params: grid[i], Value: val, Result: res}
		if !math.IsNaN(val) && (best < 0 || val < points[best].Value) {
			best = i
		}
	}
	if best < 0 {
		return nil, points, fmt.Errorf("optim: %s is undefined at every point", metric)
	}
	return &points[best], points, nil
}

func metricOf(res *experiment.Result, metric string) (float64, error) {
	if metric == ElapsedMS {
		return float64(res.Elapsed.Microseconds()) / 1000, nil
	}
	if v, ok := res.Metrics[metric]; ok {
		return v, nil
	}
	if metric == "exact_error" {
		return math.NaN(), nil
	}
	return 0, fmt.Errorf("%q: %w", metric, ErrUnknownMetric)
}
