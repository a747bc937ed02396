package experiment

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/qevolve/internal/compute"
	"github.com/san-kum/qevolve/internal/config"
)

// Batch runs independent configurations concurrently and returns results in
// input order. workers <= 0 picks compute.Workers. The first failure cancels
// runs that have not started yet.
func Batch(ctx context.Context, cfgs []*config.Config, workers int) ([]*Result, error) {
	if workers <= 0 {
		workers = compute.Workers(len(cfgs))
	}

	results := make([]*Result, len(cfgs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, cfg := range cfgs {
		g.Go(func() error {
			res, err := Run(gctx, cfg)
			if err != nil {
				return fmt.Errorf("run %d (%s/%s): %w", i, cfg.Method, cfg.Hamiltonian, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Seeds returns n copies of base with seeds from, from+1, ...
func Seeds(base *config.Config, from int64, n int) []*config.Config {
	cfgs := make([]*config.Config, n)
	for i := range cfgs {
		cfgs[i] = base.Clone()
		cfgs[i].Seed = from + int64(i)
	}
	return cfgs
}

// Methods returns one copy of base per method name.
func Methods(base *config.Config, names []string) []*config.Config {
	cfgs := make([]*config.Config, len(names))
	for i, name := range names {
		cfgs[i] = base.Clone()
		cfgs[i].Method = name
	}
	return cfgs
}
