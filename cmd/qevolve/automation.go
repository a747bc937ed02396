package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/qevolve/internal/automation"
	"github.com/san-kum/qevolve/internal/config"
	"github.com/san-kum/qevolve/internal/experiment"
	"github.com/san-kum/qevolve/internal/optim"
	"github.com/san-kum/qevolve/internal/viz"
)

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	name := sc.Name
	if name == "" {
		name = args[0]
	}
	fmt.Println(viz.Header(name))
	if sc.Description != "" {
		fmt.Println(viz.Label(sc.Description))
	}

	results, runErr := automation.RunScenario(cmd.Context(), sc, os.Stdout)
	cfgs := make([]*config.Config, len(results))
	for i := range results {
		cfgs[i] = sc.Steps[i].Config
	}
	ids, err := saveAll(cfgs, results)
	if err != nil {
		return err
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tMETHOD\tHAMILTONIAN\tEXACT ERROR\tUNITARITY\tRUN ID")
	for i, res := range results {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.3e\t%s\n",
			i+1, res.Method, res.Hamiltonian, formatMaybe(res.ExactError), res.Metrics["unitarity"], ids[i])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, methodName)
	if err != nil {
		return err
	}
	cfg.SampleEvery = 0

	sw := &automation.Sweep{Base: cfg, Param: varyParam, Min: varyFrom, Max: varyTo, N: varyPoints}
	points, err := automation.RunSweep(cmd.Context(), sw, workers)
	if err != nil {
		return err
	}

	fmt.Println(viz.Header(fmt.Sprintf("%s on %s, %s from %g to %g", cfg.Method, cfg.Hamiltonian, varyParam, varyFrom, varyTo)))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tSTEPS\tEXACT ERROR\tNORM DRIFT\tUNITARITY\tTIME (ms)\n", strings.ToUpper(varyParam))
	for _, p := range points {
		res := p.Result
		fmt.Fprintf(w, "%g\t%d\t%s\t%.3e\t%.3e\t%.2f\n",
			p.Value, res.Steps, formatMaybe(res.ExactError), res.Metrics["norm_drift"], res.Metrics["unitarity"],
			float64(res.Elapsed.Microseconds())/1000)
	}
	return w.Flush()
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, methodName)
	if err != nil {
		return err
	}
	cfg.SampleEvery = 0

	names, ranges, err := parseGrid(gridSpecs)
	if err != nil {
		return err
	}
	gs, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}
	best, points, err := gs.Search(cmd.Context(), cfg, metricName, workers)
	if err != nil {
		return err
	}

	fmt.Println(viz.Header(fmt.Sprintf("%s on %s, minimizing %s over %d points", cfg.Method, cfg.Hamiltonian, metricName, len(points))))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(metricName))
	for _, p := range points {
		vals := make([]string, len(names))
		for i, n := range names {
			vals[i] = strconv.FormatFloat(p.Params[n], 'g', -1, 64)
		}
		fmt.Fprintf(w, "%s\t%s\n", strings.Join(vals, "\t"), formatMaybe(p.Value))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nbest: %v -> %s\n", best.Params, viz.Good(formatMaybe(best.Value)))
	return nil
}

// parseGrid reads "name=v1,v2,..." entries.
func parseGrid(entries []string) ([]string, [][]float64, error) {
	if len(entries) == 0 {
		return nil, nil, fmt.Errorf("at least one --grid is required")
	}
	names := make([]string, 0, len(entries))
	ranges := make([][]float64, 0, len(entries))
	for _, entry := range entries {
		name, list, ok := strings.Cut(entry, "=")
		if !ok || name == "" {
			return nil, nil, fmt.Errorf("grid %q: want name=v1,v2,...", entry)
		}
		var vals []float64
		for _, f := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("grid %s: %w", name, err)
			}
			vals = append(vals, v)
		}
		names = append(names, name)
		ranges = append(ranges, vals)
	}
	return names, ranges, nil
}

// saveAll stores results unless --no-save is set. Ids are "-" when not saved.
func saveAll(cfgs []*config.Config, results []*experiment.Result) ([]string, error) {
	ids := make([]string, len(results))
	for i := range ids {
		ids[i] = "-"
	}
	if noSave || len(results) == 0 {
		return ids, nil
	}
	st, err := openStore()
	if err != nil {
		return nil, err
	}
	for i, res := range results {
		id, err := st.Save(cfgs[i], res)
		if err != nil {
			return nil, fmt.Errorf("failed to save results: %w", err)
		}
		ids[i] = id
	}
	return ids, nil
}
