package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/qevolve/internal/analysis"
	"github.com/san-kum/qevolve/internal/compute"
	"github.com/san-kum/qevolve/internal/config"
	"github.com/san-kum/qevolve/internal/experiment"
	"github.com/san-kum/qevolve/internal/hamiltonian"
	"github.com/san-kum/qevolve/internal/tui"
	"github.com/san-kum/qevolve/internal/viz"
)

// unitarityOK is the worst ‖UᴴU - I‖_F still shown as good in tables.
const unitarityOK = 1e-6

func runIntegration(cmd *cobra.Command, args []string) error {
	method := ""
	if len(args) == 1 {
		method = args[0]
	}
	cfg, err := resolveConfig(cmd, method)
	if err != nil {
		return err
	}

	var opts []experiment.Option
	if reportEvery > 0 {
		opts = append(opts, experiment.WithReport(os.Stdout, reportEvery))
	}

	fmt.Println(viz.Header(fmt.Sprintf("%s on %s (%s)", cfg.Method, cfg.Hamiltonian, cfg.Backend)))
	res, err := experiment.Run(cmd.Context(), cfg, opts...)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", res.Elapsed.Round(time.Microsecond))
	fmt.Printf("dim: %d  steps: %d  final time: %.6g\n", res.Dim, res.Steps, res.FinalTime)

	if !noSave {
		st, err := openStore()
		if err != nil {
			return err
		}
		runID, err := st.Save(cfg, res)
		if err != nil {
			return fmt.Errorf("failed to save results: %w", err)
		}
		fmt.Printf("run id: %s\n", runID)
	}

	fmt.Println()
	fmt.Println(viz.Label("metrics"))
	for _, name := range []string{"exact_error", "norm_drift", "unitarity", "unitarity_fraction"} {
		if v, ok := res.Metrics[name]; ok {
			fmt.Printf("  %-20s %.6e\n", name, v)
		}
	}

	if len(res.Samples) > 2 {
		ys, _, err := viz.Extract(res.Samples, "population")
		if err == nil {
			dt := cfg.H * float64(cfg.SampleEvery)
			if f := analysis.DominantFrequency(ys, dt); f > 0 {
				fmt.Printf("  %-20s %.6g (period %.6g)\n", "population_freq", f, 1/f)
			}
			freqs, power := analysis.Periodogram(ys, dt)
			peak := 0
			for i := 1; i < len(power); i++ {
				if power[i] > power[peak] {
					peak = i
				}
			}
			if peak > 0 {
				fmt.Printf("  %-20s %.6g (hann)\n", "population_peak", freqs[peak])
			}
		}
	}
	return nil
}

func compareMethods(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, "")
	if err != nil {
		return err
	}
	names := args
	if len(names) == 0 {
		names = experiment.NewRegistry().ListMethods()
	}

	cfgs := experiment.Methods(cfg, names)
	for _, c := range cfgs {
		c.SampleEvery = 0
	}
	results, err := experiment.Batch(cmd.Context(), cfgs, workers)
	if err != nil {
		return err
	}

	fmt.Println(viz.Header(fmt.Sprintf("%s, h=%g, t=[%g, %g], %s", cfg.Hamiltonian, cfg.H, cfg.T0, cfg.Tf, cfg.Backend)))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tEXACT ERROR\tNORM DRIFT\tUNITARITY\tTIME (ms)")
	for _, res := range results {
		unit := res.Metrics["unitarity"]
		fmt.Fprintf(w, "%s\t%s\t%.3e\t%s\t%.2f\n",
			res.Method,
			formatMaybe(res.ExactError),
			res.Metrics["norm_drift"],
			viz.Verdict(fmt.Sprintf("%.3e", unit), unit < unitarityOK),
			float64(res.Elapsed.Microseconds())/1000,
		)
	}
	return w.Flush()
}

func watchMethods(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, "")
	if err != nil {
		return err
	}
	names := args
	if len(names) == 0 {
		names = experiment.NewRegistry().ListMethods()
	}
	cfgs := experiment.Methods(cfg, names)
	for _, c := range cfgs {
		c.SampleEvery = 0
	}

	title := fmt.Sprintf("%s, h=%g, t=[%g, %g]", cfg.Hamiltonian, cfg.H, cfg.T0, cfg.Tf)
	results, err := tui.Watch(cmd.Context(), title, cfgs)
	if errors.Is(err, tui.ErrQuit) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, res := range results {
		fmt.Printf("%-6s exact error %s\n", res.Method, formatMaybe(res.ExactError))
	}
	return nil
}

func studyOrder(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	rep, err := experiment.StudyOrder(cmd.Context(), cfg, levels)
	if err != nil {
		return err
	}

	m, err := experiment.NewRegistry().Method(cfg.Method)
	if err != nil {
		return err
	}
	fmt.Println(viz.Header(fmt.Sprintf("order of %s on %s (nominal %d)", rep.Method, cfg.Hamiltonian, m.Order)))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "H\tERROR\tORDER\tRICHARDSON")
	for i, h := range rep.Steps {
		errCol, orderCol, richCol := "-", "-", "-"
		if i < len(rep.Errors) {
			errCol = fmt.Sprintf("%.3e", rep.Errors[i])
		}
		if i > 0 && i-1 < len(rep.Orders) {
			orderCol = fmt.Sprintf("%.2f", rep.Orders[i-1])
		}
		if i > 1 && i-2 < len(rep.Richardson) {
			richCol = fmt.Sprintf("%.2f", rep.Richardson[i-2])
		}
		fmt.Fprintf(w, "%g\t%s\t%s\t%s\n", h, errCol, orderCol, richCol)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	observed := analysis.MeanOrder(rep.Richardson)
	if len(rep.Orders) > 0 {
		observed = analysis.MeanOrder(rep.Orders)
	}
	fmt.Printf("\nobserved order: %s\n", viz.Verdict(fmt.Sprintf("%.2f", observed), math.Abs(observed-float64(m.Order)) < 0.5))
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, methodName)
	if err != nil {
		return err
	}
	if seedCount < 1 {
		return fmt.Errorf("--seeds must be positive, got %d", seedCount)
	}

	start := time.Now()
	cfgs := experiment.Seeds(cfg, cfg.Seed, seedCount)
	results, err := experiment.Batch(cmd.Context(), cfgs, workers)
	if err != nil {
		return err
	}
	fmt.Println(viz.Header(fmt.Sprintf("%d runs of %s on %s in %v", len(results), cfg.Method, cfg.Hamiltonian, time.Since(start).Round(time.Millisecond))))

	ids, err := saveAll(cfgs, results)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tRUN ID\tEXACT ERROR\tUNITARITY\tTIME (ms)")
	for i, res := range results {
		fmt.Fprintf(w, "%d\t%s\t%s\t%.3e\t%.2f\n",
			cfgs[i].Seed, ids[i], formatMaybe(res.ExactError), res.Metrics["unitarity"],
			float64(res.Elapsed.Microseconds())/1000)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	runs, err := st.List(listMethod)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMETHOD\tBACKEND\tHAMILTONIAN\tDIM\tSTEPS\tH\tEXACT ERROR\tCREATED")
	for _, r := range runs {
		exact := "-"
		if r.ExactError.Valid {
			exact = fmt.Sprintf("%.3e", r.ExactError.Float64)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%g\t%s\t%s\n",
			r.ID, r.Method, r.Backend, r.Hamiltonian, r.Dim, r.Steps, r.H, exact,
			r.Created.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	title := fmt.Sprintf("%s %s (%s)", meta.Method, meta.Hamiltonian, meta.ID)
	if pngPath != "" {
		if err := viz.WritePNG(pngPath, title, samples, strings.Split(series, ",")...); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", pngPath)
		return nil
	}

	fmt.Println(viz.Header(title))
	fmt.Printf("samples: %d\n\n", len(samples))
	for _, s := range strings.Split(series, ",") {
		graph, err := viz.Terminal(samples, s, 70, 12)
		if err != nil {
			return err
		}
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	return st.ExportJSON(os.Stdout, args[0])
}

func listPresets(cmd *cobra.Command, args []string) error {
	fmt.Println(viz.Header("run presets"))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\th=%g\ttf=%g\n", name, p.Method, p.Backend, p.Hamiltonian, p.H, p.Tf)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(viz.Header("hamiltonians"))
	for _, name := range hamiltonian.Names() {
		fmt.Printf("  %s\n", name)
	}
	return nil
}

func showInfo(cmd *cobra.Command, args []string) error {
	reg := experiment.NewRegistry()

	fmt.Println(viz.Header("methods"))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range reg.ListMethods() {
		m, err := reg.Method(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %s\torder %d\t%s\n", m.Name, m.Order, m.Description)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(viz.Header("backends"))
	for _, name := range reg.ListBackends() {
		d, err := reg.Backend(name)
		if err != nil {
			return err
		}
		fmt.Printf("  %-8s %s\n", name, d)
	}

	f := compute.DetectFeatures()
	fmt.Println()
	fmt.Println(viz.Header("cpu"))
	fmt.Printf("  %s, %d cpus, %d batch workers\n", f, f.NumCPU, compute.Workers(f.NumCPU))
	fmt.Println(viz.Rule(40))
	fmt.Printf("  %d trajectory series: %s\n", len(viz.Series), strings.Join(viz.Series, ", "))
	return nil
}

func formatMaybe(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.3e", v)
}
