package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/san-kum/qevolve/internal/config"
	"github.com/san-kum/qevolve/internal/storage"
)

var (
	dataDir     string
	backend     string
	hamName     string
	params      map[string]string
	t0          float64
	tf          float64
	step        float64
	seed        int64
	sampleEvery int
	configFile  string
	preset      string
	reportEvery int
	noSave      bool
	workers     int
	levels      int
	seedCount   int
	methodName  string
	listMethod  string
	series      string
	pngPath     string
	varyParam   string
	varyFrom    float64
	varyTo      float64
	varyPoints  int
	gridSpecs   []string
	metricName  string
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("qevolve: ")

	rootCmd := &cobra.Command{
		Use:           "qevolve",
		Short:         "fixed-step integrators for dU/dt = -iH(t)U",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".qevolve", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [method]",
		Short: "integrate one configuration and store the run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runIntegration,
	}
	addRunFlags(runCmd)
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	runCmd.Flags().IntVar(&reportEvery, "report-every", 0, "print t and norm every n steps (0 disables)")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	compareCmd := &cobra.Command{
		Use:   "compare [method1] [method2] ...",
		Short: "compare methods on the same Hamiltonian",
		RunE:  compareMethods,
	}
	addRunFlags(compareCmd)
	compareCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	compareCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 = one per cpu)")

	watchCmd := &cobra.Command{
		Use:   "watch [method1] [method2] ...",
		Short: "run methods side by side with live progress",
		RunE:  watchMethods,
	}
	addRunFlags(watchCmd)
	watchCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	orderCmd := &cobra.Command{
		Use:   "order [method]",
		Short: "measure the observed order by step halving",
		Args:  cobra.ExactArgs(1),
		RunE:  studyOrder,
	}
	addRunFlags(orderCmd)
	orderCmd.Flags().IntVar(&levels, "levels", 4, "number of step sizes h, h/2, ...")

	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "run a seed sweep concurrently",
		RunE:  runBatch,
	}
	addRunFlags(batchCmd)
	batchCmd.Flags().StringVar(&methodName, "method", "", "integrator (default from preset, else "+config.DefaultMethod+")")
	batchCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	batchCmd.Flags().IntVar(&seedCount, "seeds", 4, "number of seeds")
	batchCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 = one per cpu)")
	batchCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the runs")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a yaml scenario of integrations in order",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the runs")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "vary one parameter over a range",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addRunFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&methodName, "method", "", "integrator (default from preset, else "+config.DefaultMethod+")")
	sweepCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	sweepCmd.Flags().StringVar(&varyParam, "vary", "h", "parameter to vary (h, tf, seed or a hamiltonian param)")
	sweepCmd.Flags().Float64Var(&varyFrom, "from", 0.1, "first value")
	sweepCmd.Flags().Float64Var(&varyTo, "to", 0.01, "last value")
	sweepCmd.Flags().IntVar(&varyPoints, "n", 5, "number of values")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 = one per cpu)")

	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "grid search for the smallest metric",
		Args:  cobra.NoArgs,
		RunE:  runSearch,
	}
	addRunFlags(searchCmd)
	searchCmd.Flags().StringVar(&methodName, "method", "", "integrator (default from preset, else "+config.DefaultMethod+")")
	searchCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	searchCmd.Flags().StringArrayVar(&gridSpecs, "grid", nil, "name=v1,v2,... (repeatable)")
	searchCmd.Flags().StringVar(&metricName, "metric", "exact_error", "metric to minimize")
	searchCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 = one per cpu)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}
	listCmd.Flags().StringVar(&listMethod, "method", "", "only runs of this method")

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored trajectory",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&series, "series", "population", "norm2, unitarity or population")
	plotCmd.Flags().StringVar(&pngPath, "png", "", "write the plot to this image file instead")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list run presets and Hamiltonians",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "show methods, backends and cpu features",
		Args:  cobra.NoArgs,
		RunE:  showInfo,
	}

	rootCmd.AddCommand(runCmd, compareCmd, watchCmd, orderCmd, batchCmd, scenarioCmd, sweepCmd, searchCmd, listCmd, plotCmd, exportJSONCmd, presetsCmd, infoCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Print(err)
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&backend, "backend", config.DefaultBackend, "matrix backend (cdense, split)")
	cmd.Flags().StringVar(&hamName, "hamiltonian", config.DefaultHamiltonian, "hamiltonian preset")
	cmd.Flags().StringToStringVar(&params, "param", nil, "hamiltonian parameter key=value")
	cmd.Flags().Float64Var(&t0, "t0", 0, "start time")
	cmd.Flags().Float64Var(&tf, "tf", config.DefaultDuration, "end time")
	cmd.Flags().Float64Var(&step, "h", config.DefaultStep, "step size")
	cmd.Flags().Int64Var(&seed, "seed", 0, "seed for random hamiltonians")
	cmd.Flags().IntVar(&sampleEvery, "sample-every", config.DefaultSampleEvery, "record a trajectory sample every n steps")
}

// resolveConfig layers defaults, preset, config file and explicitly set flags,
// in that order. A non-empty method wins over all of them.
func resolveConfig(cmd *cobra.Command, method string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend = backend
	}
	if flags.Changed("hamiltonian") {
		cfg.Hamiltonian = hamName
	}
	if flags.Changed("t0") {
		cfg.T0 = t0
	}
	if flags.Changed("tf") {
		cfg.Tf = tf
	}
	if flags.Changed("h") {
		cfg.H = step
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("sample-every") {
		cfg.SampleEvery = sampleEvery
	}
	if len(params) > 0 {
		if cfg.Params == nil {
			cfg.Params = make(map[string]float64, len(params))
		}
		for k, v := range params {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("param %s: %w", k, err)
			}
			cfg.Params[k] = f
		}
	}
	if method != "" {
		cfg.Method = method
	}
	return cfg, cfg.Validate()
}

// openStore initializes the run store and closes it on exit.
func openStore() (*storage.Store, error) {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return nil, err
	}
	atexit.Register(func() {
		if err := st.Close(); err != nil {
			log.Printf("closing store: %v", err)
		}
	})
	return st, nil
}
