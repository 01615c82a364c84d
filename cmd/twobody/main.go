package main

import (
	"fmt"
	"os"

	"github.com/san-kum/twobody/internal/config"
	"github.com/san-kum/twobody/internal/logging"
	"github.com/san-kum/twobody/internal/sim"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	algorithm  string
	dt         float64
	alpha      float64
	decimation int

	// live
	frameRate   int
	paused      bool
	memcacheAt  string
	memcacheKey string

	// run / compare
	steps       int
	revolutions float64

	// serve
	addr      string
	autostart bool

	// sweep
	sweepDt     []float64
	sweepAlpha  []float64
	sweepG      []float64
	sweepMetric string

	// montecarlo
	perturbation float64
	numTrials    int
	seed         int64

	// plot / export
	svgPath string
	outPath string

	logger = zap.NewNop()
)

// main registers the commands and runs the live view when no subcommand is
// given.
func main() {
	rootCmd := &cobra.Command{
		Use:           "twobody",
		Short:         "two-body gravitational simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logging.New(logLevel)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
		RunE: runLive,
	}

	addGlobalFlags(rootCmd)

	liveFlags := func(cmd *cobra.Command) {
		cmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")
		cmd.Flags().BoolVar(&paused, "paused", false, "start with the simulation stopped")
		cmd.Flags().StringVar(&memcacheAt, "memcache", "", "also publish snapshots to this memcache server")
		cmd.Flags().StringVar(&memcacheKey, "memcache-key", "", "memcache key for snapshots")
	}
	liveFlags(rootCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run the simulation with the terminal view",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	liveFlags(liveCmd)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation and store its trajectory",
		Args:  cobra.NoArgs,
		RunE:  runHeadless,
	}
	runCmd.Flags().IntVar(&steps, "steps", 0, "number of steps")
	runCmd.Flags().Float64Var(&revolutions, "revolutions", 1, "number of Keplerian revolutions when --steps is not set")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&svgPath, "svg", "", "also write the orbits as svg to this file")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "estimate the orbital period of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export the trajectory of a run as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default stdout)")

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "compare euler and rk4 on the same configuration",
		Args:  cobra.NoArgs,
		RunE:  compareAlgorithms,
	}
	compareCmd.Flags().Float64Var(&revolutions, "revolutions", 1, "number of Keplerian revolutions")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the simulation over websocket",
		Args:  cobra.NoArgs,
		RunE:  serve,
	}
	serveCmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8081", "listen address")
	serveCmd.Flags().BoolVar(&autostart, "autostart", false, "start stepping immediately")
	serveCmd.Flags().StringVar(&memcacheAt, "memcache", "", "also publish snapshots to this memcache server")
	serveCmd.Flags().StringVar(&memcacheKey, "memcache-key", "", "memcache key for snapshots")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run a parameter grid and rank it by a metric",
		Args:  cobra.NoArgs,
		RunE:  sweep,
	}
	sweepCmd.Flags().Float64SliceVar(&sweepDt, "dts", nil, "time steps to try")
	sweepCmd.Flags().Float64SliceVar(&sweepAlpha, "alphas", nil, "force law exponents to try")
	sweepCmd.Flags().Float64SliceVar(&sweepG, "gs", nil, "gravitational constants to try")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "energy_drift", "metric to rank by")
	sweepCmd.Flags().Float64Var(&revolutions, "revolutions", 1, "duration in Keplerian revolutions of the base configuration")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run and store every run of a yaml scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "perturb the secondary's velocity and count bound orbits",
		Args:  cobra.NoArgs,
		RunE:  monteCarlo,
	}
	monteCarloCmd.Flags().Float64Var(&perturbation, "perturbation", 0.1, "kick size relative to the secondary's speed")
	monteCarloCmd.Flags().IntVar(&numTrials, "trials", 50, "number of trials")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 uses the clock)")
	monteCarloCmd.Flags().Float64Var(&revolutions, "revolutions", 1, "duration in Keplerian revolutions of the unperturbed orbit")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "write the effective configuration as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  writeConfig,
	}

	rootCmd.AddCommand(liveCmd, runCmd, listCmd, plotCmd, analyzeCmd, exportCSVCmd, compareCmd, sweepCmd, scenarioCmd, monteCarloCmd, serveCmd, presetsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addGlobalFlags(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".twobody", "data directory")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "use preset configuration")
	pf.StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVar(&algorithm, "algorithm", config.DefaultAlgorithm, "integration algorithm (euler, rk4)")
	pf.Float64Var(&dt, "dt", config.DefaultTimeStep, "time step in seconds")
	pf.Float64Var(&alpha, "alpha", config.DefaultAlpha, "distance exponent of the force law")
	pf.IntVar(&decimation, "decimation", 0, "steps per recorded sample (0 derives it from render settings)")
}

// loadConfig builds the configuration from defaults, then the preset, then
// the config file, then any flag the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		var err error
		cfg, err = config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("algorithm") {
		cfg.Algorithm = algorithm
	}
	if flags.Changed("dt") {
		cfg.TimeStep = dt
	}
	if flags.Changed("alpha") {
		cfg.Alpha = alpha
	}
	if flags.Changed("decimation") {
		cfg.Decimation = decimation
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newEngine(cmd *cobra.Command) (*sim.Engine, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	e, err := sim.New(cfg, sim.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	return e, cfg, nil
}

func presetName() string {
	if preset == "" && configFile == "" {
		return "earth_moon"
	}
	return preset
}
