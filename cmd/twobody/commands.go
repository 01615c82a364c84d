package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/twobody/internal/analysis"
	"github.com/san-kum/twobody/internal/automation"
	"github.com/san-kum/twobody/internal/config"
	"github.com/san-kum/twobody/internal/dynamo"
	"github.com/san-kum/twobody/internal/export"
	"github.com/san-kum/twobody/internal/integrators"
	"github.com/san-kum/twobody/internal/optim"
	"github.com/san-kum/twobody/internal/publish"
	"github.com/san-kum/twobody/internal/storage"
	"github.com/san-kum/twobody/internal/viz"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const day = 86400.0

func runLive(cmd *cobra.Command, args []string) error {
	e, _, err := newEngine(cmd)
	if err != nil {
		return err
	}
	defer e.Stop()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	if memcacheAt != "" {
		p := publish.NewPublisher(e, publish.Dial(memcacheAt), memcacheKey, logger)
		go p.Run(ctx)
	}

	if !paused {
		e.Start()
	}
	return viz.Run(e, frameRate)
}

func runHeadless(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	n := steps
	if !cmd.Flags().Changed("steps") {
		if n, err = automation.StepsFor(cfg, revolutions); err != nil {
			return fmt.Errorf("%w, use --steps", err)
		}
	}

	fmt.Printf("running %s, %d steps of %gs\n", cfg.Algorithm, n, cfg.TimeStep)
	res, err := automation.Execute(cmd.Context(), cfg, n, logger)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(res.Metadata(presetName()), res.Trajectory)
	if err != nil {
		return err
	}
	logger.Info("run saved", zap.String("id", runID), zap.Int("samples", len(res.Trajectory)))

	fmt.Printf("\nrun: %s\n", runID)
	fmt.Printf("elapsed: %v\n", res.Elapsed.Round(time.Millisecond))
	fmt.Printf("simulated: %.2f days in %d samples (decimation %d)\n",
		float64(res.Steps)*cfg.TimeStep/day, len(res.Trajectory), res.Decimation)
	printMetrics(os.Stdout, res.Metrics)
	return nil
}

func printMetrics(w io.Writer, m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %.6g\n", name, m[name])
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tSTEPS\tDT\tALGO\tENERGY DRIFT")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%gs\t%s\t%.3g\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Steps,
			run.Dt,
			run.Algorithm,
			run.Metrics["energy_drift"],
		)
	}
	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, []storage.Sample, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	traj, err := st.LoadTrajectory(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(traj) == 0 {
		return nil, nil, fmt.Errorf("run %s has no samples", runID)
	}
	return meta, traj, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, traj, err := loadRun(args[0])
	if err != nil {
		return err
	}
	primary, secondary, _ := storage.Positions(traj)

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("algorithm: %s\n", meta.Algorithm)
	fmt.Printf("samples: %d\n\n", len(traj))

	rel := analysis.Separations(primary, secondary)
	sep := make([]float64, len(rel))
	xs := make([]float64, len(secondary))
	ys := make([]float64, len(secondary))
	for i := range rel {
		sep[i] = rel[i].Len() / 1e3
		xs[i] = secondary[i].X / 1e3
		ys[i] = secondary[i].Y / 1e3
	}

	for _, series := range []struct {
		data    []float64
		caption string
	}{
		{sep, "separation (km)"},
		{xs, "secondary x (km)"},
		{ys, "secondary y (km)"},
	} {
		fmt.Println(asciigraph.Plot(series.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(series.caption),
		))
		fmt.Println()
	}

	if svgPath == "" {
		return nil
	}
	f, err := os.Create(svgPath)
	if err != nil {
		return err
	}
	defer f.Close()

	theme := viz.GetTheme("classic")
	if err := export.OrbitsSVG(f, 800, 800,
		export.Path{Points: primary, Stroke: string(theme.Primary)},
		export.Path{Points: secondary, Stroke: string(theme.Secondary)},
	); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", svgPath)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, traj, err := loadRun(args[0])
	if err != nil {
		return err
	}
	primary, secondary, times := storage.Positions(traj)
	rel := analysis.Separations(primary, secondary)

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d over %.2f days\n\n", len(traj), times[len(times)-1]/day)

	if p, err := analysis.OrbitalPeriod(rel, times); err == nil {
		fmt.Printf("orbital period (angle): %.4f days\n", p/day)
	} else {
		fmt.Printf("orbital period (angle): %v\n", err)
	}

	sep := make([]float64, len(rel))
	for i := range rel {
		sep[i] = rel[i].Len()
	}
	interval := meta.Dt * float64(meta.Decimation)
	if len(times) > 1 {
		interval = times[1] - times[0]
	}
	if p, err := analysis.DominantPeriod(sep, interval); err == nil {
		fmt.Printf("orbital period (spectrum): %.4f days\n", p/day)
	} else {
		fmt.Printf("orbital period (spectrum): %v\n", err)
	}

	fmt.Println("\nmetrics:")
	printMetrics(os.Stdout, meta.Metrics)

	power := analysis.PowerSpectrum(sep)
	if len(power) > 2 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(power[1:],
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("separation power spectrum"),
		))
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	traj, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return storage.WriteCSV(w, traj)
}

// closureError is the distance between the final and initial relative
// position, as a fraction of the initial separation.
func closureError(x0, x dynamo.State) float64 {
	r0 := x0.Position(dynamo.Secondary).Sub(x0.Position(dynamo.Primary))
	r := x.Position(dynamo.Secondary).Sub(x.Position(dynamo.Primary))
	return r.Sub(r0).Len() / r0.Len()
}

func compareAlgorithms(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	n, err := automation.StepsFor(base, revolutions)
	if err != nil {
		return err
	}
	x0 := base.InitialState()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ALGO\tSTEPS\tENERGY DRIFT\tL DRIFT\tCLOSURE\tTIME")
	for _, name := range integrators.Names() {
		cfg := *base
		cfg.Algorithm = name
		res, err := automation.Execute(cmd.Context(), &cfg, n, logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%.3e\t%.3e\t%.3e\t%v\n",
			name, n,
			res.Metrics["energy_drift"],
			res.Metrics["angular_momentum_drift"],
			closureError(x0, res.Final),
			res.Elapsed.Round(time.Microsecond),
		)
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tALGO\tDT\tALPHA\tM1\tM2")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%gs\t%g\t%.3e\t%.3e\n",
			name, cfg.Algorithm, cfg.TimeStep, cfg.Alpha, cfg.Primary.Mass, cfg.Secondary.Mass)
	}
	return w.Flush()
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return config.Encode(os.Stdout, cfg)
	}
	if err := config.Save(args[0], cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", args[0])
	return nil
}

func sweep(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var names []string
	var ranges [][]float64
	for _, p := range []struct {
		name   string
		values []float64
	}{
		{optim.ParamTimeStep, sweepDt},
		{optim.ParamAlpha, sweepAlpha},
		{optim.ParamG, sweepG},
	} {
		if len(p.values) > 0 {
			names = append(names, p.name)
			ranges = append(ranges, p.values)
		}
	}
	if len(names) == 0 {
		return fmt.Errorf("nothing to sweep, set at least one of --dts, --alphas, --gs")
	}

	grid, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

	n, err := automation.StepsFor(base, revolutions)
	if err != nil {
		return err
	}

	points := grid.Run(cmd.Context(), base, float64(n)*base.TimeStep)
	for _, p := range points {
		if p.Err != nil {
			logger.Warn("grid point failed", zap.Any("params", p.Params), zap.Error(p.Err))
		}
	}

	ranked := optim.Rank(points, sweepMetric)
	if len(ranked) == 0 {
		return fmt.Errorf("no grid point produced a finite %s", sweepMetric)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := "RANK"
	for _, n := range names {
		header += "\t" + strings.ToUpper(n)
	}
	fmt.Fprintln(w, header+"\tSTEPS\t"+strings.ToUpper(sweepMetric))
	for i, p := range ranked {
		fmt.Fprintf(w, "%d", i+1)
		for _, n := range names {
			fmt.Fprintf(w, "\t%g", p.Params[n])
		}
		fmt.Fprintf(w, "\t%d\t%.3e\n", p.Steps, p.Metrics[sweepMetric])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if skipped := len(points) - len(ranked); skipped > 0 {
		fmt.Printf("\n%d of %d points failed or had no finite %s\n", skipped, len(points), sweepMetric)
	}
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("scenario: %s (%d runs)\n", sc.Name, len(sc.Runs))
	if sc.Description != "" {
		fmt.Println(sc.Description)
	}
	saved, err := automation.RunScenario(cmd.Context(), sc, st, logger)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nNAME\tID\tALGO\tSTEPS\tENERGY DRIFT\tTIME")
	for _, s := range saved {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.3e\t%v\n",
			s.Name, s.ID, s.Result.Config.Algorithm, s.Result.Steps,
			s.Result.Metrics["energy_drift"], s.Result.Elapsed.Round(time.Millisecond))
	}
	if ferr := w.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	return err
}

func monteCarlo(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	trials, err := automation.RunMonteCarlo(cmd.Context(), &automation.MonteCarloConfig{
		Base:         base,
		Perturbation: perturbation,
		Trials:       numTrials,
		Revolutions:  revolutions,
		Seed:         seed,
	}, logger)
	if err != nil {
		return err
	}

	bound, escaped := automation.MonteCarloStats(trials)
	invalid := 0
	for _, t := range trials {
		if !t.Valid {
			invalid++
		}
	}
	fmt.Printf("trials: %d\n", len(trials))
	fmt.Printf("bound: %d (%.1f%%)\n", bound, 100*float64(bound)/float64(len(trials)))
	fmt.Printf("escaped: %d\n", escaped)
	if invalid > 0 {
		fmt.Printf("non-finite: %d\n", invalid)
	}
	return nil
}
