// Package automation runs headless simulations in batches: scripted
// scenarios read from yaml and Monte Carlo perturbations of one
// configuration.
package automation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/san-kum/twobody/internal/config"
	"github.com/san-kum/twobody/internal/dynamo"
	"github.com/san-kum/twobody/internal/logging"
	"github.com/san-kum/twobody/internal/physics"
	"github.com/san-kum/twobody/internal/sim"
	"github.com/san-kum/twobody/internal/storage"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Scenario defines a scripted sequence of runs
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Runs        []Run  `yaml:"runs"`
}

// Run is a single entry of a scenario. Zero fields keep the value of the
// preset. Steps wins over Revolutions; with neither, one revolution is run.
type Run struct {
	Name        string  `yaml:"name"`
	Preset      string  `yaml:"preset"`
	Algorithm   string  `yaml:"algorithm"`
	TimeStep    float64 `yaml:"time_step"`
	Alpha       float64 `yaml:"alpha"`
	Decimation  int     `yaml:"decimation"`
	Steps       int     `yaml:"steps"`
	Revolutions float64 `yaml:"revolutions"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Runs) == 0 {
		return nil, fmt.Errorf("scenario %s has no runs", path)
	}
	return &scenario, nil
}

// Config resolves the run's configuration.
func (r Run) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if r.Preset != "" {
		if cfg = config.GetPreset(r.Preset); cfg == nil {
			return nil, &dynamo.ConfigError{Field: "preset", Reason: fmt.Sprintf("unknown preset %q", r.Preset)}
		}
	}
	if r.Algorithm != "" {
		cfg.Algorithm = r.Algorithm
	}
	if r.TimeStep != 0 {
		cfg.TimeStep = r.TimeStep
	}
	if r.Alpha != 0 {
		cfg.Alpha = r.Alpha
	}
	if r.Decimation != 0 {
		cfg.Decimation = r.Decimation
	}
	return cfg, cfg.Validate()
}

// StepsFor converts revolutions of the Keplerian orbit of cfg's initial
// conditions into a step count of at least one.
func StepsFor(cfg *config.Config, revolutions float64) (int, error) {
	model := physics.NewTwoBody(cfg.GravitationalConstant, cfg.Primary.Mass, cfg.Secondary.Mass, cfg.Alpha)
	period, ok := model.KeplerPeriod(cfg.InitialState())
	if !ok {
		return 0, fmt.Errorf("%w: initial conditions have no Keplerian period (unbound, or alpha is not 2)", dynamo.ErrInvalidConfig)
	}
	return max(1, int(math.Round(revolutions*period/cfg.TimeStep))), nil
}

// Result is the outcome of one headless run.
type Result struct {
	Config     config.Config
	Steps      int64
	Decimation int
	Elapsed    time.Duration
	Final      dynamo.State
	Trajectory []storage.Sample
	Metrics    map[string]float64
}

// Metadata describes r for the run store.
func (r *Result) Metadata(preset string) storage.RunMetadata {
	return storage.RunMetadata{
		Preset:                preset,
		Algorithm:             r.Config.Algorithm,
		Dt:                    r.Config.TimeStep,
		Steps:                 r.Steps,
		Decimation:            r.Decimation,
		Alpha:                 r.Config.Alpha,
		GravitationalConstant: r.Config.GravitationalConstant,
		PrimaryMass:           r.Config.Primary.Mass,
		SecondaryMass:         r.Config.Secondary.Mass,
		Metrics:               r.Metrics,
	}
}

// Execute integrates cfg for n steps on the calling goroutine and collects
// the recorded trajectory.
func Execute(ctx context.Context, cfg *config.Config, n int, log *zap.Logger) (*Result, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: step count must be positive, got %d", dynamo.ErrInvalidConfig, n)
	}
	e, err := sim.New(cfg, sim.WithLogger(log))
	if err != nil {
		return nil, err
	}

	start := time.Now()
	if err := e.RunSteps(ctx, n); err != nil {
		return nil, err
	}

	res := &Result{
		Config:     e.Config(),
		Decimation: e.Decimation(),
		Elapsed:    time.Since(start),
		Metrics:    e.Metrics(),
	}
	e.Read(func(v sim.View) {
		res.Steps = v.Steps()
		res.Final = v.State()
		steps := v.SampleSteps()
		primary := v.FullHistory(dynamo.Primary)
		secondary := v.FullHistory(dynamo.Secondary)
		res.Trajectory = make([]storage.Sample, len(steps))
		for i, s := range steps {
			res.Trajectory[i] = storage.Sample{
				Step:      s,
				Time:      float64(s) * cfg.TimeStep,
				Primary:   primary[i],
				Secondary: secondary[i],
			}
		}
	})
	return res, nil
}

// Saved pairs a scenario run with its stored id.
type Saved struct {
	Name   string
	ID     string
	Result *Result
}

// RunScenario executes every run of scenario in order and saves each to
// store. It stops at the first failing run and returns what was saved so
// far.
func RunScenario(ctx context.Context, scenario *Scenario, store *storage.Store, log *zap.Logger) ([]Saved, error) {
	log = logging.OrNop(log)
	saved := make([]Saved, 0, len(scenario.Runs))

	for i, run := range scenario.Runs {
		name := run.Name
		if name == "" {
			name = fmt.Sprintf("run %d", i+1)
		}

		cfg, err := run.Config()
		if err != nil {
			return saved, fmt.Errorf("%s: %w", name, err)
		}
		n := run.Steps
		if n == 0 {
			revs := run.Revolutions
			if revs == 0 {
				revs = 1
			}
			if n, err = StepsFor(cfg, revs); err != nil {
				return saved, fmt.Errorf("%s: %w", name, err)
			}
		}

		log.Info("scenario run", zap.String("scenario", scenario.Name), zap.String("run", name), zap.Int("steps", n))
		res, err := Execute(ctx, cfg, n, log)
		if err != nil {
			return saved, fmt.Errorf("%s: %w", name, err)
		}

		preset := run.Preset
		if preset == "" {
			preset = "earth_moon"
		}
		id, err := store.Save(res.Metadata(preset), res.Trajectory)
		if err != nil {
			return saved, fmt.Errorf("%s: save: %w", name, err)
		}
		saved = append(saved, Saved{Name: name, ID: id, Result: res})
	}

	return saved, nil
}

// MonteCarloConfig defines Monte Carlo simulation parameters
type MonteCarloConfig struct {
	Base *config.Config
	// Perturbation scales the uniform kick added to each velocity
	// component of the secondary, relative to its initial speed.
	Perturbation float64
	Trials       int
	Revolutions  float64
	Seed         int64
}

// Trial is the outcome of one perturbed run.
type Trial struct {
	ID       int
	Velocity dynamo.Vec2
	// Bound is true when the perturbed relative orbit has negative energy.
	Bound bool
	// Valid is false when the run produced a non-finite state.
	Valid   bool
	Metrics map[string]float64
}

// RunMonteCarlo executes cfg.Trials runs with the secondary's initial
// velocity randomly perturbed. Every trial runs the same number of steps,
// derived from the unperturbed orbit.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, log *zap.Logger) ([]Trial, error) {
	log = logging.OrNop(log)
	if cfg.Trials < 1 {
		return nil, &dynamo.ConfigError{Field: "trials", Reason: "must be positive"}
	}
	if cfg.Perturbation < 0 || math.IsNaN(cfg.Perturbation) {
		return nil, &dynamo.ConfigError{Field: "perturbation", Reason: "must be non-negative"}
	}
	if err := cfg.Base.Validate(); err != nil {
		return nil, err
	}
	revs := cfg.Revolutions
	if revs == 0 {
		revs = 1
	}
	n, err := StepsFor(cfg.Base, revs)
	if err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	scale := cfg.Perturbation * cfg.Base.Secondary.Velocity.Len()

	trials := make([]Trial, 0, cfg.Trials)
	for i := 0; i < cfg.Trials; i++ {
		trialCfg := *cfg.Base
		v := trialCfg.Secondary.Velocity
		v.X += (rng.Float64()*2 - 1) * scale
		v.Y += (rng.Float64()*2 - 1) * scale
		trialCfg.Secondary.Velocity = v

		_, unbound := StepsFor(&trialCfg, 1)
		res, err := Execute(ctx, &trialCfg, n, log)
		if err != nil {
			return trials, fmt.Errorf("trial %d: %w", i, err)
		}

		trials = append(trials, Trial{
			ID:       i,
			Velocity: v,
			Bound:    unbound == nil,
			Valid:    res.Final.IsValid(),
			Metrics:  res.Metrics,
		})
		log.Debug("monte carlo trial", zap.Int("trial", i), zap.Bool("bound", unbound == nil))
	}

	return trials, nil
}

// MonteCarloStats counts bound and escaping trials.
func MonteCarloStats(trials []Trial) (bound, escaped int) {
	for _, t := range trials {
		if t.Bound {
			bound++
		} else {
			escaped++
		}
	}
	return
}
