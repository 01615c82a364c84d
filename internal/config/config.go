package config

import (
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"time"

	"github.com/san-kum/twobody/internal/dynamo"
	"github.com/san-kum/twobody/internal/integrators"
	"gopkg.in/yaml.v3"
)

const (
	DefaultG                    = 6.6743e-11
	DefaultAlpha                = 2.0
	DefaultTimeStep             = 8.64e3
	DefaultAlgorithm            = integrators.NameRK4
	DefaultSecondsPerRevolution = 3.0
	DefaultRevolutionPeriod     = 2.628e6

	EarthMass = 5.972e24
	MoonMass  = 7.349e22

	// mean earth/moon distance and lunar speed, used for render pacing
	MoonDistance = 3.844e8
	MoonSpeed    = 9.189e2
	EarthSpeed   = 1.131e1

	DefaultResolutionPx = 10.0
	DefaultMaxExtentPx  = 1920.0
)

type Config struct {
	GravitationalConstant float64      `yaml:"gravitational_constant"`
	Alpha                 float64      `yaml:"alpha"`
	TimeStep              float64      `yaml:"time_step"`
	Algorithm             string       `yaml:"algorithm"`
	SecondsPerRevolution  float64      `yaml:"seconds_per_revolution"`
	RevolutionPeriod      float64      `yaml:"revolution_period"`
	Decimation            int          `yaml:"decimation"`
	Primary               BodyConfig   `yaml:"primary"`
	Secondary             BodyConfig   `yaml:"secondary"`
	Render                RenderConfig `yaml:"render"`
}

type BodyConfig struct {
	Mass     float64     `yaml:"mass"`
	Position dynamo.Vec2 `yaml:"position"`
	Velocity dynamo.Vec2 `yaml:"velocity"`
}

// RenderConfig holds the visual pacing inputs of the decimation factor.
type RenderConfig struct {
	ResolutionPx      float64 `yaml:"resolution_px"`
	MaxExtentPx       float64 `yaml:"max_extent_px"`
	ExpectedSpeed     float64 `yaml:"expected_speed"`
	ReferenceDistance float64 `yaml:"reference_distance"`
}

// DefaultConfig returns the earth/moon system integrated with RK4 at a
// tenth of a day per step.
func DefaultConfig() *Config {
	return &Config{
		GravitationalConstant: DefaultG,
		Alpha:                 DefaultAlpha,
		TimeStep:              DefaultTimeStep,
		Algorithm:             DefaultAlgorithm,
		SecondsPerRevolution:  DefaultSecondsPerRevolution,
		RevolutionPeriod:      DefaultRevolutionPeriod,
		Primary: BodyConfig{
			Mass:     EarthMass,
			Velocity: dynamo.Vec2{Y: EarthSpeed},
		},
		Secondary: BodyConfig{
			Mass:     MoonMass,
			Position: dynamo.Vec2{X: MoonDistance},
			Velocity: dynamo.Vec2{Y: -MoonSpeed},
		},
		Render: RenderConfig{
			ResolutionPx:      DefaultResolutionPx,
			MaxExtentPx:       DefaultMaxExtentPx,
			ExpectedSpeed:     MoonSpeed,
			ReferenceDistance: MoonDistance,
		},
	}
}

func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads path on top of base. Keys missing from the file keep the
// values of base, which is modified in place.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, base); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return base, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Encode writes cfg as yaml to w.
func Encode(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

// Validate rejects configurations that could only fail later as a
// division by zero or a meaningless schedule.
func (c *Config) Validate() error {
	positive := []struct {
		field string
		val   float64
	}{
		{"gravitational_constant", c.GravitationalConstant},
		{"time_step", c.TimeStep},
		{"primary.mass", c.Primary.Mass},
		{"secondary.mass", c.Secondary.Mass},
		{"seconds_per_revolution", c.SecondsPerRevolution},
		{"revolution_period", c.RevolutionPeriod},
	}
	for _, p := range positive {
		if err := requirePositive(p.field, p.val); err != nil {
			return err
		}
	}

	if !isFinite(c.Alpha) {
		return &dynamo.ConfigError{Field: "alpha", Reason: "must be finite"}
	}
	if !slices.Contains(integrators.Names(), c.Algorithm) {
		return &dynamo.ConfigError{Field: "algorithm", Reason: fmt.Sprintf("unknown algorithm %q (available: %v)", c.Algorithm, integrators.Names())}
	}

	x := c.InitialState()
	if !x.IsValid() {
		return &dynamo.ConfigError{Field: "initial state", Reason: "positions and velocities must be finite"}
	}
	if c.Primary.Position == c.Secondary.Position {
		return &dynamo.ConfigError{Field: "initial state", Reason: "bodies must not coincide"}
	}

	if c.Decimation < 0 {
		return &dynamo.ConfigError{Field: "decimation", Reason: "must not be negative"}
	}
	if c.Decimation == 0 {
		render := []struct {
			field string
			val   float64
		}{
			{"render.resolution_px", c.Render.ResolutionPx},
			{"render.max_extent_px", c.Render.MaxExtentPx},
			{"render.expected_speed", c.Render.ExpectedSpeed},
			{"render.reference_distance", c.Render.ReferenceDistance},
		}
		for _, r := range render {
			if err := requirePositive(r.field, r.val); err != nil {
				return err
			}
		}
	}
	return nil
}

// InitialState builds the joint state vector from the configured bodies.
func (c *Config) InitialState() dynamo.State {
	return dynamo.FromBodies(
		dynamo.Body{Position: c.Primary.Position, Velocity: c.Primary.Velocity},
		dynamo.Body{Position: c.Secondary.Position, Velocity: c.Secondary.Velocity},
	)
}

// StepDelay is the wall clock period between two integration steps, chosen
// so that one revolution of RevolutionPeriod simulated seconds plays back in
// SecondsPerRevolution real seconds. It is at least one microsecond and
// saturates at the largest Duration.
func (c *Config) StepDelay() time.Duration {
	stepsPerRevolution := c.RevolutionPeriod / c.TimeStep
	us := math.Round(c.SecondsPerRevolution * 1e6 / stepsPerRevolution)
	if us < 1 {
		us = 1
	}
	if us >= float64(math.MaxInt64/int64(time.Microsecond)) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(us) * time.Microsecond
}

// DecimationFactor is the number of steps between two recorded trajectory
// samples. An explicit Decimation wins; otherwise it is the smallest step
// count after which the secondary moves about ResolutionPx pixels at the
// largest render scale.
func (c *Config) DecimationFactor() int {
	if c.Decimation > 0 {
		return c.Decimation
	}
	scaleMax := c.Render.MaxExtentPx / (2 * c.Render.ReferenceDistance)
	d := math.Ceil(c.Render.ResolutionPx / (c.Render.ExpectedSpeed * c.TimeStep * scaleMax))
	if math.IsNaN(d) || d < 1 {
		return 1
	}
	if d > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(d)
}

func requirePositive(field string, v float64) error {
	if !isFinite(v) || v <= 0 {
		return &dynamo.ConfigError{Field: field, Reason: fmt.Sprintf("must be positive and finite, got %g", v)}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
