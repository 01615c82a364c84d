package config

import (
	"sort"

	"github.com/san-kum/twobody/internal/dynamo"
	"github.com/san-kum/twobody/internal/integrators"
)

const (
	sunMass       = 1.989e30
	binaryDist    = 1.5e11
	binarySpeed   = 2.1094e4
	binaryPeriod  = 2.234e7
	eccentricMoon = 7.0e2
)

var Presets = map[string]func() *Config{
	"earth_moon": DefaultConfig,
	// one hour steps keep the explicit method roughly on its orbit
	"earth_moon_euler": func() *Config {
		cfg := DefaultConfig()
		cfg.Algorithm = integrators.NameEuler
		cfg.TimeStep = 3.6e3
		return cfg
	},
	"eccentric": func() *Config {
		cfg := DefaultConfig()
		cfg.Secondary.Velocity = dynamo.Vec2{Y: -eccentricMoon}
		cfg.Primary.Velocity = dynamo.Vec2{Y: eccentricMoon * MoonMass / EarthMass}
		return cfg
	},
	"binary": func() *Config {
		cfg := DefaultConfig()
		cfg.TimeStep = 7.2e4
		cfg.RevolutionPeriod = binaryPeriod
		cfg.Primary = BodyConfig{
			Mass:     sunMass,
			Position: dynamo.Vec2{X: -binaryDist / 2},
			Velocity: dynamo.Vec2{Y: -binarySpeed},
		}
		cfg.Secondary = BodyConfig{
			Mass:     sunMass,
			Position: dynamo.Vec2{X: binaryDist / 2},
			Velocity: dynamo.Vec2{Y: binarySpeed},
		}
		cfg.Render.ExpectedSpeed = binarySpeed
		cfg.Render.ReferenceDistance = binaryDist
		return cfg
	},
}

// GetPreset returns a fresh copy of the named preset or nil.
func GetPreset(name string) *Config {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
