package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/twobody/internal/config"
	"github.com/san-kum/twobody/internal/dynamo"
	"github.com/spf13/cobra"
)

// parse builds a command carrying the global flags and parses args into it.
func parse(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addGlobalFlags(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatal(err)
	}
	return cmd
}

func TestLoadConfig_Default(t *testing.T) {
	cfg, err := loadConfig(parse(t))
	if err != nil {
		t.Fatal(err)
	}
	if *cfg != *config.DefaultConfig() {
		t.Errorf("expected the default configuration, got %+v", cfg)
	}
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(path, []byte("time_step: 1000\nalpha: 2.5\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(parse(t, "--preset", "binary", "--config", path, "--alpha", "2.1"))
	if err != nil {
		t.Fatal(err)
	}

	want := config.GetPreset("binary")
	if cfg.Primary != want.Primary || cfg.Secondary != want.Secondary {
		t.Error("bodies should come from the preset")
	}
	if cfg.TimeStep != 1000 {
		t.Errorf("file should override the preset step, got %v", cfg.TimeStep)
	}
	if cfg.Alpha != 2.1 {
		t.Errorf("flag should override the file, got alpha %v", cfg.Alpha)
	}
	if cfg.Algorithm != want.Algorithm {
		t.Errorf("unset flags must not override, got algorithm %s", cfg.Algorithm)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := loadConfig(parse(t, "--preset", "pluto"))
	if err == nil || !strings.Contains(err.Error(), "earth_moon") {
		t.Errorf("unknown preset should list the available ones, got %v", err)
	}

	_, err = loadConfig(parse(t, "--dt", "0"))
	if !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("zero step should fail validation, got %v", err)
	}

	_, err = loadConfig(parse(t, "--algorithm", "leapfrog"))
	if err == nil {
		t.Error("unknown algorithm should be rejected")
	}
}

func TestClosureError(t *testing.T) {
	x0 := config.DefaultConfig().InitialState()
	if got := closureError(x0, x0); got != 0 {
		t.Errorf("identical states should close exactly, got %v", got)
	}

	x := x0.Clone()
	x[4] += config.MoonDistance / 100
	if got := closureError(x0, x); got < 0.0099 || got > 0.0101 {
		t.Errorf("expected 1%% closure error, got %v", got)
	}
}
