package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/twobody/internal/config"
	"github.com/san-kum/twobody/internal/dynamo"
	"github.com/san-kum/twobody/internal/integrators"
	"github.com/san-kum/twobody/internal/physics"
)

func TestPowerSpectrumLength(t *testing.T) {
	for _, n := range []int{8, 100, 257} {
		if got := len(PowerSpectrum(make([]float64, n))); got != n/2 {
			t.Errorf("n=%d: expected %d bins, got %d", n, n/2, got)
		}
	}
}

func TestDominantPeriod(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		period   float64
		interval float64
		offset   float64
	}{
		{"pure sine", 256, 32, 1, 0},
		{"with offset", 256, 16, 1, 5},
		{"scaled interval", 512, 64, 0.5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]float64, tt.n)
			for i := range data {
				data[i] = tt.offset + math.Sin(2*math.Pi*float64(i)/tt.period)
			}
			got, err := DominantPeriod(data, tt.interval)
			if err != nil {
				t.Fatal(err)
			}
			want := tt.period * tt.interval
			if math.Abs(got-want) > 1e-9 {
				t.Errorf("expected period %f, got %f", want, got)
			}
		})
	}
}

func TestDominantPeriodErrors(t *testing.T) {
	if _, err := DominantPeriod([]float64{1, 2}, 1); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("short series: expected ErrInsufficientData, got %v", err)
	}
	if _, err := DominantPeriod([]float64{3, 3, 3, 3, 3, 3}, 1); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("constant series: expected ErrInsufficientData, got %v", err)
	}
}

func circle(period, dt, duration float64, clockwise bool) ([]dynamo.Vec2, []float64) {
	var rel []dynamo.Vec2
	var times []float64
	sign := 1.0
	if clockwise {
		sign = -1
	}
	n := int(math.Round(duration / dt))
	for i := 0; i <= n; i++ {
		t := float64(i) * dt
		a := sign * 2 * math.Pi * t / period
		rel = append(rel, dynamo.Vec2{X: math.Cos(a), Y: math.Sin(a)})
		times = append(times, t)
	}
	return rel, times
}

func TestOrbitalPeriodCircle(t *testing.T) {
	for _, cw := range []bool{false, true} {
		rel, times := circle(10, 0.1, 35, cw)
		got, err := OrbitalPeriod(rel, times)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(got-10) > 1e-6 {
			t.Errorf("clockwise=%v: expected period 10, got %f", cw, got)
		}
	}
}

func TestOrbitalPeriodErrors(t *testing.T) {
	rel, times := circle(10, 0.1, 8, false)
	if _, err := OrbitalPeriod(rel, times); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("partial revolution: expected ErrInsufficientData, got %v", err)
	}
	if _, err := OrbitalPeriod(rel, times[:3]); !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("mismatched input: expected ErrDimensionMismatch, got %v", err)
	}
}

func TestUnwrapAngles(t *testing.T) {
	rel, _ := circle(1, 0.05, 3, false)
	angles := UnwrapAngles(rel)
	for i := 1; i < len(angles); i++ {
		if d := angles[i] - angles[i-1]; d <= 0 || d > math.Pi {
			t.Fatalf("angle %d not monotonic: step %f", i, d)
		}
	}
	if total := angles[len(angles)-1] - angles[0]; math.Abs(total-6*math.Pi) > 1e-9 {
		t.Errorf("expected 3 turns, got %f rad", total)
	}
}

func TestEarthMoonPeriods(t *testing.T) {
	cfg := config.DefaultConfig()
	model := physics.NewTwoBody(cfg.GravitationalConstant, cfg.Primary.Mass, cfg.Secondary.Mass, cfg.Alpha)
	integ := integrators.NewRK4()

	x := cfg.InitialState()
	kepler, ok := model.KeplerPeriod(x)
	if !ok {
		t.Fatal("expected a bound orbit")
	}

	n := int(4 * kepler / cfg.TimeStep)
	rel := make([]dynamo.Vec2, 0, n+1)
	dist := make([]float64, 0, n+1)
	times := make([]float64, 0, n+1)
	for i := 0; i <= n; i++ {
		p, s := x.Position(dynamo.Primary), x.Position(dynamo.Secondary)
		rel = append(rel, s.Sub(p))
		dist = append(dist, s.Sub(p).Len())
		times = append(times, float64(i)*cfg.TimeStep)
		x = integ.Step(model, x, cfg.TimeStep)
	}

	angular, err := OrbitalPeriod(rel, times)
	if err != nil {
		t.Fatal(err)
	}
	if rel := math.Abs(angular-kepler) / kepler; rel > 0.005 {
		t.Errorf("angular period %g differs from kepler %g by %.4f", angular, kepler, rel)
	}

	spectral, err := DominantPeriod(dist, cfg.TimeStep)
	if err != nil {
		t.Fatal(err)
	}
	if rel := math.Abs(spectral-kepler) / kepler; rel > 0.02 {
		t.Errorf("spectral period %g differs from kepler %g by %.4f", spectral, kepler, rel)
	}
}

func TestSeparations(t *testing.T) {
	p := []dynamo.Vec2{{X: 1, Y: 1}, {X: 2, Y: 2}}
	s := []dynamo.Vec2{{X: 4, Y: 5}, {X: 2, Y: 0}, {X: 9, Y: 9}}
	got := Separations(p, s)
	want := []dynamo.Vec2{{X: 3, Y: 4}, {X: 0, Y: -2}}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("expected %v, got %v", want, got)
	}
}
