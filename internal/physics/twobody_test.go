package physics

import (
	"math"
	"testing"

	"github.com/san-kum/twobody/internal/dynamo"
)

const (
	gravConst = 6.6743e-11
	earthMass = 5.972e24
	moonMass  = 7.349e22
)

func earthMoon() dynamo.State {
	return dynamo.State{0, 0, 0, 11.31, 3.844e8, 0, 0, -918.9}
}

func TestTwoBodyVelocityDerivatives(t *testing.T) {
	tb := NewTwoBody(gravConst, earthMass, moonMass, 2)
	x := dynamo.State{1, 2, 3, 4, 5, 6, 7, 8}
	d := tb.Derive(x)

	if d[dynamo.X1] != 3 || d[dynamo.Y1] != 4 || d[dynamo.X2] != 7 || d[dynamo.Y2] != 8 {
		t.Errorf("position derivatives must equal velocities, got %v", d)
	}
}

func TestTwoBodyThirdLaw(t *testing.T) {
	tests := []struct {
		name  string
		alpha float64
		x     dynamo.State
	}{
		{"earth moon", 2, earthMoon()},
		{"diagonal", 2, dynamo.State{-3e7, 4e7, 0, 0, 2e8, -1e8, 0, 0}},
		{"inverse cube", 3, dynamo.State{1e6, 1e6, 0, 0, -2e6, 5e5, 0, 0}},
		{"inverse linear", 1, dynamo.State{0, 0, 0, 0, 0, 1e3, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb := NewTwoBody(gravConst, earthMass, moonMass, tt.alpha)
			d := tb.Derive(tt.x)

			a1x, a1y := d[dynamo.VX1], d[dynamo.VY1]
			a2x, a2y := d[dynamo.VX2], d[dynamo.VY2]

			cross := a1x*a2y - a1y*a2x
			dot := a1x*a2x + a1y*a2y
			mag1 := math.Hypot(a1x, a1y)
			mag2 := math.Hypot(a2x, a2y)

			if math.Abs(cross) > 1e-12*mag1*mag2 {
				t.Errorf("accelerations not parallel: cross=%e", cross)
			}
			if dot >= 0 {
				t.Errorf("accelerations not opposite: dot=%e", dot)
			}

			f1 := mag1 * earthMass
			f2 := mag2 * moonMass
			if math.Abs(f1-f2) > 1e-12*f1 {
				t.Errorf("|a1|*M1 = %e, |a2|*M2 = %e", f1, f2)
			}
		})
	}
}

func TestTwoBodyAttraction(t *testing.T) {
	tb := NewTwoBody(gravConst, earthMass, moonMass, 2)
	d := tb.Derive(earthMoon())

	// secondary lies on +x from the primary
	if d[dynamo.VX1] <= 0 {
		t.Errorf("primary should accelerate toward secondary, got %e", d[dynamo.VX1])
	}
	if d[dynamo.VX2] >= 0 {
		t.Errorf("secondary should accelerate toward primary, got %e", d[dynamo.VX2])
	}

	expected := gravConst * earthMass / (3.844e8 * 3.844e8)
	if math.Abs(-d[dynamo.VX2]-expected) > 1e-12*expected {
		t.Errorf("secondary acceleration = %e, want %e", -d[dynamo.VX2], expected)
	}
}

func TestTwoBodySingularity(t *testing.T) {
	tb := NewTwoBody(gravConst, earthMass, moonMass, 2)
	d := tb.Derive(dynamo.State{1, 1, 0, 0, 1, 1, 0, 0})

	if d.IsValid() {
		t.Errorf("coincident bodies should produce a non-finite derivative, got %v", d)
	}
}

func TestTwoBodyInvariants(t *testing.T) {
	tb := NewTwoBody(gravConst, earthMass, moonMass, 2)
	x := earthMoon()

	sep := tb.Separation(x)
	if sep != 3.844e8 {
		t.Errorf("separation = %e", sep)
	}

	p := tb.Momentum(x)
	if math.Abs(p.Y) > 1e-3*earthMass*11.31 {
		t.Errorf("earth/moon defaults should have near zero momentum, got %v", p)
	}

	l := tb.AngularMomentum(x)
	expected := moonMass * 3.844e8 * -918.9
	if math.Abs(l-expected) > 1e-12*math.Abs(expected) {
		t.Errorf("angular momentum = %e, want %e", l, expected)
	}

	e := tb.Energy(x)
	if e >= 0 {
		t.Errorf("bound orbit should have negative energy, got %e", e)
	}
}

func TestTwoBodyPotentialInverseLinear(t *testing.T) {
	tb := NewTwoBody(1, 1, 1, 1)
	x := dynamo.State{0, 0, 0, 0, math.E, 0, 0, 0}

	if e := tb.Energy(x); math.Abs(e-1) > 1e-12 {
		t.Errorf("logarithmic potential at l=e should be 1, got %f", e)
	}
}

func TestKeplerPeriod(t *testing.T) {
	tb := NewTwoBody(1, 1, 0, 2)
	// circular orbit of radius 1 around a unit mass: period 2*pi
	x := dynamo.State{0, 0, 0, 0, 1, 0, 0, 1}

	period, ok := tb.KeplerPeriod(x)
	if !ok {
		t.Fatal("expected bound orbit")
	}
	if math.Abs(period-2*math.Pi) > 1e-12 {
		t.Errorf("period = %f, want %f", period, 2*math.Pi)
	}

	escape := dynamo.State{0, 0, 0, 0, 1, 0, 0, 2}
	if _, ok := tb.KeplerPeriod(escape); ok {
		t.Error("unbound orbit should have no period")
	}

	if _, ok := NewTwoBody(1, 1, 0, 3).KeplerPeriod(x); ok {
		t.Error("non inverse-square law should have no Kepler period")
	}
}

func TestEarthMoonKeplerPeriod(t *testing.T) {
	tb := NewTwoBody(gravConst, earthMass, moonMass, 2)
	period, ok := tb.KeplerPeriod(earthMoon())
	if !ok {
		t.Fatal("expected bound orbit")
	}

	days := period / 86400
	if days < 21 || days > 22 {
		t.Errorf("period = %.2f days, want about 21.4", days)
	}
}
