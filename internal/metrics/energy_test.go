package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/twobody/internal/dynamo"
	"github.com/san-kum/twobody/internal/physics"
)

func TestEnergyDrift(t *testing.T) {
	model := physics.NewTwoBody(1, 1, 1, 2)
	m := NewEnergyDrift(model)

	x := dynamo.State{0, 0, 0, 0, 1, 0, 0, 0}
	m.Observe(x, 0)
	if m.Value() != 0 {
		t.Errorf("expected zero drift after first observation, got %f", m.Value())
	}

	e0 := model.Energy(x)
	y := dynamo.State{0, 0, 0, 0, 2, 0, 0, 0}
	m.Observe(y, 1)
	expected := math.Abs(model.Energy(y)-e0) / math.Abs(e0)
	if math.Abs(m.Value()-expected) > 1e-12 {
		t.Errorf("expected drift %f, got %f", expected, m.Value())
	}

	m.Observe(x, 2)
	if math.Abs(m.Value()-expected) > 1e-12 {
		t.Errorf("drift should keep its maximum, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero drift after reset")
	}
}

func TestAngularMomentumDrift(t *testing.T) {
	model := physics.NewTwoBody(1, 1, 1, 2)
	m := NewAngularMomentumDrift(model)

	m.Observe(dynamo.State{0, 0, 0, 0, 1, 0, 0, 1}, 0)
	m.Observe(dynamo.State{0, 0, 0, 0, 1, 0, 0, 1.5}, 1)

	if math.Abs(m.Value()-0.5) > 1e-12 {
		t.Errorf("expected drift 0.5, got %f", m.Value())
	}
}

func TestMinSeparation(t *testing.T) {
	model := physics.NewTwoBody(1, 1, 1, 2)
	m := NewMinSeparation(model)

	if m.Value() != 0 {
		t.Error("expected zero before any observation")
	}

	m.Observe(dynamo.State{0, 0, 0, 0, 3, 4, 0, 0}, 0)
	m.Observe(dynamo.State{0, 0, 0, 0, 1, 0, 0, 0}, 1)
	m.Observe(dynamo.State{0, 0, 0, 0, 2, 0, 0, 0}, 2)

	if m.Value() != 1 {
		t.Errorf("expected min separation 1, got %f", m.Value())
	}
}

func TestDefaults(t *testing.T) {
	ms := Defaults(physics.NewTwoBody(1, 1, 1, 2))
	names := map[string]bool{}
	for _, m := range ms {
		names[m.Name()] = true
	}
	for _, want := range []string{"energy_drift", "angular_momentum_drift", "min_separation"} {
		if !names[want] {
			t.Errorf("missing default metric %s", want)
		}
	}
}
