package metrics

import (
	"math"

	"github.com/san-kum/twobody/internal/dynamo"
	"github.com/san-kum/twobody/internal/physics"
)

// driftTracker records the largest relative deviation of a quantity from
// its first observed value.
type driftTracker struct {
	initial  float64
	maxDrift float64
	samples  int
}

func (d *driftTracker) observe(v float64) {
	if d.samples == 0 {
		d.initial = v
	}
	d.samples++

	if d.initial != 0 {
		drift := math.Abs(v-d.initial) / math.Abs(d.initial)
		d.maxDrift = math.Max(d.maxDrift, drift)
	}
}

func (d *driftTracker) reset() {
	d.initial = 0
	d.maxDrift = 0
	d.samples = 0
}

type EnergyDrift struct {
	driftTracker
	model *physics.TwoBody
}

func NewEnergyDrift(model *physics.TwoBody) *EnergyDrift {
	return &EnergyDrift{model: model}
}

func (e *EnergyDrift) Name() string { return "energy_drift" }

func (e *EnergyDrift) Observe(x dynamo.State, t float64) {
	e.observe(e.model.Energy(x))
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() { e.reset() }

type AngularMomentumDrift struct {
	driftTracker
	model *physics.TwoBody
}

func NewAngularMomentumDrift(model *physics.TwoBody) *AngularMomentumDrift {
	return &AngularMomentumDrift{model: model}
}

func (a *AngularMomentumDrift) Name() string { return "angular_momentum_drift" }

func (a *AngularMomentumDrift) Observe(x dynamo.State, t float64) {
	a.observe(a.model.AngularMomentum(x))
}

func (a *AngularMomentumDrift) Value() float64 { return a.maxDrift }

func (a *AngularMomentumDrift) Reset() { a.reset() }

// Defaults returns the metrics attached to every engine.
func Defaults(model *physics.TwoBody) []dynamo.Metric {
	return []dynamo.Metric{
		NewEnergyDrift(model),
		NewAngularMomentumDrift(model),
		NewMinSeparation(model),
	}
}
