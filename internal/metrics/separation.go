package metrics

import (
	"math"

	"github.com/san-kum/twobody/internal/dynamo"
	"github.com/san-kum/twobody/internal/physics"
)

// MinSeparation tracks the closest approach of the two bodies.
type MinSeparation struct {
	model   *physics.TwoBody
	min     float64
	samples int
}

func NewMinSeparation(model *physics.TwoBody) *MinSeparation {
	return &MinSeparation{model: model, min: math.Inf(1)}
}

func (m *MinSeparation) Name() string { return "min_separation" }

func (m *MinSeparation) Observe(x dynamo.State, t float64) {
	m.samples++
	m.min = math.Min(m.min, m.model.Separation(x))
}

func (m *MinSeparation) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.min
}

func (m *MinSeparation) Reset() {
	m.min = math.Inf(1)
	m.samples = 0
}
