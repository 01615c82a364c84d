package integrators

import (
	"testing"

	"github.com/san-kum/twobody/internal/dynamo"
	"github.com/san-kum/twobody/internal/physics"
)

func BenchmarkEuler(b *testing.B) {
	integrator := NewEuler()
	sys := physics.NewTwoBody(6.6743e-11, 5.972e24, 7.349e22, 2)
	x := dynamo.State{0, 0, 0, 11.31, 3.844e8, 0, 0, -918.9}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(sys, x, 3.6e3)
	}
}

func BenchmarkRK4(b *testing.B) {
	integrator := NewRK4()
	sys := physics.NewTwoBody(6.6743e-11, 5.972e24, 7.349e22, 2)
	x := dynamo.State{0, 0, 0, 11.31, 3.844e8, 0, 0, -918.9}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(sys, x, 8.64e3)
	}
}
