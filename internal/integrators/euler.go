package integrators

import "github.com/san-kum/twobody/internal/dynamo"

// Euler is the explicit first order method. It needs a much smaller time
// step than RK4 for comparable accuracy.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(sys dynamo.System, x dynamo.State, dt float64) dynamo.State {
	dx := sys.Derive(x)
	result := make(dynamo.State, len(x))
	for i := range x {
		result[i] = x[i] + dx[i]*dt
	}
	return result
}
