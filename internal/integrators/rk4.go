package integrators

import "github.com/san-kum/twobody/internal/dynamo"

// RK4 is the classical fixed-step fourth order Runge-Kutta method.
//
// Each stage evaluates the derivative at x + offset[j]*k(j-1), where the
// offsets are dt/2, dt/2, dt, and accumulates the slope with weights
// dt/6, dt/3, dt/3, dt/6. The final offset is zero and only its weight is
// used. The evaluation order is fixed so trajectories reproduce bit for bit.
//
// An RK4 keeps scratch buffers between steps and must not be shared by
// concurrent callers.
type RK4 struct {
	u   dynamo.State
	acc dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.u) != n {
		r.u = make(dynamo.State, n)
		r.acc = make(dynamo.State, n)
	}
}

func (r *RK4) Step(sys dynamo.System, x dynamo.State, dt float64) dynamo.State {
	n := len(x)
	r.ensureScratch(n)

	offsets := [4]float64{dt / 2.0, dt / 2.0, dt, 0.0}
	weights := [4]float64{dt / 6.0, dt / 3.0, dt / 3.0, dt / 6.0}

	copy(r.u, x)
	for i := range r.acc {
		r.acc[i] = 0
	}

	for j := 0; j < 4; j++ {
		du := sys.Derive(r.u)
		for i := 0; i < n; i++ {
			r.u[i] = x[i] + offsets[j]*du[i]
			r.acc[i] = r.acc[i] + weights[j]*du[i]
		}
	}

	result := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		result[i] = x[i] + r.acc[i]
	}
	return result
}
