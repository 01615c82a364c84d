package physics

import (
	"math"

	"github.com/san-kum/twobody/internal/dynamo"
)

// TwoBody implements mutual gravitation of two point masses under an
// inverse power law 1/r^Alpha.
// State: [x1, y1, vx1, vy1, x2, y2, vx2, vy2]
type TwoBody struct {
	G     float64
	M1    float64 // primary mass
	M2    float64 // secondary mass
	Alpha float64

	gm1, gm2 float64
	p        float64
}

// NewTwoBody precomputes G*M1, G*M2 and Alpha+1 once so that every
// derivative evaluation uses identical operands.
func NewTwoBody(g, m1, m2, alpha float64) *TwoBody {
	return &TwoBody{
		G:     g,
		M1:    m1,
		M2:    m2,
		Alpha: alpha,
		gm1:   g * m1,
		gm2:   g * m2,
		p:     alpha + 1,
	}
}

func (tb *TwoBody) StateDim() int { return dynamo.StateDim }

// Derive returns d/dt of the joint state. Coincident bodies (l = 0) yield
// non-finite accelerations, which then propagate through the trajectory.
func (tb *TwoBody) Derive(x dynamo.State) dynamo.State {
	dx := x[dynamo.X2] - x[dynamo.X1]
	dy := x[dynamo.Y2] - x[dynamo.Y1]
	l := math.Sqrt(dx*dx + dy*dy)
	lp := math.Pow(l, tb.p)

	d := make(dynamo.State, dynamo.StateDim)
	d[dynamo.X1] = x[dynamo.VX1]
	d[dynamo.Y1] = x[dynamo.VY1]
	d[dynamo.VX1] = (tb.gm2 / lp) * dx
	d[dynamo.VY1] = (tb.gm2 / lp) * dy

	d[dynamo.X2] = x[dynamo.VX2]
	d[dynamo.Y2] = x[dynamo.VY2]
	d[dynamo.VX2] = (-tb.gm1 / lp) * dx
	d[dynamo.VY2] = (-tb.gm1 / lp) * dy
	return d
}

// Separation is the distance between the two bodies.
func (tb *TwoBody) Separation(x dynamo.State) float64 {
	return x.Position(dynamo.Secondary).Sub(x.Position(dynamo.Primary)).Len()
}

// Energy returns kinetic plus potential energy of the generalised law.
func (tb *TwoBody) Energy(x dynamo.State) float64 {
	v1 := x.Velocity(dynamo.Primary)
	v2 := x.Velocity(dynamo.Secondary)
	ke := 0.5*tb.M1*(v1.X*v1.X+v1.Y*v1.Y) + 0.5*tb.M2*(v2.X*v2.X+v2.Y*v2.Y)
	return ke + tb.potential(tb.Separation(x))
}

func (tb *TwoBody) potential(l float64) float64 {
	k := tb.G * tb.M1 * tb.M2
	if tb.Alpha == 1 {
		return k * math.Log(l)
	}
	return -k / ((tb.Alpha - 1) * math.Pow(l, tb.Alpha-1))
}

// AngularMomentum returns the z component of total angular momentum about
// the origin.
func (tb *TwoBody) AngularMomentum(x dynamo.State) float64 {
	l1 := x[dynamo.X1]*x[dynamo.VY1] - x[dynamo.Y1]*x[dynamo.VX1]
	l2 := x[dynamo.X2]*x[dynamo.VY2] - x[dynamo.Y2]*x[dynamo.VX2]
	return tb.M1*l1 + tb.M2*l2
}

// Momentum returns total linear momentum.
func (tb *TwoBody) Momentum(x dynamo.State) dynamo.Vec2 {
	v1 := x.Velocity(dynamo.Primary)
	v2 := x.Velocity(dynamo.Secondary)
	return dynamo.Vec2{
		X: tb.M1*v1.X + tb.M2*v2.X,
		Y: tb.M1*v1.Y + tb.M2*v2.Y,
	}
}

// KeplerPeriod returns the period of the relative orbit for the inverse
// square law. ok is false for other exponents and for unbound orbits.
func (tb *TwoBody) KeplerPeriod(x dynamo.State) (period float64, ok bool) {
	if tb.Alpha != 2 {
		return 0, false
	}
	mu := tb.G * (tb.M1 + tb.M2)
	r := tb.Separation(x)
	v := x.Velocity(dynamo.Secondary).Sub(x.Velocity(dynamo.Primary)).Len()
	e := 0.5*v*v - mu/r
	if e >= 0 || r == 0 {
		return 0, false
	}
	a := -mu / (2 * e)
	return 2 * math.Pi * math.Sqrt(a*a*a/mu), true
}
