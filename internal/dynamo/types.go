package dynamo

import (
	"fmt"
	"math"
)

// StateDim is the length of the joint state vector.
const StateDim = 8

// Field offsets into the joint state vector.
const (
	X1 = iota
	Y1
	VX1
	VY1
	X2
	Y2
	VX2
	VY2
)

// State is the joint state vector [x1, y1, vx1, vy1, x2, y2, vx2, vy2].
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// Position returns the position of body b.
func (s State) Position(b BodyID) Vec2 {
	o := b.offset()
	return Vec2{X: s[o], Y: s[o+1]}
}

// Velocity returns the velocity of body b.
func (s State) Velocity(b BodyID) Vec2 {
	o := b.offset()
	return Vec2{X: s[o+2], Y: s[o+3]}
}

// Bodies splits the joint state into its two bodies.
func (s State) Bodies() (primary, secondary Body) {
	primary = Body{Position: s.Position(Primary), Velocity: s.Velocity(Primary)}
	secondary = Body{Position: s.Position(Secondary), Velocity: s.Velocity(Secondary)}
	return primary, secondary
}

// FromBodies builds the joint state vector. It is the exact inverse of
// State.Bodies.
func FromBodies(primary, secondary Body) State {
	return State{
		primary.Position.X, primary.Position.Y,
		primary.Velocity.X, primary.Velocity.Y,
		secondary.Position.X, secondary.Position.Y,
		secondary.Velocity.X, secondary.Velocity.Y,
	}
}

type Vec2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{X: v.X - o.X, Y: v.Y - o.Y} }

func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

type Body struct {
	Position Vec2 `json:"position" yaml:"position"`
	Velocity Vec2 `json:"velocity" yaml:"velocity"`
}

// BodyID selects one of the two bodies.
type BodyID int

const (
	Primary BodyID = iota
	Secondary
)

// Bodies lists both body IDs in state order.
var Bodies = [2]BodyID{Primary, Secondary}

func (b BodyID) offset() int { return int(b) * 4 }

func (b BodyID) String() string {
	switch b {
	case Primary:
		return "primary"
	case Secondary:
		return "secondary"
	default:
		return fmt.Sprintf("body(%d)", int(b))
	}
}

// System is an autonomous ODE dX/dt = f(X).
type System interface {
	Derive(x State) State
	StateDim() int
}

type Integrator interface {
	Step(sys System, x State, dt float64) State
}

type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}
