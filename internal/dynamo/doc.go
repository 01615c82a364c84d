// Package dynamo provides the core primitives of the two-body simulation.
//
// The package defines the types shared by every other package:
//
//   - [State]: the joint state vector [x1, y1, vx1, vy1, x2, y2, vx2, vy2]
//   - [Body], [Vec2], [BodyID]: the per-body view of a [State]
//   - [System]: interface for autonomous ODE systems (dX/dt = f(X))
//   - [Integrator]: fixed-step numerical integrator interface
//   - [Metric]: observer reduced to a single value
//
// # Conversion
//
// [FromBodies] and [State.Bodies] are exact inverses; no arithmetic is
// performed in either direction.
//
//	p, s := x.Bodies()
//	y := dynamo.FromBodies(p, s) // y equals x component for component
package dynamo
