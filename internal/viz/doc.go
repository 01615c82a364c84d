// Package viz draws a running simulation in the terminal.
//
// The view is a Bubble Tea program over a [sim.Engine]. Trajectories are
// drawn on a braille [Canvas], coloured per body, next to a panel with the
// run status, conservation metrics and an energy drift chart.
//
// # Key Bindings
//
//	s     - Start stepping
//	x     - Stop stepping
//	Space - Toggle start/stop
//	r     - Reset to the initial conditions
//	t     - Cycle color themes
//	?     - Show help
//	q     - Quit
package viz
