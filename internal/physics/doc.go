// Package physics implements the two-body gravitational model.
//
// [TwoBody] computes the time derivative of the joint state vector:
//
//	a1 =  G*M2 / l^(alpha+1) * (x2 - x1)
//	a2 = -G*M1 / l^(alpha+1) * (x2 - x1)
//
// which is Newton's third law for a 1/r^alpha force. alpha = 2 is the
// inverse square law.
//
// # Singularity
//
// When both bodies occupy the same point the separation is zero and the
// accelerations are not finite. The model does not special-case this; the
// non-finite values propagate through all later states.
package physics
