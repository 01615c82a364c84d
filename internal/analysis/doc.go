// Package analysis estimates orbital periods from recorded trajectories.
//
//   - [PowerSpectrum]: magnitude spectrum of a real series
//   - [DominantPeriod]: period of the strongest spectral peak
//   - [OrbitalPeriod]: period from the unwrapped angle of the separation vector
//
// The two period estimates complement each other: the spectral one works on
// any scalar series such as the separation length, the angular one is exact
// for uniformly sampled circular motion and robust for eccentric orbits.
package analysis
