package analysis

import (
	"fmt"
	"math"

	"github.com/san-kum/twobody/internal/dynamo"
)

// OrbitalPeriod measures the time the separation vector rel needs to sweep
// a full turn. The polar angle is unwrapped, the instants at which it has
// turned by k·2π are interpolated, and the period is the mean over every
// completed revolution.
func OrbitalPeriod(rel []dynamo.Vec2, times []float64) (float64, error) {
	if len(rel) != len(times) {
		return 0, fmt.Errorf("%w: %d positions and %d times", dynamo.ErrDimensionMismatch, len(rel), len(times))
	}
	if len(rel) < 3 {
		return 0, ErrInsufficientData
	}

	angles := UnwrapAngles(rel)
	a0 := angles[0]
	dir := 1.0
	if angles[len(angles)-1] < a0 {
		dir = -1
	}

	revs := 0
	var last float64
	for i := 1; i < len(angles); i++ {
		prev := dir * (angles[i-1] - a0)
		cur := dir * (angles[i] - a0)
		target := float64(revs+1) * 2 * math.Pi
		for cur >= target && prev < target {
			frac := (target - prev) / (cur - prev)
			last = times[i-1] + frac*(times[i]-times[i-1])
			revs++
			target = float64(revs+1) * 2 * math.Pi
		}
	}

	if revs == 0 {
		return 0, fmt.Errorf("%w: less than one revolution covered", ErrInsufficientData)
	}
	return (last - times[0]) / float64(revs), nil
}

// UnwrapAngles returns the polar angle of every vector with 2π jumps
// removed, so consecutive values differ by less than π.
func UnwrapAngles(vs []dynamo.Vec2) []float64 {
	out := make([]float64, len(vs))
	offset := 0.0
	for i, v := range vs {
		a := math.Atan2(v.Y, v.X)
		if i > 0 {
			d := a + offset - out[i-1]
			for d > math.Pi {
				offset -= 2 * math.Pi
				d -= 2 * math.Pi
			}
			for d < -math.Pi {
				offset += 2 * math.Pi
				d += 2 * math.Pi
			}
		}
		out[i] = a + offset
	}
	return out
}

// Separations returns secondary minus primary for each pair of samples.
func Separations(primary, secondary []dynamo.Vec2) []dynamo.Vec2 {
	n := min(len(primary), len(secondary))
	out := make([]dynamo.Vec2, n)
	for i := range n {
		out[i] = secondary[i].Sub(primary[i])
	}
	return out
}
