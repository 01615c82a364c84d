package viz

import (
	"math"

	"github.com/san-kum/twobody/internal/dynamo"
)

// Projection maps world coordinates in metres to canvas sub-pixels. The
// world origin sits at the canvas centre and y grows upwards.
type Projection struct {
	Scale  float64
	CX, CY float64
	W, H   int
}

// NewProjection fits a disc of radius refDist into a w×h sub-pixel canvas.
func NewProjection(w, h int, refDist float64) Projection {
	return Projection{
		Scale: float64(min(w, h)) / (2 * refDist),
		CX:    float64(w) / 2,
		CY:    float64(h) / 2,
		W:     w,
		H:     h,
	}
}

func (p Projection) project(v dynamo.Vec2) (float64, float64) {
	return p.CX + v.X*p.Scale, p.CY - v.Y*p.Scale
}

// ToScreen returns the sub-pixel of v. ok is false when v falls outside the
// canvas or is not finite.
func (p Projection) ToScreen(v dynamo.Vec2) (x, y int, ok bool) {
	fx, fy := p.project(v)
	if !(fx >= 0 && fy >= 0 && fx < float64(p.W) && fy < float64(p.H)) {
		return 0, 0, false
	}
	return int(fx), int(fy), true
}

// clip trims the segment a-b to the canvas with the Liang-Barsky method.
func (p Projection) clip(ax, ay, bx, by float64) (float64, float64, float64, float64, bool) {
	t0, t1 := 0.0, 1.0
	dx, dy := bx-ax, by-ay
	maxX, maxY := float64(p.W)-1e-9, float64(p.H)-1e-9

	edges := [4][2]float64{
		{-dx, ax},
		{dx, maxX - ax},
		{-dy, ay},
		{dy, maxY - ay},
	}
	for _, e := range edges {
		pk, qk := e[0], e[1]
		if pk == 0 {
			if qk < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		r := qk / pk
		if pk < 0 {
			t0 = math.Max(t0, r)
		} else {
			t1 = math.Min(t1, r)
		}
		if t0 > t1 {
			return 0, 0, 0, 0, false
		}
	}
	return ax + t0*dx, ay + t0*dy, ax + t1*dx, ay + t1*dy, true
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// DrawPath draws consecutive points of pts as connected segments, clipped
// to the canvas.
func DrawPath(c *Canvas, p Projection, pts []dynamo.Vec2, b dynamo.BodyID) {
	if len(pts) == 1 {
		if x, y, ok := p.ToScreen(pts[0]); ok {
			c.Set(x, y, b)
		}
		return
	}
	for i := 1; i < len(pts); i++ {
		ax, ay := p.project(pts[i-1])
		bx, by := p.project(pts[i])
		if !finite(ax, ay, bx, by, bx-ax, by-ay) {
			continue
		}
		ax, ay, bx, by, ok := p.clip(ax, ay, bx, by)
		if !ok {
			continue
		}
		c.DrawLine(int(ax), int(ay), int(bx), int(by), b)
	}
}
