package export

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/san-kum/twobody/internal/dynamo"
)

// Path is one polyline of an orbit plot.
type Path struct {
	Points []dynamo.Vec2
	Stroke string
}

// OrbitsSVG writes the paths as an SVG image. All paths share one
// equal-aspect frame with 10% padding, and y grows upwards.
func OrbitsSVG(w io.Writer, width, height int, paths ...Path) error {
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range paths {
		for _, pt := range p.Points {
			if !finite(pt) {
				continue
			}
			minX, maxX = math.Min(minX, pt.X), math.Max(maxX, pt.X)
			minY, maxY = math.Min(minY, pt.Y), math.Max(maxY, pt.Y)
		}
	}
	if math.IsInf(minX, 1) {
		return fmt.Errorf("export: no finite points to plot")
	}

	span := math.Max(maxX-minX, maxY-minY)
	if span == 0 {
		span = 1
	}
	span *= 1.2
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	scale := float64(min(width, height)) / span

	toScreen := func(v dynamo.Vec2) (float64, float64) {
		return float64(width)/2 + (v.X-cx)*scale, float64(height)/2 - (v.Y-cy)*scale
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	for _, p := range paths {
		if len(p.Points) == 0 {
			continue
		}
		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="`, p.Stroke)
		move := true
		for _, pt := range p.Points {
			if !finite(pt) {
				move = true
				continue
			}
			x, y := toScreen(pt)
			if move {
				fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
				move = false
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
			}
		}
		sb.WriteString("\"/>\n")

		last := p.Points[len(p.Points)-1]
		if finite(last) {
			x, y := toScreen(last)
			fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="4" fill="%s"/>`+"\n", x, y, p.Stroke)
		}
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

func finite(v dynamo.Vec2) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}
