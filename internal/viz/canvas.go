package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/twobody/internal/dynamo"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = rune(0x2800)

// Canvas is a braille pixel grid that remembers which body drew each cell.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
	owner         [][]uint8
}

func NewCanvas(w, h int) *Canvas {
	w, h = max(w, 1), max(h, 1)
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		owner:  make([][]uint8, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		c.owner[i] = make([]uint8, w)
	}
	c.Clear()
	return c
}

// PixelSize is the canvas size in sub-pixels.
func (c *Canvas) PixelSize() (w, h int) {
	return c.Width * 2, c.Height * 4
}

// Set lights the sub-pixel (x, y) on behalf of body b. The canvas size in
// sub-pixels is (Width*2) x (Height*4); points outside are ignored.
func (c *Canvas) Set(x, y int, b dynamo.BodyID) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
	c.owner[row][col] |= 1 << b
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
			c.owner[i][j] = 0
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int, b dynamo.BodyID) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0, b)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Lit reports whether sub-pixel (x, y) is set.
func (c *Canvas) Lit(x, y int) bool {
	col, row := x/2, y/4
	if x < 0 || y < 0 || col >= c.Width || row >= c.Height {
		return false
	}
	return c.Grid[row][col]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Marker is a glyph drawn over the canvas at a sub-pixel position.
type Marker struct {
	X, Y  int
	Glyph rune
	Body  dynamo.BodyID
}

// Render colours every cell by the bodies that drew it and overlays the
// markers. Runs of equally coloured cells share one style.
func (c *Canvas) Render(p Palette, markers ...Marker) string {
	type mark struct {
		glyph rune
		mask  uint8
	}
	marks := make(map[[2]int]mark, len(markers))
	for _, m := range markers {
		col, row := m.X/2, m.Y/4
		if m.X < 0 || m.Y < 0 || col >= c.Width || row >= c.Height {
			continue
		}
		marks[[2]int{row, col}] = mark{m.Glyph, 1 << m.Body}
	}

	var out strings.Builder
	var run strings.Builder
	for row := range c.Grid {
		cur := uint8(0)
		for col, r := range c.Grid[row] {
			mask := c.owner[row][col]
			if m, ok := marks[[2]int{row, col}]; ok {
				r, mask = m.glyph, m.mask|markerBit
			}
			if mask != cur && run.Len() > 0 {
				out.WriteString(p.style(cur).Render(run.String()))
				run.Reset()
			}
			cur = mask
			run.WriteRune(r)
		}
		out.WriteString(p.style(cur).Render(run.String()))
		run.Reset()
		out.WriteByte('\n')
	}
	return out.String()
}

const markerBit = 1 << 7

// Palette holds the styles of the trail of each body and of their overlap.
type Palette struct {
	Body    [2]lipgloss.Style
	Overlap lipgloss.Style
	Marker  [2]lipgloss.Style
	Empty   lipgloss.Style
}

func (p Palette) style(mask uint8) lipgloss.Style {
	if mask&markerBit != 0 {
		if mask&(1<<dynamo.Secondary) != 0 {
			return p.Marker[dynamo.Secondary]
		}
		return p.Marker[dynamo.Primary]
	}
	switch mask {
	case 1 << dynamo.Primary:
		return p.Body[dynamo.Primary]
	case 1 << dynamo.Secondary:
		return p.Body[dynamo.Secondary]
	case 0:
		return p.Empty
	default:
		return p.Overlap
	}
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
