package viz

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// Theme defines color scheme for the TUI
type Theme struct {
	Name      string
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
}

var (
	ThemeClassic = Theme{
		Name:      "classic",
		Primary:   lipgloss.Color("#c0392b"),
		Secondary: lipgloss.Color("#2980b9"),
		Accent:    lipgloss.Color("#f1c40f"),
		Text:      lipgloss.Color("#ecf0f1"),
		Muted:     lipgloss.Color("#7f8c8d"),
		Success:   lipgloss.Color("#2ecc71"),
		Warning:   lipgloss.Color("#e67e22"),
	}

	ThemeRetroGreen = Theme{
		Name:      "retro",
		Primary:   lipgloss.Color("#88ff88"),
		Secondary: lipgloss.Color("#00cc00"),
		Accent:    lipgloss.Color("#ffff00"),
		Text:      lipgloss.Color("#00ff00"),
		Muted:     lipgloss.Color("#005500"),
		Success:   lipgloss.Color("#88ff88"),
		Warning:   lipgloss.Color("#ffff00"),
	}

	ThemeOcean = Theme{
		Name:      "ocean",
		Primary:   lipgloss.Color("#ffd700"),
		Secondary: lipgloss.Color("#00a8cc"),
		Accent:    lipgloss.Color("#0077be"),
		Text:      lipgloss.Color("#e0f0ff"),
		Muted:     lipgloss.Color("#4488aa"),
		Success:   lipgloss.Color("#00ff88"),
		Warning:   lipgloss.Color("#ffcc00"),
	}

	Themes = []Theme{
		ThemeClassic,
		ThemeRetroGreen,
		ThemeOcean,
	}
)

// GetTheme returns a theme by name, falling back to the classic one.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeClassic
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// NextTheme returns the theme after t in Themes, wrapping around.
func NextTheme(t Theme) Theme {
	for i, th := range Themes {
		if th.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return ThemeClassic
}

// Blend mixes two hex colours in Lab space; t=0 gives a, t=1 gives b.
// Unparseable input yields a.
func Blend(a, b lipgloss.Color, t float64) lipgloss.Color {
	ca, err := colorful.Hex(string(a))
	if err != nil {
		return a
	}
	cb, err := colorful.Hex(string(b))
	if err != nil {
		return a
	}
	return lipgloss.Color(ca.BlendLab(cb, t).Clamped().Hex())
}

// Palette derives the canvas colours of a theme. Trails are dimmed towards
// the muted colour, markers use the full body colour, and cells drawn by
// both bodies get their blend.
func (t Theme) Palette() Palette {
	trail := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(Blend(c, t.Muted, 0.35))
	}
	return Palette{
		Body:    [2]lipgloss.Style{trail(t.Primary), trail(t.Secondary)},
		Overlap: lipgloss.NewStyle().Foreground(Blend(t.Primary, t.Secondary, 0.5)),
		Marker: [2]lipgloss.Style{
			lipgloss.NewStyle().Foreground(t.Primary).Bold(true),
			lipgloss.NewStyle().Foreground(t.Secondary).Bold(true),
		},
		Empty: lipgloss.NewStyle(),
	}
}
