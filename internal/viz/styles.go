package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(0, 1)
	statsStyle  = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 2).
			Width(44)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle = lipgloss.NewStyle().Padding(1, 0)
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

// styles are the theme dependent panel styles.
type styles struct {
	header  lipgloss.Style
	running lipgloss.Style
	stopped lipgloss.Style
	graph   lipgloss.Style
	muted   lipgloss.Style
	body    [2]lipgloss.Style
	palette Palette
}

func newStyles(t Theme) styles {
	return styles{
		header:  lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		running: lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		stopped: lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
		graph:   graphStyle.Foreground(Blend(t.Primary, t.Secondary, 0.5)),
		muted:   lipgloss.NewStyle().Foreground(t.Muted),
		body: [2]lipgloss.Style{
			lipgloss.NewStyle().Foreground(t.Primary),
			lipgloss.NewStyle().Foreground(t.Secondary),
		},
		palette: t.Palette(),
	}
}

// ProgressBar renders a bar filled to percent of width.
func ProgressBar(percent float64, width int, style lipgloss.Style) string {
	filled := int(percent * float64(width))
	filled = max(0, min(width, filled))
	return style.Render(strings.Repeat("█", filled)) + strings.Repeat("░", width-filled)
}

func Separator(width int, style lipgloss.Style) string {
	mid := width / 2
	left := strings.Repeat("─", max(mid-3, 0))
	right := strings.Repeat("─", max(width-mid-3, 0))
	return style.Render(left + " ◆ " + right)
}
