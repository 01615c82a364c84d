package viz

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/twobody/internal/dynamo"
	"github.com/san-kum/twobody/internal/physics"
	"github.com/san-kum/twobody/internal/sim"
)

const (
	defaultWidth   = 60
	defaultHeight  = 24
	panelWidth     = 48
	energyCapacity = 120
	secondsPerDay  = 86400.0
)

type frameMsg time.Time

// Model renders a running engine. It never steps the simulation itself;
// every frame it takes one locked view and draws what was recorded since
// the previous frame.
type Model struct {
	engine  *sim.Engine
	model   *physics.TwoBody
	fps     int
	refDist float64
	period  float64

	canvas *Canvas
	proj   Projection
	theme  Theme
	st     styles

	drawn      int
	generation uint64
	dirty      bool
	redraws    int

	snap     sim.Snapshot
	energy0  float64
	energy   []float64
	showHelp bool
}

func NewModel(e *sim.Engine, fps int) Model {
	if fps <= 0 {
		fps = 60
	}
	cfg := e.Config()
	x0 := e.InitialState()
	period, _ := e.Model().KeplerPeriod(x0)

	m := Model{
		engine:  e,
		model:   e.Model(),
		fps:     fps,
		refDist: cfg.Render.ReferenceDistance,
		period:  period,
		theme:   ThemeClassic,
		st:      newStyles(ThemeClassic),
		energy0: e.Model().Energy(x0),
		energy:  make([]float64, 0, energyCapacity),
	}
	if !(m.refDist > 0) {
		m.refDist = x0.Position(dynamo.Secondary).Sub(x0.Position(dynamo.Primary)).Len()
	}
	m.resize(defaultWidth, defaultHeight)
	m.refresh()
	return m
}

func (m *Model) resize(w, h int) {
	m.canvas = NewCanvas(w, h)
	pw, ph := m.canvas.PixelSize()
	m.proj = NewProjection(pw, ph, m.refDist)
	m.dirty = true
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.engine.Stop()
			return m, tea.Quit
		case "s":
			m.engine.Start()
		case "x":
			m.engine.Stop()
		case " ":
			if m.engine.Running() {
				m.engine.Stop()
			} else {
				m.engine.Start()
			}
		case "r":
			m.engine.Reset()
			m.energy = m.energy[:0]
			m.dirty = true
		case "t":
			m.theme = NextTheme(m.theme)
			m.st = newStyles(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case tea.WindowSizeMsg:
		m.resize(max(msg.Width-panelWidth-2, 10), max(msg.Height-1, 5))
	case frameMsg:
		m.refresh()
		return m, m.tick()
	}
	return m, nil
}

// refresh brings the canvas up to date. After a reset or a resize the whole
// history is redrawn; otherwise only the samples recorded since the last
// frame are drawn, starting from the last point already on the canvas.
func (m *Model) refresh() {
	var state dynamo.State
	steps := m.snap.Steps

	m.engine.Read(func(v sim.View) {
		n := v.SampleCount()
		full := m.dirty || v.Generation() != m.generation || n < m.drawn
		if full {
			m.canvas.Clear()
			m.redraws++
		}
		for _, b := range dynamo.Bodies {
			if full {
				DrawPath(m.canvas, m.proj, v.FullHistory(b), b)
			} else if n > m.drawn {
				DrawPath(m.canvas, m.proj, v.HistorySince(b, m.drawn-1), b)
			}
		}
		m.drawn = n
		m.generation = v.Generation()
		m.dirty = false
		m.snap = v.Snapshot()
		state = v.State()
	})
	m.snap.Status = m.engine.Status().String()

	if m.snap.Steps < steps {
		m.energy = m.energy[:0]
	}
	if m.snap.Steps != steps || len(m.energy) == 0 {
		m.pushEnergy(state)
	}
}

func (m *Model) pushEnergy(x dynamo.State) {
	if m.energy0 == 0 || !x.IsValid() {
		return
	}
	drift := (m.model.Energy(x) - m.energy0) / math.Abs(m.energy0)
	if len(m.energy) == energyCapacity {
		copy(m.energy, m.energy[1:])
		m.energy = m.energy[:energyCapacity-1]
	}
	m.energy = append(m.energy, drift)
}

func (m Model) markers() []Marker {
	glyphs := [2]rune{'●', '•'}
	var out []Marker
	for _, b := range dynamo.Bodies {
		if x, y, ok := m.proj.ToScreen(m.snap.Bodies[b].Position); ok {
			out = append(out, Marker{X: x, Y: y, Glyph: glyphs[b], Body: b})
		}
	}
	return out
}

func (m Model) View() string {
	canvasView := canvasStyle.Render(m.canvas.Render(m.st.palette, m.markers()...))

	var s strings.Builder
	cfg := m.engine.Config()
	s.WriteString(m.st.header.Render("TWO BODY · "+strings.ToUpper(cfg.Algorithm)) + "\n\n")

	if m.engine.Running() {
		s.WriteString(m.st.running.Render("RUNNING") + "\n\n")
	} else {
		s.WriteString(m.st.stopped.Render("STOPPED") + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Steps", fmt.Sprintf("%d", m.snap.Steps))
	row("Time", fmt.Sprintf("%.2f days", m.snap.Time/secondsPerDay))
	sep := m.snap.Bodies[dynamo.Secondary].Position.Sub(m.snap.Bodies[dynamo.Primary].Position)
	row("Separation", fmt.Sprintf("%.0f km", sep.Len()/1e3))
	row("Samples", fmt.Sprintf("%d (every %d)", m.snap.Samples, m.engine.Decimation()))
	if m.period > 0 {
		revs := m.snap.Time / m.period
		row("Revolution", fmt.Sprintf("%d ", int(revs))+ProgressBar(revs-math.Floor(revs), 12, m.st.body[dynamo.Secondary]))
	}

	s.WriteString("\n" + Separator(36, m.st.muted) + "\n\n")

	names := make([]string, 0, len(m.snap.Metrics))
	for k := range m.snap.Metrics {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		row(metricLabel(k), formatMetric(k, m.snap.Metrics[k]))
	}

	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(5), asciigraph.Width(24), asciigraph.Caption("energy drift"))
		s.WriteString(m.st.graph.Render(chart) + "\n")
	}

	help := "s:start x:stop space:toggle r:reset q:quit"
	if m.showHelp {
		help = strings.Join([]string{
			"s      start stepping",
			"x      stop stepping",
			"space  toggle",
			"r      reset to initial conditions",
			"t      cycle theme (" + m.theme.Name + ")",
			"?      hide help",
			"q      quit",
		}, "\n")
	}
	s.WriteString(helpStyle.Render(help))

	statsView := statsStyle.Render(s.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
}

func metricLabel(name string) string {
	switch name {
	case "energy_drift":
		return "Energy drift"
	case "angular_momentum_drift":
		return "L drift"
	case "min_separation":
		return "Min sep"
	}
	return name
}

func formatMetric(name string, v float64) string {
	if name == "min_separation" {
		return fmt.Sprintf("%.0f km", v/1e3)
	}
	return fmt.Sprintf("%.3e", v)
}

// Run shows the live view until the user quits.
func Run(e *sim.Engine, fps int) error {
	p := tea.NewProgram(NewModel(e, fps), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
