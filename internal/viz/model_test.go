package viz

import (
	"context"
	"math"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/twobody/internal/config"
	"github.com/san-kum/twobody/internal/dynamo"
	"github.com/san-kum/twobody/internal/sim"
)

func TestProjection(t *testing.T) {
	p := NewProjection(200, 100, 1e8)

	if x, y, ok := p.ToScreen(dynamo.Vec2{}); !ok || x != 100 || y != 50 {
		t.Errorf("origin should map to centre, got (%d,%d,%v)", x, y, ok)
	}
	if _, y, _ := p.ToScreen(dynamo.Vec2{Y: 5e7}); y != 25 {
		t.Errorf("positive y should go up, got %d", y)
	}
	if x, _, ok := p.ToScreen(dynamo.Vec2{X: -1e8}); !ok || x != 50 {
		t.Errorf("reference distance should span half the short side, got %d", x)
	}
	if _, _, ok := p.ToScreen(dynamo.Vec2{X: math.NaN()}); ok {
		t.Error("NaN must not project")
	}
	if _, _, ok := p.ToScreen(dynamo.Vec2{X: 1e12}); ok {
		t.Error("points outside the canvas must not project")
	}
}

func TestDrawPathClips(t *testing.T) {
	c := NewCanvas(10, 5)
	w, h := c.PixelSize()
	p := NewProjection(w, h, 10)

	DrawPath(c, p, []dynamo.Vec2{{X: -1e15}, {X: 1e15}}, dynamo.Primary)
	_, cy, _ := p.ToScreen(dynamo.Vec2{})
	for x := 0; x < w; x++ {
		if !c.Lit(x, cy) {
			t.Fatalf("clipped line should cross the whole canvas, pixel %d unset", x)
		}
	}

	c.Clear()
	DrawPath(c, p, []dynamo.Vec2{{X: math.Inf(1)}, {X: 1}}, dynamo.Primary)
	DrawPath(c, p, []dynamo.Vec2{{X: 1e9, Y: 1e9}, {X: 2e9, Y: 1e9}}, dynamo.Primary)
	if strings.Trim(c.String(), string(blank)+"\n") != "" {
		t.Error("non-finite or off-canvas segments should draw nothing")
	}
}

func newTestModel(t *testing.T) (Model, *sim.Engine) {
	t.Helper()
	cfg := config.DefaultConfig()
	e, err := sim.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(e.Stop)
	return NewModel(e, 30), e
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelKeys(t *testing.T) {
	m, e := newTestModel(t)

	m = update(t, m, key("s"))
	if !e.Running() {
		t.Fatal("s should start the engine")
	}
	m = update(t, m, key("x"))
	if e.Running() {
		t.Fatal("x should stop the engine")
	}
	m = update(t, m, key(" "))
	if !e.Running() {
		t.Fatal("space should start a stopped engine")
	}
	m = update(t, m, key(" "))
	if e.Running() {
		t.Fatal("space should stop a running engine")
	}

	m = update(t, m, key("t"))
	if m.theme.Name == ThemeClassic.Name {
		t.Error("t should change the theme")
	}

	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should return tea.Quit")
	}
}

func TestModelIncrementalAndFullRedraw(t *testing.T) {
	m, e := newTestModel(t)
	if m.redraws != 1 || m.drawn != 1 {
		t.Fatalf("first refresh should draw the full history once, got redraws=%d drawn=%d", m.redraws, m.drawn)
	}

	if err := e.RunSteps(context.Background(), 20); err != nil {
		t.Fatal(err)
	}
	m = update(t, m, frameMsg{})
	if m.redraws != 1 {
		t.Errorf("new samples should be drawn incrementally, got %d full redraws", m.redraws)
	}
	if m.drawn != 21 || m.snap.Steps != 20 {
		t.Errorf("expected 21 drawn samples at step 20, got %d at %d", m.drawn, m.snap.Steps)
	}
	incremental := m.canvas.String()

	m.dirty = true
	m = update(t, m, frameMsg{})
	if m.canvas.String() != incremental {
		t.Error("incremental drawing should match a full redraw")
	}

	e.Reset()
	m = update(t, m, frameMsg{})
	if m.redraws != 3 {
		t.Errorf("a reset should force a full redraw, got %d", m.redraws)
	}
	if m.drawn != 1 || m.snap.Steps != 0 {
		t.Errorf("after reset expected one sample at step 0, got %d at %d", m.drawn, m.snap.Steps)
	}
	if len(m.energy) != 1 {
		t.Errorf("energy history should restart after reset, got %d points", len(m.energy))
	}
}

func TestModelResize(t *testing.T) {
	m, _ := newTestModel(t)
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	if m.canvas.Width != 120-panelWidth-2 || m.canvas.Height != 39 {
		t.Errorf("unexpected canvas size %dx%d", m.canvas.Width, m.canvas.Height)
	}
	if !m.dirty {
		t.Error("resize should request a full redraw")
	}
}

func TestModelView(t *testing.T) {
	m, e := newTestModel(t)
	if err := e.RunSteps(context.Background(), 10); err != nil {
		t.Fatal(err)
	}
	m = update(t, m, frameMsg{})

	out := m.View()
	for _, want := range []string{"TWO BODY", "RK4", "STOPPED", "Steps", "Energy drift", "●"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
