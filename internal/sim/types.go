package sim

import (
	"maps"

	"github.com/san-kum/twobody/internal/dynamo"
)

// View exposes the engine state to a rendering collaborator. A View is
// only valid inside the Read callback that received it.
type View struct {
	e *Engine
}

// Read calls fn while holding the state lock, so every query made through
// the View sees the same step. fn must not call other Engine methods.
func (e *Engine) Read(fn func(v View)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(View{e: e})
}

// CurrentPosition is the position of body b after the latest step, which
// may be newer than the latest recorded sample.
func (v View) CurrentPosition(b dynamo.BodyID) dynamo.Vec2 {
	return v.e.state.Position(b)
}

func (v View) CurrentVelocity(b dynamo.BodyID) dynamo.Vec2 {
	return v.e.state.Velocity(b)
}

// FullHistory returns every recorded sample of body b. The slice is never
// modified afterwards and may be kept.
func (v View) FullHistory(b dynamo.BodyID) []dynamo.Vec2 {
	return v.e.recorder.FullHistory(b)
}

// HistorySince returns the samples of body b from index from onward.
func (v View) HistorySince(b dynamo.BodyID, from int) []dynamo.Vec2 {
	return v.e.recorder.Since(b, from)
}

// LastSegment returns the two most recent samples of body b.
func (v View) LastSegment(b dynamo.BodyID) (from, to dynamo.Vec2, ok bool) {
	return v.e.recorder.LastSegment(b)
}

func (v View) SampleCount() int { return v.e.recorder.Len() }

func (v View) SampleSteps() []int64 { return v.e.recorder.Steps() }

func (v View) Steps() int64 { return v.e.steps }

// Generation counts resets. A renderer that drew an older generation must
// start over from the full history.
func (v View) Generation() uint64 { return v.e.resets }

// Time is the simulated time in seconds.
func (v View) Time() float64 { return float64(v.e.steps) * v.e.dt }

func (v View) State() dynamo.State { return v.e.state.Clone() }

func (v View) Metrics() map[string]float64 {
	out := make(map[string]float64, len(v.e.metrics))
	for _, m := range v.e.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

type BodySnapshot struct {
	Position   dynamo.Vec2    `json:"position"`
	Velocity   dynamo.Vec2    `json:"velocity"`
	Segment    [2]dynamo.Vec2 `json:"segment"`
	HasSegment bool           `json:"has_segment"`
}

// Snapshot is a self-contained copy of the engine state.
type Snapshot struct {
	Steps   int64              `json:"steps"`
	Time    float64            `json:"time"`
	Status  string             `json:"status"`
	Samples int                `json:"samples"`
	Valid   bool               `json:"valid"`
	Bodies  [2]BodySnapshot    `json:"bodies"`
	Metrics map[string]float64 `json:"metrics"`
}

func (e *Engine) Snapshot() Snapshot {
	var s Snapshot
	e.Read(func(v View) {
		s = v.Snapshot()
	})
	s.Status = e.Status().String()
	return s
}

func (v View) Snapshot() Snapshot {
	s := Snapshot{
		Steps:   v.Steps(),
		Time:    v.Time(),
		Status:  v.e.Status().String(),
		Samples: v.SampleCount(),
		Valid:   v.e.state.IsValid(),
		Metrics: v.Metrics(),
	}
	for _, b := range dynamo.Bodies {
		from, to, ok := v.LastSegment(b)
		s.Bodies[b] = BodySnapshot{
			Position:   v.CurrentPosition(b),
			Velocity:   v.CurrentVelocity(b),
			Segment:    [2]dynamo.Vec2{from, to},
			HasSegment: ok,
		}
	}
	return s
}

// Metrics returns the current metric values.
func (e *Engine) Metrics() map[string]float64 {
	var out map[string]float64
	e.Read(func(v View) {
		out = maps.Clone(v.Metrics())
	})
	return out
}
