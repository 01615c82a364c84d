// Package trajectory records the sampled path of each body.
package trajectory

import "github.com/san-kum/twobody/internal/dynamo"

// Recorder is an append-only history of positions per body. Insertion order
// is chronological. Recorder is not safe for concurrent use; the engine
// guards it with its state lock.
type Recorder struct {
	paths [2][]dynamo.Vec2
	steps []int64
}

// NewRecorder starts a history holding the positions of x at step 0.
func NewRecorder(x dynamo.State) *Recorder {
	r := &Recorder{}
	r.Reset(x)
	return r
}

// Sample appends the current position of each body.
func (r *Recorder) Sample(step int64, x dynamo.State) {
	for _, b := range dynamo.Bodies {
		r.paths[b] = append(r.paths[b], x.Position(b))
	}
	r.steps = append(r.steps, step)
}

// Reset discards the history and keeps a single sample of x. Fresh slices
// are allocated so that histories handed out earlier stay unchanged.
func (r *Recorder) Reset(x dynamo.State) {
	for _, b := range dynamo.Bodies {
		r.paths[b] = []dynamo.Vec2{x.Position(b)}
	}
	r.steps = []int64{0}
}

// Len is the number of samples per body.
func (r *Recorder) Len() int { return len(r.steps) }

// LastSegment returns the two most recent samples of body b, oldest first.
// ok is false while only the initial sample exists.
func (r *Recorder) LastSegment(b dynamo.BodyID) (from, to dynamo.Vec2, ok bool) {
	p := r.paths[b]
	if len(p) < 2 {
		return p[0], p[0], false
	}
	return p[len(p)-2], p[len(p)-1], true
}

// FullHistory returns every sample of body b in order. The slice is clipped
// to its length, so later appends never write into it and it may be
// retained by the caller.
func (r *Recorder) FullHistory(b dynamo.BodyID) []dynamo.Vec2 {
	p := r.paths[b]
	return p[:len(p):len(p)]
}

// Steps returns the step number of every sample, aligned with FullHistory.
func (r *Recorder) Steps() []int64 {
	return r.steps[:len(r.steps):len(r.steps)]
}

// Since returns the samples of body b with index >= from, for incremental
// drawing. from is clamped to the history.
func (r *Recorder) Since(b dynamo.BodyID, from int) []dynamo.Vec2 {
	p := r.FullHistory(b)
	if from < 0 {
		from = 0
	}
	if from > len(p) {
		from = len(p)
	}
	return p[from:]
}
