package sim

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Status int

const (
	Stopped Status = iota
	Running
)

func (s Status) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

func (e *Engine) Status() Status {
	if e.running.Load() {
		return Running
	}
	return Stopped
}

func (e *Engine) Running() bool { return e.running.Load() }

// Start begins stepping at the configured cadence. The first step runs
// immediately. Calling Start on a running engine does nothing.
func (e *Engine) Start() {
	e.ctl.Lock()
	defer e.ctl.Unlock()

	if e.running.Load() {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	e.cancel, e.done = cancel, done
	e.running.Store(true)

	go e.loop(ctx, done)
	e.log.Info("simulation started", zap.Duration("period", e.period))
}

// Stop cancels future steps and waits for an in-flight step to finish. No
// step runs after Stop returns. Calling Stop on a stopped engine does
// nothing.
func (e *Engine) Stop() {
	e.ctl.Lock()
	defer e.ctl.Unlock()
	e.stopLocked()
}

func (e *Engine) stopLocked() {
	if !e.running.Load() {
		return
	}
	e.cancel()
	<-e.done
	e.cancel, e.done = nil, nil
	e.running.Store(false)

	e.mu.Lock()
	steps := e.steps
	e.mu.Unlock()
	e.log.Info("simulation stopped", zap.Int64("steps", steps))
}

// Reset stops a running engine, then restores the configured initial
// conditions and a single-sample history. It does not restart.
func (e *Engine) Reset() {
	e.ctl.Lock()
	defer e.ctl.Unlock()
	e.stopLocked()

	e.mu.Lock()
	e.state = e.x0.Clone()
	e.steps = 0
	e.unsampled = 0
	e.recorder.Reset(e.x0)
	e.resets++
	for _, m := range e.metrics {
		m.Reset()
	}
	e.observe()
	e.mu.Unlock()

	e.notify()
	e.log.Info("simulation reset")
}

// loop is the single worker of a running engine. time.Ticker drops ticks a
// slow step could not consume, so a late tick never fires twice.
func (e *Engine) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(e.period)
	defer ticker.Stop()

	e.tick()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			e.tick()
		}
	}
}
