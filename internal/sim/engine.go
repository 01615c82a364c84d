package sim

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/san-kum/twobody/internal/config"
	"github.com/san-kum/twobody/internal/dynamo"
	"github.com/san-kum/twobody/internal/integrators"
	"github.com/san-kum/twobody/internal/logging"
	"github.com/san-kum/twobody/internal/metrics"
	"github.com/san-kum/twobody/internal/physics"
	"github.com/san-kum/twobody/internal/trajectory"
	"go.uber.org/zap"
)

// Engine owns the simulation state and drives it at a fixed rate.
//
// Lock order: ctl, then mu, then subMu. Metrics run under mu and must not
// call back into the engine.
type Engine struct {
	cfg        config.Config
	model      *physics.TwoBody
	integrator dynamo.Integrator
	x0         dynamo.State
	dt         float64
	decimation int
	period     time.Duration
	log        *zap.Logger

	// mu guards everything a tick mutates.
	mu        sync.Mutex
	state     dynamo.State
	steps     int64
	unsampled int
	recorder  *trajectory.Recorder
	metrics   []dynamo.Metric
	resets    uint64

	// ctl serialises lifecycle commands.
	ctl     sync.Mutex
	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}

	subMu   sync.Mutex
	subs    map[int]chan struct{}
	nextSub int
}

type Option func(*Engine)

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = logging.OrNop(l) }
}

// WithMetrics replaces the default metrics.
func WithMetrics(ms ...dynamo.Metric) Option {
	return func(e *Engine) { e.metrics = ms }
}

// New validates cfg and builds a stopped engine at the configured initial
// conditions. cfg is copied; later changes to it have no effect.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	integ, err := integrators.New(cfg.Algorithm)
	if err != nil {
		return nil, err
	}

	model := physics.NewTwoBody(cfg.GravitationalConstant, cfg.Primary.Mass, cfg.Secondary.Mass, cfg.Alpha)
	x0 := cfg.InitialState()

	e := &Engine{
		cfg:        *cfg,
		model:      model,
		integrator: integ,
		x0:         x0,
		dt:         cfg.TimeStep,
		decimation: cfg.DecimationFactor(),
		period:     cfg.StepDelay(),
		log:        zap.NewNop(),
		state:      x0.Clone(),
		recorder:   trajectory.NewRecorder(x0),
		metrics:    metrics.Defaults(model),
		subs:       make(map[int]chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.observe()

	e.log.Debug("engine created",
		zap.String("algorithm", cfg.Algorithm),
		zap.Float64("dt", e.dt),
		zap.Int("decimation", e.decimation),
		zap.Duration("period", e.period),
	)
	return e, nil
}

// tick performs one integration step and, every decimation-th step, records
// a sample. The whole update happens under mu so readers never see a
// partially written state.
func (e *Engine) tick() {
	e.mu.Lock()
	e.state = e.integrator.Step(e.model, e.state, e.dt)
	e.steps++
	e.unsampled++
	sampled := false
	if e.unsampled >= e.decimation {
		e.recorder.Sample(e.steps, e.state)
		e.observe()
		e.unsampled = 0
		sampled = true
	}
	e.mu.Unlock()

	if sampled {
		e.notify()
	}
}

// observe feeds the current state to every metric. Caller holds mu.
func (e *Engine) observe() {
	t := float64(e.steps) * e.dt
	for _, m := range e.metrics {
		m.Observe(e.state, t)
	}
}

// RunSteps advances the simulation by n steps on the calling goroutine,
// through the same tick path as the scheduler. It fails with
// dynamo.ErrRunning while the scheduler is running.
func (e *Engine) RunSteps(ctx context.Context, n int) error {
	e.ctl.Lock()
	defer e.ctl.Unlock()

	if e.running.Load() {
		return dynamo.ErrRunning
	}
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		e.tick()
	}
	return nil
}

// Subscribe returns a channel that receives a value whenever new trajectory
// samples are available, and a function that ends the subscription.
// Notifications coalesce: a slow reader sees one pending signal, not one
// per sample.
func (e *Engine) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	e.subMu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = ch
	e.subMu.Unlock()

	return ch, func() {
		e.subMu.Lock()
		delete(e.subs, id)
		e.subMu.Unlock()
	}
}

func (e *Engine) notify() {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for _, ch := range e.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (e *Engine) Config() config.Config      { return e.cfg }
func (e *Engine) Model() *physics.TwoBody    { return e.model }
func (e *Engine) Decimation() int            { return e.decimation }
func (e *Engine) Period() time.Duration      { return e.period }
func (e *Engine) InitialState() dynamo.State { return e.x0.Clone() }
