// Package timer implements the stopwatch engine: its state, transitions,
// persistence and the HH:MM:SS rendering of elapsed time.
package timer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/qmuntal/stateless"

	"git.home.luguber.info/inful/bgtimer/internal/config"
	foundationerrors "git.home.luguber.info/inful/bgtimer/internal/foundation/errors"
	"git.home.luguber.info/inful/bgtimer/internal/journal"
	"git.home.luguber.info/inful/bgtimer/internal/kvstore"
	"git.home.luguber.info/inful/bgtimer/internal/logfields"
	"git.home.luguber.info/inful/bgtimer/internal/metrics"
	"git.home.luguber.info/inful/bgtimer/internal/retry"
	"git.home.luguber.info/inful/bgtimer/internal/ticker"
)

// Display receives the rendered elapsed time.
type Display interface {
	Render(label string)
}

// Listener is told whenever the engine settles into running or not running.
type Listener interface {
	RunningChanged(running bool)
}

// DisplayFunc adapts a function to Display.
type DisplayFunc func(label string)

func (f DisplayFunc) Render(label string) { f(label) }

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(running bool)

func (f ListenerFunc) RunningChanged(running bool) { f(running) }

// Engine owns the stopwatch state. It is not safe for concurrent use: every
// method, including tick callbacks, must run on one goroutine.
type Engine struct {
	repo     *Repository
	clock    clockwork.Clock
	ticker   ticker.Ticker
	interval time.Duration
	display  Display
	listener Listener
	logger   *slog.Logger
	recorder metrics.Recorder
	journal  journal.Recorder
	newRunID func() string

	machine *stateless.StateMachine
	phase   Phase
	state   State
	runID   string

	// warnings collects persistence failures of the action in progress.
	warnings []error
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	interval     time.Duration
	display      Display
	listener     Listener
	logger       *slog.Logger
	recorder     metrics.Recorder
	journal      journal.Recorder
	policy       retry.Policy
	backend      string
	retryClock   clockwork.Clock
	runIDFactory func() string
}

// WithInterval sets the tick interval (default 100ms).
func WithInterval(d time.Duration) Option {
	return func(o *engineOptions) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithDisplay sets the display sink.
func WithDisplay(d Display) Option { return func(o *engineOptions) { o.display = d } }

// WithListener sets the running-state listener.
func WithListener(l Listener) Option { return func(o *engineOptions) { o.listener = l } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(o *engineOptions) { o.logger = l } }

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option { return func(o *engineOptions) { o.recorder = r } }

// WithJournal records every action to j.
func WithJournal(j journal.Recorder) Option { return func(o *engineOptions) { o.journal = j } }

// WithRetryPolicy sets the retry policy for state writes.
func WithRetryPolicy(p retry.Policy) Option { return func(o *engineOptions) { o.policy = p } }

// WithBackendName labels persistence metrics and logs.
func WithBackendName(name string) Option { return func(o *engineOptions) { o.backend = name } }

// WithRetryClock sets the clock retry backoff waits on.
func WithRetryClock(c clockwork.Clock) Option { return func(o *engineOptions) { o.retryClock = c } }

// WithRunIDFactory replaces uuid.NewString for run identifiers.
func WithRunIDFactory(f func() string) Option { return func(o *engineOptions) { o.runIDFactory = f } }

// NewEngine creates an engine over store. It starts Idle; call Initialize to
// load the persisted state.
func NewEngine(store kvstore.Store, clock clockwork.Clock, tk ticker.Ticker, opts ...Option) *Engine {
	o := engineOptions{
		interval:     config.DefaultTickInterval,
		display:      DisplayFunc(func(string) {}),
		listener:     ListenerFunc(func(bool) {}),
		logger:       slog.Default(),
		recorder:     metrics.NoopRecorder{},
		journal:      journal.Discard{},
		policy:       retry.DefaultPolicy(),
		backend:      "unknown",
		runIDFactory: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if tk == nil {
		tk = &ticker.Noop{}
	}

	e := &Engine{
		repo:     NewRepository(store, o.policy, o.logger, o.recorder, o.backend, o.retryClock),
		clock:    clock,
		ticker:   tk,
		interval: o.interval,
		display:  o.display,
		listener: o.listener,
		logger:   o.logger,
		recorder: o.recorder,
		journal:  o.journal,
		newRunID: o.runIDFactory,
		phase:    PhaseIdle,
		state:    Idle{},
	}
	e.machine = newMachine(e)
	return e
}

// Initialize loads the persisted state and renders it once.
//
// A running timer resumes ticking from its stored start. A stopped timer shows
// its accumulated time without ticking. The returned error reports unreadable
// slots or a failed self-heal; the engine is usable either way.
func (e *Engine) Initialize(ctx context.Context) error {
	e.ticker.Stop()

	snap, err := e.repo.Load(ctx)
	e.state = snap.State
	e.phase = snap.State.Phase()
	e.runID = snap.RunID

	now := e.clock.Now()
	switch s := e.state.(type) {
	case Running:
		e.startTicking()
		e.render(s.Elapsed(now))
	case Stopped:
		virtual := now.Add(s.Start.Sub(s.Stop))
		e.render(nonNegative(now.Sub(virtual)))
	default:
		e.render(0)
	}
	e.notify()

	e.logger.Info("timer initialized", logfields.Phase(string(e.phase)), logfields.Elapsed(e.Formatted()))
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryStorage, "timer state partially unreadable").
			Warning().
			Build()
	}
	return nil
}

// Start begins or resumes counting. It does nothing while running.
func (e *Engine) Start(ctx context.Context) error {
	e.recorder.IncAction(metrics.ActionStart)
	return e.fire(ctx, triggerStart)
}

// Stop pauses counting. It does nothing unless running.
func (e *Engine) Stop(ctx context.Context) error {
	e.recorder.IncAction(metrics.ActionStop)
	return e.fire(ctx, triggerStop)
}

// Reset clears all state and shows zero. It is allowed in every state.
func (e *Engine) Reset(ctx context.Context) error {
	e.recorder.IncAction(metrics.ActionReset)
	return e.fire(ctx, triggerReset)
}

// Toggle stops a running timer and starts any other.
func (e *Engine) Toggle(ctx context.Context) error {
	e.recorder.IncAction(metrics.ActionToggle)
	if e.Running() {
		return e.Stop(ctx)
	}
	return e.Start(ctx)
}

// Tick refreshes the display. A tick that arrives while not running cancels
// the ticker and renders the current snapshot.
func (e *Engine) Tick() {
	e.recorder.IncTick()
	if s, ok := e.state.(Running); ok {
		e.render(s.Elapsed(e.clock.Now()))
		return
	}
	e.ticker.Stop()
	e.render(e.Elapsed())
}

// Elapsed returns the accumulated time.
func (e *Engine) Elapsed() time.Duration {
	return e.state.Elapsed(e.clock.Now())
}

// Formatted returns Elapsed as HH:MM:SS.
func (e *Engine) Formatted() string {
	return FormatDuration(e.Elapsed())
}

// Running reports whether the timer is counting.
func (e *Engine) Running() bool {
	return e.phase == PhaseRunning
}

// State returns the current state.
func (e *Engine) State() State {
	return e.state
}

// RunID returns the journal identifier of the current run, empty while idle.
func (e *Engine) RunID() string {
	return e.runID
}

func (e *Engine) fire(ctx context.Context, t trigger) error {
	e.warnings = nil
	if err := e.machine.FireCtx(ctx, t); err != nil {
		return foundationerrors.InternalError("timer transition failed").
			WithCause(err).
			WithContext("action", string(t)).
			Build()
	}
	if len(e.warnings) == 0 {
		return nil
	}
	err := foundationerrors.StorageError("timer state not fully persisted").
		WithCause(errors.Join(e.warnings...)).
		Warning().
		WithContext("action", string(t)).
		Build()
	e.warnings = nil
	return err
}

func (e *Engine) warn(err error) {
	if err != nil {
		e.warnings = append(e.warnings, err)
	}
}

// enterRunning handles start from Idle and resume from Stopped.
func (e *Engine) enterRunning(ctx context.Context, _ ...any) error {
	now := e.clock.Now()

	event := journal.EventStarted
	restart := now
	if s, ok := e.state.(Stopped); ok {
		restart = now.Add(s.Start.Sub(s.Stop))
		event = journal.EventResumed
	}
	e.state = Running{Start: restart}

	e.warn(e.repo.SetStart(ctx, restart))
	e.warn(e.repo.ClearStop(ctx))
	e.warn(e.repo.SetCounting(ctx, true))
	if event == journal.EventStarted || e.runID == "" {
		e.runID = e.newRunID()
		e.warn(e.repo.SetRunID(ctx, e.runID))
	}

	e.startTicking()
	elapsed := e.state.Elapsed(now)
	e.render(elapsed)
	e.notify()

	e.record(ctx, event, now, elapsed)
	e.logger.Info("timer started", logfields.Action(string(event)), logfields.StartTime(restart), logfields.RunID(e.runID))
	return nil
}

// enterStopped handles stop from Running.
func (e *Engine) enterStopped(ctx context.Context, _ ...any) error {
	now := e.clock.Now()
	start := now
	if s, ok := e.state.(Running); ok {
		start = s.Start
	}

	e.warn(e.repo.SetStop(ctx, now))
	e.ticker.Stop()
	e.warn(e.repo.SetCounting(ctx, false))
	e.state = Stopped{Start: start, Stop: now}

	elapsed := e.state.Elapsed(now)
	e.render(elapsed)
	e.notify()

	e.record(ctx, journal.EventStopped, now, elapsed)
	e.logger.Info("timer stopped", logfields.StopTime(now), logfields.Elapsed(FormatDuration(elapsed)), logfields.RunID(e.runID))
	return nil
}

// enterIdle handles reset from every phase.
func (e *Engine) enterIdle(ctx context.Context, _ ...any) error {
	now := e.clock.Now()
	elapsed := e.state.Elapsed(now)
	runID := e.runID

	e.warn(e.repo.ClearStop(ctx))
	e.warn(e.repo.ClearStart(ctx))
	e.render(0)
	e.ticker.Stop()
	e.warn(e.repo.SetCounting(ctx, false))
	if runID != "" {
		e.warn(e.repo.ClearRunID(ctx))
	}
	e.state = Idle{}
	e.runID = ""
	e.notify()

	if runID != "" {
		e.recordRun(ctx, runID, journal.EventReset, now, elapsed)
	}
	e.logger.Info("timer reset", logfields.Elapsed(FormatDuration(elapsed)), logfields.RunID(runID))
	return nil
}

func (e *Engine) startTicking() {
	if err := e.ticker.Start(e.interval, e.Tick); err != nil {
		e.logger.Error("failed to start ticker", logfields.Interval(e.interval), logfields.Error(err))
	}
}

func (e *Engine) render(elapsed time.Duration) {
	e.recorder.SetElapsed(elapsed)
	e.display.Render(FormatDuration(elapsed))
}

func (e *Engine) notify() {
	running := e.Running()
	e.recorder.SetRunning(running)
	e.listener.RunningChanged(running)
}

func (e *Engine) record(ctx context.Context, event journal.EventType, at time.Time, elapsed time.Duration) {
	e.recordRun(ctx, e.runID, event, at, elapsed)
}

// recordRun appends to the journal. Journal failures are logged only.
func (e *Engine) recordRun(ctx context.Context, runID string, event journal.EventType, at time.Time, elapsed time.Duration) {
	if err := e.journal.Record(ctx, runID, event, at, elapsed); err != nil {
		e.logger.Warn("failed to journal timer action", logfields.Action(string(event)), logfields.RunID(runID), logfields.Error(err))
	}
}
