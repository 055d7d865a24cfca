package ticker

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/bgtimer/internal/logfields"
)

// GocronTicker implements Ticker on a gocron scheduler.
type GocronTicker struct {
	scheduler gocron.Scheduler
	dispatch  Dispatcher
	logger    *slog.Logger

	mu    sync.Mutex
	jobID uuid.UUID
	has   bool

	// gen is bumped on every Start and Stop; callbacks compare against it.
	gen atomic.Uint64
}

// Option configures a GocronTicker.
type Option func(*options)

type options struct {
	clock    clockwork.Clock
	dispatch Dispatcher
	logger   *slog.Logger
}

// WithClock sets the clock the scheduler runs on.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithDispatcher routes callbacks through d instead of calling them on the scheduler goroutine.
func WithDispatcher(d Dispatcher) Option {
	return func(o *options) { o.dispatch = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// NewGocronTicker creates and starts the underlying scheduler. Call Close to release it.
func NewGocronTicker(opts ...Option) (*GocronTicker, error) {
	o := options{clock: clockwork.NewRealClock(), dispatch: direct, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	s, err := gocron.NewScheduler(gocron.WithClock(o.clock))
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	s.Start()

	return &GocronTicker{scheduler: s, dispatch: o.dispatch, logger: o.logger}, nil
}

// Start replaces the current job with one firing every interval.
func (t *GocronTicker) Start(interval time.Duration, fn func()) error {
	if interval <= 0 {
		return errors.New("ticker interval must be positive")
	}
	if fn == nil {
		return errors.New("ticker callback is nil")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.removeLocked()
	gen := t.gen.Add(1)

	job, err := t.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(t.fire, gen, fn),
		gocron.WithName(fmt.Sprintf("tick-%d", gen)),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create tick job: %w", err)
	}
	t.jobID = job.ID()
	t.has = true

	t.logger.Debug("tick job scheduled", logfields.JobID(job.ID().String()), logfields.Interval(interval))
	return nil
}

// fire runs on the scheduler goroutine.
func (t *GocronTicker) fire(gen uint64, fn func()) {
	if t.gen.Load() != gen {
		return
	}
	t.dispatch(func() {
		// re-checked on the receiving side: Stop may have run while this was queued
		if t.gen.Load() == gen {
			fn()
		}
	})
}

// Stop cancels the current job.
func (t *GocronTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.removeLocked()
}

func (t *GocronTicker) removeLocked() {
	t.gen.Add(1)
	if !t.has {
		return
	}
	if err := t.scheduler.RemoveJob(t.jobID); err != nil && !errors.Is(err, gocron.ErrJobNotFound) {
		t.logger.Warn("failed to remove tick job", logfields.JobID(t.jobID.String()), logfields.Error(err))
	}
	t.has = false
}

// Active reports whether a job is scheduled.
func (t *GocronTicker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.has
}

// Close stops the job and shuts the scheduler down.
func (t *GocronTicker) Close() error {
	t.Stop()
	return t.scheduler.Shutdown()
}
