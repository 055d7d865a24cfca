package timer

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/bgtimer/internal/foundation"
	foundationerrors "git.home.luguber.info/inful/bgtimer/internal/foundation/errors"
	"git.home.luguber.info/inful/bgtimer/internal/kvstore"
	"git.home.luguber.info/inful/bgtimer/internal/logfields"
	"git.home.luguber.info/inful/bgtimer/internal/metrics"
	"git.home.luguber.info/inful/bgtimer/internal/retry"
)

// Slot names in the key-value store.
const (
	StartTimeKey       = "START_TIME_KEY"
	StopTimeKey        = "STOP_TIME_KEY"
	IsTimerCountingKey = "IS_TIMER_COUNTING_KEY"
	// RunIDKey identifies the current run in the action journal. It is not part of the timer state.
	RunIDKey = "RUN_ID_KEY"
)

// Snapshot is the decoded content of the store.
type Snapshot struct {
	State State
	RunID string
}

// Repository maps State onto the store slots.
type Repository struct {
	store    kvstore.Store
	policy   retry.Policy
	sleeper  clockwork.Clock
	logger   *slog.Logger
	recorder metrics.Recorder
	backend  string
}

// NewRepository returns a repository over store. Retries wait on sleeper, which
// defaults to the real clock.
func NewRepository(store kvstore.Store, policy retry.Policy, logger *slog.Logger, recorder metrics.Recorder, backend string, sleeper clockwork.Clock) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if sleeper == nil {
		sleeper = clockwork.NewRealClock()
	}
	return &Repository{
		store:    store,
		policy:   policy,
		sleeper:  sleeper,
		logger:   logger,
		recorder: recorder,
		backend:  backend,
	}
}

// Load reads and reconciles the slots:
//
//	counting  start    stop     state
//	true      present  any      Running{start}; a stray stop is ignored
//	true      absent   any      Idle; counting is rewritten to false
//	false     present  present  Stopped{start, stop}
//	false     otherwise         Idle
//
// Unreadable or corrupt slots count as absent. The returned error is non-nil
// when a slot could not be read or the self-heal write failed; the snapshot is
// usable either way.
func (r *Repository) Load(ctx context.Context) (Snapshot, error) {
	var errs []error

	start, err := r.readTime(ctx, StartTimeKey)
	startReadFailed := err != nil
	errs = appendErr(errs, err)
	stop, err := r.readTime(ctx, StopTimeKey)
	errs = appendErr(errs, err)
	counting, err := r.readBool(ctx, IsTimerCountingKey)
	errs = appendErr(errs, err)
	runID, err := r.read(ctx, RunIDKey)
	errs = appendErr(errs, err)

	var state State = Idle{}
	startAt, hasStart := start.Get()
	stopAt, hasStop := stop.Get()
	switch {
	case counting && hasStart:
		state = Running{Start: startAt}
		if hasStop {
			r.logger.Debug("ignoring stop time of a running timer", logfields.StopTime(stopAt))
		}
	case counting && !startReadFailed:
		r.logger.Warn("timer marked as counting without a start time; resetting flag")
		errs = appendErr(errs, r.SetCounting(ctx, false))
	case hasStart && hasStop:
		state = Stopped{Start: startAt, Stop: stopAt}
	}

	return Snapshot{State: state, RunID: runID.UnwrapOr("")}, errors.Join(errs...)
}

// SetStart persists the start instant.
func (r *Repository) SetStart(ctx context.Context, t time.Time) error {
	return r.set(ctx, StartTimeKey, encodeTime(t))
}

// ClearStart deletes the start instant.
func (r *Repository) ClearStart(ctx context.Context) error {
	return r.delete(ctx, StartTimeKey)
}

// SetStop persists the stop instant.
func (r *Repository) SetStop(ctx context.Context, t time.Time) error {
	return r.set(ctx, StopTimeKey, encodeTime(t))
}

// ClearStop deletes the stop instant.
func (r *Repository) ClearStop(ctx context.Context) error {
	return r.delete(ctx, StopTimeKey)
}

// SetCounting persists the counting flag.
func (r *Repository) SetCounting(ctx context.Context, counting bool) error {
	return r.set(ctx, IsTimerCountingKey, strconv.FormatBool(counting))
}

// SetRunID persists the journal run identifier.
func (r *Repository) SetRunID(ctx context.Context, id string) error {
	return r.set(ctx, RunIDKey, id)
}

// ClearRunID deletes the journal run identifier.
func (r *Repository) ClearRunID(ctx context.Context) error {
	return r.delete(ctx, RunIDKey)
}

func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func (r *Repository) read(ctx context.Context, key string) (foundation.Option[string], error) {
	v, err := r.store.Get(ctx, key)
	if err != nil {
		r.logger.Warn("failed to read timer state", logfields.StorageKey(key), logfields.Error(err))
		return foundation.None[string](), foundationerrors.WrapError(err, foundationerrors.CategoryStorage, "failed to read "+key).
			Warning().
			WithContext("key", key).
			Build()
	}
	return v, nil
}

func (r *Repository) readTime(ctx context.Context, key string) (foundation.Option[time.Time], error) {
	raw, err := r.read(ctx, key)
	if err != nil {
		return foundation.None[time.Time](), err
	}
	return foundation.FlatMapOption(raw, func(s string) foundation.Option[time.Time] {
		t, perr := time.Parse(time.RFC3339Nano, s)
		if perr != nil {
			r.logger.Warn("ignoring corrupt timestamp", logfields.StorageKey(key), slog.String("value", s))
			return foundation.None[time.Time]()
		}
		return foundation.Some(t)
	}), nil
}

func (r *Repository) readBool(ctx context.Context, key string) (bool, error) {
	raw, err := r.read(ctx, key)
	if err != nil {
		return false, err
	}
	return foundation.FlatMapOption(raw, func(s string) foundation.Option[bool] {
		b, perr := strconv.ParseBool(s)
		if perr != nil {
			r.logger.Warn("ignoring corrupt flag", logfields.StorageKey(key), slog.String("value", s))
			return foundation.None[bool]()
		}
		return foundation.Some(b)
	}).UnwrapOr(false), nil
}

func (r *Repository) set(ctx context.Context, key, value string) error {
	return r.write(ctx, key, func(ctx context.Context) error { return r.store.Set(ctx, key, value) })
}

func (r *Repository) delete(ctx context.Context, key string) error {
	return r.write(ctx, key, func(ctx context.Context) error { return r.store.Delete(ctx, key) })
}

// write runs op with retries. A final failure is logged, counted and returned
// as a warning-severity storage error.
func (r *Repository) write(ctx context.Context, key string, op func(context.Context) error) error {
	began := time.Now()
	err := r.policy.Do(ctx, r.sleeper, op, func(attempt int, cause error) {
		r.recorder.IncPersistRetry(key)
		r.logger.Debug("retrying state write", logfields.StorageKey(key), logfields.Attempt(attempt), logfields.Error(cause))
	})
	r.recorder.ObservePersistDuration(r.backend, time.Since(began))
	if err == nil {
		return nil
	}

	r.recorder.IncPersistFailure(key)
	r.logger.Warn("failed to persist timer state", logfields.StorageKey(key), logfields.Backend(r.backend), logfields.Error(err))
	return foundationerrors.WrapError(err, foundationerrors.CategoryStorage, "failed to persist "+key).
		Warning().
		WithContext("key", key).
		WithContext("backend", r.backend).
		Build()
}

func appendErr(errs []error, err error) []error {
	if err != nil {
		return append(errs, err)
	}
	return errs
}
