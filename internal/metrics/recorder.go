package metrics

import "time"

// ActionLabel enumerates the user actions counted by IncAction.
type ActionLabel string

const (
	ActionStart  ActionLabel = "start"
	ActionStop   ActionLabel = "stop"
	ActionReset  ActionLabel = "reset"
	ActionToggle ActionLabel = "toggle"
)

// Recorder defines observability hooks for the stopwatch. Implementations
// may forward to Prometheus or a test double.
type Recorder interface {
	IncAction(action ActionLabel)
	IncTick()
	IncPersistFailure(key string)
	IncPersistRetry(key string)
	ObservePersistDuration(backend string, d time.Duration)
	SetElapsed(d time.Duration)
	SetRunning(running bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncAction(ActionLabel)                        {}
func (NoopRecorder) IncTick()                                     {}
func (NoopRecorder) IncPersistFailure(string)                     {}
func (NoopRecorder) IncPersistRetry(string)                       {}
func (NoopRecorder) ObservePersistDuration(string, time.Duration) {}
func (NoopRecorder) SetElapsed(time.Duration)                     {}
func (NoopRecorder) SetRunning(bool)                              {}
