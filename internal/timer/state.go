package timer

import (
	"fmt"
	"time"
)

// Phase names the variant of a State.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseRunning Phase = "running"
	PhaseStopped Phase = "stopped"
)

// State is the stopwatch state: exactly one of Idle, Running or Stopped.
type State interface {
	Phase() Phase
	// Elapsed returns the accumulated time at now. It is never negative.
	Elapsed(now time.Time) time.Duration
	isState()
}

// Idle is the initial and post-reset state.
type Idle struct{}

// Running accumulates time since Start. Start is shifted forward on resume so
// that now-Start excludes every pause.
type Running struct {
	Start time.Time
}

// Stopped holds the accumulated Stop-Start.
type Stopped struct {
	Start time.Time
	Stop  time.Time
}

func (Idle) Phase() Phase    { return PhaseIdle }
func (Running) Phase() Phase { return PhaseRunning }
func (Stopped) Phase() Phase { return PhaseStopped }

func (Idle) Elapsed(time.Time) time.Duration { return 0 }

func (s Running) Elapsed(now time.Time) time.Duration { return nonNegative(now.Sub(s.Start)) }

func (s Stopped) Elapsed(time.Time) time.Duration { return nonNegative(s.Stop.Sub(s.Start)) }

func (Idle) isState()    {}
func (Running) isState() {}
func (Stopped) isState() {}

func (Idle) String() string      { return "Idle" }
func (s Running) String() string { return fmt.Sprintf("Running{%s}", s.Start.Format(time.RFC3339Nano)) }
func (s Stopped) String() string {
	return fmt.Sprintf("Stopped{%s, %s}", s.Start.Format(time.RFC3339Nano), s.Stop.Format(time.RFC3339Nano))
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
