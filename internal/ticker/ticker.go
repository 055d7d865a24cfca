// Package ticker runs the stopwatch's periodic display refresh.
//
// A Ticker owns at most one recurring job. Starting a new job invalidates the
// previous one: every job carries a generation number, and a callback whose
// generation is no longer current is discarded even if it was already queued.
package ticker

import "time"

// Ticker schedules a single recurring callback.
type Ticker interface {
	// Start replaces any running job with one calling fn every interval.
	Start(interval time.Duration, fn func()) error
	// Stop cancels the running job. It is idempotent.
	Stop()
	// Active reports whether a job is scheduled.
	Active() bool
}

// Dispatcher hands a callback to the goroutine that must run it.
// The default dispatcher calls fn directly on the scheduler goroutine.
type Dispatcher func(fn func())

func direct(fn func()) { fn() }

// Noop is a Ticker that records Start/Stop but never fires. One-shot commands
// use it: they render once and exit before a tick could matter.
type Noop struct {
	active bool
}

func (n *Noop) Start(time.Duration, func()) error { n.active = true; return nil }
func (n *Noop) Stop()                             { n.active = false }
func (n *Noop) Active() bool                      { return n.active }
