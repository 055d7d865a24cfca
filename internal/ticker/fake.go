package ticker

import (
	"sync"
	"time"
)

// Fake is a manually driven Ticker for tests.
type Fake struct {
	mu       sync.Mutex
	fn       func()
	interval time.Duration
	active   bool
	starts   int
	stops    int
}

var _ Ticker = (*Fake)(nil)

func (f *Fake) Start(interval time.Duration, fn func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fn = fn
	f.interval = interval
	f.active = true
	f.starts++
	return nil
}

func (f *Fake) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fn = nil
	f.active = false
	f.stops++
}

func (f *Fake) Active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

// Fire invokes the current callback once. It reports false when no job is active.
func (f *Fake) Fire() bool {
	f.mu.Lock()
	fn := f.fn
	f.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}

// Interval returns the interval passed to the last Start.
func (f *Fake) Interval() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.interval
}

// Starts returns how many times Start was called.
func (f *Fake) Starts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

// Stops returns how many times Stop was called.
func (f *Fake) Stops() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}
