package timer

import (
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/bgtimer/internal/kvstore"
	"git.home.luguber.info/inful/bgtimer/internal/metrics"
	"git.home.luguber.info/inful/bgtimer/internal/ticker"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type recordingDisplay struct {
	labels []string
}

func (d *recordingDisplay) Render(label string) { d.labels = append(d.labels, label) }

func (d *recordingDisplay) last() string {
	if len(d.labels) == 0 {
		return ""
	}
	return d.labels[len(d.labels)-1]
}

type recordingListener struct {
	calls []bool
}

func (l *recordingListener) RunningChanged(running bool) { l.calls = append(l.calls, running) }

func (l *recordingListener) last() (bool, bool) {
	if len(l.calls) == 0 {
		return false, false
	}
	return l.calls[len(l.calls)-1], true
}

// countingRecorder is a metrics.Recorder for assertions.
type countingRecorder struct {
	mu       sync.Mutex
	actions  map[metrics.ActionLabel]int
	ticks    int
	failures map[string]int
	retries  map[string]int
	running  bool
	elapsed  time.Duration
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{actions: map[metrics.ActionLabel]int{}, failures: map[string]int{}, retries: map[string]int{}}
}

func (r *countingRecorder) IncAction(a metrics.ActionLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[a]++
}

func (r *countingRecorder) IncTick() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks++
}

func (r *countingRecorder) IncPersistFailure(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[key]++
}

func (r *countingRecorder) IncPersistRetry(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retries[key]++
}

func (r *countingRecorder) ObservePersistDuration(string, time.Duration) {}

func (r *countingRecorder) SetElapsed(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.elapsed = d
}

func (r *countingRecorder) SetRunning(running bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = running
}

// harness is one "screen": an engine plus its collaborators.
type harness struct {
	engine   *Engine
	clock    *clockwork.FakeClock
	ticker   *ticker.Fake
	display  *recordingDisplay
	listener *recordingListener
}

func newHarness(t *testing.T, store kvstore.Store, clock *clockwork.FakeClock, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		clock:    clock,
		ticker:   &ticker.Fake{},
		display:  &recordingDisplay{},
		listener: &recordingListener{},
	}
	opts = append([]Option{WithDisplay(h.display), WithListener(h.listener), WithBackendName("memory")}, opts...)
	h.engine = NewEngine(store, clock, h.ticker, opts...)
	return h
}
