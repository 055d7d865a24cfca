package journal

import (
	"context"
	"sort"
	"sync"
	"time"
)

// RunStatus is the last known status of a run.
type RunStatus string

const (
	RunRunning RunStatus = "running"
	RunStopped RunStatus = "stopped"
	RunReset   RunStatus = "reset"
)

// RunSummary is a read model summarizing one run, from its first start to its reset.
type RunSummary struct {
	RunID        string        `json:"run_id"`
	Status       RunStatus     `json:"status"`
	StartedAt    time.Time     `json:"started_at"`
	LastActionAt time.Time     `json:"last_action_at"`
	Elapsed      time.Duration `json:"elapsed"`
	Pauses       int           `json:"pauses"`
	Events       int           `json:"events"`
}

// RunHistoryProjection maintains an in-memory view of run history,
// reconstructed from events stored in the journal.
type RunHistoryProjection struct {
	mu      sync.RWMutex
	store   Store
	runs    map[string]*RunSummary
	maxSize int
}

// NewRunHistoryProjection creates a new projection backed by the given store.
func NewRunHistoryProjection(store Store, maxHistorySize int) *RunHistoryProjection {
	if maxHistorySize <= 0 {
		maxHistorySize = 20
	}
	return &RunHistoryProjection{
		store:   store,
		runs:    make(map[string]*RunSummary),
		maxSize: maxHistorySize,
	}
}

// Rebuild reconstructs the projection from all events in the store.
func (p *RunHistoryProjection) Rebuild(ctx context.Context) error {
	events, err := p.store.GetRange(ctx, time.Time{}, time.Time{})
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.runs = make(map[string]*RunSummary)
	for _, event := range events {
		p.applyEventLocked(event)
	}
	return nil
}

func (p *RunHistoryProjection) applyEventLocked(event Event) {
	runID := event.RunID()
	if runID == "" {
		return
	}

	summary, exists := p.runs[runID]
	if !exists {
		summary = &RunSummary{
			RunID:     runID,
			Status:    RunRunning,
			StartedAt: event.Timestamp(),
		}
		p.runs[runID] = summary
	}
	summary.Events++
	summary.LastActionAt = event.Timestamp()

	switch event.Type() {
	case EventStarted:
		summary.StartedAt = event.Timestamp()
		summary.Status = RunRunning
	case EventResumed:
		summary.Pauses++
		summary.Status = RunRunning
	case EventStopped:
		summary.Status = RunStopped
		summary.Elapsed = Elapsed(event)
	case EventReset:
		summary.Status = RunReset
		summary.Elapsed = Elapsed(event)
	}
}

// History returns up to maxSize runs, newest first.
func (p *RunHistoryProjection) History() []RunSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]RunSummary, 0, len(p.runs))
	for _, s := range p.runs {
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})
	if len(result) > p.maxSize {
		result = result[:p.maxSize]
	}
	return result
}

// Run returns the summary for a specific run.
func (p *RunHistoryProjection) Run(runID string) (RunSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	summary, exists := p.runs[runID]
	if !exists {
		return RunSummary{}, false
	}
	return *summary, true
}

// Active returns the run that is currently counting, if any.
func (p *RunHistoryProjection) Active() (RunSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, s := range p.runs {
		if s.Status == RunRunning {
			return *s, true
		}
	}
	return RunSummary{}, false
}
