package journal

import (
	"context"
	"encoding/json"
	"time"
)

// Recorder is what the timer engine writes actions to.
type Recorder interface {
	Record(ctx context.Context, runID string, eventType EventType, at time.Time, elapsed time.Duration) error
}

// Journal adapts a Store into a Recorder.
type Journal struct {
	store Store
}

// New returns a Journal writing to store.
func New(store Store) *Journal {
	return &Journal{store: store}
}

// Record appends one action.
func (j *Journal) Record(ctx context.Context, runID string, eventType EventType, at time.Time, elapsed time.Duration) error {
	payload, err := json.Marshal(ActionPayload{ElapsedMS: elapsed.Milliseconds()})
	if err != nil {
		return err
	}
	return j.store.Append(ctx, runID, eventType, at, payload, nil)
}

// Discard is a Recorder that drops every action.
type Discard struct{}

func (Discard) Record(context.Context, string, EventType, time.Time, time.Duration) error { return nil }
