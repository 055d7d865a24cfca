// Package journal records stopwatch actions and projects them into per-run summaries.
package journal

import (
	"encoding/json"
	"time"
)

// EventType names a recorded stopwatch action.
type EventType string

const (
	EventStarted EventType = "TimerStarted"
	EventResumed EventType = "TimerResumed"
	EventStopped EventType = "TimerStopped"
	EventReset   EventType = "TimerReset"
)

// Event is a single recorded action.
type Event interface {
	// ID returns the unique identifier for this event.
	ID() int64
	// RunID returns the run this event belongs to.
	RunID() string
	// Type returns the event type.
	Type() EventType
	// Timestamp returns when the action happened, per the engine's clock.
	Timestamp() time.Time
	// Payload returns the event data as bytes.
	Payload() []byte
	// Metadata returns optional event metadata.
	Metadata() map[string]string
}

// BaseEvent provides a default implementation of Event.
type BaseEvent struct {
	EventID        int64
	EventRunID     string
	EventType      EventType
	EventTimestamp time.Time
	EventPayload   []byte
	EventMetadata  map[string]string
}

func (e *BaseEvent) ID() int64                   { return e.EventID }
func (e *BaseEvent) RunID() string               { return e.EventRunID }
func (e *BaseEvent) Type() EventType             { return e.EventType }
func (e *BaseEvent) Timestamp() time.Time        { return e.EventTimestamp }
func (e *BaseEvent) Payload() []byte             { return e.EventPayload }
func (e *BaseEvent) Metadata() map[string]string { return e.EventMetadata }

// ActionPayload is the payload stored with every action.
type ActionPayload struct {
	ElapsedMS int64 `json:"elapsed_ms"`
}

// Elapsed decodes the elapsed time recorded with e. Undecodable payloads yield zero.
func Elapsed(e Event) time.Duration {
	var p ActionPayload
	if err := json.Unmarshal(e.Payload(), &p); err != nil {
		return 0
	}
	return time.Duration(p.ElapsedMS) * time.Millisecond
}
