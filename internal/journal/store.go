package journal

import (
	"context"
	"time"
)

// Store persists and retrieves action events.
type Store interface {
	// Append adds a new event to the store.
	Append(ctx context.Context, runID string, eventType EventType, at time.Time, payload []byte, metadata map[string]string) error

	// GetByRunID retrieves all events of one run, oldest first.
	GetByRunID(ctx context.Context, runID string) ([]Event, error)

	// GetRange retrieves events within a time range, oldest first.
	// A zero end means no upper bound.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	// Recent retrieves the newest limit events, oldest first.
	Recent(ctx context.Context, limit int) ([]Event, error)

	// Close closes the store and releases resources.
	Close() error
}
