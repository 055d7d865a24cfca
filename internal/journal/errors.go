package journal

// Sentinel errors for journal operations.

import (
	"git.home.luguber.info/inful/bgtimer/internal/foundation/errors"
)

var (
	// ErrDatabaseOpenFailed indicates the SQLite database could not be opened.
	ErrDatabaseOpenFailed = errors.JournalError("could not open journal database").Build()

	// ErrEventAppendFailed indicates appending an event failed.
	ErrEventAppendFailed = errors.JournalError("failed to append event to journal").Build()

	// ErrEventQueryFailed indicates querying events failed.
	ErrEventQueryFailed = errors.JournalError("failed to query events from journal").Build()
)
