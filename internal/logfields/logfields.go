package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyAction     = "action"
	KeyPhase      = "phase"
	KeyStorageKey = "key"
	KeyBackend    = "backend"
	KeyPath       = "path"
	KeyURL        = "url"
	KeyBucket     = "bucket"
	KeyRunID      = "run_id"
	KeyElapsed    = "elapsed"
	KeyStartTime  = "start_time"
	KeyStopTime   = "stop_time"
	KeyInterval   = "interval"
	KeyAttempt    = "attempt"
	KeyDurationMS = "duration_ms"
	KeyJobID      = "job_id"
	KeyAddr       = "addr"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Action(a string) slog.Attr          { return slog.String(KeyAction, a) }
func Phase(p string) slog.Attr           { return slog.String(KeyPhase, p) }
func StorageKey(k string) slog.Attr      { return slog.String(KeyStorageKey, k) }
func Backend(b string) slog.Attr         { return slog.String(KeyBackend, b) }
func Path(p string) slog.Attr            { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr             { return slog.String(KeyURL, u) }
func Bucket(b string) slog.Attr          { return slog.String(KeyBucket, b) }
func RunID(id string) slog.Attr          { return slog.String(KeyRunID, id) }
func Elapsed(s string) slog.Attr         { return slog.String(KeyElapsed, s) }
func StartTime(t time.Time) slog.Attr    { return slog.Time(KeyStartTime, t) }
func StopTime(t time.Time) slog.Attr     { return slog.Time(KeyStopTime, t) }
func Interval(d time.Duration) slog.Attr { return slog.Duration(KeyInterval, d) }
func Attempt(n int) slog.Attr            { return slog.Int(KeyAttempt, n) }
func DurationMS(ms float64) slog.Attr    { return slog.Float64(KeyDurationMS, ms) }
func JobID(id string) slog.Attr          { return slog.String(KeyJobID, id) }
func Addr(a string) slog.Attr            { return slog.String(KeyAddr, a) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
