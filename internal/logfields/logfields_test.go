package logfields

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"Action", KeyAction, "start", Action("start")},
		{"Phase", KeyPhase, "running", Phase("running")},
		{"StorageKey", KeyStorageKey, "START_TIME_KEY", StorageKey("START_TIME_KEY")},
		{"Backend", KeyBackend, "sqlite", Backend("sqlite")},
		{"Path", KeyPath, "/tmp/state.json", Path("/tmp/state.json")},
		{"URL", KeyURL, "nats://localhost:4222", URL("nats://localhost:4222")},
		{"Bucket", KeyBucket, "bgtimer", Bucket("bgtimer")},
		{"RunID", KeyRunID, "r1", RunID("r1")},
		{"Elapsed", KeyElapsed, "00:00:05", Elapsed("00:00:05")},
		{"JobID", KeyJobID, "j1", JobID("j1")},
		{"Addr", KeyAddr, "127.0.0.1:9090", Addr("127.0.0.1:9090")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

// TestTypedHelpers verifies keys and kinds of non-string helpers.
func TestTypedHelpers(t *testing.T) {
	if v := Interval(100 * time.Millisecond); v.Key != KeyInterval || v.Value.Kind() != slog.KindDuration {
		t.Fatalf("Interval mismatch: %v", v)
	}
	if v := Attempt(2); v.Key != KeyAttempt || v.Value.Int64() != 2 {
		t.Fatalf("Attempt mismatch: %v", v)
	}
	if v := DurationMS(12.5); v.Key != KeyDurationMS {
		t.Fatalf("DurationMS key mismatch: %s", v.Key)
	}
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if v := StartTime(ts); v.Key != KeyStartTime || !v.Value.Time().Equal(ts) {
		t.Fatalf("StartTime mismatch: %v", v)
	}
	if v := StopTime(ts); v.Key != KeyStopTime {
		t.Fatalf("StopTime key mismatch: %s", v.Key)
	}
}

// TestErrorHelper ensures Error() handles nil and non-nil errors predictably.
func TestErrorHelper(t *testing.T) {
	attr := Error(nil)
	if attr.Key != KeyError {
		t.Fatalf("Error key mismatch: %s", attr.Key)
	}
	if attr.Value.String() != "" {
		t.Fatalf("Expected empty error string, got %s", attr.Value.String())
	}
	attr = Error(errors.New("err-test"))
	if attr.Value.String() != "err-test" {
		t.Fatalf("Expected 'err-test', got %s", attr.Value.String())
	}
}
