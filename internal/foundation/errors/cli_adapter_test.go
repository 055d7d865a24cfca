package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("bad flag").Build(), expected: 2},
		{name: "not found", err: NotFoundError("run").Build(), expected: 3},
		{name: "config", err: ConfigError("bad config").Build(), expected: 7},
		{name: "storage", err: StorageError("write failed").Build(), expected: 9},
		{name: "wrapped storage", err: fmt.Errorf("start: %w", StorageError("write failed").Build()), expected: 9},
		{name: "internal", err: InternalError("boom").Build(), expected: 10},
		{name: "scheduler", err: SchedulerError("tick").Build(), expected: 12},
		{name: "unclassified", err: stderrors.New("unknown"), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, slog.Default())
	verbose := NewCLIErrorAdapter(true, slog.Default())
	cause := stderrors.New("disk full")

	tests := []struct {
		name     string
		adapter  *CLIErrorAdapter
		err      error
		expected string
	}{
		{"nil error", quiet, nil, ""},
		{"config message", quiet, ConfigError("unknown backend").Build(), "Error: unknown backend"},
		{"storage with cause", quiet, WrapError(cause, CategoryStorage, "persist stop time").Build(), "Error: persist stop time: disk full"},
		{"internal hidden", quiet, InternalError("nil engine").Build(), "Internal error occurred (use -v for details)"},
		{"internal verbose", verbose, InternalError("nil engine").Build(), "[internal:fatal] nil engine"},
		{"unclassified", quiet, stderrors.New("plain"), "Error: plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.adapter.FormatError(tt.err); got != tt.expected {
				t.Errorf("FormatError() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var out, logs bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.out = &out
	code := -1
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(nil)
	if code != -1 {
		t.Fatalf("HandleError(nil) must not exit, got code %d", code)
	}

	adapter.HandleError(ConfigError("bad config").WithContext("path", "bgtimer.yaml").Build())
	if code != 7 {
		t.Errorf("exit code = %d, want 7", code)
	}
	if !strings.Contains(out.String(), "Error: bad config") {
		t.Errorf("stderr output = %q", out.String())
	}
	if !strings.Contains(logs.String(), "path=bgtimer.yaml") {
		t.Errorf("expected context in log output, got %q", logs.String())
	}
}
