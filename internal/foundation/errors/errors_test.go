package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryStorage, "persist start time").
			WithSeverity(SeverityWarning).
			WithContext("key", "START_TIME_KEY").
			Build()

		if err.Category() != CategoryStorage {
			t.Errorf("expected category %s, got %s", CategoryStorage, err.Category())
		}
		if err.Severity() != SeverityWarning {
			t.Errorf("expected severity %s, got %s", SeverityWarning, err.Severity())
		}
		if err.Message() != "persist start time" {
			t.Errorf("expected message 'persist start time', got %s", err.Message())
		}

		key, exists := err.Context().Get("key")
		if !exists || key != "START_TIME_KEY" {
			t.Errorf("expected context key=START_TIME_KEY, got %v", key)
		}
	})

	t.Run("Error detection", func(t *testing.T) {
		err := ConfigError("test error").Build()

		if _, ok := AsClassified(err); !ok {
			t.Error("expected error to be classified")
		}
		if !HasCategory(err, CategoryConfig) {
			t.Error("expected error to have config category")
		}
		if !HasSeverity(err, SeverityFatal) {
			t.Error("expected error to have fatal severity")
		}
		if err.CanRetry() {
			t.Error("expected config error to not be retryable")
		}
	})

	t.Run("Detection through wrapping", func(t *testing.T) {
		err := fmt.Errorf("stop: %w", StorageError("persist stop time").Warning().Build())

		if !HasCategory(err, CategoryStorage) {
			t.Error("expected wrapped error to expose storage category")
		}
		if !HasSeverity(err, SeverityWarning) {
			t.Error("expected wrapped error to expose warning severity")
		}
		if HasCategory(stderrors.New("plain"), CategoryStorage) {
			t.Error("expected unclassified errors to match no category")
		}
	})
}

func TestErrorBuilder(t *testing.T) {
	t.Run("Fluent API", func(t *testing.T) {
		originalErr := stderrors.New("connection refused")
		err := WrapError(originalErr, CategoryNetwork, "nats unavailable").
			Warning().
			Retryable().
			WithContext("url", "nats://127.0.0.1:4222").
			Build()

		if err.Category() != CategoryNetwork {
			t.Errorf("expected category %s, got %s", CategoryNetwork, err.Category())
		}
		if err.Severity() != SeverityWarning {
			t.Errorf("expected severity %s, got %s", SeverityWarning, err.Severity())
		}
		if err.RetryStrategy() != RetryBackoff {
			t.Errorf("expected retry %s, got %s", RetryBackoff, err.RetryStrategy())
		}
		if !stderrors.Is(err, originalErr) {
			t.Error("expected error to unwrap to original")
		}
		if !err.CanRetry() {
			t.Error("expected network error to be retryable")
		}
	})

	t.Run("Sentinel matching", func(t *testing.T) {
		sentinel := StorageError("key not writable").Build()
		err := fmt.Errorf("set: %w", StorageError("key not writable").WithContext("key", "x").Build())

		if !stderrors.Is(err, sentinel) {
			t.Error("expected errors.Is to match on category and message")
		}
	})

	t.Run("WithContext copies", func(t *testing.T) {
		base := JournalError("append failed").Build()
		derived := base.WithContext("run_id", "abc")

		if _, ok := base.Context().Get("run_id"); ok {
			t.Error("expected base context to be untouched")
		}
		if v, _ := derived.Context().Get("run_id"); v != "abc" {
			t.Errorf("expected derived context run_id=abc, got %v", v)
		}
	})
}

func TestErrorContext(t *testing.T) {
	var nilCtx ErrorContext
	ctx := nilCtx.Set("a", 1)
	if v, ok := ctx.Get("a"); !ok || v != 1 {
		t.Errorf("expected a=1, got %v", v)
	}

	if _, ok := ctx.Get("b"); ok {
		t.Error("expected missing key to report false")
	}
}
