// Package errors provides the classified error primitives used across bgtimer.
//
// Errors carry a category (config, validation, storage, scheduler, ...), a severity and a
// retry strategy, plus structured context. The CLI adapter maps them to exit codes and
// decides how much detail to print.
//
// Example usage:
//
//	err := errors.StorageError("persist start time").
//		Warning().
//		WithContext("key", "START_TIME_KEY").
//		WithCause(originalErr).
//		Build()
package errors
