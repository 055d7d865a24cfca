// Package metrics provides observability hooks for the bgtimer stopwatch.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics stay optional:
//
//	engine := timer.NewEngine(repo, clock, ticker, timer.WithRecorder(metrics.NoopRecorder{}))
//
// The watch shell swaps in a PrometheusRecorder when monitoring.metrics.enabled
// is set and serves it with HTTPHandler.
package metrics
