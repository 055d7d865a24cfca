package config

import (
	"time"

	"git.home.luguber.info/inful/bgtimer/internal/foundation/normalization"
)

// StorageBackend enumerates the durable key-value stores that can hold timer state.
type StorageBackend string

const (
	StorageJSON   StorageBackend = "json"
	StorageSQLite StorageBackend = "sqlite"
	StorageNATS   StorageBackend = "nats"
	StorageMemory StorageBackend = "memory"
)

var storageBackendNormalizer = normalization.NewNormalizer(map[string]StorageBackend{
	"json":    StorageJSON,
	"file":    StorageJSON,
	"sqlite":  StorageSQLite,
	"sqlite3": StorageSQLite,
	"nats":    StorageNATS,
	"memory":  StorageMemory,
}, "")

// NormalizeStorageBackend returns the typed backend, or empty string for unknown input.
func NormalizeStorageBackend(raw string) StorageBackend {
	return storageBackendNormalizer.Normalize(raw)
}

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevelNormalizer = normalization.NewNormalizer(map[string]LogLevel{
	"debug":   LogLevelDebug,
	"info":    LogLevelInfo,
	"warn":    LogLevelWarn,
	"warning": LogLevelWarn,
	"error":   LogLevelError,
}, "")

// NormalizeLogLevel returns the typed level, or empty string for unknown input.
func NormalizeLogLevel(raw string) LogLevel {
	return logLevelNormalizer.Normalize(raw)
}

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatText    LogFormat = "text"
	LogFormatJSON    LogFormat = "json"
	LogFormatConsole LogFormat = "console"
	LogFormatDev     LogFormat = "dev"
)

var logFormatNormalizer = normalization.NewNormalizer(map[string]LogFormat{
	"text":    LogFormatText,
	"json":    LogFormatJSON,
	"console": LogFormatConsole,
	"pretty":  LogFormatConsole,
	"dev":     LogFormatDev,
}, "")

// NormalizeLogFormat returns the typed format, or empty string for unknown input.
func NormalizeLogFormat(raw string) LogFormat {
	return logFormatNormalizer.Normalize(raw)
}

// RetryBackoffMode enumerates supported backoff strategies for persistence retries.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

var retryBackoffNormalizer = normalization.NewNormalizer(map[string]RetryBackoffMode{
	"fixed":       RetryBackoffFixed,
	"linear":      RetryBackoffLinear,
	"exponential": RetryBackoffExponential,
}, "")

// NormalizeRetryBackoff converts arbitrary user input (case-insensitive) into a typed mode, returning empty string for unknown.
func NormalizeRetryBackoff(raw string) RetryBackoffMode {
	return retryBackoffNormalizer.Normalize(raw)
}

// Defaults.
const (
	DefaultTickInterval      = 100 * time.Millisecond
	DefaultMaxRetries        = 2
	DefaultRetryInitialDelay = 50 * time.Millisecond
	DefaultRetryMaxDelay     = time.Second
	DefaultNATSURL           = "nats://127.0.0.1:4222"
	DefaultNATSBucket        = "bgtimer"
	DefaultNATSTimeout       = 5 * time.Second
	DefaultWatchDebounce     = 200 * time.Millisecond
	DefaultMetricsListen     = "127.0.0.1:9464"
	DefaultMetricsPath       = "/metrics"
)
