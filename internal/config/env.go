package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables that override configuration file values.
const (
	EnvStorageBackend = "BGTIMER_STORAGE_BACKEND"
	EnvStoragePath    = "BGTIMER_STORAGE_PATH"
	EnvNATSURL        = "BGTIMER_NATS_URL"
	EnvLogLevel       = "BGTIMER_LOG_LEVEL"
	EnvTickInterval   = "BGTIMER_TICK_INTERVAL"
)

// envFiles are loaded in order; values already present in the environment win.
var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads .env/.env.local if present. godotenv.Load never overrides
// variables that are already set, so the process environment keeps precedence.
func loadEnvFiles() {
	for _, path := range envFiles {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			// A malformed .env is reported but never fatal for a stopwatch.
			_, _ = os.Stderr.WriteString("bgtimer: ignoring " + path + ": " + err.Error() + "\n")
		}
	}
}

// applyEnvOverrides applies BGTIMER_* variables on top of the file values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvStorageBackend); v != "" {
		cfg.Storage.Backend = StorageBackend(v)
	}
	if v := os.Getenv(EnvStoragePath); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv(EnvNATSURL); v != "" {
		cfg.Storage.NATS.URL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Monitoring.Logging.Level = LogLevel(v)
	}
	if v := os.Getenv(EnvTickInterval); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timer.TickInterval = d
		}
	}
}
