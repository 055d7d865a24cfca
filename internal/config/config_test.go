package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	foundationerrors "git.home.luguber.info/inful/bgtimer/internal/foundation/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("BGTIMER_HOME", t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, CurrentVersion, cfg.Version)
	assert.Equal(t, DefaultTickInterval, cfg.Timer.TickInterval)
	assert.Equal(t, StorageJSON, cfg.Storage.Backend)
	assert.Equal(t, filepath.Join(DefaultDir(), "state.json"), cfg.Storage.Path)
	assert.Equal(t, DefaultMaxRetries, cfg.Persistence.Retries())
	assert.Equal(t, RetryBackoffLinear, cfg.Persistence.RetryBackoff)
	assert.True(t, cfg.Journal.IsEnabled())
	assert.True(t, cfg.Watch.ReloadEnabled())
	assert.False(t, cfg.Monitoring.Metrics.Enabled)
	assert.Equal(t, LogLevelInfo, cfg.Monitoring.Logging.Level)
	assert.Equal(t, LogFormatText, cfg.Monitoring.Logging.Format)
}

func TestLoadNormalizesEnums(t *testing.T) {
	path := writeConfig(t, `version: "1.0"
storage:
  backend: SQLite3
  path: /tmp/bgtimer-test.db
persistence:
  retry_backoff: EXPONENTIAL
monitoring:
  logging:
    level: Warning
    format: pretty
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, StorageSQLite, cfg.Storage.Backend)
	assert.Equal(t, RetryBackoffExponential, cfg.Persistence.RetryBackoff)
	assert.Equal(t, LogLevelWarn, cfg.Monitoring.Logging.Level)
	assert.Equal(t, LogFormatConsole, cfg.Monitoring.Logging.Format)
}

func TestLoadExplicitZeroRetriesKept(t *testing.T) {
	path := writeConfig(t, `version: "1.0"
storage:
  backend: memory
persistence:
  max_retries: 0
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Persistence.Retries())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(EnvStorageBackend, "nats")
	t.Setenv(EnvNATSURL, "nats://example.invalid:4222")
	t.Setenv(EnvLogLevel, "debug")

	path := writeConfig(t, `version: "1.0"
storage:
  backend: json
  path: /tmp/state.json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, StorageNATS, cfg.Storage.Backend)
	assert.Equal(t, "nats://example.invalid:4222", cfg.Storage.NATS.URL)
	assert.Equal(t, DefaultNATSBucket, cfg.Storage.NATS.Bucket)
	assert.Equal(t, LogLevelDebug, cfg.Monitoring.Logging.Level)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BGTIMER_TEST_DIR", dir)

	path := writeConfig(t, `version: "1.0"
storage:
  path: ${BGTIMER_TEST_DIR}/state.json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, dir+"/state.json", cfg.Storage.Path)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "bad yaml", body: "version: [\n"},
		{name: "wrong version", body: "version: \"2.0\"\n"},
		{name: "tick too slow", body: "version: \"1.0\"\ntimer:\n  tick_interval: 5s\n"},
		{name: "too many retries", body: "version: \"1.0\"\npersistence:\n  max_retries: 50\n"},
		{name: "bad metrics listen", body: "version: \"1.0\"\nmonitoring:\n  metrics:\n    enabled: true\n    listen: nope\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryConfig))
		})
	}
}

func TestNormalizeConfigUnknownValues(t *testing.T) {
	cfg := &Config{
		Storage:     StorageConfig{Backend: "redis"},
		Persistence: PersistenceConfig{RetryBackoff: "random"},
		Monitoring:  MonitoringConfig{Logging: MonitoringLogging{Level: "loud", Format: "xml"}},
		Timer:       TimerConfig{TickInterval: -time.Second},
	}

	res, err := NormalizeConfig(cfg)
	require.NoError(t, err)

	assert.Len(t, res.Warnings, 5)
	assert.Contains(t, res.Warnings[0], "valid options: file, json, memory, nats, sqlite, sqlite3")
	assert.Equal(t, StorageJSON, cfg.Storage.Backend)
	assert.Equal(t, RetryBackoffLinear, cfg.Persistence.RetryBackoff)
	assert.Equal(t, LogLevelInfo, cfg.Monitoring.Logging.Level)
	assert.Equal(t, LogFormatText, cfg.Monitoring.Logging.Format)
	assert.Zero(t, cfg.Timer.TickInterval)
}

func TestInitWritesLoadableConfig(t *testing.T) {
	t.Setenv("BGTIMER_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, Init(path, false))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, StorageJSON, cfg.Storage.Backend)
	assert.Equal(t, DefaultNATSURL, cfg.Storage.NATS.URL)

	err = Init(path, false)
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryValidation))

	require.NoError(t, Init(path, true))
}
