package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	foundationerrors "git.home.luguber.info/inful/bgtimer/internal/foundation/errors"
)

// CurrentVersion is the configuration schema version written by Init.
const CurrentVersion = "1.0"

// Config is the bgtimer configuration file.
type Config struct {
	Version     string            `yaml:"version"`
	Timer       TimerConfig       `yaml:"timer"`
	Storage     StorageConfig     `yaml:"storage"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Journal     JournalConfig     `yaml:"journal"`
	Watch       WatchConfig       `yaml:"watch"`
	Monitoring  MonitoringConfig  `yaml:"monitoring"`
}

// TimerConfig controls the stopwatch refresh cadence.
type TimerConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"` // how often a running display refreshes
}

// StorageConfig selects and configures the durable key-value store holding timer state.
type StorageConfig struct {
	Backend StorageBackend `yaml:"backend"` // json|sqlite|nats|memory
	Path    string         `yaml:"path"`    // file path for json and sqlite backends
	NATS    NATSConfig     `yaml:"nats"`
}

// NATSConfig configures the JetStream key-value backend.
type NATSConfig struct {
	URL     string        `yaml:"url"`
	Bucket  string        `yaml:"bucket"`
	Timeout time.Duration `yaml:"timeout"`
}

// PersistenceConfig controls retries of failed state writes.
type PersistenceConfig struct {
	MaxRetries        *int             `yaml:"max_retries,omitempty"`
	RetryBackoff      RetryBackoffMode `yaml:"retry_backoff"`
	RetryInitialDelay time.Duration    `yaml:"retry_initial_delay"`
	RetryMaxDelay     time.Duration    `yaml:"retry_max_delay"`
}

// Retries returns the configured retry count (defaults applied).
func (p PersistenceConfig) Retries() int {
	if p.MaxRetries == nil {
		return DefaultMaxRetries
	}
	return *p.MaxRetries
}

// JournalConfig controls the action journal used by `bgtimer history`.
type JournalConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Path    string `yaml:"path"`
}

// IsEnabled reports whether the journal is on; it is on unless explicitly disabled.
func (j JournalConfig) IsEnabled() bool {
	return j.Enabled == nil || *j.Enabled
}

// WatchConfig controls the interactive terminal shell.
type WatchConfig struct {
	ReloadOnChange *bool         `yaml:"reload_on_change,omitempty"`
	Debounce       time.Duration `yaml:"debounce"`
}

// ReloadEnabled reports whether external state changes are picked up; on by default.
func (w WatchConfig) ReloadEnabled() bool {
	return w.ReloadOnChange == nil || *w.ReloadOnChange
}

// MonitoringConfig represents metrics and logging configuration.
type MonitoringConfig struct {
	Metrics MonitoringMetrics `yaml:"metrics"`
	Logging MonitoringLogging `yaml:"logging"`
}

// MonitoringMetrics represents metrics configuration.
type MonitoringMetrics struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
	Path    string `yaml:"path"`
}

// MonitoringLogging represents logging configuration.
type MonitoringLogging struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// DefaultDir returns the per-user directory holding bgtimer state and configuration.
func DefaultDir() string {
	if dir := os.Getenv("BGTIMER_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bgtimer"
	}
	return filepath.Join(home, ".bgtimer")
}

// DefaultPath returns the configuration file used when none is given on the command line.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{Version: CurrentVersion}
	if err := applyDefaults(cfg); err != nil {
		// applyDefaults only fails on nil input.
		panic(err)
	}
	return cfg
}

// Load reads the configuration file at configPath.
//
// A missing file is not an error: the stopwatch works out of the box, so defaults
// (plus environment overrides) are returned instead.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	cfg := &Config{Version: CurrentVersion}
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "failed to parse configuration").
				WithContext("path", configPath).
				Build()
		}
	case os.IsNotExist(err):
		// defaults only
	default:
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "failed to read configuration").
			WithContext("path", configPath).
			Build()
	}

	if cfg.Version == "" {
		cfg.Version = CurrentVersion
	}
	if cfg.Version != CurrentVersion {
		return nil, foundationerrors.ConfigError(fmt.Sprintf("unsupported configuration version: %s (expected %s)", cfg.Version, CurrentVersion)).
			WithContext("path", configPath).
			Build()
	}

	applyEnvOverrides(cfg)

	// Normalization pass (case-fold enumerations, bounds, early coercions)
	nres, err := NormalizeConfig(cfg)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "normalize configuration").Build()
	}
	for _, w := range nres.Warnings {
		fmt.Fprintf(os.Stderr, "config normalization: %s\n", w)
	}

	// Apply defaults (after normalization so canonical values drive defaults)
	if err := applyDefaults(cfg); err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "apply defaults").Build()
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "configuration validation failed").
			WithContext("path", configPath).
			Build()
	}

	return cfg, nil
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return foundationerrors.ValidationError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).Build()
	}

	retries := DefaultMaxRetries
	enabled := true
	example := Config{
		Version: CurrentVersion,
		Timer:   TimerConfig{TickInterval: DefaultTickInterval},
		Storage: StorageConfig{
			Backend: StorageJSON,
			Path:    filepath.Join(DefaultDir(), "state.json"),
			NATS: NATSConfig{
				URL:     "${BGTIMER_NATS_URL}",
				Bucket:  DefaultNATSBucket,
				Timeout: DefaultNATSTimeout,
			},
		},
		Persistence: PersistenceConfig{
			MaxRetries:        &retries,
			RetryBackoff:      RetryBackoffLinear,
			RetryInitialDelay: DefaultRetryInitialDelay,
			RetryMaxDelay:     DefaultRetryMaxDelay,
		},
		Journal: JournalConfig{
			Enabled: &enabled,
			Path:    filepath.Join(DefaultDir(), "journal.db"),
		},
		Watch: WatchConfig{
			ReloadOnChange: &enabled,
			Debounce:       DefaultWatchDebounce,
		},
		Monitoring: MonitoringConfig{
			Metrics: MonitoringMetrics{
				Enabled: false,
				Listen:  DefaultMetricsListen,
				Path:    "/metrics",
			},
			Logging: MonitoringLogging{
				Level:  LogLevelInfo,
				Format: LogFormatText,
			},
		},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryInternal, "failed to marshal example config").Build()
	}

	if dir := filepath.Dir(configPath); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "failed to create config directory").
				WithContext("path", dir).
				Build()
		}
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}

	return nil
}
