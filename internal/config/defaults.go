package config

import (
	"fmt"
	"path/filepath"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// CompositeApplier runs domain appliers in order.
type CompositeApplier struct {
	appliers []DefaultApplier
}

// NewDefaultApplier returns the applier covering every configuration domain.
func NewDefaultApplier() *CompositeApplier {
	return &CompositeApplier{appliers: []DefaultApplier{
		&TimerDefaultApplier{},
		&StorageDefaultApplier{},
		&PersistenceDefaultApplier{},
		&JournalDefaultApplier{},
		&WatchDefaultApplier{},
		&MonitoringDefaultApplier{},
	}}
}

// ApplyDefaults applies all domain defaults.
func (c *CompositeApplier) ApplyDefaults(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config nil")
	}
	for _, a := range c.appliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return fmt.Errorf("%s defaults: %w", a.Domain(), err)
		}
	}
	return nil
}

func applyDefaults(cfg *Config) error {
	return NewDefaultApplier().ApplyDefaults(cfg)
}

// TimerDefaultApplier handles Timer configuration defaults.
type TimerDefaultApplier struct{}

func (TimerDefaultApplier) Domain() string { return "timer" }

func (TimerDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Timer.TickInterval <= 0 {
		cfg.Timer.TickInterval = DefaultTickInterval
	}
	return nil
}

// StorageDefaultApplier handles Storage configuration defaults.
type StorageDefaultApplier struct{}

func (StorageDefaultApplier) Domain() string { return "storage" }

func (StorageDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = StorageJSON
	}
	if cfg.Storage.Path == "" {
		switch cfg.Storage.Backend {
		case StorageSQLite:
			cfg.Storage.Path = filepath.Join(DefaultDir(), "state.db")
		case StorageJSON:
			cfg.Storage.Path = filepath.Join(DefaultDir(), "state.json")
		}
	}
	if cfg.Storage.NATS.URL == "" {
		cfg.Storage.NATS.URL = DefaultNATSURL
	}
	if cfg.Storage.NATS.Bucket == "" {
		cfg.Storage.NATS.Bucket = DefaultNATSBucket
	}
	if cfg.Storage.NATS.Timeout <= 0 {
		cfg.Storage.NATS.Timeout = DefaultNATSTimeout
	}
	return nil
}

// PersistenceDefaultApplier handles retry defaults for state writes.
type PersistenceDefaultApplier struct{}

func (PersistenceDefaultApplier) Domain() string { return "persistence" }

func (PersistenceDefaultApplier) ApplyDefaults(cfg *Config) error {
	p := &cfg.Persistence
	if p.MaxRetries == nil {
		n := DefaultMaxRetries
		p.MaxRetries = &n
	}
	if p.RetryBackoff == "" {
		p.RetryBackoff = RetryBackoffLinear
	}
	if p.RetryInitialDelay <= 0 {
		p.RetryInitialDelay = DefaultRetryInitialDelay
	}
	if p.RetryMaxDelay <= 0 {
		p.RetryMaxDelay = DefaultRetryMaxDelay
	}
	if p.RetryInitialDelay > p.RetryMaxDelay {
		p.RetryInitialDelay = p.RetryMaxDelay
	}
	return nil
}

// JournalDefaultApplier handles action journal defaults.
type JournalDefaultApplier struct{}

func (JournalDefaultApplier) Domain() string { return "journal" }

func (JournalDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = filepath.Join(DefaultDir(), "journal.db")
	}
	return nil
}

// WatchDefaultApplier handles terminal shell defaults.
type WatchDefaultApplier struct{}

func (WatchDefaultApplier) Domain() string { return "watch" }

func (WatchDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = DefaultWatchDebounce
	}
	return nil
}

// MonitoringDefaultApplier handles metrics and logging defaults.
type MonitoringDefaultApplier struct{}

func (MonitoringDefaultApplier) Domain() string { return "monitoring" }

func (MonitoringDefaultApplier) ApplyDefaults(cfg *Config) error {
	m := &cfg.Monitoring
	if m.Metrics.Listen == "" {
		m.Metrics.Listen = DefaultMetricsListen
	}
	if m.Metrics.Path == "" {
		m.Metrics.Path = DefaultMetricsPath
	}
	if m.Logging.Level == "" {
		m.Logging.Level = LogLevelInfo
	}
	if m.Logging.Format == "" {
		m.Logging.Format = LogFormatText
	}
	return nil
}
