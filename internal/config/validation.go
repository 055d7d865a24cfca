package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

// ValidateConfig validates the complete configuration after defaults were applied.
func ValidateConfig(cfg *Config) error {
	return newConfigurationValidator(cfg).validate()
}

// configurationValidator coordinates validation across configuration domains.
type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

func (cv *configurationValidator) validate() error {
	if cv.config == nil {
		return errors.New("configuration is nil")
	}
	if err := cv.validateTimer(); err != nil {
		return err
	}
	if err := cv.validateStorage(); err != nil {
		return err
	}
	if err := cv.validatePersistence(); err != nil {
		return err
	}
	return cv.validateMonitoring()
}

func (cv *configurationValidator) validateTimer() error {
	// Second-granularity display needs at least one refresh per second.
	if d := cv.config.Timer.TickInterval; d < 10*time.Millisecond || d > time.Second {
		return fmt.Errorf("timer.tick_interval must be between 10ms and 1s, got %s", d)
	}
	return nil
}

func (cv *configurationValidator) validateStorage() error {
	s := cv.config.Storage
	switch s.Backend {
	case StorageJSON, StorageSQLite:
		if s.Path == "" {
			return fmt.Errorf("storage.path is required for the %s backend", s.Backend)
		}
	case StorageNATS:
		u, err := url.Parse(s.NATS.URL)
		if err != nil || u.Scheme == "" {
			return fmt.Errorf("storage.nats.url is not a valid URL: %q", s.NATS.URL)
		}
		if strings.ContainsAny(s.NATS.Bucket, " .*>") {
			return fmt.Errorf("storage.nats.bucket contains invalid characters: %q", s.NATS.Bucket)
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unsupported storage.backend: %q", s.Backend)
	}
	return nil
}

func (cv *configurationValidator) validatePersistence() error {
	p := cv.config.Persistence
	if p.Retries() > 10 {
		return fmt.Errorf("persistence.max_retries must be at most 10, got %d", p.Retries())
	}
	switch p.RetryBackoff {
	case RetryBackoffFixed, RetryBackoffLinear, RetryBackoffExponential:
	default:
		return fmt.Errorf("unsupported persistence.retry_backoff: %q", p.RetryBackoff)
	}
	return nil
}

func (cv *configurationValidator) validateMonitoring() error {
	m := cv.config.Monitoring.Metrics
	if !m.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(m.Listen); err != nil {
		return fmt.Errorf("monitoring.metrics.listen: %w", err)
	}
	if !strings.HasPrefix(m.Path, "/") {
		return fmt.Errorf("monitoring.metrics.path must start with '/', got %q", m.Path)
	}
	return nil
}
