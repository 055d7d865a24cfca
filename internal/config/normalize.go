package config

import (
	"fmt"
	"strings"
)

// NormalizationResult captures adjustments & warnings from normalization pass.
type NormalizationResult struct{ Warnings []string }

// NormalizeConfig canonicalizes enumerated and bounded fields prior to default application.
// It mutates the provided config in-place and returns a result describing any coercions.
func NormalizeConfig(c *Config) (*NormalizationResult, error) {
	if c == nil {
		return nil, fmt.Errorf("config nil")
	}
	res := &NormalizationResult{}
	normalizeStorage(&c.Storage, res)
	normalizePersistence(&c.Persistence, res)
	normalizeMonitoring(&c.Monitoring, res)
	if c.Timer.TickInterval < 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("timer.tick_interval %s is negative; using default", c.Timer.TickInterval))
		c.Timer.TickInterval = 0
	}
	if c.Watch.Debounce < 0 {
		c.Watch.Debounce = 0
	}
	c.Storage.Path = strings.TrimSpace(c.Storage.Path)
	c.Journal.Path = strings.TrimSpace(c.Journal.Path)
	return res, nil
}

func normalizeStorage(s *StorageConfig, res *NormalizationResult) {
	raw := strings.TrimSpace(string(s.Backend))
	if raw == "" {
		return
	}
	if b := NormalizeStorageBackend(raw); b != "" {
		if s.Backend != b {
			res.Warnings = append(res.Warnings, warnChanged("storage.backend", s.Backend, b))
			s.Backend = b
		}
		return
	}
	res.Warnings = append(res.Warnings, warnUnknown("storage.backend", raw, string(StorageJSON), storageBackendNormalizer.ValidKeys()))
	s.Backend = StorageJSON
}

func normalizePersistence(p *PersistenceConfig, res *NormalizationResult) {
	if p.MaxRetries != nil && *p.MaxRetries < 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("persistence.max_retries %d is negative; using 0", *p.MaxRetries))
		zero := 0
		p.MaxRetries = &zero
	}
	raw := strings.TrimSpace(string(p.RetryBackoff))
	if raw == "" {
		return
	}
	if rb := NormalizeRetryBackoff(raw); rb != "" {
		if p.RetryBackoff != rb {
			res.Warnings = append(res.Warnings, warnChanged("persistence.retry_backoff", p.RetryBackoff, rb))
			p.RetryBackoff = rb
		}
		return
	}
	res.Warnings = append(res.Warnings, warnUnknown("persistence.retry_backoff", raw, string(RetryBackoffLinear), retryBackoffNormalizer.ValidKeys()))
	p.RetryBackoff = RetryBackoffLinear
}

func normalizeMonitoring(m *MonitoringConfig, res *NormalizationResult) {
	if raw := strings.TrimSpace(string(m.Logging.Level)); raw != "" {
		if lvl := NormalizeLogLevel(raw); lvl != "" {
			if m.Logging.Level != lvl {
				res.Warnings = append(res.Warnings, warnChanged("monitoring.logging.level", m.Logging.Level, lvl))
				m.Logging.Level = lvl
			}
		} else {
			res.Warnings = append(res.Warnings, warnUnknown("monitoring.logging.level", raw, string(LogLevelInfo), logLevelNormalizer.ValidKeys()))
			m.Logging.Level = LogLevelInfo
		}
	}
	if raw := strings.TrimSpace(string(m.Logging.Format)); raw != "" {
		if f := NormalizeLogFormat(raw); f != "" {
			if m.Logging.Format != f {
				res.Warnings = append(res.Warnings, warnChanged("monitoring.logging.format", m.Logging.Format, f))
				m.Logging.Format = f
			}
		} else {
			res.Warnings = append(res.Warnings, warnUnknown("monitoring.logging.format", raw, string(LogFormatText), logFormatNormalizer.ValidKeys()))
			m.Logging.Format = LogFormatText
		}
	}
}

func warnChanged[T ~string](field string, from, to T) string {
	return fmt.Sprintf("normalized %s from '%s' to '%s'", field, from, to)
}

func warnUnknown(field, value, fallback string, valid []string) string {
	return fmt.Sprintf("unknown %s '%s', valid options: %s (using %s)", field, value, strings.Join(valid, ", "), fallback)
}
