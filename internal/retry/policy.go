// Package retry computes backoff delays and re-runs failed state writes.
package retry

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/bgtimer/internal/config"
)

// Policy encapsulates retry/backoff settings for transient failures.
// It is immutable after construction.
type Policy struct {
	Mode       config.RetryBackoffMode // fixed|linear|exponential
	Initial    time.Duration           // base delay
	Max        time.Duration           // cap for growth
	MaxRetries int                     // maximum retry attempts after the first failure
}

// DefaultPolicy returns the persistence defaults (linear, 50ms initial, 1s cap, 2 retries).
func DefaultPolicy() Policy {
	return Policy{
		Mode:       config.RetryBackoffLinear,
		Initial:    config.DefaultRetryInitialDelay,
		Max:        config.DefaultRetryMaxDelay,
		MaxRetries: config.DefaultMaxRetries,
	}
}

// NewPolicy builds a policy from raw config fields; zero/invalid values fall back to defaults.
func NewPolicy(mode config.RetryBackoffMode, initial, maxDuration time.Duration, maxRetries int) Policy {
	p := DefaultPolicy()
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDuration > 0 {
		p.Max = maxDuration
	}
	switch mode {
	case config.RetryBackoffFixed, config.RetryBackoffLinear, config.RetryBackoffExponential:
		p.Mode = mode
	}
	if p.Initial > p.Max {
		p.Initial = p.Max
	}
	return p
}

// FromConfig builds the policy used for state writes.
func FromConfig(cfg config.PersistenceConfig) Policy {
	return NewPolicy(cfg.RetryBackoff, cfg.RetryInitialDelay, cfg.RetryMaxDelay, cfg.Retries())
}

// Delay returns the backoff delay for the given retry attempt number (1-based: first retry => 1).
func (p Policy) Delay(retryCount int) time.Duration {
	if retryCount <= 0 {
		return 0
	}
	switch p.Mode {
	case config.RetryBackoffFixed:
		return p.Initial
	case config.RetryBackoffExponential:
		if retryCount > 30 {
			return p.Max
		}
		d := p.Initial * (1 << (retryCount - 1))
		if d > p.Max {
			return p.Max
		}
		return d
	default: // linear
		d := time.Duration(retryCount) * p.Initial
		if d > p.Max {
			return p.Max
		}
		return d
	}
}

// Do runs fn once and then up to MaxRetries more times while it fails, sleeping
// Delay(n) on clock between attempts. onRetry, when non-nil, is called before each
// retry with the 1-based retry number and the error that caused it.
// The last error is returned when every attempt fails or ctx is cancelled.
func (p Policy) Do(ctx context.Context, clock clockwork.Clock, fn func(context.Context) error, onRetry func(attempt int, err error)) error {
	err := fn(ctx)
	for attempt := 1; err != nil && attempt <= p.MaxRetries; attempt++ {
		if onRetry != nil {
			onRetry(attempt, err)
		}
		if d := p.Delay(attempt); d > 0 {
			select {
			case <-ctx.Done():
				return err
			case <-clock.After(d):
			}
		}
		err = fn(ctx)
	}
	return err
}
