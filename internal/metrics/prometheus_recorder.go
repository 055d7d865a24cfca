package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "bgtimer"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once            sync.Once
	actions         *prom.CounterVec
	ticks           prom.Counter
	persistFailures *prom.CounterVec
	persistRetries  *prom.CounterVec
	persistDuration *prom.HistogramVec
	elapsed         prom.Gauge
	running         prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.actions = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "User actions applied to the stopwatch",
		}, []string{"action"})
		pr.ticks = prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Display refresh ticks processed",
		})
		pr.persistFailures = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "State writes that failed after all retries",
		}, []string{"key"})
		pr.persistRetries = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "persist_retries_total",
			Help:      "State write retries after transient failures",
		}, []string{"key"})
		pr.persistDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "persist_duration_seconds",
			Help:      "Duration of a full state write, retries included",
			Buckets:   prom.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"backend"})
		pr.elapsed = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "elapsed_seconds",
			Help:      "Elapsed time shown on the display",
		})
		pr.running = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "running",
			Help:      "1 while the stopwatch is counting",
		})
		reg.MustRegister(pr.actions, pr.ticks, pr.persistFailures, pr.persistRetries, pr.persistDuration, pr.elapsed, pr.running)
	})
	return pr
}

func (p *PrometheusRecorder) IncAction(action ActionLabel) {
	if p == nil || p.actions == nil {
		return
	}
	p.actions.WithLabelValues(string(action)).Inc()
}

func (p *PrometheusRecorder) IncTick() {
	if p == nil || p.ticks == nil {
		return
	}
	p.ticks.Inc()
}

func (p *PrometheusRecorder) IncPersistFailure(key string) {
	if p == nil || p.persistFailures == nil {
		return
	}
	p.persistFailures.WithLabelValues(key).Inc()
}

func (p *PrometheusRecorder) IncPersistRetry(key string) {
	if p == nil || p.persistRetries == nil {
		return
	}
	p.persistRetries.WithLabelValues(key).Inc()
}

func (p *PrometheusRecorder) ObservePersistDuration(backend string, d time.Duration) {
	if p == nil || p.persistDuration == nil {
		return
	}
	p.persistDuration.WithLabelValues(backend).Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetElapsed(d time.Duration) {
	if p == nil || p.elapsed == nil {
		return
	}
	p.elapsed.Set(d.Seconds())
}

func (p *PrometheusRecorder) SetRunning(running bool) {
	if p == nil || p.running == nil {
		return
	}
	if running {
		p.running.Set(1)
		return
	}
	p.running.Set(0)
}
