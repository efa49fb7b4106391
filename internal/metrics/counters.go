// Package metrics holds the per-process request counters kept by the
// balancer and by every worker, and mirrors them into Prometheus.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Snapshot is a point-in-time copy of the request counters.
type Snapshot struct {
	Active     int64  `json:"activeProcesses"`
	Successful uint64 `json:"successfulProcesses"`
	Failed     uint64 `json:"failedProcesses"`
}

// Counters tracks in-flight, successful and failed requests for one process.
// The zero value is not usable; create with NewCounters.
// Thread-safe: all methods may be called concurrently.
type Counters struct {
	active     atomic.Int64
	successful atomic.Uint64
	failed     atomic.Uint64

	promActive     prometheus.Gauge
	promSuccessful prometheus.Counter
	promFailed     prometheus.Counter
	promLatency    *prometheus.HistogramVec
}

// NewCounters creates counters registered on reg under namespace/subsystem,
// e.g. solvernet_balancer_requests_active. A nil reg creates collectors that
// are never exported, which is what most tests want.
//
// Parameters:
//   - reg: Prometheus registerer, may be nil
//   - namespace: Metric namespace (e.g. "solvernet")
//   - subsystem: Metric subsystem (e.g. "balancer", "worker")
//
// Returns:
//   - *Counters: Counters starting at zero
//   - error: If registration fails (duplicate metric names)
func NewCounters(reg prometheus.Registerer, namespace, subsystem string) (*Counters, error) {
	c := &Counters{
		promActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_active",
			Help:      "Solve requests currently in flight.",
		}),
		promSuccessful: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_successful_total",
			Help:      "Solve requests that completed successfully.",
		}),
		promFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_failed_total",
			Help:      "Solve requests that failed.",
		}),
		promLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "Solve request latency in seconds by outcome.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms .. ~8s
		}, []string{"outcome"}),
	}

	if reg != nil {
		for _, col := range []prometheus.Collector{c.promActive, c.promSuccessful, c.promFailed, c.promLatency} {
			if err := reg.Register(col); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

// MustNewCounters is like NewCounters but panics on registration errors.
func MustNewCounters(reg prometheus.Registerer, namespace, subsystem string) *Counters {
	c, err := NewCounters(reg, namespace, subsystem)
	if err != nil {
		panic(err)
	}
	return c
}

// Begin marks a request as in flight.
func (c *Counters) Begin() {
	c.active.Add(1)
	c.promActive.Inc()
}

// End marks a request as no longer in flight. Every Begin must be paired
// with exactly one End, on every exit path.
func (c *Counters) End() {
	c.active.Add(-1)
	c.promActive.Dec()
}

// Succeed records a successful request that took d.
func (c *Counters) Succeed(d time.Duration) {
	c.successful.Add(1)
	c.promSuccessful.Inc()
	c.promLatency.WithLabelValues("success").Observe(d.Seconds())
}

// Fail records a failed request that took d.
func (c *Counters) Fail(d time.Duration) {
	c.failed.Add(1)
	c.promFailed.Inc()
	c.promLatency.WithLabelValues("failure").Observe(d.Seconds())
}

// Snapshot returns the current counter values.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Active:     c.active.Load(),
		Successful: c.successful.Load(),
		Failed:     c.failed.Load(),
	}
}
