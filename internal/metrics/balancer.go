package metrics

import "github.com/prometheus/client_golang/prometheus"

// Balancer holds the routing metrics only the balancer produces.
type Balancer struct {
	selections     *prometheus.CounterVec
	healthFailures *prometheus.CounterVec
	available      prometheus.Gauge
}

// NewBalancer creates routing metrics registered on reg (nil skips registration).
func NewBalancer(reg prometheus.Registerer, namespace string) (*Balancer, error) {
	b := &Balancer{
		selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "balancer",
			Name:      "worker_selections_total",
			Help:      "Times each worker was selected to solve a request.",
		}, []string{"worker_id"}),
		healthFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "balancer",
			Name:      "health_check_failures_total",
			Help:      "Status queries that failed or returned an unusable snapshot, by worker.",
		}, []string{"worker_id"}),
		available: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "balancer",
			Name:      "workers_available",
			Help:      "Workers that answered the most recent status fan-out.",
		}),
	}

	if reg != nil {
		for _, col := range []prometheus.Collector{b.selections, b.healthFailures, b.available} {
			if err := reg.Register(col); err != nil {
				return nil, err
			}
		}
	}
	return b, nil
}

// Selected counts one routing decision in favour of workerID.
func (b *Balancer) Selected(workerID string) {
	b.selections.WithLabelValues(workerID).Inc()
}

// HealthCheckFailed counts one failed status query against workerID.
func (b *Balancer) HealthCheckFailed(workerID string) {
	b.healthFailures.WithLabelValues(workerID).Inc()
}

// Available records the size of the latest available set.
func (b *Balancer) Available(n int) {
	b.available.Set(float64(n))
}
