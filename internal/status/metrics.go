package status

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the collectors exposed on /metrics. Each Server owns its own
// registry so two servers in one process never fight over collector names.
type metrics struct {
	registry *prometheus.Registry

	attempts     *prometheus.CounterVec
	up           *prometheus.GaugeVec
	latency      *prometheus.GaugeVec
	childRunning prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "readygate_probe_attempts_total",
				Help: "Total number of background probe attempts per target",
			},
			[]string{"target"},
		),
		up: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "readygate_dependency_up",
				Help: "Whether the last probe of the target succeeded (1) or failed (0)",
			},
			[]string{"target"},
		),
		latency: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "readygate_probe_latency_seconds",
				Help: "Duration of the last probe of the target in seconds",
			},
			[]string{"target"},
		),
		childRunning: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "readygate_child_running",
				Help: "Whether the supervised server process is running (1) or has exited (0)",
			},
		),
	}
	m.registry.MustRegister(m.attempts, m.up, m.latency, m.childRunning)
	return m
}

func (m *metrics) observeProbe(target string, ok bool, latency time.Duration) {
	m.attempts.WithLabelValues(target).Inc()
	m.latency.WithLabelValues(target).Set(latency.Seconds())
	if ok {
		m.up.WithLabelValues(target).Set(1)
	} else {
		m.up.WithLabelValues(target).Set(0)
	}
}

func (m *metrics) setChildRunning(running bool) {
	if running {
		m.childRunning.Set(1)
	} else {
		m.childRunning.Set(0)
	}
}
