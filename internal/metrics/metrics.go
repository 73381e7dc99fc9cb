// Package metrics holds the Prometheus collectors for search attempts.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Metrics struct {
	Attempts      *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	Searches      *prometheus.CounterVec
	Results       prometheus.Histogram

	registry *prometheus.Registry
}

func NewMetrics() *Metrics {
	return &Metrics{
		Attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "magnet_finder_attempts_total",
			Help: "Endpoint attempts by transport mode and outcome",
		}, []string{"mode", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "magnet_finder_fetch_duration_seconds",
			Help:    "Duration of single endpoint fetches",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 8, 10},
		}, []string{"mode"}),
		Searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "magnet_finder_searches_total",
			Help: "Completed searches by final status",
		}, []string{"status"}),
		Results: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "magnet_finder_results",
			Help:    "Number of results returned per search",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		}),
	}
}

// Register adds the collectors plus the Go runtime collectors to a fresh
// registry and returns it. Calling Register twice returns the same registry.
func (m *Metrics) Register() *prometheus.Registry {
	if m.registry != nil {
		return m.registry
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(m.Attempts)
	reg.MustRegister(m.FetchDuration)
	reg.MustRegister(m.Searches)
	reg.MustRegister(m.Results)
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m.registry = reg
	return reg
}

// ObserveAttempt records one endpoint attempt. Safe on a nil receiver.
func (m *Metrics) ObserveAttempt(mode, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Attempts.WithLabelValues(mode, outcome).Inc()
	m.FetchDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// ObserveSearch records a finished search. Safe on a nil receiver.
func (m *Metrics) ObserveSearch(status string, n int) {
	if m == nil {
		return
	}
	m.Searches.WithLabelValues(status).Inc()
	m.Results.Observe(float64(n))
}
