package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveAttempt(t *testing.T) {
	m := NewMetrics()
	m.ObserveAttempt("json", "ok", 120*time.Millisecond)
	m.ObserveAttempt("json", "fetch", time.Second)
	m.ObserveAttempt("json", "ok", 50*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Attempts.WithLabelValues("json", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Attempts.WithLabelValues("json", "fetch")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.FetchDuration))
}

func TestFetchDurationCountsEveryAttempt(t *testing.T) {
	m := NewMetrics()
	m.ObserveAttempt("json", "ok", 100*time.Millisecond)
	m.ObserveAttempt("json", "fetch", 2*time.Second)
	m.ObserveAttempt("json", "parse", 300*time.Millisecond)
	m.ObserveAttempt("html", "fetch", time.Second)

	families, err := m.Register().Gather()
	require.NoError(t, err)

	counts := map[string]uint64{}
	for _, f := range families {
		if f.GetName() != "magnet_finder_fetch_duration_seconds" {
			continue
		}
		for _, metric := range f.GetMetric() {
			for _, l := range metric.GetLabel() {
				if l.GetName() == "mode" {
					counts[l.GetValue()] = metric.GetHistogram().GetSampleCount()
				}
			}
		}
	}
	assert.Equal(t, map[string]uint64{"json": 3, "html": 1}, counts)
}

func TestObserveSearch(t *testing.T) {
	m := NewMetrics()
	m.ObserveSearch("found", 12)
	m.ObserveSearch("unreachable", 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Searches.WithLabelValues("found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Searches.WithLabelValues("unreachable")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAttempt("html", "ok", time.Second)
		m.ObserveSearch("found", 1)
	})
}

func TestRegisterIsIdempotent(t *testing.T) {
	m := NewMetrics()
	reg := m.Register()
	require.NotNil(t, reg)
	assert.Same(t, reg, m.Register())

	m.ObserveSearch("no_results", 0)
	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "magnet_finder_searches_total")
}
