// Package metrics exposes Prometheus instrumentation for data fetches, live
// sessions and change notifications. Every observer is safe on a nil receiver.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// DashboardMetrics exposes counters/histograms for the dashboard backend.
type DashboardMetrics struct {
	fetchTotal    *prometheus.CounterVec
	fetchLatency  *prometheus.HistogramVec
	liveSessions  prometheus.Gauge
	changeEvents  *prometheus.CounterVec
	droppedEvents *prometheus.CounterVec
}

func NewDashboardMetrics(reg prometheus.Registerer) *DashboardMetrics {
	m := &DashboardMetrics{
		fetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "insightdesk",
			Subsystem: "datasource",
			Name:      "fetch_total",
			Help:      "Total data source fetches by outcome",
		}, []string{"entity", "scope", "status"}),
		fetchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "insightdesk",
			Subsystem: "datasource",
			Name:      "fetch_latency_seconds",
			Help:      "Latency of data source fetches",
			Buckets:   prometheus.DefBuckets,
		}, []string{"entity"}),
		liveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "insightdesk",
			Subsystem: "live",
			Name:      "sessions",
			Help:      "Open live table sessions",
		}),
		changeEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "insightdesk",
			Subsystem: "realtime",
			Name:      "change_events_total",
			Help:      "Change notifications received",
		}, []string{"entity", "type"}),
		droppedEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "insightdesk",
			Subsystem: "realtime",
			Name:      "dropped_events_total",
			Help:      "Change notifications dropped for slow subscribers",
		}, []string{"entity"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.fetchTotal, m.fetchLatency, m.liveSessions, m.changeEvents, m.droppedEvents)
	return m
}

// ObserveFetch records one fetch. scope is "client" or "server".
func (m *DashboardMetrics) ObserveFetch(entity, scope string, err error, seconds float64) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "failed"
	}
	m.fetchTotal.WithLabelValues(entity, scope, status).Inc()
	m.fetchLatency.WithLabelValues(entity).Observe(seconds)
}

func (m *DashboardMetrics) SessionOpened() {
	if m == nil {
		return
	}
	m.liveSessions.Inc()
}

func (m *DashboardMetrics) SessionClosed() {
	if m == nil {
		return
	}
	m.liveSessions.Dec()
}

func (m *DashboardMetrics) ObserveEvent(entity, eventType string) {
	if m == nil {
		return
	}
	m.changeEvents.WithLabelValues(entity, eventType).Inc()
}

func (m *DashboardMetrics) ObserveDrop(entity string) {
	if m == nil {
		return
	}
	m.droppedEvents.WithLabelValues(entity).Inc()
}
