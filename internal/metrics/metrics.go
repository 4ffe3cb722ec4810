// Package metrics exposes the prometheus collectors of the planning API.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "salesplan"

// Metrics holds the collectors and the registry they are registered with
type Metrics struct {
	registry *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
	workflowTransitions *prometheus.CounterVec
	exports             *prometheus.CounterVec
	importedRows        *prometheus.CounterVec
	wsClients           prometheus.Gauge
}

// New creates the collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		workflowTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_transitions_total",
			Help:      "Workflow transitions by item type and resulting state.",
		}, []string{"item_type", "state"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Generated export files by format.",
		}, []string{"format"}),
		importedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imported_entities_total",
			Help:      "Planning entities accepted by imports, by strategy.",
		}, []string{"strategy"}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected websocket clients.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.workflowTransitions,
		m.exports,
		m.importedRows,
		m.wsClients,
	)
	return m
}

// Handler serves the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRequest records one served HTTP request
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// WorkflowTransition counts a committed workflow transition
func (m *Metrics) WorkflowTransition(itemType, state string) {
	if m == nil {
		return
	}
	m.workflowTransitions.WithLabelValues(itemType, state).Inc()
}

// ExportGenerated counts a generated export file
func (m *Metrics) ExportGenerated(format string) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(format).Inc()
}

// EntitiesImported counts entities accepted by an import
func (m *Metrics) EntitiesImported(strategy string, n int) {
	if m == nil {
		return
	}
	m.importedRows.WithLabelValues(strategy).Add(float64(n))
}

// ClientConnected tracks websocket connects (+1) and disconnects (-1)
func (m *Metrics) ClientConnected(delta int) {
	if m == nil {
		return
	}
	m.wsClients.Add(float64(delta))
}
