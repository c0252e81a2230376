// Package telemetry provides Prometheus metrics and OpenTelemetry tracing
// for the host and its outbound Bot API traffic.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tgflow"

// Metrics holds the host's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	apiCalls          *prometheus.CounterVec
	apiDuration       *prometheus.HistogramVec
	webhookDeliveries *prometheus.CounterVec
	executions        *prometheus.CounterVec
	activeWorkflows   prometheus.Gauge
	jobRuns           *prometheus.CounterVec
	jobDuration       *prometheus.HistogramVec
}

// NewMetrics creates collectors on a dedicated registry, together with the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		apiCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telegram_api_requests_total",
			Help:      "Bot API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		apiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "telegram_api_request_duration_seconds",
			Help:      "Bot API request latency by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		webhookDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_deliveries_total",
			Help:      "Inbound webhook deliveries by workflow and outcome.",
		}, []string{"workflow", "outcome"}),
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "executions_total",
			Help:      "Finished workflow executions by workflow and status.",
		}, []string{"workflow", "status"}),
		activeWorkflows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_workflows",
			Help:      "Workflows whose webhook is currently registered.",
		}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cron_job_runs_total",
			Help:      "Scheduled job ticks by job and outcome.",
		}, []string{"job", "outcome"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cron_job_duration_seconds",
			Help:      "Scheduled job run time by job.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.apiCalls,
		m.apiDuration,
		m.webhookDeliveries,
		m.executions,
		m.activeWorkflows,
		m.jobRuns,
		m.jobDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveAPICall records one Bot API round trip.
func (m *Metrics) ObserveAPICall(method, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.apiCalls.WithLabelValues(method, outcome).Inc()
	m.apiDuration.WithLabelValues(method).Observe(d.Seconds())
}

// RecordWebhook records one inbound delivery.
func (m *Metrics) RecordWebhook(workflowID, outcome string) {
	if m == nil {
		return
	}
	m.webhookDeliveries.WithLabelValues(workflowID, outcome).Inc()
}

// RecordExecution records a finished execution.
func (m *Metrics) RecordExecution(workflowID, status string) {
	if m == nil {
		return
	}
	m.executions.WithLabelValues(workflowID, status).Inc()
}

// SetActiveWorkflows updates the active workflow gauge.
func (m *Metrics) SetActiveWorkflows(n int) {
	if m == nil {
		return
	}
	m.activeWorkflows.Set(float64(n))
}

// ObserveJob records one scheduler tick. Skipped ticks carry no duration.
func (m *Metrics) ObserveJob(job, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job, outcome).Inc()
	if d > 0 {
		m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
	}
}
