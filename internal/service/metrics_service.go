package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	authOutcomes    *prometheus.CounterVec
	sessionOps      *prometheus.HistogramVec
	exportJobs      *prometheus.CounterVec
}

// NewMetricsService registers the Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	authOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_operations_total",
		Help: "Auth operations by kind and outcome",
	}, []string{"operation", "outcome"})

	sessionOps := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "session_store_op_duration_seconds",
		Help:    "Latency of session store operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	exportJobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payroll_export_jobs_total",
		Help: "Payroll export jobs by outcome",
	}, []string{"outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, authOutcomes, sessionOps, exportJobs, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		authOutcomes:    authOutcomes,
		sessionOps:      sessionOps,
		exportJobs:      exportJobs,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordAuthOutcome counts login, refresh and logout outcomes. Outcome is one
// of "success", "rejected" or "unavailable".
func (m *MetricsService) RecordAuthOutcome(operation, outcome string) {
	if m == nil {
		return
	}
	m.authOutcomes.WithLabelValues(operation, outcome).Inc()
}

// ObserveSessionOp records session store latency per operation.
func (m *MetricsService) ObserveSessionOp(op string, duration time.Duration) {
	if m == nil {
		return
	}
	m.sessionOps.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordExportJob counts payroll export job outcomes.
func (m *MetricsService) RecordExportJob(outcome string) {
	if m == nil {
		return
	}
	m.exportJobs.WithLabelValues(outcome).Inc()
}
