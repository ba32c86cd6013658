package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic,
// caching, and the reporting workflow. A nil service is a no-op.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Histogram
	cacheWrite      prometheus.Histogram
	cacheLookups    *prometheus.CounterVec

	reportsSubmitted    *prometheus.CounterVec
	codeCollisions      prometheus.Counter
	codeLookups         *prometheus.CounterVec
	messagesAppended    *prometheus.CounterVec
	notificationsSent   *prometheus.CounterVec
	rateLimited         *prometheus.CounterVec
	streamSubscriptions prometheus.Gauge
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	m := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_latency_seconds",
			Help:    "Latency for cache reads",
			Buckets: prometheus.DefBuckets,
		}),
		cacheWrite: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_write_seconds",
			Help:    "Latency for cache writes",
			Buckets: prometheus.DefBuckets,
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Cache lookups by result",
		}, []string{"result"}),
		reportsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reports_submitted_total",
			Help: "Reports accepted by intake",
		}, []string{"bullying_type"}),
		codeCollisions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reference_code_collisions_total",
			Help: "Reference code collisions that forced a new report id",
		}),
		codeLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reference_code_lookups_total",
			Help: "Reference code resolutions by result",
		}, []string{"result"}),
		messagesAppended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "conversation_messages_total",
			Help: "Conversation messages appended by sender",
		}, []string{"sender"}),
		notificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Notification emails by event and result",
		}, []string{"event", "result"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Requests rejected by the rate limiter",
		}, []string{"scope"}),
		streamSubscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "conversation_stream_subscribers",
			Help: "Open conversation websocket streams",
		}),
	}

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		m.requestDuration, m.requestTotal, m.cacheLatency, m.cacheWrite, m.cacheLookups,
		m.reportsSubmitted, m.codeCollisions, m.codeLookups, m.messagesAppended,
		m.notificationsSent, m.rateLimited, m.streamSubscriptions, goroutines,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
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

// Registry exposes the underlying registry for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
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

// RecordCacheOperation records a cache read.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	m.cacheLookups.WithLabelValues(hitLabel(hit)).Inc()
}

// ObserveCacheWrite tracks the duration of cache writes.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ReportSubmitted counts an accepted report.
func (m *MetricsService) ReportSubmitted(bullyingType string) {
	if m == nil {
		return
	}
	m.reportsSubmitted.WithLabelValues(bullyingType).Inc()
}

// ReferenceCodeCollision counts a code collision during intake.
func (m *MetricsService) ReferenceCodeCollision() {
	if m == nil {
		return
	}
	m.codeCollisions.Inc()
}

// ReferenceCodeLookup counts a code resolution attempt.
func (m *MetricsService) ReferenceCodeLookup(found bool) {
	if m == nil {
		return
	}
	result := "found"
	if !found {
		result = "not_found"
	}
	m.codeLookups.WithLabelValues(result).Inc()
}

// MessageAppended counts a conversation append.
func (m *MetricsService) MessageAppended(sender string) {
	if m == nil {
		return
	}
	m.messagesAppended.WithLabelValues(sender).Inc()
}

// NotificationSent counts one delivery attempt.
func (m *MetricsService) NotificationSent(event string, err error) {
	if m == nil {
		return
	}
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.notificationsSent.WithLabelValues(event, result).Inc()
}

// RateLimited counts a rejected request.
func (m *MetricsService) RateLimited(scope string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(scope).Inc()
}

// StreamOpened and StreamClosed track live websocket subscribers.
func (m *MetricsService) StreamOpened() {
	if m == nil {
		return
	}
	m.streamSubscriptions.Inc()
}

func (m *MetricsService) StreamClosed() {
	if m == nil {
		return
	}
	m.streamSubscriptions.Dec()
}

func hitLabel(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
