package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the Prometheus collectors exposed on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
	httpInFlight prometheus.Gauge

	StatusTransitions *prometheus.CounterVec
	NotificationsSent *prometheus.CounterVec
	ReportsGenerated  prometheus.Counter
	ConflictRetries   *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "motorlane_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "motorlane_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		httpInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "motorlane_http_requests_in_flight",
			Help: "HTTP requests currently being served.",
		}),
		StatusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "motorlane_status_transitions_total",
			Help: "Workflow status transitions by entity and target status.",
		}, []string{"entity", "to_status"}),
		NotificationsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "motorlane_notifications_total",
			Help: "Notification events published by event type.",
		}, []string{"event_type"}),
		ReportsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Name: "motorlane_reports_generated_total",
			Help: "Monthly reports generated or refreshed.",
		}),
		ConflictRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "motorlane_conflicts_total",
			Help: "Uniqueness conflicts rejected by entity.",
		}, []string{"entity"}),
	}
}

// Handler serves the registry on /metrics.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// GinMiddleware records request counts, latency and in-flight gauge.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.httpInFlight.Inc()

		c.Next()

		m.httpInFlight.Dec()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpLatency.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
