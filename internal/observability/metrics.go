package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors used by the API, dispatch, and
// notification flows.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	postsSentTotal       *prometheus.CounterVec
	postsFailedTotal     *prometheus.CounterVec
	sendDuration         *prometheus.HistogramVec
	dispatchInflight     prometheus.Gauge
	fallbackWritesTotal  *prometheus.CounterVec
	notificationsTotal   *prometheus.CounterVec
	scheduledRunsTotal   prometheus.Counter
	scheduledFailedTotal prometheus.Counter
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "outreach",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "outreach",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		postsSentTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "outreach",
				Name:      "posts_sent_total",
				Help:      "Total number of posts accepted by a platform.",
			},
			[]string{"platform"},
		),
		postsFailedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "outreach",
				Name:      "posts_failed_total",
				Help:      "Total number of platform post attempts that failed, by failure kind.",
			},
			[]string{"platform", "kind"},
		),
		sendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "outreach",
				Name:      "post_send_duration_seconds",
				Help:      "Platform send duration in seconds grouped by platform.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"platform"},
		),
		dispatchInflight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "outreach",
				Name:      "dispatch_inflight",
				Help:      "Current number of in-flight platform posts.",
			},
		),
		fallbackWritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "outreach",
				Name:      "fallback_writes_total",
				Help:      "Total number of record writes that landed in the local fallback store.",
			},
			[]string{"kind"},
		),
		notificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "outreach",
				Name:      "notifications_total",
				Help:      "Total number of notification delivery attempts by event kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		scheduledRunsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "outreach",
				Name:      "scheduled_posts_dispatched_total",
				Help:      "Total number of scheduled posts picked up and dispatched.",
			},
		),
		scheduledFailedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "outreach",
				Name:      "scheduled_posts_failed_total",
				Help:      "Total number of scheduled posts whose dispatch run failed entirely.",
			},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.postsSentTotal,
		m.postsFailedTotal,
		m.sendDuration,
		m.dispatchInflight,
		m.fallbackWritesTotal,
		m.notificationsTotal,
		m.scheduledRunsTotal,
		m.scheduledFailedTotal,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

func (m *Metrics) IncPostSent(platform string) {
	if m == nil {
		return
	}
	m.postsSentTotal.WithLabelValues(normalizeLabel(platform)).Inc()
}

func (m *Metrics) IncPostFailed(platform string, kind string) {
	if m == nil {
		return
	}
	kindLabel := strings.TrimSpace(strings.ToLower(kind))
	if kindLabel == "" {
		kindLabel = "unknown"
	}
	m.postsFailedTotal.WithLabelValues(normalizeLabel(platform), kindLabel).Inc()
}

func (m *Metrics) ObserveSendDuration(platform string, duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.sendDuration.WithLabelValues(normalizeLabel(platform)).Observe(seconds)
}

func (m *Metrics) IncInFlight() {
	if m == nil {
		return
	}
	m.dispatchInflight.Inc()
}

func (m *Metrics) DecInFlight() {
	if m == nil {
		return
	}
	m.dispatchInflight.Dec()
}

func (m *Metrics) IncFallbackWrite(kind string) {
	if m == nil {
		return
	}
	m.fallbackWritesTotal.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (m *Metrics) IncNotificationDelivered(kind string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(normalizeLabel(kind), "delivered").Inc()
}

func (m *Metrics) IncNotificationFailed(kind string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(normalizeLabel(kind), "failed").Inc()
}

func (m *Metrics) IncScheduledDispatched() {
	if m == nil {
		return
	}
	m.scheduledRunsTotal.Inc()
}

func (m *Metrics) IncScheduledFailed() {
	if m == nil {
		return
	}
	m.scheduledFailedTotal.Inc()
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}

func normalizeLabel(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
