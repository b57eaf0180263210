package observability

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsDispatchCollectors(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()

	metrics.IncPostSent("FACEBOOK")
	metrics.IncPostFailed("facebook", "RATE_LIMITED")
	metrics.ObserveSendDuration("facebook", 120*time.Millisecond)
	metrics.IncInFlight()
	metrics.DecInFlight()
	metrics.IncFallbackWrite("LEAD")
	metrics.IncNotificationDelivered("NEW_LEAD")
	metrics.IncNotificationFailed("NEW_LEAD")
	metrics.IncScheduledDispatched()

	if got := testutil.ToFloat64(metrics.postsSentTotal.WithLabelValues("facebook")); got != 1 {
		t.Fatalf("posts_sent_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.postsFailedTotal.WithLabelValues("facebook", "rate_limited")); got != 1 {
		t.Fatalf("posts_failed_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.dispatchInflight); got != 0 {
		t.Fatalf("dispatch_inflight = %v, want 0", got)
	}
	if got := testutil.ToFloat64(metrics.fallbackWritesTotal.WithLabelValues("lead")); got != 1 {
		t.Fatalf("fallback_writes_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.notificationsTotal.WithLabelValues("new_lead", "delivered")); got != 1 {
		t.Fatalf("notifications_total{delivered} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.notificationsTotal.WithLabelValues("new_lead", "failed")); got != 1 {
		t.Fatalf("notifications_total{failed} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.scheduledRunsTotal); got != 1 {
		t.Fatalf("scheduled_posts_dispatched_total = %v, want 1", got)
	}
}

func TestMetricsHTTPMiddlewareRecordsRequest(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()
	app := fiber.New()
	app.Use(metrics.HTTPMiddleware())
	app.Get("/livez", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/livez", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	if got := testutil.ToFloat64(metrics.httpRequestsTotal.WithLabelValues("GET", "/livez", "200")); got != 1 {
		t.Fatalf("http_requests_total = %v, want 1", got)
	}
}

func TestMetricsHTTPMiddlewareRecordsErrorStatus(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()
	app := fiber.New()
	app.Use(metrics.HTTPMiddleware())
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("boom")
	})

	req := httptest.NewRequest("GET", "/boom", nil)
	_, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}

	if got := testutil.ToFloat64(metrics.httpRequestsTotal.WithLabelValues("GET", "/boom", "500")); got != 1 {
		t.Fatalf("http_requests_total = %v, want 1", got)
	}
}
