package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestPrometheus(t *testing.T) (*PrometheusMiddleware, *prometheus.Registry) {
	t.Helper()
	// Fresh registry per test avoids duplicate registration errors.
	reg := prometheus.NewRegistry()
	m, err := NewPrometheusMiddleware(reg)
	if err != nil {
		t.Fatalf("failed to create middleware: %v", err)
	}
	return m, reg
}

func TestPrometheusMiddleware(t *testing.T) {
	promMiddleware, _ := newTestPrometheus(t)

	app := fiber.New()
	app.Use(promMiddleware.Handler())

	app.All("/*", func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodPut {
			return fiber.NewError(fiber.StatusBadGateway, "bad gateway")
		}
		return c.SendStatus(fiber.StatusOK)
	})

	for _, method := range []string{"GET", "POST"} {
		resp, _ := app.Test(httptest.NewRequest(method, "/", nil))
		if resp.StatusCode != fiber.StatusOK {
			t.Errorf("expected status 200 for %s, got %d", method, resp.StatusCode)
		}
		count := testutil.ToFloat64(promMiddleware.requestCount.WithLabelValues(method, "/*", "200"))
		if count != 1 {
			t.Errorf("expected count 1 for %s, got %f", method, count)
		}
	}

	app.Test(httptest.NewRequest("PUT", "/anything", nil))

	countErr := testutil.ToFloat64(promMiddleware.requestCount.WithLabelValues("PUT", "/*", "502"))
	if countErr != 1 {
		t.Errorf("expected count 1 for error, got %f", countErr)
	}

	if n := testutil.CollectAndCount(promMiddleware.requestDuration); n == 0 {
		t.Error("expected histogram metrics to be collected, got 0")
	}
}

func TestPrometheusMiddleware_ExcludeMetrics(t *testing.T) {
	promMiddleware, reg := newTestPrometheus(t)

	app := fiber.New()
	app.Use(promMiddleware.Handler())

	app.Get("/metrics", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	app.Test(httptest.NewRequest("GET", "/metrics", nil))

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() == "http_requests_total" && len(mf.GetMetric()) > 0 {
			t.Errorf("expected 0 metrics for http_requests_total, got %d", len(mf.GetMetric()))
		}
	}
}

func TestNewPrometheusMiddleware_DuplicateRegistration(t *testing.T) {
	_, reg := newTestPrometheus(t)

	if _, err := NewPrometheusMiddleware(reg); err == nil {
		t.Error("expected duplicate registration to fail")
	}
}
