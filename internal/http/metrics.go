package http

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalHTTPMetrics *httpMetrics
	httpMetricsOnce   sync.Once
)

// httpMetrics holds Prometheus metrics for the HTTP layer.
type httpMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// newHTTPMetrics creates and registers HTTP metrics. sync.Once guards
// against duplicate collector registration panics when multiple servers
// are constructed (tests do this).
func newHTTPMetrics() *httpMetrics {
	httpMetricsOnce.Do(func() {
		globalHTTPMetrics = &httpMetrics{
			RequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total HTTP requests by method, route, and status",
				},
				[]string{"method", "route", "status"},
			),
			RequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request duration in seconds by method and route",
					Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
				},
				[]string{"method", "route"},
			),
		}
	})
	return globalHTTPMetrics
}

// metricsMiddleware records per-route request counts and latencies. The
// route template (not the raw URI) is the label, so /api/history/:id stays
// a single series.
func metricsMiddleware() echo.MiddlewareFunc {
	m := newHTTPMetrics()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}

			// The error handler has not written the response yet, so a
			// failed request still reports its pre-error status here.
			// Derive the real one from the error instead.
			status := c.Response().Status
			if err != nil {
				status = http.StatusInternalServerError
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				}
			}

			method := c.Request().Method
			m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())

			return err
		}
	}
}
