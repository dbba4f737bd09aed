// Package metrics holds the Prometheus collectors shared across the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riskcare_http_requests_total",
		Help: "HTTP requests by method, route and status code",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "riskcare_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	workflowOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riskcare_patient_workflow_total",
		Help: "Patient workflow outcomes by operation",
	}, []string{"operation", "outcome"})

	scorerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "riskcare_scorer_request_duration_seconds",
		Help:    "Latency of risk scorer calls by outcome",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"outcome"})

	summaryCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riskcare_summary_cache_total",
		Help: "Risk summary cache lookups by result",
	}, []string{"result"})
)

// ObserveWorkflow records the outcome of a create, update, delete or read.
func ObserveWorkflow(operation, outcome string) {
	workflowOutcomes.WithLabelValues(operation, outcome).Inc()
}

// ObserveScorer records one scorer round trip.
func ObserveScorer(outcome string, elapsed time.Duration) {
	scorerDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// ObserveSummaryCache records a cache hit, miss or error.
func ObserveSummaryCache(result string) {
	summaryCache.WithLabelValues(result).Inc()
}

// Middleware records request counts and latency keyed by the matched route
// pattern, so /api/patients/:id is one series rather than one per id.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			// Errors are rendered here so the recorded status is the one sent.
			if err := next(c); err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}

			method := c.Request().Method
			httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
