// Package metrics holds the Prometheus collectors of the decision core and
// the HTTP instrumentation that feeds them.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "adcore"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "route"},
	)

	targetingEvaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "targeting",
			Name:      "evaluations_total",
			Help:      "Targeting evaluations by outcome.",
		},
		[]string{"matched"},
	)

	budgetChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "budget",
			Name:      "checks_total",
			Help:      "Budget availability checks and reservations by outcome.",
		},
		[]string{"op", "outcome"},
	)

	ledgerOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "operations_total",
			Help:      "Billing ledger operations by outcome.",
		},
		[]string{"op", "outcome"},
	)

	gatewayDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "call_duration_seconds",
			Help:      "Duration of payment gateway attempts.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"op", "outcome"},
	)

	servedImpressions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "serving",
			Name:      "requests_total",
			Help:      "Ad requests by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		targetingEvaluations,
		budgetChecks,
		ledgerOperations,
		gatewayDuration,
		servedImpressions,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveTargeting counts one targeting evaluation.
func ObserveTargeting(matched bool) {
	targetingEvaluations.WithLabelValues(strconv.FormatBool(matched)).Inc()
}

// ObserveBudget counts one budget operation, e.g. ("check", "available").
func ObserveBudget(op, outcome string) {
	budgetChecks.WithLabelValues(op, outcome).Inc()
}

// ObserveLedger counts one ledger operation, e.g. ("deduct", "insufficient_funds").
func ObserveLedger(op, outcome string) {
	ledgerOperations.WithLabelValues(op, outcome).Inc()
}

// ObserveGateway records the latency of one gateway attempt.
func ObserveGateway(op, outcome string, elapsed time.Duration) {
	gatewayDuration.WithLabelValues(op, outcome).Observe(elapsed.Seconds())
}

// ObserveServe counts one ad request.
func ObserveServe(outcome string) {
	servedImpressions.WithLabelValues(outcome).Inc()
}

// Middleware records request counts and latency labelled by the chi route
// pattern, so path parameters do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
