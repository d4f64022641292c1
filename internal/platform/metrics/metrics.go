// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pgr"

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	ClientRequests      *prometheus.CounterVec
	ClientDuration      *prometheus.HistogramVec
	ServiceRequests     *prometheus.CounterVec
	NotificationsSent   *prometheus.CounterVec
	ProcessCacheLookups *prometheus.CounterVec
	gatherer            prometheus.Gatherer
}

// New creates the collectors and registers them on reg. Passing nil
// registers on a fresh registry, which keeps tests isolated.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route pattern, method and status code.",
		}, []string{"route", "method", "code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		ClientRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "digit_client_requests_total",
			Help:      "Outbound calls to DIGIT platform services.",
		}, []string{"client", "operation", "outcome"}),
		ClientDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "digit_client_request_duration_seconds",
			Help:      "Latency of outbound calls to DIGIT platform services.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"client", "operation"}),
		ServiceRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "service_requests_total",
			Help:      "Service request operations by outcome.",
		}, []string{"operation", "outcome"}),
		NotificationsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Citizen notifications dispatched, by channel and outcome.",
		}, []string{"channel", "outcome"}),
		ProcessCacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "process_cache_lookups_total",
			Help:      "Workflow process id cache lookups, by result.",
		}, []string{"result"}),
		gatherer: reg,
	}
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}

// ObserveClientRequest records one outbound call.
func (m *Metrics) ObserveClientRequest(client, operation string, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.ClientRequests.WithLabelValues(client, operation, outcome(err)).Inc()
	m.ClientDuration.WithLabelValues(client, operation).Observe(d.Seconds())
}

// ObserveServiceRequest records a create, update or search.
func (m *Metrics) ObserveServiceRequest(operation string, err error) {
	if m == nil {
		return
	}
	m.ServiceRequests.WithLabelValues(operation, outcome(err)).Inc()
}

// ObserveNotification records one notification dispatch.
func (m *Metrics) ObserveNotification(channel string, err error) {
	if m == nil {
		return
	}
	m.NotificationsSent.WithLabelValues(channel, outcome(err)).Inc()
}

// ObserveCacheLookup records a process cache hit or miss.
func (m *Metrics) ObserveCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.ProcessCacheLookups.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware records request count and latency per chi route pattern.
// It must be mounted on a chi router so the pattern is resolved.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
