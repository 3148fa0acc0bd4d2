package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the Prometheus registry for the API.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	linksIssued     prometheus.Counter
	linksRedeemed   prometheus.Counter
	linksRejected   *prometheus.CounterVec
	gateDenied      *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flightdesk_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "flightdesk_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	issued := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flightdesk_magic_links_issued_total",
		Help: "Magic-link tokens issued.",
	})
	redeemed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flightdesk_magic_links_redeemed_total",
		Help: "Magic-link tokens exchanged for a session credential.",
	})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flightdesk_magic_links_rejected_total",
		Help: "Magic-link redemptions refused, by reason.",
	}, []string{"reason"})
	denied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flightdesk_gate_denied_total",
		Help: "Requests refused by the role/permission gate, by requirement.",
	}, []string{"required"})
	registry.MustRegister(
		requests, duration, issued, redeemed, rejected, denied,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		linksIssued:     issued,
		linksRedeemed:   redeemed,
		linksRejected:   rejected,
		gateDenied:      denied,
	}
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request count and latency per route.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) LinkIssued() {
	if m != nil {
		m.linksIssued.Inc()
	}
}

func (m *Metrics) LinkRedeemed() {
	if m != nil {
		m.linksRedeemed.Inc()
	}
}

func (m *Metrics) LinkRejected(reason string) {
	if m != nil {
		m.linksRejected.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) GateDenied(required string) {
	if m != nil {
		m.gateDenied.WithLabelValues(required).Inc()
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
