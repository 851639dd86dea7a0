package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so several servers can live in one process.
type Metrics struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	mutations     *prometheus.CounterVec
	droppedFields *prometheus.CounterVec
	events        prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"method", "route", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scheduler_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_event_mutations_total",
			Help: "Event create/update/delete operations by outcome",
		}, []string{"operation", "outcome"}),
		droppedFields: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_patch_fields_dropped_total",
			Help: "Patch fields skipped because the value could not be parsed",
		}, []string{"field"}),
		events: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scheduler_events",
			Help: "Number of events in the store",
		}),
	}
	reg.MustRegister(
		m.requests, m.duration, m.mutations, m.droppedFields, m.events,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, route string, code int, took time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.duration.WithLabelValues(method, route).Observe(took.Seconds())
}

func (m *Metrics) ObserveMutation(operation, outcome string) {
	m.mutations.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) DroppedField(field string) {
	m.droppedFields.WithLabelValues(field).Inc()
}

func (m *Metrics) SetEventCount(n int) {
	m.events.Set(float64(n))
}
