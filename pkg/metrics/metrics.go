package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Appointment metrics
	AppointmentsBooked   prometheus.Counter
	AppointmentsRejected *prometheus.CounterVec
	PenaltiesCreated     *prometheus.CounterVec
}

// New creates a registry with the Go runtime collectors and all application metrics.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"method", "route"}),
		AppointmentsBooked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dental",
			Name:      "appointments_booked_total",
			Help:      "Total number of appointments booked",
		}),
		AppointmentsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dental",
			Name:      "appointments_rejected_total",
			Help:      "Total number of booking or reschedule attempts rejected",
		}, []string{"reason"}),
		PenaltiesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dental",
			Name:      "penalties_created_total",
			Help:      "Total number of penalties created",
		}, []string{"reason"}),
	}

	registry.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.AppointmentsBooked,
		m.AppointmentsRejected,
		m.PenaltiesCreated,
	)

	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) BookingRejected(reason string) {
	if m == nil {
		return
	}
	m.AppointmentsRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) Booked() {
	if m == nil {
		return
	}
	m.AppointmentsBooked.Inc()
}

func (m *Metrics) PenaltyCreated(reason string) {
	if m == nil {
		return
	}
	m.PenaltiesCreated.WithLabelValues(reason).Inc()
}
