package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "miniforvaltaren"

// Intake results recorded on the intake ticket counter
const (
	IntakeCreated      = "created"
	IntakeInvalidToken = "invalid_token"
	IntakeInvalidForm  = "invalid_form"
)

// Metrics bundles the Prometheus collectors shared by the HTTP layer and the services.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Requests      *prometheus.CounterVec
	Duration      *prometheus.HistogramVec
	InFlight      prometheus.Gauge
	InvoicesPaid  prometheus.Counter
	IntakeTickets *prometheus.CounterVec
	OverdueMarked prometheus.Counter

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total count of HTTP requests received.",
			},
			[]string{"method", "path", "status"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Histogram of request durations.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_inflight_requests",
			Help:      "Number of requests currently being handled.",
		}),
		InvoicesPaid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoices_paid_total",
			Help:      "Rent invoices marked as paid.",
		}),
		IntakeTickets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "intake_tickets_total",
				Help:      "Public maintenance reports by outcome.",
			},
			[]string{"result"},
		),
		OverdueMarked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoices_marked_overdue_total",
			Help:      "Invoices moved to OVERDUE by the sweep job.",
		}),
	}

	reg.MustRegister(m.Requests, m.Duration, m.InFlight, m.InvoicesPaid, m.IntakeTickets, m.OverdueMarked)

	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

// NewForTest registers the collectors on a fresh registry
func NewForTest() *Metrics {
	return New(prometheus.NewRegistry())
}

// Handler exposes /metrics for the registry the collectors live in
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) InvoicePaid() {
	if m == nil {
		return
	}
	m.InvoicesPaid.Inc()
}

func (m *Metrics) IntakeTicket(result string) {
	if m == nil {
		return
	}
	m.IntakeTickets.WithLabelValues(result).Inc()
}

func (m *Metrics) Overdue(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.OverdueMarked.Add(float64(n))
}
