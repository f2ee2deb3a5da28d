package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "helpdesk"

// Metrics groups the prometheus collectors the service records into.
type Metrics struct {
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	httpErrors      *prometheus.CounterVec
	ticketsCreated  *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	dashboardLoads  *prometheus.CounterVec
	eventsPublished *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg. A nil reg uses the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_total_requests",
			Help:      "Total number of http requests",
		}, []string{"path", "method", "status_code"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of the http request",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "method", "status_code"}),
		httpErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_errors_total",
			Help:      "Total number of error responses by error code",
		}, []string{"path", "method", "code"}),
		ticketsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tickets_created_total",
			Help:      "Tickets admitted by the creation validator",
		}, []string{"flow", "priority"}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticket_transitions_total",
			Help:      "Status transitions by source and target status",
		}, []string{"from", "to"}),
		dashboardLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dashboard_loads_total",
			Help:      "Dashboard loads by outcome",
		}, []string{"outcome"}),
		eventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Domain events published",
		}, []string{"event"}),
	}
}

// RecordRequest observes a completed HTTP request.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(path, method, code).Inc()
	m.httpDuration.WithLabelValues(path, method, code).Observe(duration.Seconds())
}

// RecordError counts an error response.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.httpErrors.WithLabelValues(path, method, code).Inc()
}

// RecordTicketCreated counts an admitted ticket.
func (m *Metrics) RecordTicketCreated(flow, priority string) {
	if m == nil {
		return
	}
	m.ticketsCreated.WithLabelValues(flow, priority).Inc()
}

// RecordTransition counts a status change.
func (m *Metrics) RecordTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

// Dashboard load outcomes.
const (
	LoadApplied    = "applied"
	LoadSuperseded = "superseded"
	LoadFailed     = "failed"
)

// RecordDashboardLoad counts a dashboard load by outcome.
func (m *Metrics) RecordDashboardLoad(outcome string) {
	if m == nil {
		return
	}
	m.dashboardLoads.WithLabelValues(outcome).Inc()
}

// RecordEvent counts a published domain event.
func (m *Metrics) RecordEvent(name string) {
	if m == nil {
		return
	}
	m.eventsPublished.WithLabelValues(name).Inc()
}
