// Package metrics exposes Prometheus collectors for the HTTP pipeline and
// the database pool. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "landing"

// Signup results.
const (
	SignupCreated  = "created"
	SignupConflict = "conflict"
)

// Metrics holds the server's collectors.
type Metrics struct {
	gatherer prometheus.Gatherer

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	rateLimited     *prometheus.CounterVec
	signups         *prometheus.CounterVec
	contactMessages prometheus.Counter

	registerer prometheus.Registerer
}

// New creates the collectors and registers them, plus Go runtime and
// process collectors, with reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer:   reg,
		registerer: reg,
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests by route and status code.",
			},
			[]string{"route", "code"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency by route.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		rateLimited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limited_total",
				Help:      "Requests rejected by a rate limiter.",
			},
			[]string{"limiter"},
		),
		signups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "signups_total",
				Help:      "Waitlist signup attempts by result.",
			},
			[]string{"result"},
		),
		contactMessages: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "contact_messages_total",
				Help:      "Contact messages stored.",
			},
		),
	}
	reg.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.rateLimited,
		m.signups,
		m.contactMessages,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// StatSource is implemented by the repository pool.
type StatSource interface {
	Stat() *pgxpool.Stat
}

// RegisterPool exports connection pool gauges read from src at scrape time.
func (m *Metrics) RegisterPool(src StatSource) {
	if m == nil {
		return
	}
	gauge := func(name, help string, read func(*pgxpool.Stat) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "db_pool",
				Name:      name,
				Help:      help,
			},
			func() float64 { return read(src.Stat()) },
		)
	}
	m.registerer.MustRegister(
		gauge("total_conns", "Open connections.", func(s *pgxpool.Stat) float64 { return float64(s.TotalConns()) }),
		gauge("idle_conns", "Idle connections.", func(s *pgxpool.Stat) float64 { return float64(s.IdleConns()) }),
		gauge("acquired_conns", "Connections in use.", func(s *pgxpool.Stat) float64 { return float64(s.AcquiredConns()) }),
		gauge("max_conns", "Pool size limit.", func(s *pgxpool.Stat) float64 { return float64(s.MaxConns()) }),
	)
}

// ObserveRequest records one finished request.
func (m *Metrics) ObserveRequest(route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// RateLimited records a rejection by the named limiter.
func (m *Metrics) RateLimited(limiter string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(limiter).Inc()
}

// Signup records a waitlist signup attempt outcome.
func (m *Metrics) Signup(result string) {
	if m == nil {
		return
	}
	m.signups.WithLabelValues(result).Inc()
}

// ContactMessage records a stored contact message.
func (m *Metrics) ContactMessage() {
	if m == nil {
		return
	}
	m.contactMessages.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
