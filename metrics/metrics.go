package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the Prometheus collectors for the site backend.
type Metrics struct {
	Registry *prometheus.Registry

	RequestCounter   *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	OccurrencesGenerated *prometheus.CounterVec
	SeriesEventsDeleted  prometheus.Counter
	CalendarExports      *prometheus.CounterVec
}

// New creates the collectors and registers them on a private registry so that
// tests can build as many instances as they like.
func New(namespace string) *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		RequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being processed",
			},
		),
		OccurrencesGenerated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "events",
				Name:      "occurrences_generated_total",
				Help:      "Event rows created by the recurrence generator",
			},
			[]string{"pattern"},
		),
		SeriesEventsDeleted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "events",
				Name:      "series_rows_deleted_total",
				Help:      "Event rows removed through series deletion",
			},
		),
		CalendarExports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "calendar",
				Name:      "exports_total",
				Help:      "iCalendar exports by outcome",
			},
			[]string{"outcome"},
		),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		m.RequestCounter,
		m.RequestDuration,
		m.RequestsInFlight,
		m.OccurrencesGenerated,
		m.SeriesEventsDeleted,
		m.CalendarExports,
	)
	return m
}

// Middleware records request count, duration and in-flight requests.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		m.RequestsInFlight.Inc()
		defer m.RequestsInFlight.Dec()

		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		status := c.Response().StatusCode()
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		m.RequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		m.RequestCounter.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		return err
	}
}
