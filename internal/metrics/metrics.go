package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics wraps Prometheus collectors for progress-sentinel.
type Metrics struct {
	registry              *prometheus.Registry
	eventsReceivedTotal   *prometheus.CounterVec
	dispatchesTotal       *prometheus.CounterVec
	sendDurationSeconds   prometheus.Histogram
	lastSuccessfulSendSec prometheus.Gauge
}

// New initializes a Metrics registry with all collectors registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		eventsReceivedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "progress_sentinel_events_received_total",
			Help: "Total change events received by source.",
		}, []string{"source"}),
		dispatchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "progress_sentinel_dispatches_total",
			Help: "Total dispatch attempts by outcome.",
		}, []string{"outcome"}),
		sendDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "progress_sentinel_send_duration_seconds",
			Help:    "Duration of outbound WhatsApp API calls in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		lastSuccessfulSendSec: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "progress_sentinel_last_successful_send_timestamp",
			Help: "Unix timestamp of the last successful send.",
		}),
	}

	registry.MustRegister(
		m.eventsReceivedTotal,
		m.dispatchesTotal,
		m.sendDurationSeconds,
		m.lastSuccessfulSendSec,
	)

	return m
}

// Handler returns a Prometheus HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// IncEventsReceived increments the received counter for the given source.
func (m *Metrics) IncEventsReceived(source string) {
	if m == nil {
		return
	}
	m.eventsReceivedTotal.WithLabelValues(source).Inc()
}

// IncDispatches increments the dispatch counter for the given outcome.
func (m *Metrics) IncDispatches(outcome string) {
	if m == nil {
		return
	}
	m.dispatchesTotal.WithLabelValues(outcome).Inc()
}

// ObserveSendDuration records how long an outbound call took.
func (m *Metrics) ObserveSendDuration(duration time.Duration) {
	if m == nil {
		return
	}
	m.sendDurationSeconds.Observe(duration.Seconds())
}

// SetLastSuccessfulSendTimestamp sets the last successful send time.
func (m *Metrics) SetLastSuccessfulSendTimestamp(t time.Time) {
	if m == nil {
		return
	}
	m.lastSuccessfulSendSec.Set(float64(t.Unix()))
}
