package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles Prometheus collectors for the replay API.
type Metrics struct {
	registry         *prometheus.Registry
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	replayClients    prometheus.Gauge
	messagesStreamed prometheus.Counter
	rateLimited      prometheus.Counter
}

func newMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatconv",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests received",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "chatconv",
			Name:      "http_request_duration_seconds",
			Help:      "Histogram of HTTP request durations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		replayClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chatconv",
			Name:      "replay_clients",
			Help:      "Current connected replay stream clients",
		}),
		messagesStreamed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chatconv",
			Name:      "messages_streamed_total",
			Help:      "Number of chat messages delivered over replay streams",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chatconv",
			Name:      "http_rate_limited_total",
			Help:      "Number of HTTP requests rejected due to rate limiting",
		}),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.replayClients,
		m.messagesStreamed,
		m.rateLimited,
	)

	return m
}

// Handler returns an HTTP handler exposing the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records timing and status information.
func (m *Metrics) ObserveRequest(route, method string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(dur.Seconds())
}

// IncReplayClients adjusts the replay client gauge by delta.
func (m *Metrics) IncReplayClients(delta float64) {
	if m == nil {
		return
	}
	m.replayClients.Add(delta)
}

// IncMessagesStreamed adds to the streamed message counter.
func (m *Metrics) IncMessagesStreamed(n int) {
	if m == nil {
		return
	}
	m.messagesStreamed.Add(float64(n))
}

// IncRateLimited increments the rate limit counter.
func (m *Metrics) IncRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}
