// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package synergy

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusConfig configures the Prometheus metrics collector.
type PrometheusConfig struct {
	// Namespace is the metrics namespace (default: "synergy").
	Namespace string

	// Subsystem is the metrics subsystem (default: "client").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// PrometheusOption configures the Prometheus metrics collector.
type PrometheusOption func(*PrometheusConfig)

// WithPrometheusNamespace sets the metrics namespace.
func WithPrometheusNamespace(namespace string) PrometheusOption {
	return func(c *PrometheusConfig) {
		c.Namespace = namespace
	}
}

// WithPrometheusConstLabels sets constant labels for all metrics, for
// example the client name when several sessions share one registry.
func WithPrometheusConstLabels(labels prometheus.Labels) PrometheusOption {
	return func(c *PrometheusConfig) {
		c.ConstLabels = labels
	}
}

// WithPrometheusRegistry sets the Prometheus registry.
func WithPrometheusRegistry(registry prometheus.Registerer) PrometheusOption {
	return func(c *PrometheusConfig) {
		c.Registry = registry
	}
}

// PrometheusMetrics is a MetricsCollector backed by Prometheus collectors.
type PrometheusMetrics struct {
	messagesTotal    *prometheus.CounterVec
	repliesTotal     *prometheus.CounterVec
	bytesReceived    prometheus.Counter
	disconnects      *prometheus.CounterVec
	oversizedFrames  prometheus.Counter
	oversizedBytes   prometheus.Counter
	state            prometheus.Gauge
	dispatchDuration *prometheus.HistogramVec
}

// NewPrometheusMetrics registers the client collectors and returns them.
// It panics if the collectors are already registered on the registry, as
// promauto does.
func NewPrometheusMetrics(opts ...PrometheusOption) *PrometheusMetrics {
	config := PrometheusConfig{
		Namespace: "synergy",
		Subsystem: "client",
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &PrometheusMetrics{
		messagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "messages_received_total",
			Help:        "Protocol messages received from the server, by tag",
			ConstLabels: config.ConstLabels,
		}, []string{"tag"}),

		repliesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "replies_sent_total",
			Help:        "Replies sent to the server, by tag",
			ConstLabels: config.ConstLabels,
		}, []string{"tag"}),

		bytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "received_bytes_total",
			Help:        "Bytes received from the transport",
			ConstLabels: config.ConstLabels,
		}),

		disconnects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "disconnects_total",
			Help:        "Session teardowns, by reason",
			ConstLabels: config.ConstLabels,
		}, []string{"reason"}),

		oversizedFrames: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "oversized_frames_total",
			Help:        "Frames larger than the receive buffer that were discarded",
			ConstLabels: config.ConstLabels,
		}),

		oversizedBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "oversized_frame_bytes_total",
			Help:        "Declared body bytes of discarded frames",
			ConstLabels: config.ConstLabels,
		}),

		state: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "session_state",
			Help:        "Current session state (0=disconnected, 1=connecting, 2=connected, 3=handshake complete, 4=captured)",
			ConstLabels: config.ConstLabels,
		}),

		dispatchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatch_duration_seconds",
			Help:        "Time spent handling a single message, including callbacks and replies",
			ConstLabels: config.ConstLabels,
			Buckets:     prometheus.ExponentialBuckets(0.00001, 4, 8),
		}, []string{"tag"}),
	}
}

// MessageReceived increments the received counter for tag.
func (m *PrometheusMetrics) MessageReceived(tag string) {
	m.messagesTotal.WithLabelValues(tag).Inc()
}

// ReplySent increments the reply counter for tag.
func (m *PrometheusMetrics) ReplySent(tag string) {
	m.repliesTotal.WithLabelValues(tag).Inc()
}

// BytesReceived adds n to the received bytes counter.
func (m *PrometheusMetrics) BytesReceived(n int) {
	m.bytesReceived.Add(float64(n))
}

// StateChanged sets the session state gauge.
func (m *PrometheusMetrics) StateChanged(state State) {
	m.state.Set(float64(state))
}

// Disconnected increments the teardown counter for reason.
func (m *PrometheusMetrics) Disconnected(reason string) {
	m.disconnects.WithLabelValues(reason).Inc()
}

// OversizedFrame counts a discarded frame and its declared length.
func (m *PrometheusMetrics) OversizedFrame(length uint32) {
	m.oversizedFrames.Inc()
	m.oversizedBytes.Add(float64(length))
}

// DispatchDuration observes the handling time of one message.
func (m *PrometheusMetrics) DispatchDuration(tag string, d time.Duration) {
	m.dispatchDuration.WithLabelValues(tag).Observe(d.Seconds())
}
