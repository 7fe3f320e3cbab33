package natsclient

import (
	"time"
)

// MetricType represents the type of metric.
type MetricType int

const (
	// MetricTypeCounter is a monotonically increasing counter.
	MetricTypeCounter MetricType = 0
	// MetricTypeGauge is a value that can go up and down.
	MetricTypeGauge MetricType = 1
	// MetricTypeHistogram tracks distribution of values.
	MetricTypeHistogram MetricType = 2
)

// String returns the string representation of the metric type.
func (t MetricType) String() string {
	switch t {
	case MetricTypeCounter:
		return "counter"
	case MetricTypeGauge:
		return "gauge"
	case MetricTypeHistogram:
		return "histogram"
	default:
		return "unknown"
	}
}

// MetricLabels represents key-value pairs for metric labels.
type MetricLabels map[string]string

// Metrics defines the interface for collecting metrics.
type Metrics interface {
	// Counter returns a counter metric.
	Counter(name string, labels MetricLabels) Counter

	// Gauge returns a gauge metric.
	Gauge(name string, labels MetricLabels) Gauge

	// Histogram returns a histogram metric.
	Histogram(name string, labels MetricLabels) Histogram
}

// Counter is a monotonically increasing counter.
type Counter interface {
	// Inc increments the counter by 1.
	Inc()

	// Add adds the given value to the counter.
	Add(delta float64)

	// Value returns the current value.
	Value() float64
}

// Gauge is a metric that can go up and down.
type Gauge interface {
	// Set sets the gauge to the given value.
	Set(value float64)

	// Inc increments the gauge by 1.
	Inc()

	// Dec decrements the gauge by 1.
	Dec()

	// Add adds the given value to the gauge.
	Add(delta float64)

	// Sub subtracts the given value from the gauge.
	Sub(delta float64)

	// Value returns the current value.
	Value() float64
}

// Histogram tracks the distribution of values.
type Histogram interface {
	// Observe records a value.
	Observe(value float64)

	// ObserveDuration records a duration in seconds.
	ObserveDuration(d time.Duration)

	// Count returns the number of observations.
	Count() uint64

	// Sum returns the sum of all observations.
	Sum() float64
}

// NoOpMetrics is a no-op implementation of Metrics.
type NoOpMetrics struct{}

// Counter returns a no-op counter.
func (n *NoOpMetrics) Counter(_ string, _ MetricLabels) Counter {
	return &noOpCounter{}
}

// Gauge returns a no-op gauge.
func (n *NoOpMetrics) Gauge(_ string, _ MetricLabels) Gauge {
	return &noOpGauge{}
}

// Histogram returns a no-op histogram.
func (n *NoOpMetrics) Histogram(_ string, _ MetricLabels) Histogram {
	return &noOpHistogram{}
}

type noOpCounter struct{}

func (n *noOpCounter) Inc()           {}
func (n *noOpCounter) Add(_ float64)  {}
func (n *noOpCounter) Value() float64 { return 0 }

type noOpGauge struct{}

func (n *noOpGauge) Set(_ float64)  {}
func (n *noOpGauge) Inc()           {}
func (n *noOpGauge) Dec()           {}
func (n *noOpGauge) Add(_ float64)  {}
func (n *noOpGauge) Sub(_ float64)  {}
func (n *noOpGauge) Value() float64 { return 0 }

type noOpHistogram struct{}

func (n *noOpHistogram) Observe(_ float64)               {}
func (n *noOpHistogram) ObserveDuration(_ time.Duration) {}
func (n *noOpHistogram) Count() uint64                   { return 0 }
func (n *noOpHistogram) Sum() float64                    { return 0 }

// Standard metric names for the client.
const (
	// MetricMsgsReceived is the total number of messages delivered to the client.
	MetricMsgsReceived = "nats_client_msgs_received_total"

	// MetricMsgsSent is the total number of messages published by the client.
	MetricMsgsSent = "nats_client_msgs_sent_total"

	// MetricMsgsDropped is the total number of inbound messages dropped
	// because no subscription matched their identifier.
	MetricMsgsDropped = "nats_client_msgs_dropped_total"

	// MetricBytesReceived is the total payload bytes received.
	MetricBytesReceived = "nats_client_bytes_received_total"

	// MetricBytesSent is the total payload bytes sent.
	MetricBytesSent = "nats_client_bytes_sent_total"

	// MetricSubscriptions is the current number of live subscriptions.
	MetricSubscriptions = "nats_client_subscriptions"

	// MetricRequestDuration is the request/reply round-trip latency.
	MetricRequestDuration = "nats_client_request_duration_seconds"

	// MetricPingsSent is the total number of liveness probes sent.
	MetricPingsSent = "nats_client_pings_total"
)

// Standard metric labels.
const (
	// LabelSubject is the subject label.
	LabelSubject = "subject"

	// LabelQueue is the queue group label.
	LabelQueue = "queue"
)

// clientMetrics provides convenience methods for the client's own metrics.
type clientMetrics struct {
	metrics Metrics
}

func newClientMetrics(m Metrics) *clientMetrics {
	if m == nil {
		m = &NoOpMetrics{}
	}
	return &clientMetrics{metrics: m}
}

// MessageReceived records a delivered inbound message.
func (c *clientMetrics) MessageReceived(payloadSize int) {
	c.metrics.Counter(MetricMsgsReceived, nil).Inc()
	c.metrics.Counter(MetricBytesReceived, nil).Add(float64(payloadSize))
}

// MessageSent records a published message.
func (c *clientMetrics) MessageSent(payloadSize int) {
	c.metrics.Counter(MetricMsgsSent, nil).Inc()
	c.metrics.Counter(MetricBytesSent, nil).Add(float64(payloadSize))
}

// MessageDropped records an inbound message with no matching subscription.
func (c *clientMetrics) MessageDropped() {
	c.metrics.Counter(MetricMsgsDropped, nil).Inc()
}

// SubscriptionAdded records a new subscription.
func (c *clientMetrics) SubscriptionAdded() {
	c.metrics.Gauge(MetricSubscriptions, nil).Inc()
}

// SubscriptionRemoved records a removed subscription.
func (c *clientMetrics) SubscriptionRemoved() {
	c.metrics.Gauge(MetricSubscriptions, nil).Dec()
}

// RequestCompleted records a request/reply round-trip duration.
func (c *clientMetrics) RequestCompleted(d time.Duration) {
	c.metrics.Histogram(MetricRequestDuration, nil).ObserveDuration(d)
}

// PingSent records a liveness probe.
func (c *clientMetrics) PingSent() {
	c.metrics.Counter(MetricPingsSent, nil).Inc()
}
