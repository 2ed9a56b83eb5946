package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kennel",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kennel",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	payloadsReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kennel",
			Subsystem: "datadog",
			Name:      "payloads_total",
			Help:      "Decoded agent payloads by payload_version.",
		},
		[]string{"payload_version"},
	)
	eventsReceived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "kennel",
			Subsystem: "datadog",
			Name:      "events_received_total",
			Help:      "Canonical trace events produced from agent payloads.",
		},
	)
	requestBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "kennel",
			Subsystem: "datadog",
			Name:      "request_bytes_total",
			Help:      "Decompressed trace payload bytes.",
		},
	)
	eventsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kennel",
			Subsystem: "sender",
			Name:      "events_total",
			Help:      "Events handed to the sender, by outcome.",
		},
		[]string{"sender", "success"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, payloadsReceived, eventsReceived, requestBytes, eventsSent)
	})
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

func RecordEventsSent(sender string, count int, success bool) {
	RegisterMetrics()
	eventsSent.WithLabelValues(sender, strconv.FormatBool(success)).Add(float64(count))
}

func recordTelemetry(key string, value any) {
	RegisterMetrics()
	switch key {
	case "datadog.payload_version":
		if v, ok := value.(string); ok {
			payloadsReceived.WithLabelValues(v).Inc()
		}
	case "datadog.events_received":
		if n, ok := value.(int); ok {
			eventsReceived.Add(float64(n))
		}
	case "datadog.request_size":
		if n, ok := value.(int); ok {
			requestBytes.Add(float64(n))
		}
	}
}
