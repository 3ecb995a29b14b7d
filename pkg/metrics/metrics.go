// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequestDuration tracks outbound API request duration.
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ava_api_request_duration_seconds",
			Help:    "Outbound API request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"operation", "status"},
	)

	// APIRequestsTotal tracks total outbound API requests.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ava_api_requests_total",
			Help: "Total outbound API requests",
		},
		[]string{"operation", "status"},
	)

	// PollsTotal tracks transcript poll attempts.
	PollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ava_transcript_polls_total",
			Help: "Transcript poll attempts",
		},
		[]string{"result"},
	)

	// SendsTotal tracks chat message send attempts.
	SendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ava_message_sends_total",
			Help: "Chat message send attempts",
		},
		[]string{"result"},
	)

	// ServerRequestDuration tracks stub server HTTP request duration.
	ServerRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "avadev_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// ServerRequestsTotal tracks total stub server HTTP requests.
	ServerRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "avadev_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// ReplyDuration tracks reply generation duration.
	ReplyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "avadev_reply_duration_seconds",
			Help:    "Reply generation duration",
			Buckets: []float64{.1, .25, .5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "status"},
	)
)

// RecordAPIRequest records metrics for an outbound API request.
func RecordAPIRequest(operation, status string, duration float64) {
	APIRequestDuration.WithLabelValues(operation, status).Observe(duration)
	APIRequestsTotal.WithLabelValues(operation, status).Inc()
}

// RecordPoll records a transcript poll attempt.
func RecordPoll(result string) {
	PollsTotal.WithLabelValues(result).Inc()
}

// RecordSend records a chat send attempt.
func RecordSend(result string) {
	SendsTotal.WithLabelValues(result).Inc()
}

// RecordServerRequest records metrics for a stub server HTTP request.
func RecordServerRequest(method, path, status string, duration float64) {
	ServerRequestDuration.WithLabelValues(method, path, status).Observe(duration)
	ServerRequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordReply records metrics for a generated reply.
func RecordReply(provider, status string, duration float64) {
	ReplyDuration.WithLabelValues(provider, status).Observe(duration)
}
