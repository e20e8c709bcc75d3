// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "speech_digest"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Submission metrics
	SubmissionsTotal   *prometheus.CounterVec
	SubmissionsActive  prometheus.Gauge
	SubmissionsSuccess prometheus.Counter
	SubmissionsFailed  *prometheus.CounterVec
	SubmissionDuration prometheus.Histogram

	// Stage metrics
	StageDuration *prometheus.HistogramVec

	// Audio metrics
	AudioBytesReceived   prometheus.Counter
	AudioBytesNormalized prometheus.Counter
	AudioDecodes         *prometheus.CounterVec

	// Provider metrics (stt, summary)
	ProviderLatency *prometheus.HistogramVec
	ProviderErrors  *prometheus.CounterVec

	// Summary interpretation path
	SummaryParsePath *prometheus.CounterVec

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec

	// Result store metrics
	StoreWrites *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		SubmissionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Total number of submissions accepted",
		}, []string{"source"}),
		SubmissionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "submissions_active",
			Help:      "Number of submissions currently being processed",
		}),
		SubmissionsSuccess: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_success_total",
			Help:      "Total number of submissions that produced a result",
		}),
		SubmissionsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_failed_total",
			Help:      "Total number of failed submissions",
		}, []string{"code"}),
		SubmissionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submission_duration_seconds",
			Help:      "End-to-end submission processing time in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200},
		}),

		StageDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage in seconds",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}, []string{"stage"}),

		AudioBytesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_received_total",
			Help:      "Total raw audio bytes received",
		}),
		AudioBytesNormalized: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_normalized_total",
			Help:      "Total bytes of canonical WAV produced",
		}),
		AudioDecodes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_decodes_total",
			Help:      "Audio decode attempts by decoder and outcome",
		}, []string{"decoder", "outcome"}),

		ProviderLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_latency_seconds",
			Help:      "External provider call latency in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}, []string{"kind", "provider"}),
		ProviderErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Total number of external provider errors",
		}, []string{"kind", "provider"}),

		SummaryParsePath: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summary_parse_path_total",
			Help:      "Summary responses by interpretation path",
		}, []string{"path"}),

		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),

		StoreWrites: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_writes_total",
			Help:      "Result store writes by backend and outcome",
		}, []string{"backend", "outcome"}),

		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status",
		}, []string{"route", "status"}),
	}
}

// RecordSubmissionStart records a new submission entering the pipeline.
func (m *Metrics) RecordSubmissionStart(source string) {
	m.SubmissionsTotal.WithLabelValues(source).Inc()
	m.SubmissionsActive.Inc()
}

// RecordSubmissionEnd records a submission leaving the pipeline. code is empty on success.
func (m *Metrics) RecordSubmissionEnd(code string, durationSeconds float64) {
	m.SubmissionsActive.Dec()
	m.SubmissionDuration.Observe(durationSeconds)
	if code == "" {
		m.SubmissionsSuccess.Inc()
	} else {
		m.SubmissionsFailed.WithLabelValues(code).Inc()
	}
}

// RecordStage records how long a pipeline stage took.
func (m *Metrics) RecordStage(stage string, durationSeconds float64) {
	m.StageDuration.WithLabelValues(stage).Observe(durationSeconds)
}

// RecordAudioReceived records raw audio bytes received.
func (m *Metrics) RecordAudioReceived(bytes int) {
	m.AudioBytesReceived.Add(float64(bytes))
}

// RecordAudioNormalized records a decode outcome and the size of the produced WAV.
func (m *Metrics) RecordAudioNormalized(decoder string, bytes int, err error) {
	if err != nil {
		m.AudioDecodes.WithLabelValues(decoder, "error").Inc()
		return
	}
	m.AudioDecodes.WithLabelValues(decoder, "ok").Inc()
	m.AudioBytesNormalized.Add(float64(bytes))
}

// RecordProviderCall records an external provider call.
func (m *Metrics) RecordProviderCall(kind, provider string, err error, latencySeconds float64) {
	m.ProviderLatency.WithLabelValues(kind, provider).Observe(latencySeconds)
	if err != nil {
		m.ProviderErrors.WithLabelValues(kind, provider).Inc()
	}
}

// RecordSummaryPath records which interpretation path produced a summary.
func (m *Metrics) RecordSummaryPath(path string) {
	m.SummaryParsePath.WithLabelValues(path).Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordStoreWrite records a result store write.
func (m *Metrics) RecordStoreWrite(backend string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.StoreWrites.WithLabelValues(backend, outcome).Inc()
}

// RecordHTTPRequest records a served HTTP request.
func (m *Metrics) RecordHTTPRequest(route string, status int) {
	m.HTTPRequests.WithLabelValues(route, statusClass(status)).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
