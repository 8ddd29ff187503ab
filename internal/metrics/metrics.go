// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderly_predictions_total",
			Help: "Successful predictions by predicted performance",
		},
		[]string{"performance"},
	)

	InferenceErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderly_inference_errors_total",
			Help: "Failed predictions by error kind",
		},
		[]string{"kind"}, // "invalid_input", "model_unavailable", "inference"
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderly_api_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orderly_api_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	PredictionStoreSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "orderly_prediction_store_size",
			Help: "Prediction records currently held in memory",
		},
	)

	DatasetRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "orderly_dataset_rows",
			Help: "Rows in the cached cleaned dataset",
		},
	)

	SinkFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderly_sink_failures_total",
			Help: "Prediction events that could not be delivered",
		},
		[]string{"sink"},
	)
)

func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordPrediction(performance string) {
	PredictionsTotal.WithLabelValues(performance).Inc()
}

func RecordInferenceError(kind string) {
	InferenceErrors.WithLabelValues(kind).Inc()
}

func RecordSinkFailure(sink string) {
	SinkFailures.WithLabelValues(sink).Inc()
}
