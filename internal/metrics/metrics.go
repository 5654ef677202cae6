// Package metrics holds the prometheus collectors shared by the pipeline and the query server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Annotation
	AnnotationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookmark_ai_annotations_total",
		Help: "Total number of bookmark annotations produced.",
	}, []string{"outcome"}) // outcome: "model", "defaulted" or "fallback"
	AnnotationDefaultedFieldsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookmark_ai_annotation_defaulted_fields_total",
		Help: "Total number of enrichment fields filled with a default value.",
	})
	AnnotationsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bookmark_ai_annotations_in_flight",
		Help: "Current number of in-flight annotation requests.",
	})

	// Embedding
	EmbeddingJobPollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookmark_ai_embedding_job_polls_total",
		Help: "Total number of embedding batch status checks.",
	}, []string{"status"})
	EmbeddingFailedRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookmark_ai_embedding_failed_requests_total",
		Help: "Total number of per-bookmark embedding requests that failed within a completed batch.",
	})

	// Pipeline
	StageDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bookmark_ai_stage_duration_seconds",
		Help:    "Duration of pipeline stages in seconds.",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 1800, 7200},
	}, []string{"stage", "status"})
	ClustersFormed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bookmark_ai_clusters",
		Help: "Number of clusters in the latest clustering run.",
	})

	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})
	HTTPRequestDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)
