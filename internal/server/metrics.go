package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/textsift/textsift/internal/runner"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "textsift_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "textsift_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	documentsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "textsift_documents_processed_total",
			Help: "Total number of document runs",
		},
		[]string{"source", "status"}, // source: http, ws, job
	)

	documentPages = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "textsift_document_pages",
			Help:    "Pages per processed document",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250},
		},
		[]string{"source"},
	)

	documentDetections = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "textsift_document_detections",
			Help:    "Text regions kept per processed document",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		},
		[]string{"source"},
	)

	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "textsift_upload_size_bytes",
			Help:    "Size of uploaded documents in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 10, 6),
		},
	)

	rateLimitRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "textsift_rate_limit_rejections_total",
			Help: "Requests rejected by the rate limiter",
		},
	)

	activeJobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "textsift_active_jobs",
			Help: "Batch jobs currently running",
		},
	)
)

// observeReport records the outcome metrics of one successful run.
func observeReport(source string, report *runner.Report) {
	documentsProcessed.WithLabelValues(source, "ok").Inc()
	documentPages.WithLabelValues(source).Observe(float64(report.Stats.PageCount))
	documentDetections.WithLabelValues(source).Observe(float64(report.Stats.TotalDetections))
}
