package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_analyses_generated_total",
			Help: "Total number of AI analyses generated",
		},
		[]string{"model"},
	)

	ModelFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_model_fallbacks_total",
			Help: "Total number of model fallbacks during AI analysis",
		},
		[]string{"reason"},
	)

	AnalysisCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "argus_analysis_cache_hits_total",
			Help: "Total number of AI analysis result cache hits",
		},
	)

	AnalyzeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_analyze_requests_total",
			Help: "Total number of analyze webhook requests",
		},
		[]string{"status"},
	)

	ImportRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_import_rows_total",
			Help: "Total number of bulk import rows processed",
		},
		[]string{"result"},
	)

	IOCsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_iocs_created_total",
			Help: "Total number of IOCs created",
		},
		[]string{"type"},
	)

	CorrelationsDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_correlations_detected_total",
			Help: "Total number of correlations detected",
		},
		[]string{"type"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "argus_http_request_duration_seconds",
			Help:    "Time taken to serve HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
