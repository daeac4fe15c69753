// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_analyses_total",
			Help: "Analyses run, by crop and outcome",
		},
		[]string{"crop", "outcome"},
	)

	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "advisor_analysis_duration_seconds",
			Help:    "End-to-end duration of a single analysis",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 3, 5},
		},
		[]string{"forecast_source"},
	)

	ForecastFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_forecast_fallbacks_total",
			Help: "Live forecasts replaced by the simulated forecast",
		},
		[]string{"reason"},
	)

	ForecastCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_forecast_cache_lookups_total",
			Help: "Forecast cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	PriceFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_price_fallbacks_total",
			Help: "Market prices served from a fallback source",
		},
		[]string{"source"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"route", "status"},
	)
)
