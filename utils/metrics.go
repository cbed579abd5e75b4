package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var AnalysesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "verta_analyses_total",
		Help: "Completed /analyze requests by provenance",
	},
	[]string{"analysis_type"},
)

var FallbacksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "verta_analysis_fallbacks_total",
		Help: "Analyses answered with the sample payload, by reason",
	},
	[]string{"reason"},
)

var UploadRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "verta_upload_rejections_total",
		Help: "Uploads rejected by media validation",
	},
	[]string{"kind"},
)

var AnalysisDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "verta_analysis_duration_seconds",
		Help:    "Wall time of the analysis pipeline",
		Buckets: []float64{0.05, 0.5, 2, 5, 15, 30, 60, 120, 300},
	},
	[]string{"analysis_type"},
)

var ProviderPollDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "verta_provider_poll_duration_seconds",
		Help:    "Time spent waiting for provider file processing",
		Buckets: []float64{1, 2, 5, 10, 30, 60, 120},
	},
)

var UploadsStagedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "verta_uploads_staged_total",
		Help: "Files staged by /upload",
	},
	[]string{"store", "result"},
)

var RunEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "verta_run_events_total",
		Help: "Run record events published and stored",
	},
	[]string{"stage", "result"},
)

var UploadsSweptTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "verta_uploads_swept_total",
		Help: "Expired staged uploads removed by the janitor",
	},
	[]string{"store"},
)
