package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	SitesPending        prometheus.Gauge
	AnalysesTotal       *prometheus.CounterVec
	StageFailuresTotal  *prometheus.CounterVec
	AnalysisDuration    prometheus.Histogram
	SiteScore           prometheus.Histogram
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		SitesPending: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sites_claimed_in_batch",
				Help: "Number of sites claimed by the current backlog batch.",
			},
		),
		AnalysesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "site_analyses_total",
				Help: "Total number of site analyses by outcome.",
			},
			[]string{"outcome"}, // persisted, skipped, persist_failed
		),
		StageFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "check_stage_failures_total",
				Help: "Check stages that could not reach a conclusion.",
			},
			[]string{"stage"},
		),
		AnalysisDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "site_analysis_duration_seconds",
				Help:    "Duration of a full pipeline run for one site.",
				Buckets: []float64{1, 5, 10, 15, 30, 60, 120, 240},
			},
		),
		SiteScore: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "site_score",
				Help:    "Distribution of computed site scores.",
				Buckets: []float64{0.5, 1, 1.5, 2, 2.5, 3, 3.5, 4, 4.5, 5},
			},
		),
	}
}
