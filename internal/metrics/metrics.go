package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aq_cache_lookups_total",
			Help: "Response cache lookups by result (hit, miss).",
		},
		[]string{"result"},
	)
	fetchOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aq_fetch_outcomes_total",
			Help: "Per-coordinate fetch outcomes by provenance (direct, nearest_station, absent).",
		},
		[]string{"outcome"},
	)
	upstreamTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aq_upstream_request_seconds",
			Help:    "Histogram of outbound request durations per upstream service.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	pipelineRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aq_pipeline_runs_total",
			Help: "Pipeline runs by final status.",
		},
		[]string{"status"},
	)

	registerOnce sync.Once
)

// Register adds every collector to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(cacheLookups, fetchOutcomes, upstreamTime, pipelineRuns)
	})
}

// CacheLookup counts a cache hit or miss.
func CacheLookup(hit bool) {
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	cacheLookups.WithLabelValues("miss").Inc()
}

// FetchOutcome counts how a per-coordinate fetch ended.
func FetchOutcome(outcome string) {
	fetchOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveUpstream records the duration of one outbound call.
func ObserveUpstream(service string, since time.Time) {
	upstreamTime.WithLabelValues(service).Observe(time.Since(since).Seconds())
}

// PipelineRun counts a finished pipeline run.
func PipelineRun(status string) {
	pipelineRuns.WithLabelValues(status).Inc()
}
