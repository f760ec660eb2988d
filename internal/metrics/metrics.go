// Package metrics holds Prometheus instruments that are used across the
// booking service.  All collectors are registered with the global registry,
// so importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yanizio/adept-booking/internal/cache"
)

var (
	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_submissions_total",
			Help: "Process endpoint submissions by outcome.",
		}, []string{"outcome"})

	SpamTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_spam_total",
			Help: "Submissions dropped as automated, by reason.",
		}, []string{"reason"})

	ActionErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_action_errors_total",
			Help: "Post-submit action failures by action type.",
		}, []string{"action"})

	ProcessSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "booking_process_seconds",
			Help:    "Time spent handling one process request.",
			Buckets: prometheus.DefBuckets,
		})

	CatalogRefreshTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_catalog_refresh_total",
			Help: "Cumulative number of service catalog reloads from the database.",
		})

	CatalogSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "booking_catalog_services",
			Help: "Number of active services currently cached.",
		})
)

func init() {
	prometheus.MustRegister(
		SubmissionsTotal,
		SpamTotal,
		ActionErrorsTotal,
		ProcessSeconds,
		CatalogRefreshTotal,
		CatalogSize,
	)
}

// RegisterCache exposes an LRU's counters under booking_<name>_cache_*.
// Call once per cache; a second call with the same name panics.
func RegisterCache(name string, stats func() cache.Stats) {
	prefix := "booking_" + name + "_cache_"
	prometheus.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: prefix + "entries",
			Help: "Entries currently held in the " + name + " cache.",
		}, func() float64 { return float64(stats().Len) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: prefix + "hits_total",
			Help: "Lookups served from the " + name + " cache.",
		}, func() float64 { return float64(stats().Hits) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: prefix + "misses_total",
			Help: "Lookups that missed the " + name + " cache.",
		}, func() float64 { return float64(stats().Misses) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: prefix + "evictions_total",
			Help: "Entries evicted from the " + name + " cache.",
		}, func() float64 { return float64(stats().Evicted) }),
	)
}
