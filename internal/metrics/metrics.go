// Package metrics holds the Prometheus collectors shared by the weather
// service, the HTTP API and the scheduler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_cache_lookups_total",
			Help: "Weather cache lookups by result (hit or miss).",
		},
		[]string{"result"},
	)

	UpstreamFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_upstream_failures_total",
			Help: "Failed weather queries by stage and failure kind.",
		},
		[]string{"stage", "kind"},
	)

	CacheEvictions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_cache_evictions_total",
			Help: "Cache entries removed by flush operations.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(CacheLookups, UpstreamFailures, CacheEvictions)
}
