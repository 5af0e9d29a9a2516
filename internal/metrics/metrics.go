// Package metrics holds Prometheus instruments that are used across the
// app.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "version_uploads_total",
			Help: "Archive uploads, partitioned by classification.",
		}, []string{"kind"}) // "ready" | "raw"

	BuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "version_builds_total",
			Help: "External build invocations, partitioned by outcome.",
		}, []string{"outcome"}) // "ok" | "error" | "timeout"

	BuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "version_build_duration_seconds",
			Help:    "Wall-clock time of install+build for raw uploads.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1s … ~17m
		})

	ServesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "version_serves_total",
			Help: "Files served from version directories, by content class.",
		}, []string{"class"}) // "html" | "asset" | "miss"

	ActiveVersionInfos = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "version_infos_cached",
			Help: "Number of version runtime infos currently cached.",
		})

	VersionInfoLoadTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "version_info_load_total",
			Help: "Cumulative number of version infos resolved from disk.",
		})

	VersionInfoEvictTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "version_info_evict_total",
			Help: "Cumulative number of version infos evicted from the cache.",
		})

	GatewayCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wa_gateway_calls_total",
			Help: "Outbound WhatsApp gateway calls, by endpoint and outcome.",
		}, []string{"endpoint", "outcome"})

	QueueDrainedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wa_queue_drained_total",
			Help: "Outbound queue rows processed, by final state.",
		}, []string{"state"}) // "sent" | "failed"
)

func init() {
	prometheus.MustRegister(
		UploadsTotal,
		BuildsTotal,
		BuildDuration,
		ServesTotal,
		ActiveVersionInfos,
		VersionInfoLoadTotal,
		VersionInfoEvictTotal,
		GatewayCallsTotal,
		QueueDrainedTotal,
	)
}
