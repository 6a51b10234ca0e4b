// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package metrics holds the Prometheus instruments used across pagecraft.
// All collectors are registered with the global registry, so mounting
// promhttp.Handler() is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Commits counts commit attempts by outcome: ok, conflict, not_found,
	// invalid, error.
	Commits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagecraft_commits_total",
			Help: "Template commits by outcome.",
		}, []string{"outcome"})

	SnapshotsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pagecraft_snapshots_created_total",
			Help: "Snapshots inserted.",
		})

	SnapshotsDeduplicated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pagecraft_snapshots_deduplicated_total",
			Help: "ensureSnapshot calls answered by the latest snapshot.",
		})

	Publishes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pagecraft_publishes_total",
			Help: "Successful publishes.",
		})

	// Restores counts restores by how they were stored: commit, none, degraded.
	Restores = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagecraft_restores_total",
			Help: "Restores by stored-via outcome.",
		}, []string{"stored_via"})

	EventWriteFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagecraft_event_write_failures_total",
			Help: "Best-effort history events that could not be written.",
		}, []string{"type"})

	BestEffortFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagecraft_best_effort_failures_total",
			Help: "Swallowed failures of cache and archive side effects.",
		}, []string{"target"})

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagecraft_http_requests_total",
			Help: "HTTP requests by route pattern, method, and status class.",
		}, []string{"route", "method", "status"})

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pagecraft_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"})

	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pagecraft_rate_limited_total",
			Help: "Write requests rejected by the rate limiter.",
		})
)

func init() {
	prometheus.MustRegister(
		Commits,
		SnapshotsCreated,
		SnapshotsDeduplicated,
		Publishes,
		Restores,
		EventWriteFailures,
		BestEffortFailures,
		HTTPRequests,
		HTTPDuration,
		RateLimited,
	)
}
