package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records identity token verifications by result (success|missing|malformed|invalid).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pawwalk_auth_attempts_total",
			Help: "Total number of identity token verifications",
		},
		[]string{"result"},
	)

	// PermissionChecks counts family membership evaluations (allow|deny|error).
	PermissionChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pawwalk_permission_checks_total",
			Help: "Total number of family membership checks",
		},
		[]string{"check", "result"},
	)

	// NotificationsCreated counts persisted notifications by type and scope (personal|broadcast).
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pawwalk_notifications_created_total",
			Help: "Total number of notifications created",
		},
		[]string{"type", "scope"},
	)

	// ShareRequests counts share workflow outcomes (created|approved|rejected|conflict).
	ShareRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pawwalk_share_requests_total",
			Help: "Total number of pet share workflow transitions",
		},
		[]string{"outcome"},
	)

	// WeatherCache counts weather cache lookups (hit|stale|miss).
	WeatherCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pawwalk_weather_cache_total",
			Help: "Weather cache lookups by result",
		},
		[]string{"result"},
	)

	// UpstreamRequests counts calls to external collaborators by service and result.
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pawwalk_upstream_requests_total",
			Help: "Calls to external services (weather, advice, storage)",
		},
		[]string{"service", "result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pawwalk_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
