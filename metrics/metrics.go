// Package metrics holds the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "neoroutine",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "neoroutine",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	badgesAwarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "neoroutine",
			Subsystem: "badges",
			Name:      "awarded_total",
			Help:      "Badges newly awarded, by badge id.",
		},
		[]string{"badge_id"},
	)

	checkerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "neoroutine",
			Subsystem: "badges",
			Name:      "checker_failures_total",
			Help:      "Badge checker runs that failed and contributed no badges.",
		},
		[]string{"checker"},
	)

	insightsCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "neoroutine",
			Subsystem: "insights",
			Name:      "cache_lookups_total",
			Help:      "Insights cache lookups by result.",
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(httpRequests, httpDuration, badgesAwarded, checkerFailures, insightsCache)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records one handled request.
func ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordBadgeAwarded counts a newly persisted badge.
func RecordBadgeAwarded(badgeID string) {
	badgesAwarded.WithLabelValues(badgeID).Inc()
}

// RecordCheckerFailure counts a badge checker that errored.
func RecordCheckerFailure(checker string) {
	checkerFailures.WithLabelValues(checker).Inc()
}

// RecordInsightsCache counts an insights cache hit or miss.
func RecordInsightsCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	insightsCache.WithLabelValues(result).Inc()
}
