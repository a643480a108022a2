// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "synk_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "synk_api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Recommendation flow
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "synk_recommendations_total",
			Help: "Recommendation submissions by outcome",
		},
		[]string{"outcome"}, // "ok", "invalid", "in_flight", "failed"
	)

	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "synk_recommendation_duration_seconds",
			Help:    "Duration of the remote suggestion call in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
	)

	// Reverse geocoding
	GeocodeLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "synk_geocode_lookups_total",
			Help: "Reverse-geocode lookups by result",
		},
		[]string{"result"}, // "place", "fallback", "breaker_open"
	)

	// Catalog
	CatalogCreatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "synk_catalog_creates_total",
			Help: "Catalog entities created",
		},
		[]string{"kind"}, // "event", "community", "thread"
	)
)

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordRecommendation records the outcome of one submission. duration is
// zero when no remote call was made.
func RecordRecommendation(outcome string, duration time.Duration) {
	RecommendationsTotal.WithLabelValues(outcome).Inc()
	if duration > 0 {
		RecommendationDuration.Observe(duration.Seconds())
	}
}

func RecordGeocode(result string) {
	GeocodeLookupsTotal.WithLabelValues(result).Inc()
}

func RecordCatalogCreate(kind string) {
	CatalogCreatesTotal.WithLabelValues(kind).Inc()
}
