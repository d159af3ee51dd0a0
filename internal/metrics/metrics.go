package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	nearbyQueries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lettuce",
			Name:      "nearby_queries_total",
			Help:      "Count of nearby location queries.",
		},
	)

	detailQueries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lettuce",
			Name:      "detail_queries_total",
			Help:      "Count of location detail queries.",
		},
	)

	ratingsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lettuce",
			Name:      "ratings_created_total",
			Help:      "Count of ratings created by score.",
		},
		[]string{"score"},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lettuce",
			Name:      "cache_lookups_total",
			Help:      "Count of cache lookups by result class and outcome.",
		},
		[]string{"class", "outcome"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lettuce",
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(nearbyQueries, detailQueries, ratingsCreated, cacheLookups, httpRequests)
	})
}

func IncNearbyQuery() {
	nearbyQueries.Inc()
}

func IncDetailQuery() {
	detailQueries.Inc()
}

func IncRatingCreated(score string) {
	ratingsCreated.WithLabelValues(score).Inc()
}

func IncCacheHit(class string) {
	cacheLookups.WithLabelValues(class, "hit").Inc()
}

func IncCacheMiss(class string) {
	cacheLookups.WithLabelValues(class, "miss").Inc()
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}
