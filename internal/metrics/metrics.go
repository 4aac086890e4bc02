package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_http_requests_total",
			Help: "Total number of HTTP requests by route pattern and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "listing_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// ListingFetches - загрузки набора объявлений: success, error, discarded
	ListingFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_fetches_total",
			Help: "Total number of listing set fetches by outcome",
		},
		[]string{"outcome"},
	)

	ListingCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_cache_lookups_total",
			Help: "Listing cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	BrowseSessionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "listing_browse_sessions_open",
			Help: "Number of open browse sessions",
		},
	)
)
