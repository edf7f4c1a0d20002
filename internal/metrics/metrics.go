// Package metrics exposes Prometheus collectors for the catalogue service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	scrapeLookupsTotal         *prometheus.CounterVec
	storeOperationsTotal       *prometheus.CounterVec
	collectionEntries          *prometheus.GaugeVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)

		scrapeLookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "figvault_scrape_lookups_total",
				Help: "Total number of upstream item lookups, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		storeOperationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "figvault_store_operations_total",
				Help: "Total number of collection store operations, labeled by op and outcome.",
			},
			[]string{"op", "outcome"},
		)

		collectionEntries = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "figvault_collection_entries",
				Help: "Number of entries in the collection, labeled by list.",
			},
			[]string{"list"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveScrapeLookup increments the lookup counter for the given outcome.
func ObserveScrapeLookup(outcome string) {
	scrapeLookupsTotal.WithLabelValues(outcome).Inc()
}

// ObserveStoreOperation increments the store operation counter.
func ObserveStoreOperation(op, outcome string) {
	storeOperationsTotal.WithLabelValues(op, outcome).Inc()
}

// SetCollectionEntries records the current size of one list of the collection.
func SetCollectionEntries(list string, count int) {
	collectionEntries.WithLabelValues(list).Set(float64(count))
}
