// Package metrics exposes Prometheus collectors for the crawl pipeline and
// its status server.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cache lookup outcomes.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

var (
	fetchesTotal               *prometheus.CounterVec
	fetchBytesTotal            *prometheus.CounterVec
	fetchDurationSeconds       *prometheus.HistogramVec
	cacheLookupsTotal          *prometheus.CounterVec
	rowsLoadedTotal            *prometheus.CounterVec
	runsTotal                  *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		fetchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "supermovie_fetches_total",
				Help: "Total number of pages fetched, labeled by site, crawl stage, and status class.",
			},
			[]string{"site", "stage", "status"},
		)

		fetchBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "supermovie_fetch_bytes_total",
				Help: "Total number of body bytes fetched, labeled by crawl stage.",
			},
			[]string{"stage"},
		)

		fetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "supermovie_fetch_duration_seconds",
				Help:    "Histogram of page fetch latencies, labeled by crawl stage.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"stage"},
		)

		cacheLookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "supermovie_cache_lookups_total",
				Help: "Total number of cache lookups, labeled by document and outcome.",
			},
			[]string{"document", "outcome"},
		)

		rowsLoadedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "supermovie_rows_loaded_total",
				Help: "Total number of rows written to the output store, labeled by table.",
			},
			[]string{"table"},
		)

		runsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "supermovie_runs_total",
				Help: "Total number of crawl runs, labeled by status.",
			},
			[]string{"status"},
		)

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
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// StatusClass buckets an HTTP status code as "2xx", "4xx", and so on.
func StatusClass(code int) string {
	if code < 100 || code > 599 {
		return "unknown"
	}
	return strconv.Itoa(code/100) + "xx"
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetch records one page fetch.
func ObserveFetch(rawURL, stage string, statusCode, bytesFetched int, duration time.Duration) {
	Init()
	fetchesTotal.WithLabelValues(SanitizeSite(rawURL), stage, StatusClass(statusCode)).Inc()
	if bytesFetched > 0 {
		fetchBytesTotal.WithLabelValues(stage).Add(float64(bytesFetched))
	}
	fetchDurationSeconds.WithLabelValues(stage).Observe(duration.Seconds())
}

// ObserveCacheLookup records a per-key cache lookup against a document.
func ObserveCacheLookup(document, outcome string) {
	Init()
	cacheLookupsTotal.WithLabelValues(document, outcome).Inc()
}

// ObserveRowsLoaded adds n rows written to table.
func ObserveRowsLoaded(table string, n int) {
	Init()
	rowsLoadedTotal.WithLabelValues(table).Add(float64(n))
}

// ObserveRun increments the run counter for the given status.
func ObserveRun(status string) {
	Init()
	runsTotal.WithLabelValues(status).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
