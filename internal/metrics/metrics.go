// Package metrics holds the Prometheus collectors of the gateway.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stockchat"

var (
	// CacheLookups counts cache hits and misses per cache name.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "market",
		Name:      "cache_lookups_total",
		Help:      "Market cache lookups by cache and result (hit|miss).",
	}, []string{"cache", "result"})

	// UpstreamCalls counts provider calls by operation and outcome.
	UpstreamCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "market",
		Name:      "upstream_calls_total",
		Help:      "Market-data provider calls by operation and outcome.",
	}, []string{"operation", "outcome"})

	// LimiterWait observes how long callers were suspended by the provider rate limiter.
	LimiterWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "market",
		Name:      "limiter_wait_seconds",
		Help:      "Time spent blocked on the provider rate window.",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60},
	})

	// Replies counts chat replies by the strategy that produced them.
	Replies = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "chat",
		Name:      "replies_total",
		Help:      "Chat replies by source (llm|template|mock).",
	}, []string{"source"})

	// HTTPRequests counts handled requests.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	// HTTPDuration observes request latency.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
