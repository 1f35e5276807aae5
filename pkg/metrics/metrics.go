package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure|inactive).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atelier_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// TokensIssued counts issued tokens by kind (refresh|activation|reset).
	TokensIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atelier_tokens_issued_total",
			Help: "Total number of lifecycle tokens issued",
		},
		[]string{"kind"},
	)

	// TokensConsumed counts consumption attempts by kind and outcome (success|rejected).
	TokensConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atelier_tokens_consumed_total",
			Help: "Total number of lifecycle token consumption attempts",
		},
		[]string{"kind", "result"},
	)

	// QuoteRequests counts submitted quote requests.
	QuoteRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "atelier_quote_requests_total",
			Help: "Total number of quote requests submitted",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "atelier_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
