// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HandlerRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_handler_requests_total",
			Help: "Total number of API requests by handler and response status",
		},
		[]string{"handler", "status"},
	)

	HandlerRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crm_handler_request_duration_seconds",
			Help:    "Duration of API request handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"handler"},
	)

	HandlerRequestsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "crm_handler_requests_active",
			Help: "Number of in-flight API requests per handler",
		},
		[]string{"handler"},
	)

	ProviderCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_llm_provider_calls_total",
			Help: "Chat completion calls by outcome",
		},
		[]string{"outcome"},
	)

	ProviderCallDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crm_llm_provider_call_duration_seconds",
			Help:    "Latency of chat completion calls including retries",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
	)

	SuggestionsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crm_suggestions_returned",
			Help:    "Number of response suggestions parsed per successful synthesis",
			Buckets: []float64{1, 2, 3, 4, 5, 8},
		},
	)

	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_cache_lookups_total",
			Help: "Redis cache lookups by cache name and result (hit, miss, error)",
		},
		[]string{"cache", "result"},
	)
)
