package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Routing metrics
	SessionsOnline = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_sessions_online",
			Help: "Currently joined sessions",
		},
	)

	SessionsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_sessions_evicted_total",
			Help: "Sessions displaced by a newer connection of the same identity",
		},
	)

	MessagesRouted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_messages_routed_total",
			Help: "Messages accepted for routing",
		},
		[]string{"kind"}, // "group" or "personal"
	)

	TypingEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_typing_events_total",
			Help: "Typing indicator events routed",
		},
		[]string{"scope"}, // "group" or "personal"
	)

	DeliveryFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_delivery_failures_total",
			Help: "Pushes to a session sink that failed",
		},
	)

	// Persistence metrics
	StoreAppendFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_store_append_failures_total",
			Help: "Envelope appends rejected by the message store",
		},
	)

	PersistQueueDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_persist_queue_drops_total",
			Help: "Envelopes dropped because the persistence queue was full",
		},
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)
)
