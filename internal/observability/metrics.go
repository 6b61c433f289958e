// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Webhook metrics
	NotificationsReceived     prometheus.Counter
	NotificationsDeduplicated prometheus.Counter
	NotificationParseErrors   prometheus.Counter
	NotificationsSkipped      *prometheus.CounterVec

	// Replication metrics
	ReplicationsTotal    *prometheus.CounterVec
	ReplicationFailures  *prometheus.CounterVec
	StageDuration        *prometheus.HistogramVec
	ReplicationDuration  prometheus.Histogram
	QuotedPriceImpactPct prometheus.Histogram

	// Aggregator metrics
	QuoteLatency  prometheus.Histogram
	QuotesNoRoute prometheus.Counter

	// Solana metrics
	RPCCallLatency         *prometheus.HistogramVec
	TransactionsSubmitted  prometheus.Counter
	TransactionsConfirmed  prometheus.Counter
	ConfirmationDuration   prometheus.Histogram
	WatcherReconnectsTotal prometheus.Counter

	// Database metrics
	DBQueryErrors *prometheus.CounterVec

	// Health metrics
	LastSuccessfulReplication prometheus.Gauge
	UptimeSeconds             prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "copy_trader"
	}

	return &Metrics{
		// Webhook metrics
		NotificationsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "notifications_received_total",
			Help:      "Total number of webhook notifications received",
		}),
		NotificationsDeduplicated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "notifications_deduplicated_total",
			Help:      "Total number of notifications dropped as duplicates",
		}),
		NotificationParseErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "notification_parse_errors_total",
			Help:      "Total number of notifications that failed to parse",
		}),
		NotificationsSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "notifications_skipped_total",
			Help:      "Total number of notifications skipped by reason",
		}, []string{"reason"}),

		// Replication metrics
		ReplicationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replication",
			Name:      "replications_total",
			Help:      "Total number of replication attempts by outcome",
		}, []string{"outcome"}),
		ReplicationFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replication",
			Name:      "failures_total",
			Help:      "Total number of replication failures by stage",
		}, []string{"stage"}),
		StageDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "replication",
			Name:      "stage_duration_seconds",
			Help:      "Replication stage duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		ReplicationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "replication",
			Name:      "duration_seconds",
			Help:      "End-to-end replication duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		QuotedPriceImpactPct: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "replication",
			Name:      "quoted_price_impact_pct",
			Help:      "Aggregator-reported price impact per quote",
			Buckets:   []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),

		// Aggregator metrics
		QuoteLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "jupiter",
			Name:      "quote_latency_seconds",
			Help:      "Quote endpoint latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		QuotesNoRoute: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jupiter",
			Name:      "quotes_no_route_total",
			Help:      "Total number of quotes that found no route",
		}),

		// Solana metrics
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		TransactionsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "transactions_submitted_total",
			Help:      "Total number of transactions submitted",
		}),
		TransactionsConfirmed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "transactions_confirmed_total",
			Help:      "Total number of transactions confirmed",
		}),
		ConfirmationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "confirmation_duration_seconds",
			Help:      "Time from submission to confirmed commitment in seconds",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120},
		}),
		WatcherReconnectsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "watcher_reconnects_total",
			Help:      "Total number of log subscription reconnects",
		}),

		// Database metrics
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulReplication: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_replication_timestamp",
			Help:      "Unix timestamp of last confirmed replication",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")
