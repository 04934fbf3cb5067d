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
	// Transfer metrics
	TransfersTotal    prometheus.Counter
	TransfersRejected *prometheus.CounterVec
	ApprovalsTotal    prometheus.Counter
	TaxCollectedTotal prometheus.Counter

	// Liquidity metrics
	LiquidityDeposits    *prometheus.CounterVec
	LiquidityUnitsMinted prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Stream metrics
	StreamClients         prometheus.Gauge
	StreamEventsDelivered prometheus.Counter

	// Health metrics
	LastSuccessfulFlush prometheus.Gauge
	UptimeSeconds       prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "meme_token_ledger"
	}

	return &Metrics{
		// Transfer metrics
		TransfersTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "token",
			Name:      "transfers_total",
			Help:      "Total number of successful transfers",
		}),
		TransfersRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "token",
			Name:      "transfers_rejected_total",
			Help:      "Total number of rejected transfers by reason",
		}, []string{"reason"}),
		ApprovalsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "token",
			Name:      "approvals_total",
			Help:      "Total number of allowance approvals",
		}),
		TaxCollectedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "token",
			Name:      "tax_collected_total",
			Help:      "Total token units collected as transfer tax",
		}),

		// Liquidity metrics
		LiquidityDeposits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "liquidity",
			Name:      "deposits_total",
			Help:      "Total number of liquidity deposits by status",
		}, []string{"status"}),
		LiquidityUnitsMinted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "liquidity",
			Name:      "units_minted_total",
			Help:      "Total liquidity units minted by the pool",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Stream metrics
		StreamClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "clients",
			Help:      "Current number of connected WebSocket clients",
		}),
		StreamEventsDelivered: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "events_delivered_total",
			Help:      "Total number of events delivered to WebSocket clients",
		}),

		// Health metrics
		LastSuccessfulFlush: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_flush_timestamp",
			Help:      "Unix timestamp of last successful analytics flush",
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

// RecordTransfer increments the transfer counter and adds the tax taken.
func RecordTransfer(taxAmount uint64) {
	DefaultMetrics.TransfersTotal.Inc()
	DefaultMetrics.TaxCollectedTotal.Add(float64(taxAmount))
}

// RecordTransferRejected increments the rejected transfer counter.
func RecordTransferRejected(reason string) {
	DefaultMetrics.TransfersRejected.WithLabelValues(reason).Inc()
}

// RecordApproval increments the approvals counter.
func RecordApproval() {
	DefaultMetrics.ApprovalsTotal.Inc()
}

// RecordLiquidityDeposit increments the liquidity deposit counter.
func RecordLiquidityDeposit(status string) {
	DefaultMetrics.LiquidityDeposits.WithLabelValues(status).Inc()
}

// RecordLiquidityUnits adds minted liquidity units to the counter.
func RecordLiquidityUnits(units uint64) {
	DefaultMetrics.LiquidityUnitsMinted.Add(float64(units))
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// UpdateStreamClients sets the connected WebSocket client gauge.
func UpdateStreamClients(n int) {
	DefaultMetrics.StreamClients.Set(float64(n))
}

// RecordStreamDelivered adds delivered events to the stream counter.
func RecordStreamDelivered(n int) {
	DefaultMetrics.StreamEventsDelivered.Add(float64(n))
}

// RecordFlush records a successful analytics flush.
func RecordFlush(unixSeconds int64) {
	DefaultMetrics.LastSuccessfulFlush.Set(float64(unixSeconds))
}
