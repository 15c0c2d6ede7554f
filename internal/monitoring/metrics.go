package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ResponseTimeHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_time_seconds",
			Help:    "Histogram of response times",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// PayoutsTotal counts payout attempts by outcome (paid, refused,
	// transfer_failed, transfer_unknown, persistence_failure).
	PayoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "referral_payouts_total",
			Help: "Referral payout attempts by outcome",
		},
		[]string{"outcome"},
	)

	PayoutAmountKobo = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "referral_payout_amount_kobo_total",
			Help: "Kobo settled by referral payouts",
		},
	)

	TransferLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "paystack_transfer_seconds",
			Help:    "Latency of Paystack transfer initiation",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"result"},
	)

	// ReconciliationAlerts counts ledger states that need a human to look at
	// the gateway dashboard.
	ReconciliationAlerts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "referral_reconciliation_alerts_total",
			Help: "Payouts requiring manual reconciliation",
		},
		[]string{"kind"},
	)

	ReferralDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "referral_decisions_total",
			Help: "Admin referral decisions",
		},
		[]string{"decision"},
	)

	ShippingQuotes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shipping_quotes_total",
			Help: "Shipping quotes by resolved tier",
		},
		[]string{"tier", "free"},
	)

	ShippingCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shipping_config_cache_lookups_total",
			Help: "Shipping configuration cache lookups by result",
		},
		[]string{"result"},
	)
)
