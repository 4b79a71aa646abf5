// Package metrics provides Prometheus instrumentation for the peg daemon.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PassesTotal counts reconciliation passes by outcome (STABLE, WAIT, PAY, SUSPENDED, UNRECONCILED, or an error code).
	PassesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stabled_passes_total",
		Help: "Total reconciliation passes by outcome",
	}, []string{"outcome"})

	// PassDuration tracks wall time of one pass, including runtime and price calls.
	PassDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stabled_pass_duration_seconds",
		Help:    "Reconciliation pass duration in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	// DroppedTriggers counts triggers discarded because a pass was already in flight.
	DroppedTriggers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stabled_dropped_triggers_total",
		Help: "Triggers dropped while a pass was in flight",
	}, []string{"source"})

	// DeviationPct is the last computed deviation from the peg, per channel.
	DeviationPct = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "stabled_deviation_pct",
		Help: "Last computed deviation from peg target in percent",
	}, []string{"channel_id"})

	// PaymentsTotal counts corrective payments by result.
	PaymentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stabled_payments_total",
		Help: "Corrective payments by result",
	}, []string{"result"})

	// PaymentMsatTotal accumulates millisatoshis accepted for sending.
	PaymentMsatTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stabled_payment_msat_total",
		Help: "Total millisatoshis sent in corrective payments",
	})

	// ExchangeRate is the last BTC/USD rate used.
	ExchangeRate = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stabled_exchange_rate_usd",
		Help: "Last BTC/USD exchange rate",
	})

	// PriceFeedErrors counts failed fetches per feed.
	PriceFeedErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stabled_price_feed_errors_total",
		Help: "Failed price feed fetches",
	}, []string{"feed"})

	// ActiveChannels tracks the number of pegged channels.
	ActiveChannels = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stabled_active_channels",
		Help: "Number of pegged channels",
	})

	// EventsTotal counts runtime events by type.
	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stabled_events_total",
		Help: "Runtime events processed by type",
	}, []string{"type"})

	// HTTPRequestsTotal counts HTTP requests by method, route, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stabled_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stabled_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
