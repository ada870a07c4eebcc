// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Skip reasons recorded by the inspection loop.
const (
	SkipMissingFields = "missing_fields"
	SkipWrongChain    = "wrong_chain"
	SkipBadAddress    = "bad_address"
	SkipCacheHit      = "cache_hit"
	SkipNotPaid       = "not_paid"
	SkipNoPairs       = "no_pairs"
	SkipCapCeiling    = "cap_ceiling"
)

// Sampler launch rejection reasons.
const (
	RejectDuplicate = "duplicate"
	RejectCapacity  = "capacity"
)

// Metrics holds all Prometheus metrics for the bot.
type Metrics struct {
	// Poll loop metrics
	PollCycles    prometheus.Counter
	PollFailures  prometheus.Counter
	TokensScanned prometheus.Counter

	// Detection metrics
	DexPaidSniped     prometheus.Counter
	CandidatesSkipped *prometheus.CounterVec
	LastDetectionTime prometheus.Gauge

	// Sampler metrics
	SamplersActive   prometheus.Gauge
	SamplersLaunched prometheus.Counter
	SamplersRejected *prometheus.CounterVec
	SamplerTicks     prometheus.Counter
	SamplerErrors    prometheus.Counter

	// Persistence metrics
	TokenUpserts prometheus.Counter
	StoreErrors  prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
// Register once per process; the bot tolerates a nil *Metrics everywhere.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "dexpaid_bot"
	}

	return &Metrics{
		PollCycles: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watcher",
			Name:      "poll_cycles_total",
			Help:      "Total number of discovery feed poll cycles",
		}),
		PollFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watcher",
			Name:      "poll_failures_total",
			Help:      "Total number of poll cycles with no feed data",
		}),
		TokensScanned: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watcher",
			Name:      "tokens_scanned_total",
			Help:      "Total number of candidate profiles inspected",
		}),
		DexPaidSniped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watcher",
			Name:      "dexpaid_sniped_total",
			Help:      "Total number of dex-paid tokens recorded",
		}),
		CandidatesSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watcher",
			Name:      "candidates_skipped_total",
			Help:      "Candidates skipped during inspection, by reason",
		}, []string{"reason"}),
		LastDetectionTime: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "watcher",
			Name:      "last_detection_timestamp_seconds",
			Help:      "Unix timestamp of the most recent dex-paid detection",
		}),
		SamplersActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sampler",
			Name:      "active_jobs",
			Help:      "Number of price sampling jobs currently running",
		}),
		SamplersLaunched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sampler",
			Name:      "jobs_launched_total",
			Help:      "Total number of price sampling jobs launched",
		}),
		SamplersRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sampler",
			Name:      "jobs_rejected_total",
			Help:      "Sampling job launches rejected by the registry, by reason",
		}, []string{"reason"}),
		SamplerTicks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sampler",
			Name:      "ticks_total",
			Help:      "Total number of price samples taken",
		}),
		SamplerErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sampler",
			Name:      "tick_errors_total",
			Help:      "Total number of sample persistence failures",
		}),
		TokenUpserts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "token_upserts_total",
			Help:      "Total number of token record upserts",
		}),
		StoreErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "errors_total",
			Help:      "Total number of persistence failures",
		}),
	}
}

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
