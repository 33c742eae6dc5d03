package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// Stream metrics
	barsTotal    *prometheus.CounterVec
	badBarsTotal prometheus.Counter

	// Strategy metrics
	breaksTotal   *prometheus.CounterVec
	signalsTotal  *prometheus.CounterVec
	entriesTotal  *prometheus.CounterVec
	exitsTotal    *prometheus.CounterVec
	pnlPoints     prometheus.Gauge
	openPosition  prometheus.Gauge
	channelRange  prometheus.Gauge
	lastBarsHeld  prometheus.Gauge
	feedRequests  *prometheus.CounterVec
	feedLatency   prometheus.Histogram
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		barsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chanfade_bars_total",
				Help: "Total number of bars processed",
			},
			[]string{"source"},
		),
		badBarsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "chanfade_bad_bars_total",
				Help: "Total number of malformed bars rejected",
			},
		),
		breaksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chanfade_channel_breaks_total",
				Help: "Total number of channel breaks detected",
			},
			[]string{"side"},
		),
		signalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chanfade_signals_total",
				Help: "Total number of entry signals",
			},
			[]string{"entry_type", "direction"},
		),
		entriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chanfade_entries_total",
				Help: "Total number of positions opened",
			},
			[]string{"entry_type", "direction"},
		),
		exitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chanfade_exits_total",
				Help: "Total number of positions closed",
			},
			[]string{"reason"},
		),
		pnlPoints: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "chanfade_session_pnl_points",
				Help: "Cumulative session P&L in points",
			},
		),
		openPosition: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "chanfade_open_position",
				Help: "1 when a position is open, 0 when flat",
			},
		),
		channelRange: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "chanfade_channel_range_points",
				Help: "Current channel width in points",
			},
		),
		lastBarsHeld: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "chanfade_last_trade_bars_held",
				Help: "Bars held by the most recently closed trade",
			},
		),
		feedRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chanfade_feed_requests_total",
				Help: "Total number of feed API requests",
			},
			[]string{"endpoint", "status"},
		),
		feedLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "chanfade_feed_request_duration_seconds",
				Help:    "Feed API request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	reg.MustRegister(r.barsTotal)
	reg.MustRegister(r.badBarsTotal)
	reg.MustRegister(r.breaksTotal)
	reg.MustRegister(r.signalsTotal)
	reg.MustRegister(r.entriesTotal)
	reg.MustRegister(r.exitsTotal)
	reg.MustRegister(r.pnlPoints)
	reg.MustRegister(r.openPosition)
	reg.MustRegister(r.channelRange)
	reg.MustRegister(r.lastBarsHeld)
	reg.MustRegister(r.feedRequests)
	reg.MustRegister(r.feedLatency)

	return r
}

// RecordBar records a processed bar.
func (r *Registry) RecordBar(source string) {
	r.barsTotal.WithLabelValues(source).Inc()
}

// RecordBadBar records a rejected bar.
func (r *Registry) RecordBadBar() {
	r.badBarsTotal.Inc()
}

// RecordBreak records a channel break on the given side ("high" or "low").
func (r *Registry) RecordBreak(side string) {
	r.breaksTotal.WithLabelValues(side).Inc()
}

// RecordSignal records an entry signal.
func (r *Registry) RecordSignal(entryType, direction string) {
	r.signalsTotal.WithLabelValues(entryType, direction).Inc()
}

// RecordEntry records a position open.
func (r *Registry) RecordEntry(entryType, direction string) {
	r.entriesTotal.WithLabelValues(entryType, direction).Inc()
	r.openPosition.Set(1)
}

// RecordExit records a position close.
func (r *Registry) RecordExit(reason string, pnlPoints float64, barsHeld int) {
	r.exitsTotal.WithLabelValues(reason).Inc()
	r.pnlPoints.Add(pnlPoints)
	r.lastBarsHeld.Set(float64(barsHeld))
	r.openPosition.Set(0)
}

// SetChannelRange sets the current channel width.
func (r *Registry) SetChannelRange(points float64) {
	r.channelRange.Set(points)
}

// RecordFeedRequest records a feed API call.
func (r *Registry) RecordFeedRequest(endpoint, status string, duration float64) {
	r.feedRequests.WithLabelValues(endpoint, status).Inc()
	r.feedLatency.Observe(duration)
}

// Handler returns an HTTP handler serving the registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{})
}
