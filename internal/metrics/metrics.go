// Package metrics provides Prometheus metrics for the facts pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the pipeline. A nil *Metrics is
// valid and records nothing, so wiring stays optional in tests and one-shot
// commands.
type Metrics struct {
	// Facts builds
	FactsBuilds        *prometheus.CounterVec
	FactsBuildDuration prometheus.Histogram
	FactsRows          prometheus.Gauge

	// In-process facts cache
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Dataset reads
	SourceReads *prometheus.CounterVec

	// Columnar mirrors
	MirrorWrites   prometheus.Counter
	MirrorSkips    prometheus.Counter
	MirrorFailures prometheus.Counter
}

// New registers all metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		FactsBuilds: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "olist_facts_builds_total",
			Help: "Facts table builds by outcome (ok, empty, error).",
		}, []string{"outcome"}),
		FactsBuildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "olist_facts_build_duration_seconds",
			Help:    "Wall time of a full facts build.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		FactsRows: factory.NewGauge(prometheus.GaugeOpts{
			Name: "olist_facts_rows",
			Help: "Row count of the most recently built facts table.",
		}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "olist_facts_cache_hits_total",
			Help: "Facts cache hits.",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "olist_facts_cache_misses_total",
			Help: "Facts cache misses.",
		}),
		SourceReads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "olist_source_reads_total",
			Help: "Source reads by logical source and backing format (parquet, csv, missing).",
		}, []string{"source", "format"}),
		MirrorWrites: factory.NewCounter(prometheus.CounterOpts{
			Name: "olist_mirror_writes_total",
			Help: "Parquet mirrors written.",
		}),
		MirrorSkips: factory.NewCounter(prometheus.CounterOpts{
			Name: "olist_mirror_skips_total",
			Help: "Mirror writes skipped because the mirror already exists.",
		}),
		MirrorFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "olist_mirror_failures_total",
			Help: "Mirror writes that failed; reads fall back to the raw file.",
		}),
	}
}

// ObserveBuild records one facts build.
func (m *Metrics) ObserveBuild(outcome string, elapsed time.Duration, rows int) {
	if m == nil {
		return
	}
	m.FactsBuilds.WithLabelValues(outcome).Inc()
	m.FactsBuildDuration.Observe(elapsed.Seconds())
	if outcome != "error" {
		m.FactsRows.Set(float64(rows))
	}
}

// CacheHit records a facts cache hit.
func (m *Metrics) CacheHit() {
	if m != nil {
		m.CacheHits.Inc()
	}
}

// CacheMiss records a facts cache miss.
func (m *Metrics) CacheMiss() {
	if m != nil {
		m.CacheMisses.Inc()
	}
}

// SourceRead records one source read with its backing format.
func (m *Metrics) SourceRead(source, format string) {
	if m != nil {
		m.SourceReads.WithLabelValues(source, format).Inc()
	}
}

// MirrorWritten records a successful mirror write.
func (m *Metrics) MirrorWritten() {
	if m != nil {
		m.MirrorWrites.Inc()
	}
}

// MirrorSkipped records an existence-check skip.
func (m *Metrics) MirrorSkipped() {
	if m != nil {
		m.MirrorSkips.Inc()
	}
}

// MirrorFailed records a failed mirror write.
func (m *Metrics) MirrorFailed() {
	if m != nil {
		m.MirrorFailures.Inc()
	}
}
