package metrics

import "github.com/prometheus/client_golang/prometheus"

// AvailabilityMetrics exposes counters/histograms for the availability core
// and its store reads.
type AvailabilityMetrics struct {
	storeFallbacks *prometheus.CounterVec
	skippedRows    *prometheus.CounterVec
	cacheResults   *prometheus.CounterVec
	computeLatency *prometheus.HistogramVec
	slotHolds      *prometheus.CounterVec
}

func NewAvailabilityMetrics(reg prometheus.Registerer) *AvailabilityMetrics {
	m := &AvailabilityMetrics{
		storeFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barbatero",
			Subsystem: "store",
			Name:      "fallback_reads_total",
			Help:      "Filtered queries that fell back to a full table read",
		}, []string{"table", "reason"}),
		skippedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barbatero",
			Subsystem: "availability",
			Name:      "skipped_rows_total",
			Help:      "Store rows dropped because they could not be interpreted",
		}, []string{"table", "reason"}),
		cacheResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barbatero",
			Subsystem: "availability",
			Name:      "schedule_cache_total",
			Help:      "Schedule/blackout cache lookups by result",
		}, []string{"result"}),
		computeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "barbatero",
			Subsystem: "availability",
			Name:      "compute_seconds",
			Help:      "Latency of availability computation including store reads",
			Buckets:   prometheus.DefBuckets,
		}, []string{"scope"}),
		slotHolds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barbatero",
			Subsystem: "booking",
			Name:      "slot_holds_total",
			Help:      "Slot hold attempts by outcome",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.storeFallbacks, m.skippedRows, m.cacheResults, m.computeLatency, m.slotHolds)
	return m
}

// ObserveFallback counts a full-read fallback. reason is "empty" or "error".
func (m *AvailabilityMetrics) ObserveFallback(table, reason string) {
	if m == nil {
		return
	}
	m.storeFallbacks.WithLabelValues(table, reason).Inc()
}

func (m *AvailabilityMetrics) ObserveSkippedRow(table, reason string) {
	if m == nil {
		return
	}
	m.skippedRows.WithLabelValues(table, reason).Inc()
}

// ObserveCache counts a cache lookup: "hit", "miss" or "error".
func (m *AvailabilityMetrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.cacheResults.WithLabelValues(result).Inc()
}

func (m *AvailabilityMetrics) ObserveCompute(scope string, seconds float64) {
	if m == nil {
		return
	}
	m.computeLatency.WithLabelValues(scope).Observe(seconds)
}

func (m *AvailabilityMetrics) ObserveSlotHold(outcome string) {
	if m == nil {
		return
	}
	m.slotHolds.WithLabelValues(outcome).Inc()
}
