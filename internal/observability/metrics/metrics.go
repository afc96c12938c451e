package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes counters/histograms for the availability and booking flows.
// All observe methods are nil-receiver safe so wiring stays optional.
type Metrics struct {
	slotComputeSeconds prometheus.Histogram
	bookingOutcomes    *prometheus.CounterVec
	cacheLookups       *prometheus.CounterVec
	reconcileWarnings  prometheus.Counter
	purgedRows         prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		slotComputeSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clinicdesk",
			Subsystem: "availability",
			Name:      "slot_compute_seconds",
			Help:      "Latency of day-schedule computation including reads",
			Buckets:   prometheus.DefBuckets,
		}),
		bookingOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicdesk",
			Subsystem: "booking",
			Name:      "attempts_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicdesk",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Read-cache lookups by result",
		}, []string{"result"}),
		reconcileWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinicdesk",
			Subsystem: "booking",
			Name:      "reconciliation_warnings_total",
			Help:      "Appointments kept without a linked patient after a failed identity resolution",
		}),
		purgedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinicdesk",
			Subsystem: "cleanup",
			Name:      "purged_appointments_total",
			Help:      "Old cancelled/completed appointment rows removed by the cleanup worker",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.slotComputeSeconds, m.bookingOutcomes, m.cacheLookups, m.reconcileWarnings, m.purgedRows)
	return m
}

func (m *Metrics) ObserveSlotCompute(seconds float64) {
	if m == nil {
		return
	}
	m.slotComputeSeconds.Observe(seconds)
}

func (m *Metrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveReconciliationWarning() {
	if m == nil {
		return
	}
	m.reconcileWarnings.Inc()
}

func (m *Metrics) ObservePurgedRows(n int64) {
	if m == nil {
		return
	}
	m.purgedRows.Add(float64(n))
}
