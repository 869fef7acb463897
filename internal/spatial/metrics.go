package spatial

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes the observability counters spec.md §4.10 calls for:
// inserts rejected for OutOfCapacity are counted here, and brute-force
// fallback frequency is otherwise invisible from the outside. A nil
// *Metrics is safe to use — every method is a no-op.
type Metrics struct {
	insertFailed        prometheus.Counter
	bruteForceFallback  prometheus.Counter
	queryCandidates     prometheus.Histogram
}

// NewMetrics builds a Metrics instance registered against reg. Passing a
// nil reg disables registration; the returned Metrics still works but
// nothing is exported.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		insertFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "broadphase_insert_failed_total",
			Help: "Inserts rejected because the world's registry was at max_shapes.",
		}),
		bruteForceFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "broadphase_bruteforce_fallback_total",
			Help: "Queries answered by brute-force iteration instead of the acceleration structure.",
		}),
		queryCandidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "broadphase_query_candidates",
			Help:    "Number of candidates a query wrote to its output buffer.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.insertFailed, m.bruteForceFallback, m.queryCandidates)
	}
	return m
}

func (m *Metrics) IncInsertFailed() {
	if m == nil {
		return
	}
	m.insertFailed.Inc()
}

func (m *Metrics) IncBruteForceFallback() {
	if m == nil {
		return
	}
	m.bruteForceFallback.Inc()
}

func (m *Metrics) ObserveQueryCandidates(n int) {
	if m == nil {
		return
	}
	m.queryCandidates.Observe(float64(n))
}
