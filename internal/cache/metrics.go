package cache

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	evictions prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "code_analyzer",
			Subsystem: "fact_cache",
			Name:      "hits_total",
			Help:      "Fact cache lookups that found a record",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "code_analyzer",
			Subsystem: "fact_cache",
			Name:      "misses_total",
			Help:      "Fact cache lookups that found nothing",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "code_analyzer",
			Subsystem: "fact_cache",
			Name:      "evictions_total",
			Help:      "Records dropped to stay within capacity",
		}),
	}
	reg.MustRegister(m.hits, m.misses, m.evictions)
	return m
}

// The methods below accept a nil receiver so callers need not check whether
// metrics are enabled.

func (m *metrics) hit() {
	if m != nil {
		m.hits.Inc()
	}
}

func (m *metrics) miss() {
	if m != nil {
		m.misses.Inc()
	}
}

func (m *metrics) evict(n int) {
	if m != nil && n > 0 {
		m.evictions.Add(float64(n))
	}
}
