package cache

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// cacheMetrics holds the Prometheus collectors of one cache.
type cacheMetrics struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	evictions prometheus.Counter
	size      prometheus.Gauge
}

func newCacheMetrics(registerer prometheus.Registerer, component string) (*cacheMetrics, error) {
	labels := prometheus.Labels{"component": component}

	m := &cacheMetrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "fluxrt",
			Subsystem:   "cache",
			Name:        "hits_total",
			ConstLabels: labels,
			Help:        "Total number of cache hits",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "fluxrt",
			Subsystem:   "cache",
			Name:        "misses_total",
			ConstLabels: labels,
			Help:        "Total number of cache misses",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "fluxrt",
			Subsystem:   "cache",
			Name:        "evictions_total",
			ConstLabels: labels,
			Help:        "Total number of entries evicted from the cache",
		}),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "fluxrt",
			Subsystem:   "cache",
			Name:        "size",
			ConstLabels: labels,
			Help:        "Current number of entries in cache",
		}),
	}

	var err error
	m.hits, err = register(registerer, m.hits)
	if err != nil {
		return nil, err
	}

	m.misses, err = register(registerer, m.misses)
	if err != nil {
		return nil, err
	}

	m.evictions, err = register(registerer, m.evictions)
	if err != nil {
		return nil, err
	}

	m.size, err = register(registerer, m.size)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// register reuses an already registered collector, which happens when a cache is
// rebuilt for a module that keeps its identifier.
func register[C prometheus.Collector](registerer prometheus.Registerer, collector C) (C, error) {
	err := registerer.Register(collector)
	if err == nil {
		return collector, nil
	}

	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(C); ok {
			return existing, nil
		}
	}

	return collector, err
}

func (m *cacheMetrics) recordHit() {
	if m != nil {
		m.hits.Inc()
	}
}

func (m *cacheMetrics) recordMiss() {
	if m != nil {
		m.misses.Inc()
	}
}

func (m *cacheMetrics) recordEvictions(count int) {
	if m != nil && count > 0 {
		m.evictions.Add(float64(count))
	}
}

func (m *cacheMetrics) updateSize(size int) {
	if m != nil {
		m.size.Set(float64(size))
	}
}
