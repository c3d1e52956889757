package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector exposes the in-memory metrics to Prometheus. Values are read at
// scrape time so the hot path only ever touches atomics.
type Collector struct {
	timingCount *prometheus.Desc
	timingTotal *prometheus.Desc
	timingMax   *prometheus.Desc
	cacheHits   *prometheus.Desc
	cacheMisses *prometheus.Desc
}

// NewCollector builds a collector over the package-level metrics.
func NewCollector() *Collector {
	return &Collector{
		timingCount: prometheus.NewDesc("teamboard_operation_total", "Number of timed operations.", []string{"operation"}, nil),
		timingTotal: prometheus.NewDesc("teamboard_operation_seconds_total", "Cumulative time spent per operation.", []string{"operation"}, nil),
		timingMax:   prometheus.NewDesc("teamboard_operation_max_seconds", "Slowest observed operation.", []string{"operation"}, nil),
		cacheHits:   prometheus.NewDesc("teamboard_memo_hits_total", "Memo cache hits per stage.", []string{"cache"}, nil),
		cacheMisses: prometheus.NewDesc("teamboard_memo_misses_total", "Memo cache misses per stage.", []string{"cache"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.timingCount
	ch <- c.timingTotal
	ch <- c.timingMax
	ch <- c.cacheHits
	ch <- c.cacheMisses
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, m := range AllTimingMetrics() {
		s := m.Stats()
		ch <- prometheus.MustNewConstMetric(c.timingCount, prometheus.CounterValue, float64(s.Count), s.Name)
		ch <- prometheus.MustNewConstMetric(c.timingTotal, prometheus.CounterValue, s.TotalMs/1e3, s.Name)
		ch <- prometheus.MustNewConstMetric(c.timingMax, prometheus.GaugeValue, s.MaxMs/1e3, s.Name)
	}
	for _, cm := range AllCacheMetrics() {
		ch <- prometheus.MustNewConstMetric(c.cacheHits, prometheus.CounterValue, float64(cm.Hits()), cm.Name())
		ch <- prometheus.MustNewConstMetric(c.cacheMisses, prometheus.CounterValue, float64(cm.Misses()), cm.Name())
	}
}

// Handler returns an HTTP handler serving a dedicated registry with the
// teamboard collector and the Go runtime collectors.
func Handler() http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(NewCollector())
	reg.MustRegister(prometheus.NewGoCollector())
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
