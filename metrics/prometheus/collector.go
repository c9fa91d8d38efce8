// Package prometheus exports table writer metrics to Prometheus.
//
//	c, err := prometheus.NewCollector(prom.DefaultRegisterer, "myapp")
//	tw, err := cstable.Create(ctx, store, "orders", schema, cstable.WithMetricsCollector(c))
package prometheus

import (
	"time"

	"github.com/hupe1980/cstable"
	"github.com/prometheus/client_golang/prometheus"
)

var _ cstable.MetricsCollector = (*Collector)(nil)

// Collector implements cstable.MetricsCollector with Prometheus metrics.
type Collector struct {
	appends    *prometheus.CounterVec
	pages      *prometheus.CounterVec
	pageValues *prometheus.CounterVec
	pageBytes  *prometheus.CounterVec
	flushes    *prometheus.CounterVec
	flushBytes prometheus.Counter
	latency    *prometheus.HistogramVec
	closes     *prometheus.CounterVec
	rows       prometheus.Counter
}

// NewCollector creates the metrics under namespace and registers them with
// reg. A nil reg skips registration.
func NewCollector(reg prometheus.Registerer, namespace string) (*Collector, error) {
	c := &Collector{
		appends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cstable_appends_total",
			Help:      "Rows passed to AppendRow",
		}, []string{"status"}),
		pages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cstable_pages_total",
			Help:      "Pages written",
		}, []string{"column"}),
		pageValues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cstable_page_values_total",
			Help:      "Values written in pages",
		}, []string{"column"}),
		pageBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cstable_page_bytes_total",
			Help:      "Page bytes written including headers",
		}, []string{"column"}),
		flushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cstable_flushes_total",
			Help:      "Table flushes",
		}, []string{"status"}),
		flushBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cstable_flush_bytes_total",
			Help:      "Bytes written by table flushes",
		}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cstable_operation_latency_seconds",
			Help:      "Latency of flush and close",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "status"}),
		closes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cstable_closes_total",
			Help:      "Tables closed",
		}, []string{"status"}),
		rows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cstable_rows_written_total",
			Help:      "Rows in successfully closed tables",
		}),
	}

	if reg != nil {
		for _, m := range []prometheus.Collector{
			c.appends, c.pages, c.pageValues, c.pageBytes,
			c.flushes, c.flushBytes, c.latency, c.closes, c.rows,
		} {
			if err := reg.Register(m); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordAppend implements cstable.MetricsCollector.
func (c *Collector) RecordAppend(err error) {
	c.appends.WithLabelValues(status(err)).Inc()
}

// RecordPage implements cstable.MetricsCollector.
func (c *Collector) RecordPage(column string, values uint64, bytes uint64) {
	c.pages.WithLabelValues(column).Inc()
	c.pageValues.WithLabelValues(column).Add(float64(values))
	c.pageBytes.WithLabelValues(column).Add(float64(bytes))
}

// RecordFlush implements cstable.MetricsCollector.
func (c *Collector) RecordFlush(d time.Duration, bytes int64, err error) {
	c.flushes.WithLabelValues(status(err)).Inc()
	c.flushBytes.Add(float64(bytes))
	c.latency.WithLabelValues("flush", status(err)).Observe(d.Seconds())
}

// RecordClose implements cstable.MetricsCollector.
func (c *Collector) RecordClose(rows uint64, d time.Duration, err error) {
	c.closes.WithLabelValues(status(err)).Inc()
	c.latency.WithLabelValues("close", status(err)).Observe(d.Seconds())
	if err == nil {
		c.rows.Add(float64(rows))
	}
}
