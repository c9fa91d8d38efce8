package cstable

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implementations must be safe for concurrent use: pages of different
// columns are reported from different goroutines during Flush.
//
// See metrics/prometheus for a Prometheus implementation.
type MetricsCollector interface {
	// RecordAppend is called after each AppendRow. err is nil if the row was
	// accepted.
	RecordAppend(err error)

	// RecordPage is called for every page written to a column file.
	RecordPage(column string, values uint64, bytes uint64)

	// RecordFlush is called after each Flush with the bytes it wrote.
	RecordFlush(duration time.Duration, bytes int64, err error)

	// RecordClose is called after Close with the final row count.
	RecordClose(rows uint64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAppend(error)                       {}
func (NoopMetricsCollector) RecordPage(string, uint64, uint64)        {}
func (NoopMetricsCollector) RecordFlush(time.Duration, int64, error)  {}
func (NoopMetricsCollector) RecordClose(uint64, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	AppendCount     atomic.Int64
	AppendErrors    atomic.Int64
	PageCount       atomic.Int64
	PageValues      atomic.Int64
	PageBytes       atomic.Int64
	FlushCount      atomic.Int64
	FlushErrors     atomic.Int64
	FlushBytes      atomic.Int64
	FlushTotalNanos atomic.Int64
	CloseCount      atomic.Int64
	CloseErrors     atomic.Int64
	RowsWritten     atomic.Int64
}

// RecordAppend implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAppend(err error) {
	b.AppendCount.Add(1)
	if err != nil {
		b.AppendErrors.Add(1)
	}
}

// RecordPage implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPage(_ string, values uint64, bytes uint64) {
	b.PageCount.Add(1)
	b.PageValues.Add(int64(values)) //nolint:gosec
	b.PageBytes.Add(int64(bytes))   //nolint:gosec
}

// RecordFlush implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFlush(duration time.Duration, bytes int64, err error) {
	b.FlushCount.Add(1)
	b.FlushBytes.Add(bytes)
	b.FlushTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.FlushErrors.Add(1)
	}
}

// RecordClose implements MetricsCollector.
func (b *BasicMetricsCollector) RecordClose(rows uint64, _ time.Duration, err error) {
	b.CloseCount.Add(1)
	if err != nil {
		b.CloseErrors.Add(1)
		return
	}
	b.RowsWritten.Add(int64(rows)) //nolint:gosec
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AppendCount:   b.AppendCount.Load(),
		AppendErrors:  b.AppendErrors.Load(),
		PageCount:     b.PageCount.Load(),
		PageValues:    b.PageValues.Load(),
		PageBytes:     b.PageBytes.Load(),
		FlushCount:    b.FlushCount.Load(),
		FlushErrors:   b.FlushErrors.Load(),
		FlushBytes:    b.FlushBytes.Load(),
		FlushAvgNanos: b.getAvgFlushNanos(),
		CloseCount:    b.CloseCount.Load(),
		CloseErrors:   b.CloseErrors.Load(),
		RowsWritten:   b.RowsWritten.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgFlushNanos() int64 {
	count := b.FlushCount.Load()
	if count == 0 {
		return 0
	}
	return b.FlushTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AppendCount   int64
	AppendErrors  int64
	PageCount     int64
	PageValues    int64
	PageBytes     int64
	FlushCount    int64
	FlushErrors   int64
	FlushBytes    int64
	FlushAvgNanos int64
	CloseCount    int64
	CloseErrors   int64
	RowsWritten   int64
}
