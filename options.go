package cstable

import (
	"github.com/hupe1980/cstable/codec"
	"github.com/hupe1980/cstable/internal/resource"
	"github.com/hupe1980/cstable/page"
)

// ResourceConfig bounds the concurrency and write throughput of a table
// writer.
type ResourceConfig = resource.Config

type options struct {
	codec            codec.Codec
	metricsCollector MetricsCollector
	logger           *Logger
	pageOpts         []page.Option
	resource         ResourceConfig
}

func defaultOptions() options {
	return options{
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
}

func buildOptions(optFns []Option) options {
	o := defaultOptions()
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

// Option configures Create and OpenTable.
type Option func(*options)

// WithCodec configures the codec used for the table manifest.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithMetricsCollector configures a metrics collector.
//
// If nil is passed, metrics are discarded.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging.
//
// If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithPageOptions configures the page writers of every column, e.g. the
// flush policy, compression and maximum string length.
//
// Example:
//
//	cstable.WithPageOptions(
//	    page.WithFlushPolicy(page.FlushPolicy{MaxValues: 64 << 10}),
//	    page.WithCompression(page.CompressionZSTD),
//	)
func WithPageOptions(opts ...page.Option) Option {
	return func(o *options) {
		o.pageOpts = append(o.pageOpts, opts...)
	}
}

// WithResourceConfig limits how many columns are flushed at once and how
// fast pages are written.
func WithResourceConfig(cfg ResourceConfig) Option {
	return func(o *options) {
		o.resource = cfg
	}
}
