package page

import "fmt"

// FlushPolicy configures automatic page cuts. A zero threshold is disabled, so
// the zero value flushes only on explicit Flush or Close.
//
// When a threshold is set, the append that makes the buffer reach it flushes
// before returning. Page boundaries therefore depend only on the sequence of
// appends and the thresholds.
type FlushPolicy struct {
	// MaxBodyBytes cuts a page once its encoded body reaches this size.
	MaxBodyBytes int
	// MaxValues cuts a page once it holds this many values.
	MaxValues uint64
}

func (p FlushPolicy) reached(b *Buffer) bool {
	if p.MaxValues > 0 && b.Count() >= p.MaxValues {
		return true
	}
	return p.MaxBodyBytes > 0 && b.Len() >= p.MaxBodyBytes
}

// PageInfo describes a page that was handed to the sink.
type PageInfo struct {
	Type        Type
	Compression Compression
	// Count is the number of values in the page.
	Count uint64
	// BodyLength is the stored body length (after compression).
	BodyLength uint64
	// Size is HeaderSize + BodyLength.
	Size int
	// Checksum is the CRC32C of the header and body as written.
	Checksum uint32
	Stats    Stats
}

type options struct {
	policy          FlushPolicy
	maxStringLength uint32
	compression     Compression
	bufferCapacity  int
	onFlush         func(PageInfo)
}

// Option configures a page writer.
type Option func(*options)

// WithFlushPolicy enables size or count based page cuts.
func WithFlushPolicy(p FlushPolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithMaxStringLength declares the largest accepted string value. It only
// affects string writers. Zero restores MaxStringLength.
func WithMaxStringLength(n uint32) Option {
	return func(o *options) {
		o.maxStringLength = n
	}
}

// WithCompression compresses page bodies with the given algorithm. An unknown
// algorithm makes every call on the writer fail with ErrInvariantViolation.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithBufferCapacity presizes the page buffer to hold n body bytes. Pair it
// with FlushPolicy.MaxBodyBytes to avoid growing the buffer while a page fills.
func WithBufferCapacity(n int) Option {
	return func(o *options) {
		o.bufferCapacity = n
	}
}

// WithOnFlush registers a callback invoked after every page the sink accepted.
//
// Example:
//
//	var pages []page.PageInfo
//	w := page.NewFloatWriter(f, page.WithOnFlush(func(p page.PageInfo) {
//	    pages = append(pages, p)
//	}))
func WithOnFlush(fn func(PageInfo)) Option {
	return func(o *options) {
		o.onFlush = fn
	}
}

func buildOptions(optFns []Option) options {
	var o options
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

func (o options) validate() error {
	if !o.compression.Valid() {
		return fmt.Errorf("%w: unknown compression %d", ErrInvariantViolation, o.compression)
	}
	if o.bufferCapacity < 0 {
		return fmt.Errorf("%w: negative buffer capacity %d", ErrInvariantViolation, o.bufferCapacity)
	}
	return nil
}

// ValidateOptions reports the error a writer built with optFns would return
// from every call.
func ValidateOptions(optFns ...Option) error {
	return buildOptions(optFns).validate()
}
