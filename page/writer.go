package page

import (
	"errors"
	"fmt"
	"io"
	"unsafe"

	"github.com/hupe1980/cstable/internal/hash"
)

// PageWriter is the type-independent handle on a page writer.
type PageWriter interface {
	// Type returns the value type of the column.
	Type() Type

	// Flush hands the buffered values to the sink as one page. It is a no-op
	// when nothing was appended since the last flush.
	Flush() error

	// Close flushes and finalizes the writer. Closing twice is a no-op.
	Close() error

	// Abort drops the buffered values without writing them and finalizes the
	// writer. A later Close does nothing.
	Abort()

	// Pending returns the number of values buffered since the last flush.
	Pending() int
}

// Writer encodes values of type T into pages written to an io.Writer.
//
// A Writer is not safe for concurrent use.
type Writer[T any] struct {
	sink  io.Writer
	codec Codec[T]
	buf   *Buffer
	opts  options

	scratch []byte // compressed frame
	maxBody uint64
	closed  bool
	err     error // sticky after a sink failure or invalid options

	pages        uint64
	values       uint64
	bytesWritten int64
}

// NewWriter creates a writer that encodes values with codec and writes pages
// to sink. If the options are invalid, every call fails with the error
// ValidateOptions reports.
func NewWriter[T any](sink io.Writer, codec Codec[T], optFns ...Option) *Writer[T] {
	return newWriter(sink, codec, buildOptions(optFns))
}

func newWriter[T any](sink io.Writer, codec Codec[T], o options) *Writer[T] {
	err := o.validate()
	if err != nil {
		o.bufferCapacity = 0
	}
	return &Writer[T]{
		sink:    sink,
		codec:   codec,
		buf:     NewBuffer(o.bufferCapacity),
		opts:    o,
		maxBody: MaxBodyLength,
		err:     err,
	}
}

// Type implements PageWriter.
func (w *Writer[T]) Type() Type { return w.codec.Type() }

// Pending implements PageWriter.
func (w *Writer[T]) Pending() int { return int(w.buf.Count()) } //nolint:gosec

// BufferedBytes returns the encoded body size of the current page.
func (w *Writer[T]) BufferedBytes() int { return w.buf.Len() }

// PagesWritten returns the number of pages accepted by the sink.
func (w *Writer[T]) PagesWritten() uint64 { return w.pages }

// ValuesWritten returns the number of values in pages accepted by the sink.
func (w *Writer[T]) ValuesWritten() uint64 { return w.values }

// BytesWritten returns the number of bytes accepted by the sink.
func (w *Writer[T]) BytesWritten() int64 { return w.bytesWritten }

// AppendValue encodes v into the current page.
//
// A value rejected by the codec, or one that would grow the page body past
// MaxBodyLength, leaves the page unchanged. If a flush policy threshold is
// reached, the page is flushed before AppendValue returns and any sink error
// is reported here.
func (w *Writer[T]) AppendValue(v T) error {
	if w.err != nil {
		return w.err
	}
	if w.closed {
		return ErrClosed
	}
	n, stats := w.buf.Len(), w.buf.stats
	if err := w.codec.Encode(w.buf, v); err != nil {
		return err
	}
	if uint64(w.buf.Len()) > w.maxBody { //nolint:gosec
		w.buf.truncate(n, stats)
		return fmt.Errorf("%w: page body would exceed %d bytes; flush first", ErrEncodingConstraint, w.maxBody)
	}
	w.buf.count++

	if w.opts.policy.reached(w.buf) {
		return w.Flush()
	}
	return nil
}

// Flush implements PageWriter.
func (w *Writer[T]) Flush() error {
	if w.err != nil {
		return w.err
	}
	if w.buf.Count() == 0 {
		return nil
	}

	frame, comp, err := w.frame()
	if err != nil {
		return err
	}

	n, err := w.sink.Write(frame)
	if err == nil && n != len(frame) {
		err = io.ErrShortWrite
	}
	if err != nil {
		ioErr := fmt.Errorf("%w: %w", ErrIO, err)
		w.err = fmt.Errorf("%w: %w", ErrSessionAborted, ioErr)
		w.buf.Reset()
		return ioErr
	}

	info := PageInfo{
		Type:        w.Type(),
		Compression: comp,
		Count:       w.buf.Count(),
		BodyLength:  uint64(len(frame) - HeaderSize), //nolint:gosec
		Size:        len(frame),
		Checksum:    hash.CRC32C(frame),
		Stats:       w.buf.Stats(),
	}

	w.pages++
	w.values += info.Count
	w.bytesWritten += int64(len(frame))
	w.buf.Reset()

	if w.opts.onFlush != nil {
		w.opts.onFlush(info)
	}
	return nil
}

// frame returns header+body for the buffered page.
func (w *Writer[T]) frame() ([]byte, Compression, error) {
	if w.opts.compression != CompressionNone {
		scratch := append(w.scratch[:0], make([]byte, HeaderSize)...)
		scratch, ok, err := compressBody(scratch, w.buf.Body(), w.opts.compression)
		if err != nil {
			return nil, CompressionNone, err
		}
		if ok {
			putHeader(scratch[:HeaderSize], Header{
				Tag:        Tag(w.Type(), w.opts.compression),
				Count:      w.buf.Count(),
				BodyLength: uint64(len(scratch) - HeaderSize), //nolint:gosec
			})
			w.scratch = scratch
			return scratch, w.opts.compression, nil
		}
	}
	return w.buf.frame(Tag(w.Type(), CompressionNone)), CompressionNone, nil
}

// Close implements PageWriter.
func (w *Writer[T]) Close() error {
	if w.closed {
		return nil
	}
	err := w.Flush()
	w.closed = true
	return err
}

// Abort implements PageWriter.
func (w *Writer[T]) Abort() {
	w.buf.Reset()
	w.closed = true
}

// UnsignedIntWriter writes uint64 columns.
type UnsignedIntWriter = Writer[uint64]

// SignedIntWriter writes int64 columns.
type SignedIntWriter = Writer[int64]

// FloatWriter writes float64 columns.
type FloatWriter = Writer[float64]

// NewUnsignedIntWriter creates a writer for a uint64 column.
func NewUnsignedIntWriter(sink io.Writer, optFns ...Option) *UnsignedIntWriter {
	return NewWriter[uint64](sink, Uint64Codec{}, optFns...)
}

// NewSignedIntWriter creates a writer for an int64 column.
func NewSignedIntWriter(sink io.Writer, optFns ...Option) *SignedIntWriter {
	return NewWriter[int64](sink, Int64Codec{}, optFns...)
}

// NewFloatWriter creates a writer for a float64 column.
func NewFloatWriter(sink io.Writer, optFns ...Option) *FloatWriter {
	return NewWriter[float64](sink, Float64Codec{}, optFns...)
}

// StringWriter writes string columns. AppendValue takes the byte span and is
// the canonical entry point; AppendString forwards to it.
type StringWriter struct {
	*Writer[[]byte]
}

// NewStringWriter creates a writer for a string column.
func NewStringWriter(sink io.Writer, optFns ...Option) *StringWriter {
	o := buildOptions(optFns)
	return &StringWriter{Writer: newWriter[[]byte](sink, BytesCodec{MaxLength: o.maxStringLength}, o)}
}

// AppendString appends s without copying it first; the bytes are copied into
// the page buffer by AppendValue.
func (w *StringWriter) AppendString(s string) error {
	return w.AppendValue(unsafe.Slice(unsafe.StringData(s), len(s)))
}

// MaxLength returns the declared maximum length of a single value.
func (w *StringWriter) MaxLength() uint32 {
	return w.codec.(BytesCodec).limit()
}

// Scope runs fn with w and closes w on every exit path, including panics.
// Errors from fn and Close are joined.
func Scope[W PageWriter](w W, fn func(W) error) (err error) {
	defer func() {
		if cerr := w.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()
	return fn(w)
}
