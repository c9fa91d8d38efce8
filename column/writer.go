package column

import (
	"errors"
	"fmt"
	"io"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/cstable/page"
)

// Stats summarizes what a column writer has accepted so far.
type Stats struct {
	Name   string
	Type   page.Type
	Rows   uint64
	Values uint64
	Nulls  uint64
	// Pages and Bytes count what reached the sink, including the file header.
	Pages uint64
	Bytes int64
	// Pending is the number of values buffered in the current page.
	Pending int
	// BufferedBytes is the encoded size of the current page body.
	BufferedBytes int
}

type options struct {
	pageOpts []page.Option
	onPage   func(PageMeta)
}

// Option configures a column writer.
type Option func(*options)

// WithPageOptions forwards options to the underlying page writer. A
// page.WithOnFlush callback is replaced by the column writer's own; use
// WithOnPage instead.
func WithPageOptions(opts ...page.Option) Option {
	return func(o *options) {
		o.pageOpts = append(o.pageOpts, opts...)
	}
}

// WithOnPage registers a callback invoked for every page written to the file.
func WithOnPage(fn func(PageMeta)) Option {
	return func(o *options) {
		o.onPage = fn
	}
}

// Writer writes one column file.
//
// Exactly one of the typed page writers is set, chosen from the column type
// at construction. Typed appends that do not match the column type fail with
// a *page.TypeMismatchError and buffer nothing.
//
// A Writer is not safe for concurrent use.
type Writer struct {
	name string
	typ  page.Type
	out  *countingWriter

	u64 *page.UnsignedIntWriter
	i64 *page.SignedIntWriter
	f64 *page.FloatWriter
	str *page.StringWriter
	pw  page.PageWriter

	rows   uint64
	values uint64
	nulls  *roaring.Bitmap
	pages  []PageMeta
	onPage func(PageMeta)

	closed bool
	err    error // sticky after a sink failure
}

// NewWriter writes the file header to sink and returns a writer for a column
// of type typ.
func NewWriter(sink io.Writer, name string, typ page.Type, optFns ...Option) (*Writer, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: unknown column type %d", page.ErrInvariantViolation, typ)
	}

	var o options
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if err := page.ValidateOptions(o.pageOpts...); err != nil {
		return nil, err
	}

	w := &Writer{
		name:   name,
		typ:    typ,
		out:    &countingWriter{w: sink},
		nulls:  roaring.New(),
		onPage: o.onPage,
	}

	pageOpts := append(o.pageOpts[:len(o.pageOpts):len(o.pageOpts)], page.WithOnFlush(w.recordPage))
	switch typ {
	case page.TypeUint64:
		w.u64 = page.NewUnsignedIntWriter(w.out, pageOpts...)
		w.pw = w.u64
	case page.TypeInt64:
		w.i64 = page.NewSignedIntWriter(w.out, pageOpts...)
		w.pw = w.i64
	case page.TypeFloat64:
		w.f64 = page.NewFloatWriter(w.out, pageOpts...)
		w.pw = w.f64
	case page.TypeString:
		w.str = page.NewStringWriter(w.out, pageOpts...)
		w.pw = w.str
	}

	if _, err := w.out.Write(appendFileHeader(nil)); err != nil {
		return nil, fmt.Errorf("%w: %w", page.ErrIO, err)
	}
	return w, nil
}

// Name returns the column name.
func (w *Writer) Name() string { return w.name }

// Type returns the column type.
func (w *Writer) Type() page.Type { return w.typ }

func (w *Writer) recordPage(info page.PageInfo) {
	m := PageMeta{
		Offset:     uint64(w.out.n) - uint64(info.Size), //nolint:gosec
		Count:      info.Count,
		BodyLength: info.BodyLength,
		Checksum:   info.Checksum,
		Stats:      info.Stats,
	}
	w.pages = append(w.pages, m)
	if w.onPage != nil {
		w.onPage(m)
	}
}

// check reports whether another row may be appended.
func (w *Writer) check() error {
	if w.err != nil {
		return w.err
	}
	if w.closed {
		return page.ErrClosed
	}
	if w.rows >= MaxRows {
		return ErrTooManyRows
	}
	return nil
}

func (w *Writer) mismatch(actual string) error {
	return &page.TypeMismatchError{Expected: w.typ, Actual: actual}
}

// track makes sink failures sticky for the whole column.
func (w *Writer) track(err error) error {
	if err != nil && errors.Is(err, page.ErrIO) && w.err == nil {
		w.err = fmt.Errorf("%w: %w", page.ErrSessionAborted, err)
	}
	return err
}

// accepted records the outcome of a page writer append.
func (w *Writer) accepted(err error) error {
	if err != nil {
		return w.track(err)
	}
	w.rows++
	w.values++
	return nil
}

// AppendUint64 appends a value to a uint64 column.
func (w *Writer) AppendUint64(v uint64) error {
	if w.u64 == nil {
		return w.mismatch("uint64")
	}
	if err := w.check(); err != nil {
		return err
	}
	return w.accepted(w.u64.AppendValue(v))
}

// AppendInt64 appends a value to an int64 column.
func (w *Writer) AppendInt64(v int64) error {
	if w.i64 == nil {
		return w.mismatch("int64")
	}
	if err := w.check(); err != nil {
		return err
	}
	return w.accepted(w.i64.AppendValue(v))
}

// AppendFloat64 appends a value to a float64 column.
func (w *Writer) AppendFloat64(v float64) error {
	if w.f64 == nil {
		return w.mismatch("float64")
	}
	if err := w.check(); err != nil {
		return err
	}
	return w.accepted(w.f64.AppendValue(v))
}

// AppendBytes appends a value to a string column. v is copied.
func (w *Writer) AppendBytes(v []byte) error {
	if w.str == nil {
		return w.mismatch("[]byte")
	}
	if err := w.check(); err != nil {
		return err
	}
	return w.accepted(w.str.AppendValue(v))
}

// AppendString appends a value to a string column.
func (w *Writer) AppendString(v string) error {
	if w.str == nil {
		return w.mismatch("string")
	}
	if err := w.check(); err != nil {
		return err
	}
	return w.accepted(w.str.AppendString(v))
}

// AppendNull records a row without a value. Nothing is written to the page.
func (w *Writer) AppendNull() error {
	if err := w.check(); err != nil {
		return err
	}
	w.nulls.Add(uint32(w.rows)) //nolint:gosec
	w.rows++
	return nil
}

// Append appends a dynamically typed value. nil appends a null. The Go type
// must match the column type exactly; values are never converted.
func (w *Writer) Append(v any) error {
	switch x := v.(type) {
	case nil:
		return w.AppendNull()
	case uint64:
		return w.AppendUint64(x)
	case int64:
		return w.AppendInt64(x)
	case float64:
		return w.AppendFloat64(x)
	case []byte:
		return w.AppendBytes(x)
	case string:
		return w.AppendString(x)
	default:
		return w.mismatch(fmt.Sprintf("%T", v))
	}
}

// Accepts reports whether Append would take v without a type error.
func (w *Writer) Accepts(v any) bool {
	return Accepts(w.typ, v)
}

// Check reports the error Append would return for v without buffering it.
// Session state such as a closed writer is not considered.
func (w *Writer) Check(v any) error {
	if !w.Accepts(v) {
		return w.mismatch(fmt.Sprintf("%T", v))
	}
	if w.str == nil {
		return nil
	}
	var n int
	switch x := v.(type) {
	case string:
		n = len(x)
	case []byte:
		n = len(x)
	}
	if uint64(n) > uint64(w.str.MaxLength()) {
		return &page.StringTooLongError{Length: n, Max: w.str.MaxLength()}
	}
	return nil
}

// Accepts reports whether a value of v's Go type can be appended to a column
// of type t. nil is accepted by every column.
func Accepts(t page.Type, v any) bool {
	switch v.(type) {
	case nil:
		return true
	case uint64:
		return t == page.TypeUint64
	case int64:
		return t == page.TypeInt64
	case float64:
		return t == page.TypeFloat64
	case []byte, string:
		return t == page.TypeString
	default:
		return false
	}
}

// Flush writes the buffered values as one page.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if w.closed {
		return nil
	}
	return w.track(w.pw.Flush())
}

// Close flushes the last page and writes the footer. Closing twice returns
// the result of the first Close. After a sink failure Close drops the buffer
// and returns the session error.
func (w *Writer) Close() error {
	if w.closed {
		return w.err
	}
	w.closed = true

	if w.err != nil {
		w.pw.Abort()
		return w.err
	}
	if err := w.finish(); err != nil {
		if w.err == nil {
			w.err = err
		}
		return err
	}
	return nil
}

// finish writes the last page and the footer.
func (w *Writer) finish() error {
	if err := w.track(w.pw.Close()); err != nil {
		return err
	}

	footer, err := w.footer().MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode footer: %w", err)
	}
	tail := appendTrailer(footer, footer)
	if _, err := w.out.Write(tail); err != nil {
		ioErr := fmt.Errorf("%w: %w", page.ErrIO, err)
		w.err = fmt.Errorf("%w: %w", page.ErrSessionAborted, ioErr)
		return ioErr
	}
	return nil
}

// Abort drops the buffered values. Nothing more is written to the sink.
func (w *Writer) Abort() {
	w.pw.Abort()
	w.closed = true
}

func (w *Writer) footer() *Footer {
	return &Footer{
		Name:   w.name,
		Type:   w.typ,
		Rows:   w.rows,
		Values: w.values,
		Pages:  w.pages,
		Nulls:  w.nulls,
	}
}

// Stats returns a snapshot of the writer's counters.
func (w *Writer) Stats() Stats {
	s := Stats{
		Name:    w.name,
		Type:    w.typ,
		Rows:    w.rows,
		Values:  w.values,
		Nulls:   w.nulls.GetCardinality(),
		Pages:   uint64(len(w.pages)),
		Bytes:   w.out.n,
		Pending: w.pw.Pending(),
	}
	switch {
	case w.u64 != nil:
		s.BufferedBytes = w.u64.BufferedBytes()
	case w.i64 != nil:
		s.BufferedBytes = w.i64.BufferedBytes()
	case w.f64 != nil:
		s.BufferedBytes = w.f64.BufferedBytes()
	case w.str != nil:
		s.BufferedBytes = w.str.BufferedBytes()
	}
	return s
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
