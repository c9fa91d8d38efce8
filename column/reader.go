package column

import (
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/cstable/internal/conv"
	"github.com/hupe1980/cstable/internal/hash"
	"github.com/hupe1980/cstable/page"
)

// Reader reads a column file written by Writer.
type Reader struct {
	r      io.ReaderAt
	size   int64
	footer *Footer
}

// NewReader validates the file header and footer of the column file in r.
func NewReader(r io.ReaderAt, size int64) (*Reader, error) {
	if size < FileHeaderSize+TrailerSize {
		return nil, fmt.Errorf("%w: file of %d bytes is too small", ErrCorrupted, size)
	}

	var head [FileHeaderSize]byte
	if err := readFull(r, head[:], 0); err != nil {
		return nil, err
	}
	if err := parseFileHeader(head[:]); err != nil {
		return nil, err
	}

	var tail [TrailerSize]byte
	if err := readFull(r, tail[:], size-TrailerSize); err != nil {
		return nil, err
	}
	footerLen, crc, err := parseTrailer(tail[:])
	if err != nil {
		return nil, err
	}
	footerOff := size - TrailerSize - int64(footerLen)
	if footerOff < FileHeaderSize {
		return nil, fmt.Errorf("%w: footer length %d", ErrCorrupted, footerLen)
	}

	raw := make([]byte, footerLen)
	if err := readFull(r, raw, footerOff); err != nil {
		return nil, err
	}
	if got := hash.CRC32C(raw); got != crc {
		return nil, fmt.Errorf("%w: footer checksum %08x, want %08x", ErrCorrupted, got, crc)
	}

	footer := &Footer{}
	if err := footer.UnmarshalBinary(raw); err != nil {
		return nil, err
	}
	for i, p := range footer.Pages {
		if p.Offset < FileHeaderSize || p.Offset+p.Size() > uint64(footerOff) { //nolint:gosec
			return nil, fmt.Errorf("%w: page %d at %d overruns data section", ErrCorrupted, i, p.Offset)
		}
	}

	return &Reader{r: r, size: size, footer: footer}, nil
}

// Footer returns the decoded footer.
func (r *Reader) Footer() *Footer { return r.footer }

// NumPages returns the number of pages in the file.
func (r *Reader) NumPages() int { return len(r.footer.Pages) }

// ReadPage reads, verifies and decompresses page i.
func (r *Reader) ReadPage(i int) (*page.Page, error) {
	if i < 0 || i >= len(r.footer.Pages) {
		return nil, fmt.Errorf("%w: page %d of %d", page.ErrInvariantViolation, i, len(r.footer.Pages))
	}
	meta := r.footer.Pages[i]

	off, err := conv.Uint64ToInt64(meta.Offset)
	if err != nil {
		return nil, fmt.Errorf("%w: page %d: %w", ErrCorrupted, i, err)
	}
	size, err := conv.Uint64ToInt(meta.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: page %d: %w", ErrCorrupted, i, err)
	}

	frame := make([]byte, size)
	if err := readFull(r.r, frame, off); err != nil {
		return nil, err
	}
	if got := hash.CRC32C(frame); got != meta.Checksum {
		return nil, fmt.Errorf("%w: page %d checksum %08x, want %08x", ErrCorrupted, i, got, meta.Checksum)
	}

	h, err := page.ParseHeader(frame)
	if err != nil {
		return nil, err
	}
	if h.Type() != r.footer.Type || h.Count != meta.Count || h.BodyLength != meta.BodyLength {
		return nil, fmt.Errorf("%w: page %d header does not match footer", ErrCorrupted, i)
	}
	return page.DecodeFrame(h, frame[page.HeaderSize:])
}

// Scan calls fn for every row in order. v is nil for null rows; otherwise it
// is a uint64, int64, float64 or []byte. Byte slices are only valid during
// the call.
func (r *Reader) Scan(fn func(row uint64, v any) error) error {
	var row uint64
	next := func(v any) error {
		for r.footer.Nulls.Contains(uint32(row)) { //nolint:gosec
			if err := fn(row, nil); err != nil {
				return err
			}
			row++
		}
		err := fn(row, v)
		row++
		return err
	}

	for i := range r.footer.Pages {
		p, err := r.ReadPage(i)
		if err != nil {
			return err
		}
		if err := scanPage(p, next); err != nil {
			return err
		}
	}

	for ; row < r.footer.Rows; row++ {
		if !r.footer.Nulls.Contains(uint32(row)) { //nolint:gosec
			return fmt.Errorf("%w: row %d has no value", ErrCorrupted, row)
		}
		if err := fn(row, nil); err != nil {
			return err
		}
	}
	return nil
}

func scanPage(p *page.Page, fn func(any) error) error {
	switch p.Type() {
	case page.TypeUint64:
		return scanValues[uint64](p, page.Uint64Codec{}, fn)
	case page.TypeInt64:
		return scanValues[int64](p, page.Int64Codec{}, fn)
	case page.TypeFloat64:
		return scanValues[float64](p, page.Float64Codec{}, fn)
	case page.TypeString:
		return scanValues[[]byte](p, page.BytesCodec{}, fn)
	default:
		return fmt.Errorf("%w: unknown page type %s", ErrCorrupted, p.Type())
	}
}

func scanValues[T any](p *page.Page, codec page.Codec[T], fn func(any) error) error {
	vals, err := page.Decode(p, codec)
	if err != nil {
		return err
	}
	for _, v := range vals {
		if err := fn(v); err != nil {
			return err
		}
	}
	return nil
}

// Values returns every row in order with nil for nulls. String values are
// returned as string.
func (r *Reader) Values() ([]any, error) {
	out := make([]any, 0, r.footer.Rows)
	err := r.Scan(func(_ uint64, v any) error {
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadValues decodes the non-null values of the column with codec.
func ReadValues[T any](r *Reader, codec page.Codec[T]) ([]T, error) {
	if codec.Type() != r.footer.Type {
		return nil, &page.TypeMismatchError{Expected: r.footer.Type, Actual: codec.Type().String()}
	}
	out := make([]T, 0, r.footer.Values)
	for i := range r.footer.Pages {
		p, err := r.ReadPage(i)
		if err != nil {
			return nil, err
		}
		vals, err := page.Decode(p, codec)
		if err != nil {
			return nil, err
		}
		out = append(out, vals...)
	}
	return out, nil
}

func readFull(r io.ReaderAt, p []byte, off int64) error {
	n, err := r.ReadAt(p, off)
	if n == len(p) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: short read at offset %d", ErrCorrupted, off)
	}
	return err
}
