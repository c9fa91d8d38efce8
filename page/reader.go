package page

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Header is the decoded form of a page header.
type Header struct {
	Tag        byte
	Count      uint64
	BodyLength uint64
}

// Type returns the value type stored in the tag.
func (h Header) Type() Type {
	t, _ := SplitTag(h.Tag)
	return t
}

// Compression returns the body compression stored in the tag.
func (h Header) Compression() Compression {
	_, c := SplitTag(h.Tag)
	return c
}

func putHeader(dst []byte, h Header) {
	dst[0] = h.Tag
	binary.LittleEndian.PutUint64(dst[1:9], h.Count)
	binary.LittleEndian.PutUint64(dst[9:17], h.BodyLength)
}

// AppendHeader appends the encoded header to dst.
func AppendHeader(dst []byte, h Header) []byte {
	var b [HeaderSize]byte
	putHeader(b[:], h)
	return append(dst, b[:]...)
}

// ParseHeader decodes and validates a page header.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: header needs %d bytes, got %d", ErrCorruptPage, HeaderSize, len(b))
	}
	h := Header{
		Tag:        b[0],
		Count:      binary.LittleEndian.Uint64(b[1:9]),
		BodyLength: binary.LittleEndian.Uint64(b[9:17]),
	}
	if !h.Type().Valid() {
		return Header{}, fmt.Errorf("%w: unknown type tag 0x%02x", ErrCorruptPage, h.Tag)
	}
	if c := h.Compression(); c > CompressionZSTD {
		return Header{}, fmt.Errorf("%w: unknown compression in tag 0x%02x", ErrCorruptPage, h.Tag)
	}
	if w := h.Type().FixedWidth(); w > 0 && h.Compression() == CompressionNone && h.Count*uint64(w) != h.BodyLength {
		return Header{}, fmt.Errorf("%w: %d values of %d bytes do not match body length %d", ErrCorruptPage, h.Count, w, h.BodyLength)
	}
	return h, nil
}

// Page is a decoded page. Body is always uncompressed.
type Page struct {
	Header
	Body []byte
}

// Reader reads consecutive pages from a stream written by the page writers.
type Reader struct {
	r       io.Reader
	hdr     [HeaderSize]byte
	maxBody uint64
}

// MaxBodyLength is the largest page body a writer produces and a reader
// accepts. It also guards the reader against allocating for corrupt headers.
const MaxBodyLength = 1 << 32

// NewReader creates a page reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r, maxBody: MaxBodyLength}
}

// Next reads the next page. It returns io.EOF when the stream ends cleanly on a
// page boundary.
func (r *Reader) Next() (*Page, error) {
	if _, err := io.ReadFull(r.r, r.hdr[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: truncated header", ErrCorruptPage)
		}
		return nil, err
	}
	h, err := ParseHeader(r.hdr[:])
	if err != nil {
		return nil, err
	}
	if h.BodyLength > r.maxBody {
		return nil, fmt.Errorf("%w: body length %d exceeds limit %d", ErrCorruptPage, h.BodyLength, r.maxBody)
	}

	body := make([]byte, h.BodyLength)
	if _, err := io.ReadFull(r.r, body); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: truncated body", ErrCorruptPage)
		}
		return nil, err
	}
	return DecodeFrame(h, body)
}

// DecodeFrame decompresses body according to h.
func DecodeFrame(h Header, body []byte) (*Page, error) {
	plain, err := decompressBody(body, h.Compression())
	if err != nil {
		return nil, err
	}
	return &Page{Header: h, Body: plain}, nil
}

// Decode decodes the values of p with codec.
func Decode[T any](p *Page, codec Codec[T]) ([]T, error) {
	if p.Type() != codec.Type() {
		return nil, &TypeMismatchError{Expected: codec.Type(), Actual: p.Type().String()}
	}
	return codec.Decode(p.Body, p.Count)
}

// Values decodes p into a slice of the natural Go type of its column:
// []uint64, []int64, []float64 or [][]byte.
func (p *Page) Values() (any, error) {
	switch p.Type() {
	case TypeUint64:
		return Decode[uint64](p, Uint64Codec{})
	case TypeInt64:
		return Decode[int64](p, Int64Codec{})
	case TypeFloat64:
		return Decode[float64](p, Float64Codec{})
	case TypeString:
		return Decode[[]byte](p, BytesCodec{})
	default:
		return nil, fmt.Errorf("%w: unknown type %s", ErrCorruptPage, p.Type())
	}
}
