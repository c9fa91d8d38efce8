package page

import (
	"encoding/binary"
	"fmt"
	"math"
)

// MaxStringLength is the largest string value the 32-bit length prefix can
// describe. Writers may declare a lower bound with WithMaxStringLength.
const MaxStringLength = math.MaxUint32

// Codec converts values of one type to and from a page body.
//
// Encode must either append the complete encoding of v or leave the buffer
// unchanged and return an error. Implementations must be safe for concurrent
// use; the four built-in codecs are stateless.
type Codec[T any] interface {
	Type() Type
	Encode(buf *Buffer, v T) error
	Decode(body []byte, count uint64) ([]T, error)
}

// Uint64Codec encodes unsigned integers as 8 little-endian bytes.
type Uint64Codec struct{}

// Type returns TypeUint64.
func (Uint64Codec) Type() Type { return TypeUint64 }

// Encode appends v and updates the page bounds.
func (Uint64Codec) Encode(buf *Buffer, v uint64) error {
	buf.AppendUint64(v)
	buf.observeUint64(v)
	return nil
}

// Decode reads count values from body.
func (Uint64Codec) Decode(body []byte, count uint64) ([]uint64, error) {
	if err := checkFixedBody(body, count); err != nil {
		return nil, err
	}
	out := make([]uint64, count)
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(body[i*8:])
	}
	return out, nil
}

// Int64Codec encodes signed integers as 8 little-endian two's complement bytes.
type Int64Codec struct{}

// Type returns TypeInt64.
func (Int64Codec) Type() Type { return TypeInt64 }

// Encode appends v and updates the page bounds.
func (Int64Codec) Encode(buf *Buffer, v int64) error {
	buf.AppendUint64(uint64(v)) //nolint:gosec
	buf.observeInt64(v)
	return nil
}

// Decode reads count values from body.
func (Int64Codec) Decode(body []byte, count uint64) ([]int64, error) {
	if err := checkFixedBody(body, count); err != nil {
		return nil, err
	}
	out := make([]int64, count)
	for i := range out {
		out[i] = int64(binary.LittleEndian.Uint64(body[i*8:])) //nolint:gosec
	}
	return out, nil
}

// Float64Codec encodes floats as their IEEE-754 bit pattern, so NaN payloads
// and signed zeros survive a round trip unchanged.
type Float64Codec struct{}

// Type returns TypeFloat64.
func (Float64Codec) Type() Type { return TypeFloat64 }

// Encode appends the bits of v. NaN does not move the page bounds.
func (Float64Codec) Encode(buf *Buffer, v float64) error {
	buf.AppendUint64(math.Float64bits(v))
	buf.observeFloat64(v)
	return nil
}

// Decode reads count values from body.
func (Float64Codec) Decode(body []byte, count uint64) ([]float64, error) {
	if err := checkFixedBody(body, count); err != nil {
		return nil, err
	}
	out := make([]float64, count)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(body[i*8:]))
	}
	return out, nil
}

// BytesCodec encodes byte strings as [length:uint32][bytes].
//
// MaxLength bounds a single value; zero means MaxStringLength.
type BytesCodec struct {
	MaxLength uint32
}

// Type returns TypeString.
func (BytesCodec) Type() Type { return TypeString }

func (c BytesCodec) limit() uint32 {
	if c.MaxLength == 0 {
		return MaxStringLength
	}
	return c.MaxLength
}

// Encode appends the length prefix and a copy of v. Values longer than
// MaxLength are rejected with a *StringTooLongError.
func (c BytesCodec) Encode(buf *Buffer, v []byte) error {
	if uint64(len(v)) > uint64(c.limit()) {
		return &StringTooLongError{Length: len(v), Max: c.limit()}
	}
	buf.Grow(4 + len(v))
	buf.AppendUint32(uint32(len(v))) //nolint:gosec
	buf.AppendBytes(v)
	return nil
}

// Decode reads count values from body. The returned slices alias body.
func (BytesCodec) Decode(body []byte, count uint64) ([][]byte, error) {
	if count > uint64(len(body))/4 {
		return nil, fmt.Errorf("%w: %d string values cannot fit in %d bytes", ErrCorruptPage, count, len(body))
	}
	out := make([][]byte, 0, count)
	off := 0
	for range count {
		if len(body)-off < 4 {
			return nil, fmt.Errorf("%w: truncated length prefix at offset %d", ErrCorruptPage, off)
		}
		n := int(binary.LittleEndian.Uint32(body[off:]))
		off += 4
		if len(body)-off < n {
			return nil, fmt.Errorf("%w: string of %d bytes at offset %d overruns body", ErrCorruptPage, n, off)
		}
		out = append(out, body[off:off+n:off+n])
		off += n
	}
	if off != len(body) {
		return nil, fmt.Errorf("%w: %d trailing body bytes", ErrCorruptPage, len(body)-off)
	}
	return out, nil
}

func checkFixedBody(body []byte, count uint64) error {
	if uint64(len(body))%8 != 0 || uint64(len(body))/8 != count {
		return fmt.Errorf("%w: body of %d bytes does not hold %d fixed-width values", ErrCorruptPage, len(body), count)
	}
	return nil
}
