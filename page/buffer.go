package page

import (
	"encoding/binary"
	"math"
)

// HeaderSize is the encoded size of a page header.
const HeaderSize = 1 + 8 + 8

const defaultBufferCapacity = 4 * 1024

// Stats holds the cheap per-page bookkeeping kept while a page is built.
//
// Min and Max are raw 64-bit patterns: the value itself for TypeUint64, the
// two's complement bits for TypeInt64 and math.Float64bits for TypeFloat64.
// Strings do not track bounds.
type Stats struct {
	HasMinMax bool
	Min       uint64
	Max       uint64
}

// MinInt64 returns Min interpreted as a signed integer.
func (s Stats) MinInt64() int64 { return int64(s.Min) } //nolint:gosec

// MaxInt64 returns Max interpreted as a signed integer.
func (s Stats) MaxInt64() int64 { return int64(s.Max) } //nolint:gosec

// MinFloat64 returns Min interpreted as a float.
func (s Stats) MinFloat64() float64 { return math.Float64frombits(s.Min) }

// MaxFloat64 returns Max interpreted as a float.
func (s Stats) MaxFloat64() float64 { return math.Float64frombits(s.Max) }

// Buffer accumulates the encoded body of the page under construction.
//
// The first HeaderSize bytes of the backing slice are reserved so the header
// can be written in place and the whole page handed to the sink in one call.
type Buffer struct {
	data  []byte
	count uint64
	stats Stats
}

// NewBuffer creates an empty buffer able to hold capacity body bytes without
// growing.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = defaultBufferCapacity
	}
	data := make([]byte, HeaderSize, HeaderSize+capacity)
	return &Buffer{data: data}
}

// Len returns the number of encoded body bytes.
func (b *Buffer) Len() int { return len(b.data) - HeaderSize }

// Count returns the number of values in the buffer.
func (b *Buffer) Count() uint64 { return b.count }

// Stats returns the bookkeeping of the values in the buffer.
func (b *Buffer) Stats() Stats { return b.stats }

// Body returns the encoded body. The slice aliases the buffer and is only valid
// until the next mutation.
func (b *Buffer) Body() []byte { return b.data[HeaderSize:] }

// Reset empties the buffer but keeps its capacity.
func (b *Buffer) Reset() {
	b.data = b.data[:HeaderSize]
	b.count = 0
	b.stats = Stats{}
}

// truncate drops body bytes past n and restores stats.
func (b *Buffer) truncate(n int, stats Stats) {
	b.data = b.data[:HeaderSize+n]
	b.stats = stats
}

// AppendUint32 appends v in little-endian order.
func (b *Buffer) AppendUint32(v uint32) {
	b.data = binary.LittleEndian.AppendUint32(b.data, v)
}

// AppendUint64 appends v in little-endian order.
func (b *Buffer) AppendUint64(v uint64) {
	b.data = binary.LittleEndian.AppendUint64(b.data, v)
}

// AppendBytes appends a copy of p.
func (b *Buffer) AppendBytes(p []byte) {
	b.data = append(b.data, p...)
}

// Grow makes room for at least n more body bytes.
func (b *Buffer) Grow(n int) {
	if cap(b.data)-len(b.data) >= n {
		return
	}
	grown := make([]byte, len(b.data), 2*cap(b.data)+n)
	copy(grown, b.data)
	b.data = grown
}

func (b *Buffer) observeUint64(v uint64) {
	if !b.stats.HasMinMax {
		b.stats = Stats{HasMinMax: true, Min: v, Max: v}
		return
	}
	b.stats.Min = min(b.stats.Min, v)
	b.stats.Max = max(b.stats.Max, v)
}

func (b *Buffer) observeInt64(v int64) {
	if !b.stats.HasMinMax {
		b.stats = Stats{HasMinMax: true, Min: uint64(v), Max: uint64(v)} //nolint:gosec
		return
	}
	b.stats.Min = uint64(min(b.stats.MinInt64(), v)) //nolint:gosec
	b.stats.Max = uint64(max(b.stats.MaxInt64(), v)) //nolint:gosec
}

// NaN is never a bound.
func (b *Buffer) observeFloat64(v float64) {
	if math.IsNaN(v) {
		return
	}
	if !b.stats.HasMinMax {
		bits := math.Float64bits(v)
		b.stats = Stats{HasMinMax: true, Min: bits, Max: bits}
		return
	}
	if v < b.stats.MinFloat64() {
		b.stats.Min = math.Float64bits(v)
	}
	if v > b.stats.MaxFloat64() {
		b.stats.Max = math.Float64bits(v)
	}
}

// frame writes the header into the reserved prefix and returns header+body.
func (b *Buffer) frame(tag byte) []byte {
	putHeader(b.data[:HeaderSize], Header{Tag: tag, Count: b.count, BodyLength: uint64(b.Len())}) //nolint:gosec
	return b.data
}
