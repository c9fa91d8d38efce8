package column

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/cstable/internal/hash"
	"github.com/hupe1980/cstable/page"
)

const (
	// FileMagic opens every column file (ASCII "CST1").
	FileMagic = "CST1"
	// TrailerMagic closes every column file (ASCII "CSTE").
	TrailerMagic = "CSTE"

	// FormatVersion is the current column file format version.
	FormatVersion uint32 = 1

	// FileHeaderSize is the size of [magic][version].
	FileHeaderSize = 8

	// TrailerSize is the size of [footer_len][footer_crc][magic].
	TrailerSize = 12

	// MaxRows is the largest number of rows a column file can hold; null row
	// ids are 32-bit.
	MaxRows = 1 << 32
)

var (
	// ErrInvalidMagic is returned when a file does not start or end with the
	// column file magic.
	ErrInvalidMagic = errors.New("column: invalid magic")

	// ErrInvalidVersion is returned for files written by a newer format.
	ErrInvalidVersion = errors.New("column: unsupported format version")

	// ErrCorrupted is returned when a footer or page fails validation.
	ErrCorrupted = errors.New("column: file corrupted")

	// ErrTooManyRows is returned when a column would exceed MaxRows.
	ErrTooManyRows = fmt.Errorf("%w: column exceeds %d rows", page.ErrEncodingConstraint, uint64(MaxRows))
)

// PageMeta locates one page inside a column file.
type PageMeta struct {
	// Offset is the file offset of the page header.
	Offset     uint64
	Count      uint64
	BodyLength uint64
	// Checksum is the CRC32C of the page header and body.
	Checksum uint32
	Stats    page.Stats
}

// Size returns the encoded size of the page including its header.
func (m PageMeta) Size() uint64 { return page.HeaderSize + m.BodyLength }

// Footer describes the content of a column file.
type Footer struct {
	Name   string
	Type   page.Type
	Rows   uint64
	Values uint64
	Pages  []PageMeta
	// Nulls holds the row ids that have no value.
	Nulls *roaring.Bitmap
}

func appendFileHeader(dst []byte) []byte {
	dst = append(dst, FileMagic...)
	return binary.LittleEndian.AppendUint32(dst, FormatVersion)
}

func parseFileHeader(b []byte) error {
	if len(b) < FileHeaderSize || string(b[:4]) != FileMagic {
		return ErrInvalidMagic
	}
	if v := binary.LittleEndian.Uint32(b[4:8]); v == 0 || v > FormatVersion {
		return fmt.Errorf("%w: %d", ErrInvalidVersion, v)
	}
	return nil
}

// MarshalBinary encodes the footer body.
func (f *Footer) MarshalBinary() ([]byte, error) {
	var nulls []byte
	if f.Nulls != nil && !f.Nulls.IsEmpty() {
		f.Nulls.RunOptimize()
		b, err := f.Nulls.ToBytes()
		if err != nil {
			return nil, err
		}
		nulls = b
	}

	buf := make([]byte, 0, 64+len(f.Name)+len(f.Pages)*48+len(nulls))
	buf = binary.AppendUvarint(buf, uint64(len(f.Name)))
	buf = append(buf, f.Name...)
	buf = append(buf, byte(f.Type))
	buf = binary.AppendUvarint(buf, f.Rows)
	buf = binary.AppendUvarint(buf, f.Values)
	buf = binary.AppendUvarint(buf, uint64(len(f.Pages)))
	for _, p := range f.Pages {
		buf = binary.AppendUvarint(buf, p.Offset)
		buf = binary.AppendUvarint(buf, p.Count)
		buf = binary.AppendUvarint(buf, p.BodyLength)
		buf = binary.LittleEndian.AppendUint32(buf, p.Checksum)
		if p.Stats.HasMinMax {
			buf = append(buf, 1)
			buf = binary.LittleEndian.AppendUint64(buf, p.Stats.Min)
			buf = binary.LittleEndian.AppendUint64(buf, p.Stats.Max)
		} else {
			buf = append(buf, 0)
		}
	}
	buf = binary.AppendUvarint(buf, uint64(len(nulls)))
	return append(buf, nulls...), nil
}

// UnmarshalBinary decodes a footer body produced by MarshalBinary.
func (f *Footer) UnmarshalBinary(data []byte) error {
	d := decoder{b: data}

	name := d.readBytes()
	f.Name = string(name)
	f.Type = page.Type(d.readByte())
	f.Rows = d.readUvarint()
	f.Values = d.readUvarint()
	n := d.readUvarint()
	if d.err == nil && n > uint64(len(d.b)) {
		d.err = fmt.Errorf("%w: page count %d", ErrCorrupted, n)
	}
	if d.err != nil {
		return d.err
	}

	f.Pages = make([]PageMeta, 0, n)
	for range n {
		m := PageMeta{
			Offset:     d.readUvarint(),
			Count:      d.readUvarint(),
			BodyLength: d.readUvarint(),
			Checksum:   d.readUint32(),
		}
		if d.readByte() == 1 {
			m.Stats = page.Stats{HasMinMax: true, Min: d.readUint64(), Max: d.readUint64()}
		}
		f.Pages = append(f.Pages, m)
	}

	f.Nulls = roaring.New()
	if raw := d.readBytes(); d.err == nil && len(raw) > 0 {
		if _, err := f.Nulls.ReadFrom(bytes.NewReader(raw)); err != nil {
			return fmt.Errorf("%w: null bitmap: %w", ErrCorrupted, err)
		}
	}
	if d.err != nil {
		return d.err
	}
	if len(d.b) != 0 {
		return fmt.Errorf("%w: %d trailing footer bytes", ErrCorrupted, len(d.b))
	}
	return f.validate()
}

func (f *Footer) validate() error {
	if !f.Type.Valid() {
		return fmt.Errorf("%w: unknown column type %d", ErrCorrupted, f.Type)
	}
	var values uint64
	for _, p := range f.Pages {
		values += p.Count
	}
	if values != f.Values {
		return fmt.Errorf("%w: pages hold %d values, footer says %d", ErrCorrupted, values, f.Values)
	}
	if f.Values+f.Nulls.GetCardinality() != f.Rows {
		return fmt.Errorf("%w: %d values and %d nulls do not add up to %d rows",
			ErrCorrupted, f.Values, f.Nulls.GetCardinality(), f.Rows)
	}
	return nil
}

// appendTrailer appends [footer_len][footer_crc][magic] for footer.
func appendTrailer(dst, footer []byte) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(footer))) //nolint:gosec
	dst = binary.LittleEndian.AppendUint32(dst, hash.CRC32C(footer))
	return append(dst, TrailerMagic...)
}

func parseTrailer(b []byte) (footerLen, crc uint32, err error) {
	if len(b) != TrailerSize || string(b[8:]) != TrailerMagic {
		return 0, 0, ErrInvalidMagic
	}
	return binary.LittleEndian.Uint32(b[0:4]), binary.LittleEndian.Uint32(b[4:8]), nil
}

// decoder reads footer fields and remembers the first error.
type decoder struct {
	b   []byte
	err error
}

func (d *decoder) fail(what string) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: truncated footer reading %s", ErrCorrupted, what)
	}
	d.b = nil
}

func (d *decoder) readUvarint() uint64 {
	if d.err != nil {
		return 0
	}
	v, n := binary.Uvarint(d.b)
	if n <= 0 {
		d.fail("varint")
		return 0
	}
	d.b = d.b[n:]
	return v
}

func (d *decoder) readByte() byte {
	if d.err != nil || len(d.b) < 1 {
		d.fail("byte")
		return 0
	}
	v := d.b[0]
	d.b = d.b[1:]
	return v
}

func (d *decoder) readUint32() uint32 {
	if d.err != nil || len(d.b) < 4 {
		d.fail("uint32")
		return 0
	}
	v := binary.LittleEndian.Uint32(d.b)
	d.b = d.b[4:]
	return v
}

func (d *decoder) readUint64() uint64 {
	if d.err != nil || len(d.b) < 8 {
		d.fail("uint64")
		return 0
	}
	v := binary.LittleEndian.Uint64(d.b)
	d.b = d.b[8:]
	return v
}

func (d *decoder) readBytes() []byte {
	n := d.readUvarint()
	if d.err != nil {
		return nil
	}
	if n > uint64(len(d.b)) {
		d.fail("bytes")
		return nil
	}
	v := d.b[:n]
	d.b = d.b[n:]
	return v
}
