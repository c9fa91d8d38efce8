package page

import (
	"fmt"
	"strings"
)

// Type identifies the value type stored in a page. It is the low nibble of the
// page type tag.
type Type uint8

const (
	// TypeUint64 stores unsigned 64-bit integers.
	TypeUint64 Type = 1
	// TypeInt64 stores signed 64-bit integers (two's complement).
	TypeInt64 Type = 2
	// TypeFloat64 stores IEEE-754 double precision floats.
	TypeFloat64 Type = 3
	// TypeString stores length-prefixed byte strings.
	TypeString Type = 4
)

// Valid reports whether t is one of the defined column types.
func (t Type) Valid() bool {
	return t >= TypeUint64 && t <= TypeString
}

// FixedWidth returns the encoded size of one value, or 0 for variable width types.
func (t Type) FixedWidth() int {
	switch t {
	case TypeUint64, TypeInt64, TypeFloat64:
		return 8
	default:
		return 0
	}
}

func (t Type) String() string {
	switch t {
	case TypeUint64:
		return "uint64"
	case TypeInt64:
		return "int64"
	case TypeFloat64:
		return "float64"
	case TypeString:
		return "string"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// ParseType parses the name returned by Type.String. A few SQL-ish aliases are
// accepted as well.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "uint64", "uint", "unsigned":
		return TypeUint64, nil
	case "int64", "int", "integer", "bigint":
		return TypeInt64, nil
	case "float64", "float", "double":
		return TypeFloat64, nil
	case "string", "varchar", "text", "bytes":
		return TypeString, nil
	default:
		return 0, fmt.Errorf("unknown column type %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid column type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Compression identifies the page body compression. It is the high nibble of
// the page type tag.
type Compression uint8

const (
	// CompressionNone stores the body as encoded.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast, good for hot data).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses ZSTD (better ratio, good for cold data).
	CompressionZSTD Compression = 2
)

// Valid reports whether c is a known algorithm.
func (c Compression) Valid() bool { return c <= CompressionZSTD }

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression parses the name returned by Compression.String.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", s)
	}
}

// Tag packs a value type and a compression into a page type tag.
func Tag(t Type, c Compression) byte {
	return byte(t)&0x0F | byte(c)<<4
}

// SplitTag is the inverse of Tag.
func SplitTag(tag byte) (Type, Compression) {
	return Type(tag & 0x0F), Compression(tag >> 4)
}
