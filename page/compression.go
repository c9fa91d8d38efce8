package page

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// A compressed body only replaces the plain one when it saves at least 10%.
const compressionMinSaving = 0.9

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil)
}

// compressBody appends [uncompressed_len:uint32][compressed] to dst. ok is
// false when the algorithm is none, the body is empty or too large for the
// prefix, or compression does not pay off; dst is then returned unchanged.
func compressBody(dst, body []byte, c Compression) (out []byte, ok bool, err error) {
	if c == CompressionNone || len(body) == 0 || uint64(len(body)) > MaxStringLength {
		return dst, false, nil
	}

	start := len(dst)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(body))) //nolint:gosec

	switch c {
	case CompressionLZ4:
		bound := lz4.CompressBlockBound(len(body))
		dst = grow(dst, bound)
		n, err := lz4.CompressBlock(body, dst[len(dst):len(dst)+bound], nil)
		if err != nil {
			return dst[:start], false, err
		}
		if n == 0 {
			return dst[:start], false, nil // incompressible
		}
		dst = dst[:len(dst)+n]
	case CompressionZSTD:
		enc, err := getZstdEncoder()
		if err != nil {
			return dst[:start], false, err
		}
		dst = enc.EncodeAll(body, dst)
		zstdEncoderPool.Put(enc)
	default:
		return dst[:start], false, fmt.Errorf("%w: unknown compression %d", ErrInvariantViolation, c)
	}

	if float64(len(dst)-start) > float64(len(body))*compressionMinSaving {
		return dst[:start], false, nil
	}
	return dst, true, nil
}

// decompressBody reverses compressBody.
func decompressBody(body []byte, c Compression) ([]byte, error) {
	if c == CompressionNone {
		return body, nil
	}
	if len(body) < 4 {
		return nil, fmt.Errorf("%w: compressed body too small", ErrCorruptPage)
	}
	size := int(binary.LittleEndian.Uint32(body))
	payload := body[4:]

	switch c {
	case CompressionLZ4:
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %w", ErrCorruptPage, err)
		}
		if n != size {
			return nil, fmt.Errorf("%w: lz4 size mismatch (%d != %d)", ErrCorruptPage, n, size)
		}
		return out, nil
	case CompressionZSTD:
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, err
		}
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(payload, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", ErrCorruptPage, err)
		}
		if len(out) != size {
			return nil, fmt.Errorf("%w: zstd size mismatch (%d != %d)", ErrCorruptPage, len(out), size)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown compression %d", ErrCorruptPage, c)
	}
}

func grow(b []byte, n int) []byte {
	if cap(b)-len(b) >= n {
		return b
	}
	grown := make([]byte, len(b), len(b)+n)
	copy(grown, b)
	return grown
}
