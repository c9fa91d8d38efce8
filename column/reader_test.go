package column

import (
	"bytes"
	"testing"

	"github.com/hupe1980/cstable/page"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeColumn(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := NewWriter(&buf, "qty", page.TypeInt64)
	require.NoError(t, err)
	for _, v := range []any{int64(3), nil, int64(-8)} {
		require.NoError(t, w.Append(v))
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestReader_RejectsCorruption(t *testing.T) {
	good := writeColumn(t)

	tests := []struct {
		name   string
		mutate func([]byte) []byte
		want   error
	}{
		{"bad magic", func(b []byte) []byte { b[0] = 'X'; return b }, ErrInvalidMagic},
		{"bad trailer", func(b []byte) []byte { b[len(b)-1] = 'X'; return b }, ErrInvalidMagic},
		{"future version", func(b []byte) []byte { b[4] = 9; return b }, ErrInvalidVersion},
		{"footer bit flip", func(b []byte) []byte { b[len(b)-TrailerSize-2] ^= 0xFF; return b }, ErrCorrupted},
		{"truncated", func(b []byte) []byte { return b[:len(b)-1] }, ErrInvalidMagic},
		{"tiny", func(b []byte) []byte { return b[:4] }, ErrCorrupted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.mutate(bytes.Clone(good))
			_, err := NewReader(bytes.NewReader(data), int64(len(data)))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestReader_PageChecksum(t *testing.T) {
	data := writeColumn(t)
	// First body byte of the only page.
	data[FileHeaderSize+page.HeaderSize] ^= 0x01

	r, err := NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	_, err = r.ReadPage(0)
	assert.ErrorIs(t, err, ErrCorrupted)
	_, err = r.Values()
	assert.ErrorIs(t, err, ErrCorrupted)
}

func TestReader_ReadPageOutOfRange(t *testing.T) {
	data := writeColumn(t)
	r, err := NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	_, err = r.ReadPage(1)
	assert.ErrorIs(t, err, page.ErrInvariantViolation)
}

func TestReadValues_TypeMismatch(t *testing.T) {
	data := writeColumn(t)
	r, err := NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	_, err = ReadValues[uint64](r, page.Uint64Codec{})
	assert.ErrorIs(t, err, page.ErrInvariantViolation)

	vals, err := ReadValues[int64](r, page.Int64Codec{})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, -8}, vals)
}

func TestFooter_RoundTrip(t *testing.T) {
	data := writeColumn(t)
	r, err := NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	raw, err := r.Footer().MarshalBinary()
	require.NoError(t, err)

	var f Footer
	require.NoError(t, f.UnmarshalBinary(raw))
	assert.Equal(t, r.Footer().Pages, f.Pages)
	assert.True(t, f.Nulls.Contains(1))
	assert.Equal(t, uint64(1), f.Nulls.GetCardinality())

	assert.ErrorIs(t, f.UnmarshalBinary(raw[:len(raw)-1]), ErrCorrupted)
}
