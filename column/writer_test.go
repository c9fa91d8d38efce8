package column

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/hupe1980/cstable/page"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openBuffer(t *testing.T, b *bytes.Buffer) *Reader {
	t.Helper()
	r, err := NewReader(bytes.NewReader(b.Bytes()), int64(b.Len()))
	require.NoError(t, err)
	return r
}

func TestWriter_RoundTripWithNulls(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, "price", page.TypeFloat64,
		WithPageOptions(page.WithFlushPolicy(page.FlushPolicy{MaxValues: 2})))
	require.NoError(t, err)

	rows := []any{nil, 1.5, math.Inf(-1), nil, nil, 0.0, 42.25, nil}
	for _, v := range rows {
		require.NoError(t, w.Append(v))
	}

	stats := w.Stats()
	assert.Equal(t, uint64(8), stats.Rows)
	assert.Equal(t, uint64(4), stats.Values)
	assert.Equal(t, uint64(4), stats.Nulls)
	assert.Equal(t, uint64(2), stats.Pages)

	require.NoError(t, w.Close())

	r := openBuffer(t, &buf)
	f := r.Footer()
	assert.Equal(t, "price", f.Name)
	assert.Equal(t, page.TypeFloat64, f.Type)
	assert.Equal(t, uint64(8), f.Rows)
	assert.Equal(t, uint64(4), f.Values)
	assert.Equal(t, 2, r.NumPages())
	assert.Equal(t, uint64(FileHeaderSize), f.Pages[0].Offset)
	assert.Equal(t, f.Pages[0].Offset+f.Pages[0].Size(), f.Pages[1].Offset)

	got, err := r.Values()
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestWriter_StringOrdering(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, "name", page.TypeString)
	require.NoError(t, err)

	require.NoError(t, w.AppendString("a"))
	require.NoError(t, w.AppendBytes([]byte{}))
	require.NoError(t, w.AppendNull())
	require.NoError(t, w.AppendString("xyz"))
	require.NoError(t, w.Close())

	r := openBuffer(t, &buf)
	got, err := r.Values()
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "", nil, "xyz"}, got)

	vals, err := ReadValues[[]byte](r, page.BytesCodec{})
	require.NoError(t, err)
	require.Len(t, vals, 3)
	assert.Equal(t, "xyz", string(vals[2]))
}

func TestWriter_TypeMismatch(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, "id", page.TypeUint64)
	require.NoError(t, err)

	for _, v := range []any{int64(1), 1.0, "x", []byte("x"), 7, uint32(3)} {
		err := w.Append(v)
		assert.ErrorIs(t, err, page.ErrInvariantViolation, "%T", v)
		var mismatch *page.TypeMismatchError
		assert.ErrorAs(t, err, &mismatch)
	}
	assert.ErrorIs(t, w.AppendFloat64(1), page.ErrInvariantViolation)
	assert.ErrorIs(t, w.AppendString("x"), page.ErrInvariantViolation)

	assert.Zero(t, w.Stats().Rows)
	assert.True(t, w.Accepts(uint64(1)))
	assert.True(t, w.Accepts(nil))
	assert.False(t, w.Accepts(int64(1)))

	require.NoError(t, w.AppendUint64(9))
	require.NoError(t, w.Close())

	vals, err := ReadValues[uint64](openBuffer(t, &buf), page.Uint64Codec{})
	require.NoError(t, err)
	assert.Equal(t, []uint64{9}, vals)
}

func TestWriter_EncodingConstraintIsRecoverable(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, "code", page.TypeString,
		WithPageOptions(page.WithMaxStringLength(3)))
	require.NoError(t, err)

	require.NoError(t, w.AppendString("abc"))
	err = w.AppendString("abcd")
	assert.ErrorIs(t, err, page.ErrEncodingConstraint)
	require.NoError(t, w.AppendNull())
	require.NoError(t, w.Close())

	got, err := openBuffer(t, &buf).Values()
	require.NoError(t, err)
	assert.Equal(t, []any{"abc", nil}, got)
}

func TestWriter_EmptyColumn(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, "empty", page.TypeInt64)
	require.NoError(t, err)
	require.NoError(t, w.Flush())
	require.NoError(t, w.Close())

	r := openBuffer(t, &buf)
	assert.Zero(t, r.Footer().Rows)
	assert.Zero(t, r.NumPages())

	got, err := r.Values()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWriter_OnlyNulls(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, "n", page.TypeInt64)
	require.NoError(t, err)
	for range 3 {
		require.NoError(t, w.AppendNull())
	}
	require.NoError(t, w.Close())

	got, err := openBuffer(t, &buf).Values()
	require.NoError(t, err)
	assert.Equal(t, []any{nil, nil, nil}, got)
}

func TestWriter_CloseIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, "v", page.TypeInt64)
	require.NoError(t, err)
	require.NoError(t, w.AppendInt64(-1))
	require.NoError(t, w.Close())
	size := buf.Len()

	require.NoError(t, w.Close())
	require.NoError(t, w.Flush())
	assert.Equal(t, size, buf.Len())
	assert.ErrorIs(t, w.AppendInt64(2), page.ErrClosed)
	assert.ErrorIs(t, w.AppendNull(), page.ErrClosed)
}

func TestWriter_OnPage(t *testing.T) {
	var buf bytes.Buffer
	var metas []PageMeta
	w, err := NewWriter(&buf, "v", page.TypeUint64,
		WithOnPage(func(m PageMeta) { metas = append(metas, m) }),
		WithPageOptions(page.WithFlushPolicy(page.FlushPolicy{MaxValues: 3})))
	require.NoError(t, err)
	for i := range uint64(7) {
		require.NoError(t, w.AppendUint64(i))
	}
	require.NoError(t, w.Close())

	require.Len(t, metas, 3)
	assert.Equal(t, []uint64{3, 3, 1}, []uint64{metas[0].Count, metas[1].Count, metas[2].Count})
	assert.Equal(t, uint64(0), metas[0].Stats.Min)
	assert.Equal(t, uint64(6), metas[2].Stats.Max)
	assert.Equal(t, metas, openBuffer(t, &buf).Footer().Pages)
}

type brokenSink struct {
	budget int
}

func (s *brokenSink) Write(p []byte) (int, error) {
	if len(p) > s.budget {
		return 0, errors.New("no space left on device")
	}
	s.budget -= len(p)
	return len(p), nil
}

func TestWriter_SinkFailureAbortsColumn(t *testing.T) {
	sink := &brokenSink{budget: FileHeaderSize}
	w, err := NewWriter(sink, "v", page.TypeUint64)
	require.NoError(t, err)

	require.NoError(t, w.AppendUint64(1))
	err = w.Flush()
	assert.ErrorIs(t, err, page.ErrIO)

	assert.ErrorIs(t, w.AppendNull(), page.ErrSessionAborted)
	assert.ErrorIs(t, w.AppendUint64(2), page.ErrSessionAborted)
	assert.ErrorIs(t, w.Close(), page.ErrSessionAborted)
	assert.ErrorIs(t, w.Close(), page.ErrSessionAborted)
}

func TestWriter_HeaderWriteFails(t *testing.T) {
	_, err := NewWriter(&brokenSink{}, "v", page.TypeUint64)
	assert.ErrorIs(t, err, page.ErrIO)
}

func TestWriter_InvalidType(t *testing.T) {
	_, err := NewWriter(&bytes.Buffer{}, "v", page.Type(9))
	assert.ErrorIs(t, err, page.ErrInvariantViolation)
}

func TestWriter_Abort(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, "v", page.TypeFloat64)
	require.NoError(t, err)
	require.NoError(t, w.AppendFloat64(1))
	w.Abort()

	assert.Equal(t, FileHeaderSize, buf.Len())
	assert.ErrorIs(t, w.AppendFloat64(2), page.ErrClosed)
}

func TestWriter_Compression(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, "s", page.TypeString,
		WithPageOptions(page.WithCompression(page.CompressionZSTD)))
	require.NoError(t, err)

	var want []any
	for i := range 300 {
		if i%7 == 0 {
			want = append(want, nil)
			require.NoError(t, w.AppendNull())
			continue
		}
		want = append(want, "repetitive value")
		require.NoError(t, w.AppendString("repetitive value"))
	}
	require.NoError(t, w.Close())

	got, err := openBuffer(t, &buf).Values()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWriter_Check(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, "code", page.TypeString,
		WithPageOptions(page.WithMaxStringLength(2)))
	require.NoError(t, err)

	assert.NoError(t, w.Check(nil))
	assert.NoError(t, w.Check("ab"))
	assert.NoError(t, w.Check([]byte("ab")))
	assert.ErrorIs(t, w.Check("abc"), page.ErrEncodingConstraint)
	assert.ErrorIs(t, w.Check(int64(1)), page.ErrInvariantViolation)
	assert.Zero(t, w.Stats().Rows)
}

func TestWriter_InvalidPageOptions(t *testing.T) {
	var buf bytes.Buffer
	_, err := NewWriter(&buf, "v", page.TypeFloat64,
		WithPageOptions(page.WithCompression(page.Compression(5))))
	assert.ErrorIs(t, err, page.ErrInvariantViolation)
	assert.Zero(t, buf.Len())
}

func TestWriter_CloseFailureIsSticky(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, "v", page.TypeFloat64)
	require.NoError(t, err)

	// A page writer that fails on close without touching the sink.
	w.f64 = page.NewFloatWriter(w.out, page.WithCompression(page.Compression(5)))
	w.pw = w.f64

	err = w.Close()
	require.ErrorIs(t, err, page.ErrInvariantViolation)
	assert.ErrorIs(t, w.Close(), page.ErrInvariantViolation)
	assert.ErrorIs(t, w.Flush(), page.ErrInvariantViolation)
	assert.Equal(t, FileHeaderSize, buf.Len())
}

func TestWriter_TrailerFailureIsSticky(t *testing.T) {
	sink := &brokenSink{budget: FileHeaderSize + page.HeaderSize + 8}
	w, err := NewWriter(sink, "v", page.TypeUint64)
	require.NoError(t, err)
	require.NoError(t, w.AppendUint64(1))

	err = w.Close()
	assert.ErrorIs(t, err, page.ErrIO)
	assert.ErrorIs(t, w.Close(), page.ErrSessionAborted)
}
