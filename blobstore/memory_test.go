package blobstore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	w, err := store.Create(ctx, "t/b.col")
	require.NoError(t, err)
	_, err = w.Write([]byte("0123456789"))
	require.NoError(t, err)

	_, err = store.Open(ctx, "t/b.col")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, w.Close())
	_, err = w.Write([]byte("x"))
	require.ErrorIs(t, err, ErrClosed)

	blob, err := store.Open(ctx, "t/b.col")
	require.NoError(t, err)
	assert.Equal(t, int64(10), blob.Size())

	buf := make([]byte, 4)
	n, err := blob.ReadAt(ctx, buf, 8)
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, err, io.EOF)

	rc, err := blob.ReadRange(ctx, 2, 3)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "234", string(got))

	// Snapshot semantics.
	require.NoError(t, store.Put(ctx, "t/b.col", []byte("new")))
	assert.Equal(t, int64(10), blob.Size())

	require.NoError(t, store.Put(ctx, "t/a.col", nil))
	require.NoError(t, store.Put(ctx, "u/c.col", nil))
	names, err := store.List(ctx, "t/")
	require.NoError(t, err)
	assert.Equal(t, []string{"t/a.col", "t/b.col"}, names)

	require.NoError(t, store.Delete(ctx, "t/a.col"))
	names, err = store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"t/b.col", "u/c.col"}, names)
}

func TestMemoryStore_Abort(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	w, err := store.Create(ctx, "x")
	require.NoError(t, err)
	_, err = w.Write([]byte("data"))
	require.NoError(t, err)
	require.NoError(t, w.Abort(ctx))
	assert.ErrorIs(t, w.Close(), ErrAborted)

	_, err = store.Open(ctx, "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewReaderAt(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "x", []byte("abcdef")))

	blob, err := store.Open(ctx, "x")
	require.NoError(t, err)

	buf := make([]byte, 3)
	n, err := NewReaderAt(ctx, blob).ReadAt(buf, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "def", string(buf))
}
