package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/cstable/internal/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_Lifecycle(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir)
	ctx := context.Background()

	w, err := store.Create(ctx, "orders/amount.col")
	require.NoError(t, err)

	data := []byte("hello world, this is a column file")
	n, err := w.Write(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.NoError(t, w.Sync())

	// Not visible before Close.
	_, err = os.Stat(filepath.Join(dir, "orders", "amount.col"))
	require.True(t, os.IsNotExist(err))
	names, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Empty(t, names)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	blob, err := store.Open(ctx, "orders/amount.col")
	require.NoError(t, err)
	defer blob.Close()
	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, 5)
	n, err = blob.ReadAt(ctx, buf, 6)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "world", string(buf))

	rc, err := blob.ReadRange(ctx, 28, 100)
	require.NoError(t, err)
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, "n file", string(content))

	_, err = blob.ReadRange(ctx, 100, 1)
	require.ErrorIs(t, err, io.EOF)

	require.NoError(t, store.Put(ctx, "orders/_manifest.json", []byte("{}")))
	require.NoError(t, store.Put(ctx, "other/x.col", nil))

	names, err = store.List(ctx, "orders/")
	require.NoError(t, err)
	require.Equal(t, []string{"orders/_manifest.json", "orders/amount.col"}, names)

	require.NoError(t, store.Delete(ctx, "orders/amount.col"))
	require.NoError(t, store.Delete(ctx, "orders/amount.col"))
	_, err = store.Open(ctx, "orders/amount.col")
	require.ErrorIs(t, err, ErrNotFound)

	data, err = ReadAll(ctx, store, "orders/_manifest.json")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestLocalStore_Abort(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir)
	ctx := context.Background()

	w, err := store.Create(ctx, "t/a.col")
	require.NoError(t, err)
	_, err = w.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, w.Abort(ctx))

	_, err = w.Write([]byte("more"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, w.Close(), ErrAborted)

	entries, err := os.ReadDir(filepath.Join(dir, "t"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalStore_RejectsBadNames(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	_, err := store.Create(ctx, "")
	assert.Error(t, err)
	_, err = store.Create(ctx, "x.tmp")
	assert.Error(t, err)

	// Parent references stay inside the root.
	w, err := store.Create(ctx, "../escape.col")
	require.NoError(t, err)
	require.NoError(t, w.Close())
	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"escape.col"}, names)
}

func TestLocalStore_WriteFault(t *testing.T) {
	dir := t.TempDir()
	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule("broken.col", fs.Fault{FailAfterBytes: 4})
	store := NewLocalStore(dir, WithFileSystem(ffs))
	ctx := context.Background()

	w, err := store.Create(ctx, "broken.col")
	require.NoError(t, err)
	_, err = w.Write([]byte("1234"))
	require.NoError(t, err)
	_, err = w.Write([]byte("5"))
	assert.ErrorIs(t, err, fs.ErrInjected)
	require.NoError(t, w.Abort(ctx))

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLocalStore_SyncFaultFailsClose(t *testing.T) {
	dir := t.TempDir()
	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule("", fs.Fault{FailAfterBytes: -1, FailOnSync: true})
	store := NewLocalStore(dir, WithFileSystem(ffs))
	ctx := context.Background()

	w, err := store.Create(ctx, "a.col")
	require.NoError(t, err)
	_, err = w.Write([]byte("data"))
	require.NoError(t, err)
	assert.ErrorIs(t, w.Close(), fs.ErrInjected)

	_, err = store.Open(ctx, "a.col")
	assert.ErrorIs(t, err, ErrNotFound)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
