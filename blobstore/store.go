package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
)

var (
	// ErrNotFound is returned when a blob does not exist. It is os.ErrNotExist
	// so callers may use either with errors.Is.
	ErrNotFound = os.ErrNotExist

	// ErrClosed is returned when writing to a blob after Close or Abort.
	ErrClosed = errors.New("blobstore: blob is closed")

	// ErrAborted is the error seen by an upload that was aborted.
	ErrAborted = errors.New("blobstore: upload aborted")
)

// Store reads and writes named immutable blobs. Names use '/' as separator.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)

	// Create starts writing a blob. The blob becomes visible under name only
	// after a successful Close.
	Create(ctx context.Context, name string) (WritableBlob, error)

	// Put writes a small blob in one call.
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the sorted names of all blobs starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a stored blob.
type Blob interface {
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	Close() error
	// Size returns the size of the blob in bytes.
	Size() int64
	// ReadRange returns a reader for length bytes starting at off. The range
	// is clipped to the end of the blob; off past the end returns io.EOF.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
}

// WritableBlob is an append-only sink for a blob under construction.
type WritableBlob interface {
	io.Writer

	// Close commits the blob.
	Close() error

	// Sync makes the bytes written so far durable where the backend supports
	// it. Object stores commit only on Close.
	Sync() error

	// Abort discards the blob. Close after Abort returns ErrAborted.
	Abort(ctx context.Context) error
}

// ReadAll reads a whole blob.
func ReadAll(ctx context.Context, s Store, name string) ([]byte, error) {
	b, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = b.Close() }()

	data := make([]byte, b.Size())
	if _, err := b.ReadAt(ctx, data, 0); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return data, nil
}

// NewReaderAt adapts b to io.ReaderAt, binding every read to ctx.
func NewReaderAt(ctx context.Context, b Blob) io.ReaderAt {
	return &readerAt{ctx: ctx, b: b}
}

type readerAt struct {
	ctx context.Context //nolint:containedctx
	b   Blob
}

func (r *readerAt) ReadAt(p []byte, off int64) (int, error) {
	return r.b.ReadAt(r.ctx, p, off)
}
