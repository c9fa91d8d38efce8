// Package blobstore provides the storage sinks that column files are written
// to.
//
// A [Store] hands out append-only [WritableBlob]s, which satisfy io.Writer and
// can therefore be used directly as the output sink of a column or page
// writer. A blob becomes visible only after Close; Abort discards it.
//
// # Built-in Implementations
//
//   - LocalStore: local file system, temp file + rename, fdatasync on Sync
//   - MemoryStore: in-memory, for tests
//   - s3.Store: Amazon S3, streaming multipart uploads
//   - minio.Store: MinIO and other S3-compatible storage
//
// # Custom Implementations
//
//	type Store interface {
//	    Open(ctx, name) (Blob, error)
//	    Create(ctx, name) (WritableBlob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
package blobstore
