package s3

import (
	"context"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hupe1980/cstable/blobstore"
)

// writableBlob streams writes through an io.Pipe into the multipart
// uploader. The uploader aborts the multipart upload itself when the pipe is
// closed with an error.
type writableBlob struct {
	pw   *io.PipeWriter
	done chan error

	mu       sync.Mutex
	finished bool
	aborted  bool
	err      error
}

func newWritableBlob(ctx context.Context, uploader *manager.Uploader, bucket, key string, checksum bool) *writableBlob {
	pr, pw := io.Pipe()
	b := &writableBlob{pw: pw, done: make(chan error, 1)}

	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   pr,
	}
	if checksum {
		input.ChecksumAlgorithm = types.ChecksumAlgorithmCrc32c
	}

	go func() {
		_, err := uploader.Upload(context.WithoutCancel(ctx), input)
		_ = pr.CloseWithError(err)
		b.done <- err
	}()
	return b
}

func (b *writableBlob) Write(p []byte) (int, error) {
	b.mu.Lock()
	finished := b.finished
	b.mu.Unlock()
	if finished {
		return 0, blobstore.ErrClosed
	}
	return b.pw.Write(p)
}

// Sync is a no-op; the object is committed by Close.
func (b *writableBlob) Sync() error { return nil }

// Close finishes the upload and waits for S3 to acknowledge it.
func (b *writableBlob) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.finished {
		if b.aborted {
			return blobstore.ErrAborted
		}
		return b.err
	}
	b.finished = true
	_ = b.pw.Close()
	b.err = <-b.done
	return b.err
}

// Abort cancels the upload and waits until the uploader has cleaned up.
func (b *writableBlob) Abort(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.finished {
		return nil
	}
	b.finished = true
	b.aborted = true
	_ = b.pw.CloseWithError(blobstore.ErrAborted)
	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
