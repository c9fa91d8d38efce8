package s3

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hupe1980/cstable/blobstore"
	"github.com/stretchr/testify/require"
)

func TestIntegration_Store(t *testing.T) {
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		t.Skip("S3_BUCKET not set")
	}

	ctx := context.Background()
	cfg, err := config.LoadDefaultConfig(ctx)
	require.NoError(t, err)

	store := NewStore(s3.NewFromConfig(cfg), bucket, fmt.Sprintf("cstable-test-%d/", time.Now().UnixNano()))

	data := make([]byte, 9*1024*1024) // two parts
	_, _ = rand.Read(data)

	w, err := store.Create(ctx, "big.col")
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	got, err := blobstore.ReadAll(ctx, store, "big.col")
	require.NoError(t, err)
	require.True(t, bytes.Equal(data, got))

	require.NoError(t, store.Delete(ctx, "big.col"))
	_, err = store.Open(ctx, "big.col")
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}
