package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hupe1980/cstable/blobstore"
	miniostore "github.com/hupe1980/cstable/blobstore/minio"
	s3store "github.com/hupe1980/cstable/blobstore/s3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// openStore resolves a store argument to a blobstore.Store.
func openStore(ctx context.Context, spec string) (blobstore.Store, error) {
	scheme, rest, ok := strings.Cut(spec, "://")
	if !ok {
		return blobstore.NewLocalStore(spec), nil
	}

	switch scheme {
	case "file":
		u, err := url.Parse(spec)
		if err != nil {
			return nil, err
		}
		return blobstore.NewLocalStore(u.Path), nil
	case "s3":
		bucket, prefix := splitBucket(rest)
		return newS3Store(ctx, bucket, prefix)
	case "minio":
		bucket, prefix := splitBucket(rest)
		return newMinioStore(bucket, prefix)
	default:
		return nil, fmt.Errorf("unsupported store scheme %q", scheme)
	}
}

func splitBucket(s string) (bucket, prefix string) {
	bucket, prefix, _ = strings.Cut(s, "/")
	return bucket, strings.Trim(prefix, "/")
}

// newS3Store uses the default AWS credential chain. AWS_ENDPOINT_URL_S3
// switches to path-style addressing for S3-compatible services.
func newS3Store(ctx context.Context, bucket, prefix string) (blobstore.Store, error) {
	if bucket == "" {
		return nil, errors.New("s3 store needs a bucket")
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if ep := os.Getenv("AWS_ENDPOINT_URL_S3"); ep != "" {
			o.BaseEndpoint = aws.String(ep)
			o.UsePathStyle = true
		}
	})
	return s3store.NewStore(client, bucket, prefix), nil
}

func newMinioStore(bucket, prefix string) (blobstore.Store, error) {
	if bucket == "" {
		return nil, errors.New("minio store needs a bucket")
	}
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		return nil, errors.New("MINIO_ENDPOINT is not set")
	}
	secure, _ := strconv.ParseBool(os.Getenv("MINIO_USE_SSL"))

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewEnvMinio(),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return miniostore.NewStore(client, bucket, prefix), nil
}
