// Package minio implements blobstore.Store with the MinIO client, for MinIO
// and other S3-compatible storage such as Ceph or Garage.
//
// # Basic Usage
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    return err
//	}
//
//	store := minioblob.NewStore(client, "my-bucket", "tables/")
//	tw, err := cstable.Create(ctx, store, "orders", schema)
//
// Column files are streamed with PutObject of unknown size while pages are
// written; the object appears when the column writer is closed.
package minio
