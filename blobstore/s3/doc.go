// Package s3 implements blobstore.Store on Amazon S3.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	if err != nil {
//	    return err
//	}
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "my-bucket", "tables/")
//	tw, err := cstable.Create(ctx, store, "orders", schema)
//
// # Features
//
//   - Column files stream through a multipart upload while pages are written
//   - Range reads for footers and single pages
//   - CRC32C integrity checks on uploads
//   - Automatic pagination for listing
package s3
