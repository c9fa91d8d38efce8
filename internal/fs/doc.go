// Package fs abstracts the file operations of the local blob store so tests
// can inject failures.
//
// Production code uses [Default]. Tests wrap it in a [FaultyFS]:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".col", fs.Fault{FailAfterBytes: 1024})
//	store := blobstore.NewLocalStore(dir, blobstore.WithFileSystem(ffs))
//
// Calls take no context.Context; local file operations cannot be cancelled
// at the syscall level.
package fs
