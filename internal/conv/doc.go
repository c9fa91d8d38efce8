// Package conv converts integers read from untrusted file metadata.
//
// Offsets and lengths in a column footer are uint64 on disk but index Go
// slices and io.ReaderAt offsets. Values that do not fit are reported as
// ErrOverflow so readers can classify them as corruption.
package conv
