// Package page implements the page write path of the cstable columnar format.
//
// A page is the unit of encoded column data that is handed to an output sink in
// a single write:
//
//	[type_tag:1][value_count:uint64][body_length:uint64][body:body_length]
//
// All integers are little-endian. The low nibble of the tag identifies the value
// type, the high nibble the body compression (see [Compression]).
//
// Bodies are type specific:
//
//   - [TypeUint64], [TypeInt64], [TypeFloat64]: fixed 8-byte values, concatenated.
//   - [TypeString]: repeated [length:uint32][bytes] pairs.
//
// Because numeric bodies carry no delimiters, the header value count is
// authoritative; decoders never infer it from the body length.
//
// # Writers
//
// [Writer] is generic over a [Codec]; the four column types are exposed as
// [UnsignedIntWriter], [SignedIntWriter], [FloatWriter] and [StringWriter].
// Every writer satisfies [PageWriter], which is the handle a column writer keeps
// regardless of the column type.
//
// Writers are not safe for concurrent use. Appends only touch the in-memory
// buffer unless a [FlushPolicy] threshold is configured, in which case the
// append that reaches the threshold also flushes.
//
// Writers must be closed: Close flushes whatever is still buffered. [Scope]
// wraps a writer so Close runs on every exit path:
//
//	err := page.Scope(page.NewSignedIntWriter(f), func(w *page.SignedIntWriter) error {
//	    return w.AppendValue(-1)
//	})
//
// A writer that is dropped without Close (or explicitly [PageWriter.Abort]ed)
// loses its buffered values.
package page
