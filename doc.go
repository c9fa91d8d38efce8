// Package cstable writes columnar tables to blob storage.
//
// A table is a set of column files plus a manifest, all stored under the
// table name:
//
//	<table>/<column>.col     one column file per schema column
//	<table>/_manifest.json   schema, row count and column sizes
//
// Column files are sequences of typed pages (see package page) followed by a
// footer (see package column). The manifest is written last, so a table
// without a manifest was never completed.
//
// # Quick Start
//
//	ctx := context.Background()
//	store := blobstore.NewLocalStore("./data")
//
//	tw, err := cstable.Create(ctx, store, "orders", cstable.Schema{
//	    {Name: "id", Type: page.TypeUint64},
//	    {Name: "price", Type: page.TypeFloat64},
//	    {Name: "note", Type: page.TypeString},
//	})
//	if err != nil {
//	    return err
//	}
//	defer tw.Abort(ctx) // no-op after Close
//
//	_ = tw.AppendRow(uint64(1), 9.99, "first")
//	_ = tw.AppendRow(uint64(2), nil, "no price")
//	return tw.Close(ctx)
//
// # Buffering
//
// Values are buffered per column until Flush, or until a page flush policy
// passed with WithPageOptions triggers:
//
//	cstable.WithPageOptions(page.WithFlushPolicy(page.FlushPolicy{MaxBodyBytes: 1 << 20}))
//
// Flush writes every column concurrently, bounded by WithResourceConfig.
//
// # Errors
//
// Rejected values leave the table usable: ValidateRow and AppendRow return
// ErrInvariantViolation for type mismatches and ErrEncodingConstraint for
// oversized strings. A failure of the underlying blob is reported once as
// ErrIO; every later call returns ErrSessionAborted and the table must be
// aborted.
//
// # Reading
//
//	tr, err := cstable.OpenTable(ctx, store, "orders")
//	err = tr.Scan(ctx, func(row uint64, values []any) error { ... })
package cstable
