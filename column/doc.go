// Package column writes and reads single-column files.
//
// A column file wraps the pages produced by one page writer:
//
//	[magic "CST1"][version:uint32]
//	page*
//	[footer][footer_len:uint32][footer_crc32c:uint32][magic "CSTE"]
//
// The footer records the column name and type, row and value counts, the
// offset, value count, CRC32C and min/max of every page, and a roaring bitmap
// of null rows. Null rows carry no value in the pages, so the k-th decoded
// value belongs to the k-th non-null row.
//
// Usage:
//
//	w, err := column.NewWriter(f, "price", page.TypeFloat64,
//	    column.WithPageOptions(page.WithFlushPolicy(page.FlushPolicy{MaxBodyBytes: 64 << 10})))
//	if err != nil {
//	    return err
//	}
//	_ = w.AppendFloat64(9.99)
//	_ = w.AppendNull()
//	return w.Close()
package column
