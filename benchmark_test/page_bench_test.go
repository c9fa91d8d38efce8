package benchmark_test

import (
	"fmt"
	"io"
	"testing"

	"github.com/hupe1980/cstable/page"
	"github.com/hupe1980/cstable/testutil"
)

const pageValues = 64 << 10

var compressions = []page.Compression{page.CompressionNone, page.CompressionLZ4, page.CompressionZSTD}

func BenchmarkPage_Uint64(b *testing.B) {
	vals := testutil.NewRNG(1).Uint64s(pageValues)
	for _, c := range compressions {
		b.Run(c.String(), func(b *testing.B) {
			benchmarkPage(b, vals, 8, func(w io.Writer) *page.UnsignedIntWriter {
				return page.NewUnsignedIntWriter(w, page.WithCompression(c))
			})
		})
	}
}

func BenchmarkPage_Float64(b *testing.B) {
	vals := testutil.NewRNG(2).Float64s(pageValues, 0.001)
	for _, c := range compressions {
		b.Run(c.String(), func(b *testing.B) {
			benchmarkPage(b, vals, 8, func(w io.Writer) *page.FloatWriter {
				return page.NewFloatWriter(w, page.WithCompression(c))
			})
		})
	}
}

func BenchmarkPage_String(b *testing.B) {
	strs := testutil.NewRNG(3).Strings(pageValues, 32)
	var size int64
	for _, s := range strs {
		size += int64(4 + len(s))
	}

	for _, c := range compressions {
		b.Run(c.String(), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(size)
			w := page.NewStringWriter(io.Discard, page.WithCompression(c))
			for b.Loop() {
				for _, s := range strs {
					if err := w.AppendString(s); err != nil {
						b.Fatal(err)
					}
				}
				if err := w.Flush(); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func benchmarkPage[T any, W interface {
	AppendValue(T) error
	Flush() error
}](b *testing.B, vals []T, width int, newWriter func(io.Writer) W) {
	b.ReportAllocs()
	b.SetBytes(int64(len(vals) * width))

	w := newWriter(io.Discard)
	for b.Loop() {
		for _, v := range vals {
			if err := w.AppendValue(v); err != nil {
				b.Fatal(err)
			}
		}
		if err := w.Flush(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkPage_FlushPolicy(b *testing.B) {
	vals := testutil.NewRNG(4).Int64s(pageValues)
	for _, bodyBytes := range []int{4 << 10, 64 << 10, 1 << 20} {
		b.Run(fmt.Sprintf("body=%d", bodyBytes), func(b *testing.B) {
			benchmarkPage(b, vals, 8, func(w io.Writer) *page.SignedIntWriter {
				return page.NewSignedIntWriter(w, page.WithFlushPolicy(page.FlushPolicy{MaxBodyBytes: bodyBytes}))
			})
		})
	}
}
