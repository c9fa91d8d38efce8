package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/hupe1980/cstable"
	"github.com/hupe1980/cstable/page"
	"github.com/spf13/cobra"
)

type writeFlags struct {
	table        string
	schema       string
	header       bool
	null         string
	delimiter    string
	compression  string
	pageValues   uint64
	pageBytes    int
	flushRows    int
	maxStringLen uint32
	concurrency  int64
	ioLimit      int64
	timeout      time.Duration
}

func newWriteCmd(g *globalFlags) *cobra.Command {
	f := &writeFlags{}

	cmd := &cobra.Command{
		Use:   "write [file.csv]",
		Short: "Write CSV rows as a table",
		Long: `Write CSV rows as a table. Reads stdin when no file or "-" is given.

Example:
  cstable write --store ./data --table orders --schema id:uint64,price:float64,note:string orders.csv`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				file, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer file.Close()
				in = file
			}

			ctx := cmd.Context()
			if f.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, f.timeout)
				defer cancel()
			}

			rows, err := runWrite(ctx, g, f, in)
			if err != nil {
				return err
			}
			cmd.Printf("wrote %d rows to table %s\n", rows, f.table)
			return nil
		},
	}

	cmd.Flags().StringVarP(&f.table, "table", "t", "", "Table name (required)")
	cmd.Flags().StringVarP(&f.schema, "schema", "s", "", "Columns as name:type pairs, e.g. id:uint64,note:string (required)")
	_ = cmd.MarkFlagRequired("table")
	_ = cmd.MarkFlagRequired("schema")

	cmd.Flags().BoolVar(&f.header, "header", false, "Skip the first CSV record")
	cmd.Flags().StringVar(&f.null, "null", "", "Field value that is written as null")
	cmd.Flags().StringVar(&f.delimiter, "delimiter", ",", "CSV field delimiter")
	cmd.Flags().StringVar(&f.compression, "compression", "none", "Page compression (none, lz4, zstd)")
	cmd.Flags().Uint64Var(&f.pageValues, "page-values", 0, "Flush a page after this many values (0 = off)")
	cmd.Flags().IntVar(&f.pageBytes, "page-bytes", 1<<20, "Flush a page once its body reaches this many bytes (0 = off)")
	cmd.Flags().IntVar(&f.flushRows, "flush-rows", 0, "Flush all columns after this many rows (0 = only on close)")
	cmd.Flags().Uint32Var(&f.maxStringLen, "max-string-length", 0, "Reject strings longer than this (0 = format limit)")
	cmd.Flags().Int64Var(&f.concurrency, "max-concurrency", 0, "Columns flushed in parallel (0 = GOMAXPROCS)")
	cmd.Flags().Int64Var(&f.ioLimit, "io-limit", 0, "Write throughput limit in bytes per second (0 = unlimited)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "Abort the write after this duration (0 = none)")

	return cmd
}

func (f *writeFlags) options(logger *cstable.Logger) ([]cstable.Option, error) {
	comp, err := page.ParseCompression(f.compression)
	if err != nil {
		return nil, err
	}
	pageOpts := []page.Option{
		page.WithCompression(comp),
		page.WithFlushPolicy(page.FlushPolicy{MaxValues: f.pageValues, MaxBodyBytes: f.pageBytes}),
	}
	if f.maxStringLen > 0 {
		pageOpts = append(pageOpts, page.WithMaxStringLength(f.maxStringLen))
	}
	if f.pageBytes > 0 {
		pageOpts = append(pageOpts, page.WithBufferCapacity(f.pageBytes))
	}
	return []cstable.Option{
		cstable.WithLogger(logger),
		cstable.WithPageOptions(pageOpts...),
		cstable.WithResourceConfig(cstable.ResourceConfig{
			MaxConcurrentFlushes: f.concurrency,
			IOLimitBytesPerSec:   f.ioLimit,
		}),
	}, nil
}

func runWrite(ctx context.Context, g *globalFlags, f *writeFlags, in io.Reader) (rows uint64, err error) {
	schema, err := cstable.ParseSchema(f.schema)
	if err != nil {
		return 0, err
	}
	logger, err := g.logger()
	if err != nil {
		return 0, err
	}
	opts, err := f.options(logger)
	if err != nil {
		return 0, err
	}
	store, err := openStore(ctx, g.store)
	if err != nil {
		return 0, err
	}

	r := csv.NewReader(in)
	r.FieldsPerRecord = len(schema)
	r.ReuseRecord = true
	if f.delimiter != "" {
		r.Comma = []rune(f.delimiter)[0]
	}
	if f.header {
		if _, err := r.Read(); err != nil {
			return 0, fmt.Errorf("read header: %w", err)
		}
	}

	tw, err := cstable.Create(ctx, store, f.table, schema, opts...)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tw.Abort(context.WithoutCancel(ctx))
		}
	}()

	values := make([]any, len(schema))
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
		line, _ := r.FieldPos(0)
		for i, field := range record {
			v, err := parseField(schema[i].Type, field, f.null)
			if err != nil {
				return 0, fmt.Errorf("line %d, column %q: %w", line, schema[i].Name, err)
			}
			values[i] = v
		}
		if err := tw.AppendRow(values...); err != nil {
			return 0, fmt.Errorf("line %d: %w", line, err)
		}
		if f.flushRows > 0 && tw.Rows()%uint64(f.flushRows) == 0 {
			if err := tw.Flush(ctx); err != nil {
				return 0, err
			}
		}
	}

	if err := tw.Close(ctx); err != nil {
		return 0, err
	}
	return tw.Rows(), nil
}

// parseField converts a CSV field to the Go type of a column.
func parseField(t page.Type, field, null string) (any, error) {
	if field == null && (t != page.TypeString || null != "") {
		return nil, nil
	}
	switch t {
	case page.TypeUint64:
		return strconv.ParseUint(field, 10, 64)
	case page.TypeInt64:
		return strconv.ParseInt(field, 10, 64)
	case page.TypeFloat64:
		return strconv.ParseFloat(field, 64)
	case page.TypeString:
		return field, nil
	default:
		return nil, fmt.Errorf("unsupported column type %s", t)
	}
}
