package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/hupe1980/cstable"
	"github.com/hupe1980/cstable/codec"
	"github.com/hupe1980/cstable/page"
	"github.com/spf13/cobra"
)

var errStop = errors.New("stop")

type inspectFlags struct {
	table string
	pages bool
	rows  uint64
}

func newInspectCmd(g *globalFlags) *cobra.Command {
	f := &inspectFlags{}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the manifest, pages and rows of a table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInspect(cmd.Context(), g, f, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&f.table, "table", "t", "", "Table name (required)")
	_ = cmd.MarkFlagRequired("table")
	cmd.Flags().BoolVar(&f.pages, "pages", false, "List the pages of every column")
	cmd.Flags().Uint64Var(&f.rows, "rows", 0, "Print the first n rows")
	return cmd
}

func runInspect(ctx context.Context, g *globalFlags, f *inspectFlags, out io.Writer) error {
	logger, err := g.logger()
	if err != nil {
		return err
	}
	store, err := openStore(ctx, g.store)
	if err != nil {
		return err
	}
	tr, err := cstable.OpenTable(ctx, store, f.table, cstable.WithLogger(logger))
	if err != nil {
		return err
	}

	data, err := codec.GoJSON{Indent: "  "}.Marshal(tr.Manifest())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s\n", data)

	if f.pages {
		if err := printPages(ctx, tr, out); err != nil {
			return err
		}
	}
	if f.rows > 0 {
		return printRows(ctx, tr, f.rows, out)
	}
	return nil
}

func printPages(ctx context.Context, tr *cstable.TableReader, out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tPAGE\tOFFSET\tVALUES\tBYTES\tCRC32C\tMIN\tMAX")
	for _, c := range tr.Manifest().Columns {
		footer, err := tr.ColumnFooter(ctx, c.Name)
		if err != nil {
			return err
		}
		for i, p := range footer.Pages {
			lo, hi := formatBounds(c.Type, p.Stats)
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%08x\t%s\t%s\n",
				c.Name, i, p.Offset, p.Count, p.Size(), p.Checksum, lo, hi)
		}
	}
	return tw.Flush()
}

func formatBounds(t page.Type, s page.Stats) (lo, hi string) {
	if !s.HasMinMax {
		return "-", "-"
	}
	switch t {
	case page.TypeUint64:
		return fmt.Sprint(s.Min), fmt.Sprint(s.Max)
	case page.TypeInt64:
		return fmt.Sprint(s.MinInt64()), fmt.Sprint(s.MaxInt64())
	case page.TypeFloat64:
		lo, hi := s.MinFloat64(), s.MaxFloat64()
		if math.IsNaN(lo) {
			return "NaN", "NaN"
		}
		return fmt.Sprint(lo), fmt.Sprint(hi)
	default:
		return "-", "-"
	}
}

func printRows(ctx context.Context, tr *cstable.TableReader, n uint64, out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for i, c := range tr.Manifest().Columns {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, c.Name)
	}
	fmt.Fprintln(tw)

	err := tr.Scan(ctx, func(row uint64, values []any) error {
		if row >= n {
			return errStop
		}
		for i, v := range values {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			if v == nil {
				fmt.Fprint(tw, "NULL")
			} else {
				fmt.Fprint(tw, v)
			}
		}
		fmt.Fprintln(tw)
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return err
	}
	return tw.Flush()
}
