package cstable

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/hupe1980/cstable/blobstore"
	"github.com/hupe1980/cstable/column"
	"github.com/hupe1980/cstable/internal/resource"
	"golang.org/x/sync/errgroup"
)

const (
	manifestFile = "_manifest.json"
	columnSuffix = ".col"
)

// ManifestName returns the blob name of the manifest of table.
func ManifestName(table string) string { return path.Join(table, manifestFile) }

// ColumnBlobName returns the blob name of a column file of table.
func ColumnBlobName(table, name string) string { return path.Join(table, name+columnSuffix) }

func validateTableName(table string) error {
	if table == "" || table == "." || path.Clean(table) != table ||
		strings.HasPrefix(table, "/") || strings.HasPrefix(table, "../") || table == ".." {
		return fmt.Errorf("%w: invalid table name %q", ErrInvariantViolation, table)
	}
	return nil
}

type tableColumn struct {
	spec      ColumnSpec
	blob      blobstore.WritableBlob
	w         *column.Writer
	logger    *Logger
	committed bool
}

// TableStats summarizes a table writer.
type TableStats struct {
	Rows    uint64
	Columns []column.Stats
}

// TableWriter writes the columns of one table.
//
// AppendRow, Close and Abort must not be called concurrently. Flush writes
// the columns on separate goroutines but returns only when all are done.
type TableWriter struct {
	store  blobstore.Store
	name   string
	schema Schema
	opts   options
	rc     *resource.Controller
	logger *Logger

	cols    []*tableColumn
	rows    uint64
	started time.Time

	closed   bool
	closeErr error
	err      error // sticky session error
}

// Create starts a new table in store.
//
// ctx bounds Create itself and the IO throttling waits of the writer for its
// whole life; cancel it only to abandon the table.
func Create(ctx context.Context, store blobstore.Store, table string, schema Schema, optFns ...Option) (*TableWriter, error) {
	if err := validateTableName(table); err != nil {
		return nil, err
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	o := buildOptions(optFns)

	if b, err := store.Open(ctx, ManifestName(table)); err == nil {
		_ = b.Close()
		return nil, fmt.Errorf("%w: %s", ErrTableExists, table)
	} else if !errors.Is(err, blobstore.ErrNotFound) {
		return nil, ioError("check manifest", err)
	}

	t := &TableWriter{
		store:   store,
		name:    table,
		schema:  append(Schema(nil), schema...),
		opts:    o,
		rc:      resource.NewController(o.resource),
		logger:  o.logger.WithTable(table),
		started: time.Now(),
	}

	for _, spec := range schema {
		c, err := t.openColumn(ctx, spec)
		if err != nil {
			_ = t.abortColumns(ctx)
			return nil, err
		}
		t.cols = append(t.cols, c)
	}

	cfg := t.rc.Config()
	t.logger.DebugContext(ctx, "table created",
		"columns", len(schema),
		"max_concurrent_flushes", cfg.MaxConcurrentFlushes,
		"io_limit", cfg.IOLimitBytesPerSec,
	)
	return t, nil
}

func (t *TableWriter) openColumn(ctx context.Context, spec ColumnSpec) (*tableColumn, error) {
	blob, err := t.store.Create(ctx, ColumnBlobName(t.name, spec.Name))
	if err != nil {
		return nil, ioError(fmt.Sprintf("create column %q", spec.Name), err)
	}

	mc := t.opts.metricsCollector
	logger := t.logger.WithColumn(spec.Name)
	w, err := column.NewWriter(t.rc.Writer(ctx, blob), spec.Name, spec.Type,
		column.WithPageOptions(t.opts.pageOpts...),
		column.WithOnPage(func(m column.PageMeta) {
			mc.RecordPage(spec.Name, m.Count, m.Size())
			logger.Debug("page written", "offset", m.Offset, "values", m.Count, "bytes", m.Size())
		}),
	)
	if err != nil {
		_ = blob.Abort(ctx)
		return nil, err
	}
	return &tableColumn{spec: spec, blob: blob, w: w, logger: logger}, nil
}

// Name returns the table name.
func (t *TableWriter) Name() string { return t.name }

// Schema returns the table schema.
func (t *TableWriter) Schema() Schema { return append(Schema(nil), t.schema...) }

// Rows returns the number of accepted rows.
func (t *TableWriter) Rows() uint64 { return t.rows }

func (t *TableWriter) usable() error {
	if t.err != nil {
		return t.err
	}
	if t.closed {
		return ErrClosed
	}
	return nil
}

func (t *TableWriter) fail(err error) error {
	if t.err == nil {
		t.err = fmt.Errorf("%w: %w", ErrSessionAborted, err)
	}
	return err
}

// ValidateRow reports the error AppendRow would return for values without
// appending anything.
func (t *TableWriter) ValidateRow(values ...any) error {
	if len(values) != len(t.cols) {
		return fmt.Errorf("%w: row has %d values, table has %d columns", ErrInvariantViolation, len(values), len(t.cols))
	}
	for i, c := range t.cols {
		if err := c.w.Check(values[i]); err != nil {
			return &RowError{Row: t.rows, Column: c.spec.Name, cause: err}
		}
	}
	return nil
}

// AppendRow appends one value per column, in schema order. nil appends a
// null. Values must have the exact Go type of their column: uint64, int64,
// float64, or string/[]byte for string columns.
//
// A row rejected by ValidateRow leaves the table unchanged. A blob failure
// while appending is reported as ErrIO and aborts the session.
func (t *TableWriter) AppendRow(values ...any) error {
	err := t.appendRow(values)
	t.opts.metricsCollector.RecordAppend(err)
	return err
}

func (t *TableWriter) appendRow(values []any) error {
	if err := t.usable(); err != nil {
		return err
	}
	if err := t.ValidateRow(values...); err != nil {
		return err
	}
	for i, c := range t.cols {
		if err := c.w.Append(values[i]); err != nil {
			err = &RowError{Row: t.rows, Column: c.spec.Name, cause: err}
			// The first column rejecting a row leaves every column unchanged.
			if i > 0 || errors.Is(err, ErrIO) || errors.Is(err, ErrSessionAborted) {
				return t.fail(err)
			}
			return err
		}
	}
	t.rows++
	return nil
}

func (t *TableWriter) bytesWritten() int64 {
	var n int64
	for _, c := range t.cols {
		n += c.w.Stats().Bytes
	}
	return n
}

// Flush writes the buffered values of every column as pages.
func (t *TableWriter) Flush(ctx context.Context) error {
	if err := t.usable(); err != nil {
		return err
	}

	start := time.Now()
	before := t.bytesWritten()
	err := t.eachColumn(ctx, func(c *tableColumn) error {
		if err := c.w.Flush(); err != nil {
			c.logger.ErrorContext(ctx, "column flush failed", "error", err)
			return fmt.Errorf("flush column %q: %w", c.spec.Name, err)
		}
		return nil
	})
	if err != nil && (errors.Is(err, ErrIO) || errors.Is(err, ErrSessionAborted)) {
		_ = t.fail(err)
	}

	written := t.bytesWritten() - before
	t.opts.metricsCollector.RecordFlush(time.Since(start), written, err)
	t.logger.LogFlush(ctx, len(t.cols), written, time.Since(start), err)
	return err
}

// eachColumn runs fn for every column concurrently, bounded by the resource
// controller.
func (t *TableWriter) eachColumn(ctx context.Context, fn func(*tableColumn) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range t.cols {
		g.Go(func() error {
			if err := t.rc.AcquireFlush(gctx); err != nil {
				return err
			}
			defer t.rc.ReleaseFlush()
			return fn(c)
		})
	}
	return g.Wait()
}

// Close flushes every column, writes the column footers, commits the column
// blobs and finally writes the manifest. Closing twice returns the result of
// the first Close. If Close fails, the column blobs are discarded.
func (t *TableWriter) Close(ctx context.Context) error {
	if t.closed {
		return t.closeErr
	}
	start := time.Now()
	t.closeErr = t.close(ctx)
	t.closed = true

	t.opts.metricsCollector.RecordClose(t.rows, time.Since(start), t.closeErr)
	t.logger.LogClose(ctx, t.rows, t.bytesWritten(), t.closeErr)
	return t.closeErr
}

func (t *TableWriter) close(ctx context.Context) error {
	if t.err != nil {
		_ = t.abortColumns(ctx)
		return t.err
	}

	err := t.eachColumn(ctx, func(c *tableColumn) error {
		if err := c.w.Close(); err != nil {
			c.logger.ErrorContext(ctx, "column close failed", "error", err)
			return fmt.Errorf("close column %q: %w", c.spec.Name, err)
		}
		if err := c.blob.Close(); err != nil {
			c.logger.ErrorContext(ctx, "column commit failed", "error", err)
			return ioError(fmt.Sprintf("commit column %q", c.spec.Name), err)
		}
		c.committed = true
		st := c.w.Stats()
		c.logger.DebugContext(ctx, "column committed", "rows", st.Rows, "pages", st.Pages, "bytes", st.Bytes)
		return nil
	})
	if err != nil {
		_ = t.fail(err)
		t.discard(ctx)
		return err
	}

	m := t.manifest()
	data, err := t.opts.codec.Marshal(m)
	if err != nil {
		t.discard(ctx)
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := t.store.Put(ctx, ManifestName(t.name), data); err != nil {
		err = ioError("write manifest", err)
		_ = t.fail(err)
		t.discard(ctx)
		return err
	}
	return nil
}

// discard aborts uncommitted column blobs and deletes committed ones.
func (t *TableWriter) discard(ctx context.Context) {
	for _, c := range t.cols {
		c.w.Abort()
		if c.committed {
			_ = t.store.Delete(ctx, ColumnBlobName(t.name, c.spec.Name))
			continue
		}
		_ = c.blob.Abort(ctx)
	}
}

func (t *TableWriter) abortColumns(ctx context.Context) error {
	var errs []error
	for _, c := range t.cols {
		c.w.Abort()
		if err := c.blob.Abort(ctx); err != nil {
			errs = append(errs, fmt.Errorf("abort column %q: %w", c.spec.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Abort discards the table. No manifest is written and the column blobs are
// removed. Abort after Close is a no-op.
func (t *TableWriter) Abort(ctx context.Context) error {
	if t.closed {
		return nil
	}
	t.closed = true
	t.closeErr = ErrClosed

	t.logger.LogAbort(ctx, t.rows, t.err)
	return t.abortColumns(ctx)
}

// Stats returns a snapshot of the writer's counters.
func (t *TableWriter) Stats() TableStats {
	s := TableStats{Rows: t.rows, Columns: make([]column.Stats, len(t.cols))}
	for i, c := range t.cols {
		s.Columns[i] = c.w.Stats()
	}
	return s
}

func (t *TableWriter) manifest() *Manifest {
	m := &Manifest{
		FormatVersion: ManifestVersion,
		Table:         t.name,
		Codec:         t.opts.codec.Name(),
		Rows:          t.rows,
		CreatedAt:     t.started.UTC(),
		Columns:       make([]ManifestColumn, len(t.cols)),
	}
	for i, c := range t.cols {
		st := c.w.Stats()
		m.Columns[i] = ManifestColumn{
			Name:   c.spec.Name,
			Type:   c.spec.Type,
			Blob:   ColumnBlobName(t.name, c.spec.Name),
			Size:   st.Bytes,
			Values: st.Values,
			Nulls:  st.Nulls,
			Pages:  st.Pages,
		}
	}
	return m
}
