package cstable

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/cstable/blobstore"
	"github.com/hupe1980/cstable/column"
	"github.com/hupe1980/cstable/page"
)

// ManifestVersion is the manifest format written by this package.
const ManifestVersion = 1

// Manifest describes a completed table.
type Manifest struct {
	FormatVersion int              `json:"format_version"`
	Table         string           `json:"table"`
	Codec         string           `json:"codec"`
	Rows          uint64           `json:"rows"`
	CreatedAt     time.Time        `json:"created_at"`
	Columns       []ManifestColumn `json:"columns"`
}

// ManifestColumn describes one column file.
type ManifestColumn struct {
	Name   string    `json:"name"`
	Type   page.Type `json:"type"`
	Blob   string    `json:"blob"`
	Size   int64     `json:"size"`
	Values uint64    `json:"values"`
	Nulls  uint64    `json:"nulls"`
	Pages  uint64    `json:"pages"`
}

// Schema returns the table schema recorded in the manifest.
func (m *Manifest) Schema() Schema {
	s := make(Schema, len(m.Columns))
	for i, c := range m.Columns {
		s[i] = ColumnSpec{Name: c.Name, Type: c.Type}
	}
	return s
}

func (m *Manifest) validate() error {
	if m.FormatVersion != ManifestVersion {
		return fmt.Errorf("%w: manifest version %d", ErrCorrupted, m.FormatVersion)
	}
	if err := m.Schema().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrCorrupted, err)
	}
	for _, c := range m.Columns {
		if c.Values+c.Nulls != m.Rows {
			return fmt.Errorf("%w: column %q has %d values and %d nulls, table has %d rows",
				ErrCorrupted, c.Name, c.Values, c.Nulls, m.Rows)
		}
	}
	return nil
}

// TableReader reads a table written by TableWriter.
type TableReader struct {
	store    blobstore.Store
	manifest *Manifest
	logger   *Logger
}

// OpenTable reads and validates the manifest of table. Only WithCodec and
// WithLogger apply.
func OpenTable(ctx context.Context, store blobstore.Store, table string, optFns ...Option) (*TableReader, error) {
	if err := validateTableName(table); err != nil {
		return nil, err
	}
	o := buildOptions(optFns)

	data, err := blobstore.ReadAll(ctx, store, ManifestName(table))
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, fmt.Errorf("table %s: %w", table, err)
		}
		return nil, ioError("read manifest", err)
	}

	m := &Manifest{}
	if err := o.codec.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("%w: decode manifest: %w", ErrCorrupted, err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}

	return &TableReader{store: store, manifest: m, logger: o.logger.WithTable(table)}, nil
}

// Manifest returns the decoded manifest.
func (r *TableReader) Manifest() *Manifest { return r.manifest }

// Rows returns the number of rows in the table.
func (r *TableReader) Rows() uint64 { return r.manifest.Rows }

// ReadColumn returns every row of the named column with nil for nulls.
// String values are returned as string.
func (r *TableReader) ReadColumn(ctx context.Context, name string) ([]any, error) {
	var out []any
	err := r.withColumn(ctx, name, func(cr *column.Reader) error {
		vals, err := cr.Values()
		out = vals
		return err
	})
	return out, err
}

// ColumnFooter returns the footer of the named column file.
func (r *TableReader) ColumnFooter(ctx context.Context, name string) (*column.Footer, error) {
	var f *column.Footer
	err := r.withColumn(ctx, name, func(cr *column.Reader) error {
		f = cr.Footer()
		return nil
	})
	return f, err
}

func (r *TableReader) withColumn(ctx context.Context, name string, fn func(*column.Reader) error) error {
	idx := r.manifest.Schema().Index(name)
	if idx < 0 {
		return fmt.Errorf("%w: no column %q", ErrInvariantViolation, name)
	}
	mc := r.manifest.Columns[idx]

	blob, err := r.store.Open(ctx, mc.Blob)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return fmt.Errorf("%w: column %q: %w", ErrCorrupted, name, err)
		}
		return ioError("open column", err)
	}
	defer func() { _ = blob.Close() }()

	if blob.Size() != mc.Size {
		return fmt.Errorf("%w: column %q is %d bytes, manifest says %d", ErrCorrupted, name, blob.Size(), mc.Size)
	}
	cr, err := column.NewReader(blobstore.NewReaderAt(ctx, blob), blob.Size())
	if err != nil {
		return fmt.Errorf("column %q: %w", name, err)
	}
	f := cr.Footer()
	if f.Name != mc.Name || f.Type != mc.Type || f.Rows != r.manifest.Rows {
		return fmt.Errorf("%w: column %q footer does not match manifest", ErrCorrupted, name)
	}
	r.logger.DebugContext(ctx, "column opened", "column", name, "pages", len(f.Pages))
	return fn(cr)
}

// Scan calls fn for every row in order. values holds one entry per column in
// schema order and is reused between calls.
func (r *TableReader) Scan(ctx context.Context, fn func(row uint64, values []any) error) error {
	cols := make([][]any, len(r.manifest.Columns))
	for i, c := range r.manifest.Columns {
		vals, err := r.ReadColumn(ctx, c.Name)
		if err != nil {
			return err
		}
		cols[i] = vals
	}

	row := make([]any, len(cols))
	for n := range r.manifest.Rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		for i := range cols {
			row[i] = cols[i][n]
		}
		if err := fn(n, row); err != nil {
			return err
		}
	}
	return nil
}
