package cstable

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/cstable/page"
)

// ColumnSpec declares one column of a table.
type ColumnSpec struct {
	Name string    `json:"name"`
	Type page.Type `json:"type"`
}

// Schema is the ordered list of columns of a table. Rows passed to
// AppendRow follow the same order.
type Schema []ColumnSpec

// ParseSchema parses a comma separated list of name:type pairs, e.g.
// "id:uint64,price:float64,note:string".
func ParseSchema(s string) (Schema, error) {
	var schema Schema
	for _, field := range strings.Split(s, ",") {
		name, typ, ok := strings.Cut(strings.TrimSpace(field), ":")
		if !ok {
			return nil, fmt.Errorf("%w: column %q has no type", ErrInvalidSchema, field)
		}
		t, err := page.ParseType(typ)
		if err != nil {
			return nil, fmt.Errorf("%w: column %q: %w", ErrInvalidSchema, name, err)
		}
		schema = append(schema, ColumnSpec{Name: name, Type: t})
	}
	return schema, schema.Validate()
}

// Validate checks that the schema has at least one column, that names are
// unique and usable as blob names, and that every type is known.
func (s Schema) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: no columns", ErrInvalidSchema)
	}
	seen := make(map[string]struct{}, len(s))
	for i, c := range s {
		if err := validateColumnName(c.Name); err != nil {
			return fmt.Errorf("%w: column %d: %w", ErrInvalidSchema, i, err)
		}
		if !c.Type.Valid() {
			return fmt.Errorf("%w: column %q has unknown type %d", ErrInvalidSchema, c.Name, c.Type)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("%w: duplicate column %q", ErrInvalidSchema, c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}

// Index returns the position of the named column, or -1.
func (s Schema) Index(name string) int {
	for i, c := range s {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func validateColumnName(name string) error {
	switch {
	case name == "":
		return errors.New("empty name")
	case name == "." || name == "..":
		return fmt.Errorf("name %q is reserved", name)
	case strings.HasPrefix(name, "_"):
		return fmt.Errorf("name %q starts with '_'", name)
	case strings.ContainsAny(name, "/\\\x00"):
		return fmt.Errorf("name %q contains a path separator", name)
	}
	return nil
}
