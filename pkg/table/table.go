// Package table defines table references: a physical table, an optional
// alias and its primary key. Query composition binds columns and join
// conditions through Ref, and Find performs single-record lookups.
package table

import (
	"strings"

	"github.com/leapstack-labs/leapjoin/pkg/core"
)

// Table is an immutable reference to a relational table.
type Table struct {
	name       string
	schema     string
	alias      string
	primaryKey []string
}

// New creates a table reference. The name must not be blank and at least
// one primary key column is required.
func New(name string, primaryKey ...string) (*Table, error) {
	if strings.TrimSpace(name) == "" {
		return nil, core.NewValidationError("table", "table name cannot be blank")
	}
	if len(primaryKey) == 0 {
		return nil, core.NewValidationError("primary_key", "at least one primary key must be passed for %s", name)
	}
	seen := make(map[string]bool, len(primaryKey))
	for _, pk := range primaryKey {
		if strings.TrimSpace(pk) == "" {
			return nil, core.NewValidationError("primary_key", "blank primary key column for %s", name)
		}
		if seen[pk] {
			return nil, core.NewValidationError("primary_key", "duplicate primary key column %q for %s", pk, name)
		}
		seen[pk] = true
	}

	name, schema := splitName(name)
	return &Table{
		name:       name,
		schema:     schema,
		primaryKey: append([]string(nil), primaryKey...),
	}, nil
}

// MustNew is like New but panics on error. Intended for package-level fixtures.
func MustNew(name string, primaryKey ...string) *Table {
	t, err := New(name, primaryKey...)
	if err != nil {
		panic(err)
	}
	return t
}

// FromMetadata builds a table reference from adapter metadata, using the
// columns flagged as primary key.
func FromMetadata(meta *core.TableMetadata) (*Table, error) {
	if meta == nil {
		return nil, core.NewValidationError("table", "metadata is required")
	}
	t, err := New(meta.Name, meta.PrimaryKey()...)
	if err != nil {
		return nil, err
	}
	if meta.Schema != "" {
		t = t.WithSchema(meta.Schema)
	}
	return t, nil
}

func splitName(name string) (table, schema string) {
	if i := strings.LastIndex(name, "."); i > 0 {
		return name[i+1:], name[:i]
	}
	return name, ""
}

// WithSchema returns a copy of t qualified by schema.
func (t *Table) WithSchema(schema string) *Table {
	c := t.clone()
	c.schema = schema
	return c
}

// As returns a copy of t with the given alias. An empty alias clears it.
func (t *Table) As(alias string) *Table {
	c := t.clone()
	c.alias = alias
	return c
}

func (t *Table) clone() *Table {
	c := *t
	c.primaryKey = append([]string(nil), t.primaryKey...)
	return &c
}

// Name returns the unqualified table name.
func (t *Table) Name() string { return t.name }

// Schema returns the schema, or "" when unqualified.
func (t *Table) Schema() string { return t.schema }

// Alias returns the alias, or "" when none was set.
func (t *Table) Alias() string { return t.alias }

// QualifiedName returns schema.name, or name when no schema is set.
func (t *Table) QualifiedName() string {
	if t.schema == "" {
		return t.name
	}
	return t.schema + "." + t.name
}

// Ref returns the token other clauses use to address this table:
// the alias if set, otherwise the qualified name.
func (t *Table) Ref() string {
	if t.alias != "" {
		return t.alias
	}
	return t.QualifiedName()
}

// PrimaryKey returns a copy of the primary key columns in declaration order.
func (t *Table) PrimaryKey() []string {
	return append([]string(nil), t.primaryKey...)
}

// IsPrimaryKey reports whether column is part of the primary key.
func (t *Table) IsPrimaryKey(column string) bool {
	for _, pk := range t.primaryKey {
		if pk == column {
			return true
		}
	}
	return false
}

func (t *Table) String() string {
	if t.alias != "" {
		return t.QualifiedName() + " AS " + t.alias
	}
	return t.QualifiedName()
}
