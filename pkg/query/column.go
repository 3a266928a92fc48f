package query

import "github.com/leapstack-labs/leapjoin/pkg/core"

// Column is one requested output column: Key names the field in the
// resulting record, Source names the physical column it is read from.
type Column struct {
	Key    string
	Source string
}

// Col requests a column under its own name.
func Col(name string) Column {
	return Column{Key: name, Source: name}
}

// Rename requests column source under the output key.
func Rename(key, source string) Column {
	return Column{Key: key, Source: source}
}

// Cols is shorthand for Col over several names.
func Cols(names ...string) []Column {
	out := make([]Column, len(names))
	for i, n := range names {
		out[i] = Col(n)
	}
	return out
}

// normalizeColumns checks and copies a column set. Keys must be unique and
// may not shadow a primary key column read from a different source.
func normalizeColumns(alias string, columns []Column, primaryKey []string) ([]Column, error) {
	out := make([]Column, 0, len(columns))
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if c.Source == "" {
			c.Source = c.Key
		}
		if c.Key == "" {
			c.Key = c.Source
		}
		if c.Key == "" {
			return nil, core.NewValidationError("columns", "blank column requested for %s", alias)
		}
		if seen[c.Key] {
			return nil, core.NewValidationError("columns", "column key %q requested twice for %s", c.Key, alias)
		}
		for _, pk := range primaryKey {
			if c.Key == pk && c.Source != pk {
				return nil, core.NewValidationError("columns", "column key %q shadows the primary key of %s", c.Key, alias)
			}
		}
		seen[c.Key] = true
		out = append(out, c)
	}
	return out, nil
}
