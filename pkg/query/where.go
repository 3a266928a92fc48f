package query

import (
	sq "github.com/Masterminds/squirrel"
	"github.com/leapstack-labs/leapjoin/pkg/dialect"
	"github.com/leapstack-labs/leapjoin/pkg/table"
)

type whereKind int

const (
	whereRaw whereKind = iota
	whereEq
	whereScoped
)

type whereEntry struct {
	kind  whereKind
	text  string // raw condition, template, or column for whereEq
	args  []any
	value any
	table *table.Table
}

// Where is the ordered set of conditions of a query. Raw and scoped
// conditions are appended; equality conditions are keyed by column, and
// setting a column again replaces its value in place.
type Where struct {
	entries []whereEntry
	eqIndex map[string]int
}

// Add appends a raw condition. Args bind to ? placeholders in cond.
func (w *Where) Add(cond string, args ...any) {
	w.entries = append(w.entries, whereEntry{kind: whereRaw, text: cond, args: args})
}

// Merge adds column equality conditions. A slice value renders as IN and a
// nil value as IS NULL. Columns are applied in sorted order when new.
func (w *Where) Merge(conds map[string]any) {
	if w.eqIndex == nil {
		w.eqIndex = make(map[string]int)
	}
	for _, col := range sortedKeys(conds) {
		if idx, ok := w.eqIndex[col]; ok {
			w.entries[idx].value = conds[col]
			continue
		}
		w.eqIndex[col] = len(w.entries)
		w.entries = append(w.entries, whereEntry{kind: whereEq, text: col, value: conds[col]})
	}
}

// Scoped appends condition templates whose $1 token is replaced by the
// reference of t when the select is composed.
func (w *Where) Scoped(t *table.Table, templates ...string) {
	for _, tmpl := range templates {
		w.entries = append(w.entries, whereEntry{kind: whereScoped, text: tmpl, table: t})
	}
}

// Len returns the number of conditions.
func (w *Where) Len() int {
	return len(w.entries)
}

// Sqlizers renders the conditions in insertion order.
func (w *Where) Sqlizers(d *dialect.Dialect) []sq.Sqlizer {
	out := make([]sq.Sqlizer, 0, len(w.entries))
	for _, e := range w.entries {
		switch e.kind {
		case whereEq:
			out = append(out, sq.Eq{e.text: e.value})
		case whereScoped:
			out = append(out, sq.Expr(SubstituteScoped(e.text, qualify(d, e.table.Ref()))))
		default:
			out = append(out, sq.Expr(e.text, e.args...))
		}
	}
	return out
}
