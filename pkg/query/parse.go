package query

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/leapstack-labs/leapjoin/pkg/core"
)

// IdentifierSeparator joins primary key values into a record identifier.
const IdentifierSeparator = ":"

// condition pins a prefixed column to the value it had on an ancestor record.
type condition struct {
	column string
	value  any
}

// Parser regroups flat rows into nested records following a tree. It must
// use the prefixes the rows were projected with.
type Parser struct {
	tree     *Tree
	prefixes *PrefixAllocator
}

// NewParser returns a parser for rows composed from tree with prefixes.
func NewParser(tree *Tree, prefixes *PrefixAllocator) *Parser {
	return &Parser{tree: tree, prefixes: prefixes}
}

// ParseRoot parses rows starting at the root node.
func (p *Parser) ParseRoot(rows []core.Row) []*Record {
	root := p.tree.Root()
	if root == nil {
		return []*Record{}
	}
	return p.Parse(rows, root, nil)
}

// Parse returns the distinct records of node n found in rows, in first-seen
// order. Rows not matching every ancestor condition are ignored, as are rows
// whose primary key values are all nil or absent. Children are parsed per
// record, scoped to that record's identifier.
func (p *Parser) Parse(rows []core.Row, n *Node, ancestors []condition) []*Record {
	prefix := p.prefixes.PrefixFor(n.Alias)
	pk := n.PrimaryKey()
	children := p.tree.Children(n)

	type group struct {
		record *Record
		conds  []condition
	}
	var groups []group
	seen := make(map[string]bool)

	for _, row := range rows {
		if !matches(row, ancestors) {
			continue
		}
		id, conds, ok := identify(row, prefix, pk)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true

		rec := &Record{Fields: make([]Field, 0, len(n.Columns))}
		for _, col := range n.Columns {
			if v, ok := row[prefix+col.Key]; ok {
				rec.Fields = append(rec.Fields, Field{Key: col.Key, Value: v})
			}
		}
		groups = append(groups, group{record: rec, conds: conds})
	}

	out := make([]*Record, len(groups))
	for i, g := range groups {
		if len(children) > 0 {
			scope := make([]condition, 0, len(ancestors)+len(g.conds))
			scope = append(scope, ancestors...)
			scope = append(scope, g.conds...)
			for _, child := range children {
				g.record.Children = append(g.record.Children, Collection{
					Alias:   child.Alias,
					Records: p.Parse(rows, child, scope),
				})
			}
		}
		out[i] = g.record
	}
	return out
}

func matches(row core.Row, conds []condition) bool {
	for _, c := range conds {
		if !LooseEqual(row[c.column], c.value) {
			return false
		}
	}
	return true
}

// identify reads the local identifier of a node from row. ok is false when
// every primary key value is nil or absent.
func identify(row core.Row, prefix string, pk []string) (string, []condition, bool) {
	parts := make([]string, len(pk))
	conds := make([]condition, len(pk))
	empty := true
	for i, col := range pk {
		column := prefix + col
		v := row[column]
		if s, ok := looseString(v); ok {
			parts[i] = s
			empty = false
		}
		conds[i] = condition{column: column, value: v}
	}
	if empty {
		return "", nil, false
	}
	return strings.Join(parts, IdentifierSeparator), conds, true
}

// LooseEqual compares two scalars by their normalized text, so 1, int64(1),
// 1.0, "1" and []byte("1") are equal. nil only equals nil.
func LooseEqual(a, b any) bool {
	as, aok := looseString(a)
	bs, bok := looseString(b)
	if !aok || !bok {
		return !aok && !bok
	}
	return as == bs
}

func looseString(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case []byte:
		return string(x), true
	case bool:
		if x {
			return "1", true
		}
		return "0", true
	case float64:
		return formatFloat(x), true
	case float32:
		return formatFloat(float64(x)), true
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	default:
		return fmt.Sprint(x), true
	}
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
