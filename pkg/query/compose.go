package query

import (
	"fmt"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/leapstack-labs/leapjoin/pkg/core"
	"github.com/leapstack-labs/leapjoin/pkg/dialect"
)

// JoinType is the kind of join clause emitted for a join entry.
type JoinType string

// Supported join types.
const (
	InnerJoin JoinType = "INNER"
	LeftJoin  JoinType = "LEFT"
	RightJoin JoinType = "RIGHT"
	FullJoin  JoinType = "FULL"
)

// ParseJoinType maps a case-insensitive name ("", inner, left, right, full)
// to a JoinType. The empty string means inner.
func ParseJoinType(s string) (JoinType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "INNER":
		return InnerJoin, nil
	case "LEFT":
		return LeftJoin, nil
	case "RIGHT":
		return RightJoin, nil
	case "FULL":
		return FullJoin, nil
	}
	return "", core.NewValidationError("join_type", "unknown join type %q", s)
}

// DistinctAlias is the derived-table name used when a select is wrapped
// to deduplicate root keys.
const DistinctAlias = "distinct_select"

// Projection is one projected column: Table.Source AS Label. As is the
// result column name the row comes back with; Label is As as written in
// SQL, quoted when the dialect would otherwise fold its case.
type Projection struct {
	Table  string
	Source string
	As     string
	Label  string
}

func (p Projection) String() string {
	label := p.Label
	if label == "" {
		label = p.As
	}
	return p.Table + "." + p.Source + " AS " + label
}

// JoinClause is one rendered join.
type JoinClause struct {
	Type      JoinType
	Table     string
	Alias     string
	Condition string
}

func (j JoinClause) String() string {
	target := j.Table
	if j.Alias != "" {
		target += " AS " + j.Alias
	}
	return fmt.Sprintf("%s JOIN %s ON %s", j.Type, target, j.Condition)
}

// SelectSpec is a composed select independent of any backing store. Its
// builders render it with squirrel in the dialect's placeholder format.
type SelectSpec struct {
	From        string
	FromAlias   string
	Projections []Projection
	Joins       []JoinClause
	Where       []sq.Sqlizer
	OrderBy     []string

	// RootKey holds the qualified root primary key columns and RootKeyAs
	// their projected names, both in primary key order. RootKeyLabel is
	// RootKeyAs as written in SQL.
	RootKey      []string
	RootKeyAs    []string
	RootKeyLabel []string

	dialect *dialect.Dialect
}

// Dialect returns the dialect the select renders for.
func (s *SelectSpec) Dialect() *dialect.Dialect {
	return s.dialect
}

func (s *SelectSpec) statement() sq.StatementBuilderType {
	if s.dialect == nil {
		return sq.StatementBuilder
	}
	return sq.StatementBuilder.PlaceholderFormat(s.dialect.PlaceholderFormat())
}

func (s *SelectSpec) fromClause() string {
	if s.FromAlias != "" {
		return s.From + " AS " + s.FromAlias
	}
	return s.From
}

// base selects columns from the root with every join and condition applied.
func (s *SelectSpec) base(columns ...string) sq.SelectBuilder {
	b := s.statement().Select(columns...).From(s.fromClause())
	for _, j := range s.Joins {
		b = b.JoinClause(j.String())
	}
	for _, w := range s.Where {
		b = b.Where(w)
	}
	return b
}

// Builder renders the full select: every projection, ordered.
func (s *SelectSpec) Builder() sq.SelectBuilder {
	cols := make([]string, len(s.Projections))
	for i, p := range s.Projections {
		cols[i] = p.String()
	}
	return s.base(cols...).OrderBy(s.OrderBy...)
}

// KeysBuilder renders the select with only the root primary key projected.
// Joins and conditions are kept so the matched root set is unchanged.
func (s *SelectSpec) KeysBuilder() sq.SelectBuilder {
	cols := make([]string, len(s.RootKey))
	for i := range s.RootKey {
		cols[i] = s.RootKey[i] + " AS " + s.rootKeyLabel(i)
	}
	return s.base(cols...)
}

// CountBuilder renders a select of the number of distinct root records as
// column "total".
func (s *SelectSpec) CountBuilder() sq.SelectBuilder {
	if len(s.RootKey) == 1 {
		return s.base(fmt.Sprintf("COUNT(DISTINCT %s) AS total", s.RootKey[0]))
	}
	return s.statement().
		Select("COUNT(*) AS total").
		FromSelect(s.KeysBuilder().Distinct(), DistinctAlias)
}

// WindowBuilder renders the distinct root keys ordered by key, limited to
// the window [offset, offset+limit).
func (s *SelectSpec) WindowBuilder(offset, limit uint64) sq.SelectBuilder {
	cols := make([]string, len(s.RootKeyAs))
	order := make([]string, len(s.RootKeyAs))
	for i := range s.RootKeyAs {
		label := s.rootKeyLabel(i)
		order[i] = DistinctAlias + "." + label
		cols[i] = order[i] + " AS " + label
	}
	return s.statement().
		Select(cols...).
		FromSelect(s.KeysBuilder().Distinct(), DistinctAlias).
		OrderBy(order...).
		Limit(limit).
		Offset(offset)
}

func (s *SelectSpec) rootKeyLabel(i int) string {
	if i < len(s.RootKeyLabel) {
		return s.RootKeyLabel[i]
	}
	return s.RootKeyAs[i]
}

// RootKeyCondition matches the root records identified by keys, each key
// holding one value per root primary key column. No keys matches nothing.
func (s *SelectSpec) RootKeyCondition(keys [][]any) sq.Sqlizer {
	if len(s.RootKey) == 1 {
		values := make([]any, len(keys))
		for i, k := range keys {
			values[i] = k[0]
		}
		return sq.Eq{s.RootKey[0]: values}
	}
	or := sq.Or{}
	for _, k := range keys {
		eq := sq.Eq{}
		for i, col := range s.RootKey {
			eq[col] = k[i]
		}
		or = append(or, sq.And{eq})
	}
	return or
}

// With returns a copy of s with extra conditions appended and extra order
// expressions placed ahead of its own.
func (s *SelectSpec) With(extra Extra) *SelectSpec {
	c := *s
	c.Where = append(append([]sq.Sqlizer(nil), s.Where...), extra.Where...)
	c.OrderBy = append(append([]string(nil), extra.OrderBy...), s.OrderBy...)
	return &c
}

// ToSql renders the full select.
func (s *SelectSpec) ToSql() (string, []any, error) { //nolint:revive // matches sq.Sqlizer
	return s.Builder().ToSql()
}

// Extra holds one-shot conditions and ordering applied to a single fetch.
type Extra struct {
	Where   []sq.Sqlizer
	OrderBy []string
}

// qualify quotes reserved words in a possibly dotted name.
func qualify(d *dialect.Dialect, name string) string {
	if d == nil {
		return name
	}
	return d.QualifyIfNeeded(name)
}

func quoteAlias(d *dialect.Dialect, name string) string {
	if d == nil {
		return name
	}
	return d.QuoteAliasIfNeeded(name)
}

func quoteColumn(d *dialect.Dialect, name string) string {
	if d == nil {
		return name
	}
	return d.QuoteIdentifierIfNeeded(name)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// composer builds a SelectSpec from a tree and its join entries, allocating
// prefixes root first then joins in declaration order.
type composer struct {
	dialect  *dialect.Dialect
	prefixes *PrefixAllocator
}

func (c *composer) project(n *Node) []Projection {
	prefix := c.prefixes.PrefixFor(n.Alias)
	ref := qualify(c.dialect, n.Alias)

	out := make([]Projection, 0, len(n.Columns)+len(n.PrimaryKey()))
	projected := make(map[string]bool, len(n.Columns))
	for _, col := range n.Columns {
		as := prefix + col.Key
		out = append(out, Projection{Table: ref, Source: quoteColumn(c.dialect, col.Source), As: as, Label: quoteAlias(c.dialect, as)})
		projected[col.Key] = true
	}
	for _, pk := range n.PrimaryKey() {
		if projected[pk] {
			continue
		}
		as := prefix + pk
		out = append(out, Projection{Table: ref, Source: quoteColumn(c.dialect, pk), As: as, Label: quoteAlias(c.dialect, as)})
	}
	return out
}

func (c *composer) compose(tree *Tree, joins []joinEntry, where *Where, orderBy []string) (*SelectSpec, error) {
	root := tree.Root()
	if root == nil {
		return nil, core.NewValidationError("root", "query has no root table")
	}

	spec := &SelectSpec{
		From:    qualify(c.dialect, root.Table.QualifiedName()),
		dialect: c.dialect,
	}
	if root.Table.Alias() != "" {
		spec.FromAlias = qualify(c.dialect, root.Table.Alias())
	}
	spec.Projections = c.project(root)

	rootRef := qualify(c.dialect, root.Alias)
	rootPrefix := c.prefixes.PrefixFor(root.Alias)
	for _, pk := range root.PrimaryKey() {
		spec.RootKey = append(spec.RootKey, rootRef+"."+quoteColumn(c.dialect, pk))
		spec.RootKeyAs = append(spec.RootKeyAs, rootPrefix+pk)
		spec.RootKeyLabel = append(spec.RootKeyLabel, quoteAlias(c.dialect, rootPrefix+pk))
	}

	for _, j := range joins {
		n, ok := tree.Node(j.alias)
		if !ok {
			return nil, &core.ReferenceError{Alias: j.alias}
		}
		clause := JoinClause{
			Type:      j.joinType,
			Table:     qualify(c.dialect, n.Table.QualifiedName()),
			Condition: Substitute(j.condition, qualify(c.dialect, j.alias), qualify(c.dialect, j.related)),
		}
		if n.Table.Alias() != "" {
			clause.Alias = qualify(c.dialect, n.Table.Alias())
		}
		spec.Joins = append(spec.Joins, clause)
		spec.Projections = append(spec.Projections, c.project(n)...)
	}

	spec.Where = where.Sqlizers(c.dialect)
	spec.OrderBy = append([]string(nil), orderBy...)
	return spec, nil
}
