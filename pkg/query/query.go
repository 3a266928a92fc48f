// Package query composes a join tree into one flat select and rebuilds the
// returned rows into nested, deduplicated records.
//
// A query has a root table and any number of joined tables, each attached to
// an alias already in the tree. Every table's columns are projected under a
// prefix (t0_, t1_, ...) assigned root first and then in join order, and the
// parser reads rows back through the same prefixes:
//
//	q, _ := query.New(store, orders, query.Cols("id", "total"))
//	_ = q.Join(items, "orders", "$1.order_id = $2.id", query.Cols("sku"), query.LeftJoin)
//	records, _ := q.Fetch(ctx)
package query

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/leapstack-labs/leapjoin/pkg/adapter"
	"github.com/leapstack-labs/leapjoin/pkg/core"
	"github.com/leapstack-labs/leapjoin/pkg/dialect"
	"github.com/leapstack-labs/leapjoin/pkg/table"
)

type state int

const (
	uncompiled state = iota
	compiled
	stale
)

func (s state) String() string {
	switch s {
	case compiled:
		return "compiled"
	case stale:
		return "stale"
	default:
		return "uncompiled"
	}
}

type joinEntry struct {
	alias     string
	related   string
	condition string
	joinType  JoinType
}

// Option configures a Query.
type Option func(*Query)

// WithLogger sets the logger used for composed statements.
func WithLogger(logger *slog.Logger) Option {
	return func(q *Query) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// WithDialect renders the query for d instead of the store's dialect.
// Required when the query is built without a store.
func WithDialect(d *dialect.Dialect) Option {
	return func(q *Query) {
		q.dialect = d
	}
}

// Query is a join tree plus conditions against one backing store.
// It is not safe for concurrent use.
type Query struct {
	id      string
	store   adapter.Querier
	dialect *dialect.Dialect
	logger  *slog.Logger

	tree    *Tree
	joins   []joinEntry
	where   Where
	orderBy []string

	state    state
	spec     *SelectSpec
	prefixes *PrefixAllocator
}

// New creates a query rooted at root, selecting columns from it. The root's
// primary key is always projected.
func New(store adapter.Querier, root *table.Table, columns []Column, opts ...Option) (*Query, error) {
	q := &Query{
		id:     uuid.NewString(),
		store:  store,
		logger: slog.New(slog.DiscardHandler),
		tree:   NewTree(),
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.dialect == nil && store != nil {
		q.dialect = store.Dialect()
	}
	if root == nil {
		return nil, core.NewValidationError("root", "root must be a table")
	}
	if err := q.tree.AddRoot(root, root.Ref(), columns); err != nil {
		return nil, err
	}
	q.logger = q.logger.With(slog.String("query_id", q.id), slog.String("root", root.Ref()))
	return q, nil
}

// ID returns the query's log correlation id.
func (q *Query) ID() string { return q.id }

// Root returns the root table.
func (q *Query) Root() *table.Table { return q.tree.Root().Table }

// Store returns the backing store, which may be nil.
func (q *Query) Store() adapter.Querier { return q.store }

// Tree returns the join tree.
func (q *Query) Tree() *Tree { return q.tree }

// Dialect returns the dialect statements are rendered for.
func (q *Query) Dialect() *dialect.Dialect { return q.dialect }

// Join attaches t under the node aliased related (the root when related is
// empty). In condition, $1 is replaced by t's reference and $2 by related.
// The join type defaults to inner.
func (q *Query) Join(t *table.Table, related string, condition string, columns []Column, joinType ...JoinType) error {
	if t == nil {
		return core.NewValidationError("table", "join target must be a table")
	}
	if condition == "" {
		return core.NewValidationError("condition", "join condition for %s cannot be blank", t.Ref())
	}
	typ := InnerJoin
	if len(joinType) > 0 {
		var err error
		if typ, err = ParseJoinType(string(joinType[0])); err != nil {
			return err
		}
	}
	if related == "" {
		related = q.tree.Root().Alias
	}

	if err := q.tree.AddChild(t, t.Ref(), columns, related); err != nil {
		return err
	}
	q.joins = append(q.joins, joinEntry{
		alias:     t.Ref(),
		related:   related,
		condition: condition,
		joinType:  typ,
	})
	q.invalidate()
	return nil
}

// Where appends a raw condition. Args bind to ? placeholders.
func (q *Query) Where(cond string, args ...any) *Query {
	q.where.Add(cond, args...)
	q.invalidate()
	return q
}

// WhereEq merges column equality conditions: a scalar renders as =, a slice
// as IN and nil as IS NULL. A column set twice keeps its first position.
func (q *Query) WhereEq(conds map[string]any) *Query {
	q.where.Merge(conds)
	q.invalidate()
	return q
}

// WhereFor appends condition templates scoped to t: $1 is replaced by t's
// reference.
func (q *Query) WhereFor(t *table.Table, conds ...string) error {
	if t == nil {
		return core.NewValidationError("table", "condition scope must be a table")
	}
	q.where.Scoped(t, conds...)
	q.invalidate()
	return nil
}

// OrderBy appends order expressions to the full select.
func (q *Query) OrderBy(exprs ...string) *Query {
	q.orderBy = append(q.orderBy, exprs...)
	q.invalidate()
	return q
}

func (q *Query) invalidate() {
	if q.state == compiled {
		q.state = stale
	}
	q.spec = nil
	q.prefixes = nil
}

// Select returns the composed select, building it when the query is not
// compiled.
func (q *Query) Select() (*SelectSpec, error) {
	if q.state == compiled {
		return q.spec, nil
	}
	c := &composer{dialect: q.dialect, prefixes: NewPrefixAllocator()}
	spec, err := c.compose(q.tree, q.joins, &q.where, q.orderBy)
	if err != nil {
		return nil, err
	}
	q.spec = spec
	q.prefixes = c.prefixes
	q.state = compiled
	return spec, nil
}

// SQL renders the composed select.
func (q *Query) SQL() (string, []any, error) {
	spec, err := q.Select()
	if err != nil {
		return "", nil, err
	}
	return spec.ToSql()
}

// Fetch executes the composed select and returns the root records.
func (q *Query) Fetch(ctx context.Context) ([]*Record, error) {
	return q.FetchWith(ctx, Extra{})
}

// FetchWith is like Fetch with extra conditions and ordering applied to
// this execution only.
func (q *Query) FetchWith(ctx context.Context, extra Extra) ([]*Record, error) {
	if q.store == nil {
		return nil, fmt.Errorf("query %s has no backing store", q.id)
	}
	spec, err := q.Select()
	if err != nil {
		return nil, err
	}
	prefixes := q.prefixes
	defer q.markStale()

	sqlStr, args, err := spec.With(extra).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}
	q.logger.Debug("composed select", slog.String("sql", sqlStr), slog.Int("args", len(args)))

	rows, err := q.store.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", q.Root().Ref(), err)
	}
	flat, err := rows.Collect()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	records := NewParser(q.tree, prefixes).ParseRoot(flat)
	q.logger.Debug("fetched rows", slog.Int("rows", len(flat)), slog.Int("records", len(records)))
	return records, nil
}

func (q *Query) markStale() {
	q.state = stale
	q.spec = nil
	q.prefixes = nil
}

// Parse rebuilds rows produced by this query's composed select. The query
// must be compiled.
func (q *Query) Parse(rows []core.Row) ([]*Record, error) {
	if q.state != compiled {
		return nil, core.NewValidationError("state", "query is %s; call Select before Parse", q.state)
	}
	return NewParser(q.tree, q.prefixes).ParseRoot(rows), nil
}
