// Package paginator pages the root records of a query. Joins multiply the
// rows of a root record, so counting and windowing run over the distinct
// root primary keys instead of the flat rows.
package paginator

import (
	"context"
	"fmt"
	"strconv"

	sq "github.com/Masterminds/squirrel"
	"github.com/leapstack-labs/leapjoin/pkg/adapter"
	"github.com/leapstack-labs/leapjoin/pkg/core"
	"github.com/leapstack-labs/leapjoin/pkg/query"
)

// Paginator pages the root records of a query.
type Paginator struct {
	q *query.Query
}

// New wraps q.
func New(q *query.Query) *Paginator {
	return &Paginator{q: q}
}

// Query returns the wrapped query.
func (p *Paginator) Query() *query.Query {
	return p.q
}

func (p *Paginator) store() (adapter.Querier, error) {
	if p.q.Store() == nil {
		return nil, fmt.Errorf("query %s has no backing store", p.q.ID())
	}
	return p.q.Store(), nil
}

// Count returns the number of distinct root records matched by the query.
// Joins are kept so their conditions still filter the roots.
func (p *Paginator) Count(ctx context.Context) (int64, error) {
	store, err := p.store()
	if err != nil {
		return 0, err
	}
	spec, err := p.q.Select()
	if err != nil {
		return 0, err
	}

	sqlStr, args, err := spec.CountBuilder().ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count: %w", err)
	}
	rows, err := store.Query(ctx, sqlStr, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", p.q.Root().Ref(), err)
	}
	result, err := rows.Collect()
	if err != nil {
		return 0, fmt.Errorf("failed to read count: %w", err)
	}
	if len(result) == 0 {
		return 0, nil
	}
	return toInt64(result[0]["total"])
}

// Items returns the root records in the window [offset, offset+limit) of
// the distinct root keys ordered by key, each with all of its children.
// It issues two statements: the key window, then the full select filtered
// to those keys. An empty window yields no records.
func (p *Paginator) Items(ctx context.Context, offset, limit int) ([]*query.Record, error) {
	if offset < 0 {
		return nil, core.NewValidationError("offset", "offset cannot be negative, got %d", offset)
	}
	if limit <= 0 {
		return nil, core.NewValidationError("limit", "limit must be positive, got %d", limit)
	}
	store, err := p.store()
	if err != nil {
		return nil, err
	}
	spec, err := p.q.Select()
	if err != nil {
		return nil, err
	}

	sqlStr, args, err := spec.WindowBuilder(uint64(offset), uint64(limit)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build key window: %w", err)
	}
	rows, err := store.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select key window of %s: %w", p.q.Root().Ref(), err)
	}
	window, err := rows.Collect()
	if err != nil {
		return nil, fmt.Errorf("failed to read key window: %w", err)
	}

	keys := make([][]any, len(window))
	for i, row := range window {
		key := make([]any, len(spec.RootKeyAs))
		for j, as := range spec.RootKeyAs {
			key[j] = row[as]
		}
		keys[i] = key
	}

	return p.q.FetchWith(ctx, query.Extra{
		Where:   []sq.Sqlizer{spec.RootKeyCondition(keys)},
		OrderBy: spec.RootKey,
	})
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case uint64:
		return int64(n), nil //nolint:gosec // row counts fit in int64
	case float64:
		return int64(n), nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("failed to parse count %q: %w", n, err)
		}
		return i, nil
	case nil:
		return 0, nil
	}
	return 0, fmt.Errorf("unexpected count type %T", v)
}
