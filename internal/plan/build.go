package plan

import (
	"context"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapjoin/internal/dag"
	"github.com/leapstack-labs/leapjoin/pkg/adapter"
	"github.com/leapstack-labs/leapjoin/pkg/core"
	"github.com/leapstack-labs/leapjoin/pkg/query"
	"github.com/leapstack-labs/leapjoin/pkg/table"
)

// MetadataSource reads table metadata. Every adapter.Adapter is one.
type MetadataSource interface {
	GetTableMetadata(ctx context.Context, table string) (*core.TableMetadata, error)
}

// Build creates a query against store. Tables declared without a primary key
// are looked up through the store's table metadata.
func (p *Plan) Build(ctx context.Context, store adapter.Querier, opts ...query.Option) (*query.Query, error) {
	root, err := resolve(ctx, store, p.Root)
	if err != nil {
		return nil, err
	}
	q, err := query.New(store, root, p.Root.Columns, opts...)
	if err != nil {
		return nil, err
	}

	joins, err := p.orderedJoins()
	if err != nil {
		return nil, err
	}
	for _, j := range joins {
		t, err := resolve(ctx, store, j.TableSpec)
		if err != nil {
			return nil, err
		}
		typ, err := query.ParseJoinType(j.Type)
		if err != nil {
			return nil, err
		}
		if err := q.Join(t, j.Related, j.On, j.Columns, typ); err != nil {
			return nil, err
		}
	}

	for _, c := range p.Where {
		switch c.Kind {
		case RawCondition:
			q.Where(c.SQL, c.Args...)
		case EqCondition:
			q.WhereEq(c.Eq)
		case ScopedCondition:
			node, ok := q.Tree().Node(c.For)
			if !ok {
				return nil, &core.ReferenceError{Alias: c.For}
			}
			if err := q.WhereFor(node.Table, c.Templates...); err != nil {
				return nil, err
			}
		}
	}

	if len(p.OrderBy) > 0 {
		q.OrderBy(p.OrderBy...)
	}
	return q, nil
}

// orderedJoins sorts the joins so each one follows the join it attaches to,
// keeping declaration order otherwise. Duplicate or unknown aliases are left
// for the query to report.
func (p *Plan) orderedJoins() ([]JoinSpec, error) {
	g := dag.NewGraph[JoinSpec]()
	root := p.Root.Ref()
	if err := g.AddNode(root, JoinSpec{}); err != nil {
		return p.Joins, nil
	}
	for _, j := range p.Joins {
		if err := g.AddNode(j.Ref(), j); err != nil {
			return p.Joins, nil
		}
	}
	for _, j := range p.Joins {
		related := j.Related
		if related == "" {
			related = root
		}
		if err := g.AddEdge(related, j.Ref()); err != nil {
			return p.Joins, nil
		}
	}

	if cyclic, path := g.HasCycle(); cyclic {
		return nil, core.NewValidationError("joins", "joins form a cycle: %s", strings.Join(path, " -> "))
	}
	nodes, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}
	joins := make([]JoinSpec, 0, len(p.Joins))
	for _, n := range nodes {
		if n.ID != root {
			joins = append(joins, n.Data)
		}
	}
	return joins, nil
}

func resolve(ctx context.Context, store adapter.Querier, spec TableSpec) (*table.Table, error) {
	pk := spec.PrimaryKey
	if len(pk) == 0 {
		src, ok := store.(MetadataSource)
		if !ok {
			return nil, core.NewValidationError("primary_key", "primary_key for %s is required", spec.Ref())
		}
		name := spec.Table
		if spec.Schema != "" {
			name = spec.Schema + "." + spec.Table
		}
		meta, err := src.GetTableMetadata(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read metadata for %s: %w", name, err)
		}
		pk = meta.PrimaryKey()
		if len(pk) == 0 {
			return nil, core.NewValidationError("primary_key", "table %s has no primary key; declare primary_key in the plan", name)
		}
	}

	t, err := table.New(spec.Table, pk...)
	if err != nil {
		return nil, err
	}
	if spec.Schema != "" {
		t = t.WithSchema(spec.Schema)
	}
	if spec.Alias != "" {
		t = t.As(spec.Alias)
	}
	return t, nil
}
