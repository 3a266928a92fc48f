package table

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/leapstack-labs/leapjoin/pkg/adapter"
	"github.com/leapstack-labs/leapjoin/pkg/core"
)

// Find returns the single row whose primary key equals key, given in
// primary key declaration order.
func (t *Table) Find(ctx context.Context, store adapter.Querier, key ...any) (core.Row, error) {
	if len(key) != len(t.primaryKey) {
		return nil, core.NewValidationError("key", "%d keys are expected but %d was passed", len(t.primaryKey), len(key))
	}

	d := store.Dialect()
	b := sq.StatementBuilder.PlaceholderFormat(d.PlaceholderFormat()).
		Select("*").
		From(d.QualifyIfNeeded(t.QualifiedName()))
	for i, pk := range t.primaryKey {
		b = b.Where(sq.Eq{d.QuoteIdentifierIfNeeded(pk): key[i]})
	}

	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build lookup for %s: %w", t.QualifiedName(), err)
	}

	rows, err := store.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s: %w", t.QualifiedName(), err)
	}
	result, err := rows.Collect()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", t.QualifiedName(), err)
	}
	if len(result) == 0 {
		return nil, &core.NotFoundError{Table: t.QualifiedName(), Key: key}
	}
	return result[0], nil
}

// FindBy is like Find with the key given by column name. Every primary key
// column must be present and no other column is accepted.
func (t *Table) FindBy(ctx context.Context, store adapter.Querier, key map[string]any) (core.Row, error) {
	if len(key) != len(t.primaryKey) {
		return nil, core.NewValidationError("key", "%d keys are expected but %d was passed", len(t.primaryKey), len(key))
	}
	for col := range key {
		if !t.IsPrimaryKey(col) {
			return nil, core.NewValidationError("key", "the key %q is not a valid primary key", col)
		}
	}

	values := make([]any, len(t.primaryKey))
	for i, pk := range t.primaryKey {
		values[i] = key[pk]
	}
	return t.Find(ctx, store, values...)
}
