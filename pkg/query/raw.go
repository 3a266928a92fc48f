package query

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/leapjoin/pkg/adapter"
	"github.com/leapstack-labs/leapjoin/pkg/core"
)

// Raw runs a hand-written statement against store and returns its flat rows.
// Placeholders are passed through untouched, so they must already be in the
// store's dialect.
func Raw(ctx context.Context, store adapter.Querier, sql string, args ...any) ([]core.Row, error) {
	if store == nil {
		return nil, core.NewValidationError("store", "raw query has no backing store")
	}
	rows, err := store.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to run raw query: %w", err)
	}
	flat, err := rows.Collect()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return flat, nil
}
