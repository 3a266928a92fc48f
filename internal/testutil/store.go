package testutil

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/leapjoin/pkg/adapter"
	"github.com/leapstack-labs/leapjoin/pkg/adapters/sqlite"
	"github.com/leapstack-labs/leapjoin/pkg/core"
	"github.com/leapstack-labs/leapjoin/pkg/dialect"
)

// MockStore is an adapter.Querier backed by go-sqlmock.
type MockStore struct {
	adapter.BaseSQLAdapter
	dialect *dialect.Dialect
}

// Dialect returns the dialect the store was created with.
func (s *MockStore) Dialect() *dialect.Dialect {
	return s.dialect
}

// NewMockStore returns a store whose statements must match expectations
// exactly, rendered with dialect d.
func NewMockStore(t testing.TB, d *dialect.Dialect) (*MockStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &MockStore{
		BaseSQLAdapter: adapter.BaseSQLAdapter{DB: db, Logger: NewTestLogger(t)},
		dialect:        d,
	}, mock
}

// NewSQLiteStore opens an in-memory SQLite adapter and runs each statement in ddl.
func NewSQLiteStore(t testing.TB, ddl ...string) *sqlite.Adapter {
	t.Helper()
	ctx := context.Background()
	adp := sqlite.New(NewTestLogger(t))
	if err := adp.Connect(ctx, core.AdapterConfig{Type: "sqlite", Path: ":memory:"}); err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = adp.Close() })

	for _, stmt := range ddl {
		if err := adp.Exec(ctx, stmt); err != nil {
			t.Fatalf("failed to run %q: %v", stmt, err)
		}
	}
	return adp
}
