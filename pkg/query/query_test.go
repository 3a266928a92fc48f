package query_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	sq "github.com/Masterminds/squirrel"
	"github.com/leapstack-labs/leapjoin/internal/testutil"
	"github.com/leapstack-labs/leapjoin/pkg/adapter"
	"github.com/leapstack-labs/leapjoin/pkg/core"
	"github.com/leapstack-labs/leapjoin/pkg/dialect"
	"github.com/leapstack-labs/leapjoin/pkg/query"
	"github.com/leapstack-labs/leapjoin/pkg/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	orders    = table.MustNew("orders", "id")
	items     = table.MustNew("items", "id")
	customers = table.MustNew("customers", "id")
)

const ordersItemsSQL = "SELECT orders.total AS t0_total, orders.id AS t0_id, items.sku AS t1_sku, items.id AS t1_id " +
	"FROM orders LEFT JOIN items ON items.order_id = orders.id"

func ordersWithItems(t *testing.T, store *testutil.MockStore) *query.Query {
	t.Helper()
	q, err := query.New(store, orders, query.Cols("total"), query.WithLogger(testutil.NewTestLogger(t)))
	require.NoError(t, err)
	require.NoError(t, q.Join(items, "orders", "$1.order_id = $2.id", query.Cols("sku"), query.LeftJoin))
	return q
}

func TestQuery_Fetch(t *testing.T) {
	store, mock := testutil.NewMockStore(t, dialect.SQLite)
	q := ordersWithItems(t, store)

	mock.ExpectQuery(ordersItemsSQL).WillReturnRows(
		sqlmock.NewRows([]string{"t0_total", "t0_id", "t1_sku", "t1_id"}).
			AddRow(30, 1, "A", 10).
			AddRow(30, 1, "B", 11).
			AddRow(30, 1, "C", 12))

	records, err := q.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Len(t, records[0].Child("items"), 3)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_RecompilesAfterFetch(t *testing.T) {
	store, mock := testutil.NewMockStore(t, dialect.SQLite)
	q := ordersWithItems(t, store)

	columns := []string{"t0_total", "t0_id", "t1_sku", "t1_id"}
	mock.ExpectQuery(ordersItemsSQL).WillReturnRows(sqlmock.NewRows(columns))
	mock.ExpectQuery(ordersItemsSQL+" WHERE orders.total > ?").WithArgs(5).WillReturnRows(sqlmock.NewRows(columns))

	ctx := context.Background()
	_, err := q.Fetch(ctx)
	require.NoError(t, err)

	_, err = q.Parse(nil)
	assert.True(t, core.IsValidationError(err), "a fetched query must be recompiled before parsing")

	q.Where("orders.total > ?", 5)
	records, err := q.Fetch(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_FetchWith(t *testing.T) {
	store, mock := testutil.NewMockStore(t, dialect.Postgres)
	q := ordersWithItems(t, store)

	spec, err := q.Select()
	require.NoError(t, err)

	mock.ExpectQuery(ordersItemsSQL + " WHERE orders.id IN ($1) ORDER BY orders.id").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"t0_total", "t0_id", "t1_sku", "t1_id"}).AddRow(1, 7, nil, nil))
	mock.ExpectQuery(ordersItemsSQL).
		WillReturnRows(sqlmock.NewRows([]string{"t0_total", "t0_id", "t1_sku", "t1_id"}))

	ctx := context.Background()
	records, err := q.FetchWith(ctx, query.Extra{
		Where:   []sq.Sqlizer{spec.RootKeyCondition([][]any{{7}})},
		OrderBy: spec.RootKey,
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Empty(t, records[0].Child("items"))

	_, err = q.Fetch(ctx)
	require.NoError(t, err, "extra conditions apply to one fetch only")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_BackingStoreErrorPropagates(t *testing.T) {
	store, mock := testutil.NewMockStore(t, dialect.SQLite)
	q := ordersWithItems(t, store)

	mock.ExpectQuery(ordersItemsSQL).WillReturnError(assert.AnError)

	_, err := q.Fetch(context.Background())
	require.ErrorIs(t, err, assert.AnError)
}

func TestQuery_Construction(t *testing.T) {
	tests := []struct {
		name  string
		build func(q *query.Query) error
		check func(t *testing.T, err error)
	}{
		{
			name: "missing parent alias",
			build: func(q *query.Query) error {
				return q.Join(items, "orders", "$1.order_id = $2.id", nil)
			},
			check: func(t *testing.T, err error) {
				var ref *core.ReferenceError
				require.ErrorAs(t, err, &ref)
				assert.Equal(t, "orders", ref.Alias)
			},
		},
		{
			name: "nil join target",
			build: func(q *query.Query) error {
				return q.Join(nil, "", "$1.id = $2.id", nil)
			},
			check: func(t *testing.T, err error) {
				assert.True(t, core.IsValidationError(err))
			},
		},
		{
			name: "blank condition",
			build: func(q *query.Query) error {
				return q.Join(orders, "", "", nil)
			},
			check: func(t *testing.T, err error) {
				assert.True(t, core.IsValidationError(err))
			},
		},
		{
			name: "unknown join type",
			build: func(q *query.Query) error {
				return q.Join(orders, "", "$1.customer_id = $2.id", nil, query.JoinType("CROSS"))
			},
			check: func(t *testing.T, err error) {
				assert.True(t, core.IsValidationError(err))
			},
		},
		{
			name: "same table twice needs an alias",
			build: func(q *query.Query) error {
				if err := q.Join(orders, "", "$1.customer_id = $2.id", nil); err != nil {
					return err
				}
				return q.Join(orders, "", "$1.referrer_id = $2.id", nil)
			},
			check: func(t *testing.T, err error) {
				assert.True(t, core.IsValidationError(err))
			},
		},
		{
			name: "nil scope table",
			build: func(q *query.Query) error {
				return q.WhereFor(nil, "$1.id = 1")
			},
			check: func(t *testing.T, err error) {
				assert.True(t, core.IsValidationError(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := query.New(nil, customers, query.Cols("name"))
			require.NoError(t, err)
			err = tt.build(q)
			require.Error(t, err)
			tt.check(t, err)
		})
	}

	_, err := query.New(nil, nil, nil)
	assert.True(t, core.IsValidationError(err), "nil root")
}

func TestQuery_FetchWithoutStore(t *testing.T) {
	q, err := query.New(nil, orders, nil)
	require.NoError(t, err)
	_, err = q.Fetch(context.Background())
	assert.Error(t, err)
}

func seedShop(t *testing.T) adapter.Querier {
	t.Helper()
	return testutil.NewSQLiteStore(t,
		`CREATE TABLE customers (id INTEGER PRIMARY KEY, name TEXT)`,
		`CREATE TABLE orders (id INTEGER PRIMARY KEY, customer_id INTEGER, total REAL)`,
		`CREATE TABLE items (id INTEGER PRIMARY KEY, order_id INTEGER, sku TEXT)`,
		`INSERT INTO customers VALUES (1, 'Ann'), (2, 'Bob'), (3, 'Cid')`,
		`INSERT INTO orders VALUES (10, 1, 30), (11, 1, 5), (12, 2, 12)`,
		`INSERT INTO items VALUES (100, 10, 'A'), (101, 10, 'B'), (102, 10, 'C'), (103, 12, 'D')`,
	)
}

func TestQuery_SQLite_OrdersWithItems(t *testing.T) {
	store := seedShop(t)

	q, err := query.New(store, orders, query.Cols("total"))
	require.NoError(t, err)
	require.NoError(t, q.Join(items, "", "$1.order_id = $2.id", query.Cols("sku")))
	q.WhereEq(map[string]any{"orders.id": 10})

	records, err := q.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Len(t, records[0].Child("items"), 3)
}

func TestQuery_SQLite_NestedTree(t *testing.T) {
	store := seedShop(t)

	q, err := query.New(store, customers.As("c"), []query.Column{query.Rename("customer", "name")})
	require.NoError(t, err)
	require.NoError(t, q.Join(orders.As("o"), "c", "$1.customer_id = $2.id", query.Cols("total"), query.LeftJoin))
	require.NoError(t, q.Join(items.As("i"), "o", "$1.order_id = $2.id", query.Cols("sku"), query.LeftJoin))
	q.OrderBy("c.id", "o.id", "i.id")

	records, err := q.Fetch(context.Background())
	require.NoError(t, err)

	got, err := json.Marshal(records)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"customer": "Ann", "o": [
			{"total": 30, "i": [{"sku": "A"}, {"sku": "B"}, {"sku": "C"}]},
			{"total": 5, "i": []}
		]},
		{"customer": "Bob", "o": [{"total": 12, "i": [{"sku": "D"}]}]},
		{"customer": "Cid", "o": []}
	]`, string(got))
}

func TestRaw(t *testing.T) {
	store, mock := testutil.NewMockStore(t, dialect.Postgres)

	mock.ExpectQuery("SELECT count(*) AS n FROM orders WHERE total > $1").WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(2))

	rows, err := query.Raw(context.Background(), store, "SELECT count(*) AS n FROM orders WHERE total > $1", 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 2, rows[0]["n"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRaw_Errors(t *testing.T) {
	_, err := query.Raw(context.Background(), nil, "SELECT 1")
	assert.True(t, core.IsValidationError(err))

	store, mock := testutil.NewMockStore(t, dialect.SQLite)
	mock.ExpectQuery("SELECT 1").WillReturnError(assert.AnError)

	_, err = query.Raw(context.Background(), store, "SELECT 1")
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "failed to run raw query")
}
