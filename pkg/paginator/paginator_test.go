package paginator_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/leapjoin/internal/testutil"
	"github.com/leapstack-labs/leapjoin/pkg/adapter"
	"github.com/leapstack-labs/leapjoin/pkg/core"
	"github.com/leapstack-labs/leapjoin/pkg/dialect"
	"github.com/leapstack-labs/leapjoin/pkg/paginator"
	"github.com/leapstack-labs/leapjoin/pkg/query"
	"github.com/leapstack-labs/leapjoin/pkg/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	orders = table.MustNew("orders", "id")
	items  = table.MustNew("items", "id")
)

const (
	joined       = "FROM orders LEFT JOIN items ON items.order_id = orders.id"
	fullSelect   = "SELECT orders.total AS t0_total, orders.id AS t0_id, items.sku AS t1_sku, items.id AS t1_id " + joined
	windowSelect = "SELECT distinct_select.t0_id AS t0_id FROM (SELECT DISTINCT orders.id AS t0_id " + joined + ") AS distinct_select ORDER BY distinct_select.t0_id"
)

var fullColumns = []string{"t0_total", "t0_id", "t1_sku", "t1_id"}

func ordersWithItems(t *testing.T, store adapter.Querier) *query.Query {
	t.Helper()
	q, err := query.New(store, orders, query.Cols("total"), query.WithLogger(testutil.NewTestLogger(t)))
	require.NoError(t, err)
	require.NoError(t, q.Join(items, "", "$1.order_id = $2.id", query.Cols("sku"), query.LeftJoin))
	return q
}

func TestCount_SQL(t *testing.T) {
	store, mock := testutil.NewMockStore(t, dialect.SQLite)
	q := ordersWithItems(t, store)
	q.Where("orders.total > ?", 0)

	mock.ExpectQuery("SELECT COUNT(DISTINCT orders.id) AS total " + joined + " WHERE orders.total > ?").
		WithArgs(0).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(int64(1)))

	n, err := paginator.New(q).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItems_TwoRoundTrips(t *testing.T) {
	store, mock := testutil.NewMockStore(t, dialect.SQLite)
	q := ordersWithItems(t, store)

	mock.ExpectQuery(windowSelect + " LIMIT 2 OFFSET 0").
		WillReturnRows(sqlmock.NewRows([]string{"t0_id"}).AddRow(int64(1)).AddRow(int64(2)))
	mock.ExpectQuery(fullSelect+" WHERE orders.id IN (?,?) ORDER BY orders.id").
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows(fullColumns).
			AddRow(10, int64(1), "A", 100).
			AddRow(10, int64(1), "B", 101).
			AddRow(20, int64(2), "C", 102))

	records, err := paginator.New(q).Items(context.Background(), 0, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Len(t, records[0].Child("items"), 2)
	assert.Len(t, records[1].Child("items"), 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItems_MixedCaseRootKey(t *testing.T) {
	store, mock := testutil.NewMockStore(t, dialect.Postgres)
	q, err := query.New(store, table.MustNew("orders", "orderId"), query.Cols("total"))
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT distinct_select."t0_orderId" AS "t0_orderId" FROM (SELECT DISTINCT orders.orderId AS "t0_orderId" FROM orders) ` +
		`AS distinct_select ORDER BY distinct_select."t0_orderId" LIMIT 1 OFFSET 0`).
		WillReturnRows(sqlmock.NewRows([]string{"t0_orderId"}).AddRow(int64(7)))
	mock.ExpectQuery(`SELECT orders.total AS t0_total, orders.orderId AS "t0_orderId" FROM orders WHERE orders.orderId IN ($1) ORDER BY orders.orderId`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"t0_total", "t0_orderId"}).AddRow(30, int64(7)))

	records, err := paginator.New(q).Items(context.Background(), 0, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	total, ok := records[0].Get("total")
	assert.True(t, ok)
	assert.EqualValues(t, 30, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItems_EmptyWindow(t *testing.T) {
	store, mock := testutil.NewMockStore(t, dialect.SQLite)
	q := ordersWithItems(t, store)

	mock.ExpectQuery(windowSelect + " LIMIT 5 OFFSET 50").
		WillReturnRows(sqlmock.NewRows([]string{"t0_id"}))
	mock.ExpectQuery(fullSelect + " WHERE (1=0) ORDER BY orders.id").
		WillReturnRows(sqlmock.NewRows(fullColumns))

	records, err := paginator.New(q).Items(context.Background(), 50, 5)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItems_Validation(t *testing.T) {
	store, mock := testutil.NewMockStore(t, dialect.SQLite)
	p := paginator.New(ordersWithItems(t, store))
	ctx := context.Background()

	tests := []struct {
		name   string
		offset int
		limit  int
	}{
		{"negative offset", -1, 10},
		{"zero limit", 0, 0},
		{"negative limit", 0, -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Items(ctx, tt.offset, tt.limit)
			require.Error(t, err)
			assert.True(t, core.IsValidationError(err))
		})
	}

	_, err := p.Page(ctx, 0, 10)
	assert.True(t, core.IsValidationError(err))
	_, err = p.Page(ctx, 1, 0)
	assert.True(t, core.IsValidationError(err))
	assert.NoError(t, mock.ExpectationsWereMet(), "nothing is executed for invalid windows")
}

func TestItems_WindowErrorPropagates(t *testing.T) {
	store, mock := testutil.NewMockStore(t, dialect.SQLite)
	q := ordersWithItems(t, store)

	mock.ExpectQuery(windowSelect + " LIMIT 1 OFFSET 0").WillReturnError(assert.AnError)

	_, err := paginator.New(q).Items(context.Background(), 0, 1)
	require.ErrorIs(t, err, assert.AnError)
}

func shop(t *testing.T) adapter.Querier {
	t.Helper()
	return testutil.NewSQLiteStore(t,
		`CREATE TABLE orders (id INTEGER PRIMARY KEY, total REAL)`,
		`CREATE TABLE items (id INTEGER PRIMARY KEY, order_id INTEGER, sku TEXT)`,
		`INSERT INTO orders VALUES (1, 10), (2, 20), (3, 30), (4, 40), (5, 50)`,
		`INSERT INTO items VALUES
			(100, 1, 'A'), (101, 1, 'B'), (102, 1, 'C'),
			(103, 2, 'D'),
			(104, 4, 'E'), (105, 4, 'F'),
			(106, 5, 'G'), (107, 5, 'H'), (108, 5, 'I'), (109, 5, 'J')`,
	)
}

func ids(t *testing.T, records []*query.Record) []int64 {
	t.Helper()
	out := make([]int64, 0, len(records))
	for _, r := range records {
		v, ok := r.Get("id")
		require.True(t, ok)
		out = append(out, v.(int64))
	}
	return out
}

func TestSQLite_OrdersItemsExample(t *testing.T) {
	store := shop(t)
	q, err := query.New(store, orders, query.Cols("id", "total"))
	require.NoError(t, err)
	require.NoError(t, q.Join(items, "", "$1.order_id = $2.id", query.Cols("sku")))
	q.WhereEq(map[string]any{"orders.id": 1})

	p := paginator.New(q)
	ctx := context.Background()

	n, err := p.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "fan-out rows count once")

	records, err := p.Items(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Len(t, records[0].Child("items"), 3)
}

func TestSQLite_PagesCoverAllRoots(t *testing.T) {
	ctx := context.Background()
	store := shop(t)

	for _, joinType := range []query.JoinType{query.InnerJoin, query.LeftJoin} {
		t.Run(string(joinType), func(t *testing.T) {
			q, err := query.New(store, orders, query.Cols("id"))
			require.NoError(t, err)
			require.NoError(t, q.Join(items, "", "$1.order_id = $2.id", query.Cols("sku"), joinType))
			p := paginator.New(q)

			all, err := q.Fetch(ctx)
			require.NoError(t, err)

			total, err := p.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(len(all)), total)

			var paged []int64
			for offset := 0; offset < int(total)+2; offset += 2 {
				page, err := p.Items(ctx, offset, 2)
				require.NoError(t, err)
				assert.LessOrEqual(t, len(page), 2)
				if joinType == query.InnerJoin {
					for _, r := range page {
						assert.NotEmpty(t, r.Child("items"), "pages keep every child row")
					}
				}
				paged = append(paged, ids(t, page)...)
			}
			assert.ElementsMatch(t, ids(t, all), paged)
			assert.IsIncreasing(t, paged)
		})
	}
}

func TestSQLite_Page(t *testing.T) {
	ctx := context.Background()
	q, err := query.New(shop(t), orders, query.Cols("id"))
	require.NoError(t, err)
	require.NoError(t, q.Join(items, "", "$1.order_id = $2.id", query.Cols("sku"), query.LeftJoin))
	p := paginator.New(q)

	tests := []struct {
		name       string
		number     int
		wantNumber int
		wantIDs    []int64
		wantNext   bool
	}{
		{"first", 1, 1, []int64{1, 2}, true},
		{"middle", 2, 2, []int64{3, 4}, true},
		{"last", 3, 3, []int64{5}, false},
		{"past the end clamps", 9, 3, []int64{5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := p.Page(ctx, tt.number, 2)
			require.NoError(t, err)
			assert.Equal(t, tt.wantNumber, page.Number)
			assert.Equal(t, int64(5), page.Total)
			assert.Equal(t, 3, page.Pages)
			assert.Equal(t, tt.wantIDs, ids(t, page.Items))
			assert.Equal(t, tt.wantNext, page.HasNext())
		})
	}
}

func TestSQLite_CompositeKey(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewSQLiteStore(t,
		`CREATE TABLE lines (order_id INTEGER, line INTEGER, sku TEXT, PRIMARY KEY (order_id, line))`,
		`CREATE TABLE notes (id INTEGER PRIMARY KEY, order_id INTEGER, line INTEGER, body TEXT)`,
		`INSERT INTO lines VALUES (1, 1, 'A'), (1, 2, 'B'), (2, 1, 'C')`,
		`INSERT INTO notes VALUES (1, 1, 1, 'x'), (2, 1, 1, 'y'), (3, 2, 1, 'z')`,
	)

	q, err := query.New(store, table.MustNew("lines", "order_id", "line"), query.Cols("sku"))
	require.NoError(t, err)
	require.NoError(t, q.Join(table.MustNew("notes", "id"), "",
		"$1.order_id = $2.order_id AND $1.line = $2.line", query.Cols("body"), query.LeftJoin))
	p := paginator.New(q)

	n, err := p.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	first, err := p.Items(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	sku, _ := first[0].Get("sku")
	assert.Equal(t, "A", sku)
	assert.Len(t, first[0].Child("notes"), 2)

	rest, err := p.Items(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	sku, _ = rest[0].Get("sku")
	assert.Equal(t, "C", sku)
}

func TestSQLite_EmptyResult(t *testing.T) {
	ctx := context.Background()
	q, err := query.New(shop(t), orders, query.Cols("id"))
	require.NoError(t, err)
	q.Where("orders.total > ?", 1000)
	p := paginator.New(q)

	page, err := p.Page(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), page.Total)
	assert.Equal(t, 0, page.Pages)
	assert.Empty(t, page.Items)
}
