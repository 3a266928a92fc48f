package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leapjoin/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T, cfg core.AdapterConfig) *Adapter {
	t.Helper()
	adp := New(nil)
	require.NoError(t, adp.Connect(context.Background(), cfg))
	t.Cleanup(func() { _ = adp.Close() })
	return adp
}

func TestAdapter_Connect(t *testing.T) {
	tests := []struct {
		name      string
		setupPath func(t *testing.T) string
		verify    func(t *testing.T, path string)
	}{
		{
			name: "in-memory",
			setupPath: func(_ *testing.T) string {
				return ":memory:"
			},
		},
		{
			name: "file-based",
			setupPath: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "shop.duckdb")
			},
			verify: func(t *testing.T, path string) {
				_, err := os.Stat(path)
				assert.False(t, os.IsNotExist(err), "database file was not created")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbPath := tt.setupPath(t)
			connect(t, core.AdapterConfig{Path: dbPath})
			if tt.verify != nil {
				tt.verify(t, dbPath)
			}
		})
	}
}

func TestAdapter_Dialect(t *testing.T) {
	assert.Equal(t, "duckdb", New(nil).Dialect().Name)
}

func TestAdapter_NotConnected(t *testing.T) {
	tests := []struct {
		name      string
		operation func(ctx context.Context, adp *Adapter) error
	}{
		{
			name: "exec without connect",
			operation: func(ctx context.Context, adp *Adapter) error {
				return adp.Exec(ctx, "SELECT 1")
			},
		},
		{
			name: "query without connect",
			operation: func(ctx context.Context, adp *Adapter) error {
				_, err := adp.Query(ctx, "SELECT 1")
				return err
			},
		},
		{
			name: "metadata without connect",
			operation: func(ctx context.Context, adp *Adapter) error {
				_, err := adp.GetTableMetadata(ctx, "customers")
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.operation(context.Background(), New(nil))
			assert.Error(t, err, "expected error when operating without connection")
		})
	}
}

func TestAdapter_JoinQuery(t *testing.T) {
	ctx := context.Background()
	adp := connect(t, core.AdapterConfig{Path: ":memory:"})

	require.NoError(t, adp.Exec(ctx, `CREATE TABLE customers (id INTEGER PRIMARY KEY, name VARCHAR)`))
	require.NoError(t, adp.Exec(ctx, `CREATE TABLE orders (id INTEGER PRIMARY KEY, customer_id INTEGER, amount DOUBLE)`))
	require.NoError(t, adp.Exec(ctx, `INSERT INTO customers VALUES (1, 'Alice'), (2, 'Bob')`))
	require.NoError(t, adp.Exec(ctx, `INSERT INTO orders VALUES (10, 1, 100.0), (11, 1, 150.0), (12, 2, 200.0)`))

	rows, err := adp.Query(ctx, `
		SELECT c.id AS t0_id, c.name AS t0_name, o.id AS t1_id, o.amount AS t1_amount
		FROM customers c
		LEFT JOIN orders o ON o.customer_id = c.id
		WHERE c.id = ?
		ORDER BY o.id
	`, 1)
	require.NoError(t, err)

	collected, err := rows.Collect()
	require.NoError(t, err)
	require.Len(t, collected, 2)
	assert.Equal(t, "Alice", collected[0]["t0_name"])
	assert.Equal(t, int32(10), collected[0]["t1_id"])
	assert.InEpsilon(t, 150.0, collected[1]["t1_amount"], 0.001)
}

func TestAdapter_GetTableMetadata(t *testing.T) {
	tests := []struct {
		name        string
		setupTable  func(t *testing.T, ctx context.Context, adp *Adapter)
		tableName   string
		wantErr     bool
		wantColumns int
		wantRows    int64
		wantPK      []string
	}{
		{
			name: "single primary key",
			setupTable: func(t *testing.T, ctx context.Context, adp *Adapter) {
				require.NoError(t, adp.Exec(ctx, `CREATE TABLE customers (id INTEGER PRIMARY KEY, name VARCHAR, email VARCHAR)`))
				require.NoError(t, adp.Exec(ctx, `INSERT INTO customers VALUES (1, 'Alice', 'a@x'), (2, 'Bob', NULL)`))
			},
			tableName:   "customers",
			wantColumns: 3,
			wantRows:    2,
			wantPK:      []string{"id"},
		},
		{
			name: "composite primary key",
			setupTable: func(t *testing.T, ctx context.Context, adp *Adapter) {
				require.NoError(t, adp.Exec(ctx, `
					CREATE TABLE items (
						order_id INTEGER,
						line INTEGER,
						sku VARCHAR,
						PRIMARY KEY (order_id, line)
					)
				`))
			},
			tableName:   "main.items",
			wantColumns: 3,
			wantPK:      []string{"order_id", "line"},
		},
		{
			name:      "nonexistent table",
			tableName: "nonexistent_table",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			adp := connect(t, core.AdapterConfig{Path: ":memory:"})

			if tt.setupTable != nil {
				tt.setupTable(t, ctx, adp)
			}

			metadata, err := adp.GetTableMetadata(ctx, tt.tableName)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "main", metadata.Schema)
			assert.Len(t, metadata.Columns, tt.wantColumns)
			assert.Equal(t, tt.wantRows, metadata.RowCount)
			assert.Equal(t, tt.wantPK, metadata.PrimaryKey())
		})
	}
}

func TestAdapter_LoadCSV(t *testing.T) {
	ctx := context.Background()
	adp := connect(t, core.AdapterConfig{Path: ":memory:"})

	csvPath := filepath.Join(t.TempDir(), "customers.csv")
	csvContent := `id,name
1,alice
2,bob
3,charlie`
	require.NoError(t, os.WriteFile(csvPath, []byte(csvContent), 0600))

	require.NoError(t, adp.LoadCSV(ctx, "customers", csvPath))

	rows, err := adp.Query(ctx, "SELECT COUNT(*) AS n FROM customers")
	require.NoError(t, err)
	collected, err := rows.Collect()
	require.NoError(t, err)
	require.Len(t, collected, 1)
	assert.EqualValues(t, 3, collected[0]["n"])

	metadata, err := adp.GetTableMetadata(ctx, "customers")
	require.NoError(t, err)
	assert.Len(t, metadata.Columns, 2)
}

func TestBuildCreateSecretSQL(t *testing.T) {
	tests := []struct {
		name string
		cfg  SecretConfig
		want string
	}{
		{
			name: "s3 with credential chain",
			cfg: SecretConfig{
				Type:     "s3",
				Provider: "credential_chain",
				Region:   "us-west-2",
			},
			want: `CREATE SECRET (
    TYPE s3,
    PROVIDER credential_chain,
    REGION 'us-west-2'
)`,
		},
		{
			name: "type only",
			cfg:  SecretConfig{Type: "s3"},
			want: `CREATE SECRET (
    TYPE s3
)`,
		},
		{
			name: "multiple scopes",
			cfg: SecretConfig{
				Type:   "s3",
				Region: "eu-central-1",
				Scope:  []any{"s3://bucket1", "s3://bucket2"},
			},
			want: `CREATE SECRET (
    TYPE s3,
    REGION 'eu-central-1',
    SCOPE ('s3://bucket1', 's3://bucket2')
)`,
		},
		{
			name: "s3 compatible with endpoint and path style",
			cfg: SecretConfig{
				Type:     "s3",
				Provider: "config",
				KeyID:    "minioadmin",
				Secret:   "minio'admin",
				Endpoint: "localhost:9000",
				URLStyle: "path",
				UseSSL:   boolPtr(false),
			},
			want: `CREATE SECRET (
    TYPE s3,
    PROVIDER config,
    KEY_ID 'minioadmin',
    SECRET 'minio''admin',
    ENDPOINT 'localhost:9000',
    URL_STYLE 'path',
    USE_SSL false
)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildCreateSecretSQL(tt.cfg))
		})
	}
}

func TestConnect_WithSettings(t *testing.T) {
	ctx := context.Background()
	adp := connect(t, core.AdapterConfig{
		Path: ":memory:",
		Params: map[string]any{
			"settings": map[string]any{"threads": "2"},
		},
	})

	rows, err := adp.Query(ctx, "SELECT current_setting('threads') AS threads")
	require.NoError(t, err)
	collected, err := rows.Collect()
	require.NoError(t, err)
	require.Len(t, collected, 1)
	assert.EqualValues(t, 2, collected[0]["threads"])
}

func TestConnect_InvalidParams(t *testing.T) {
	adp := New(nil)
	err := adp.Connect(context.Background(), core.AdapterConfig{
		Path:   ":memory:",
		Params: map[string]any{"bogus": true},
	})
	require.Error(t, err)
	assert.False(t, adp.IsConnected())
}
