// Package adapter provides the backing-store contract used by leapjoin
// queries and the shared database/sql implementation.
//
// Concrete adapter implementations are in pkg/adapters/ subdirectories and
// register themselves with the registry in their init() functions.
package adapter

import (
	"context"
	"database/sql"

	"github.com/leapstack-labs/leapjoin/pkg/core"
	"github.com/leapstack-labs/leapjoin/pkg/dialect"
)

// Type aliases for convenience - these types are defined in pkg/core.
type (
	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig

	// Column is an alias for core.Column.
	Column = core.Column

	// Metadata is an alias for core.TableMetadata.
	Metadata = core.TableMetadata

	// Rows is an alias for core.Rows.
	Rows = core.Rows
)

// Querier is the minimal surface a composed query needs from the backing store:
// run a parameterized select and know how to render placeholders.
type Querier interface {
	// Query executes a SQL statement that returns rows.
	Query(ctx context.Context, sql string, args ...any) (*Rows, error)

	// Dialect returns the SQL dialect used to render statements for this store.
	Dialect() *dialect.Dialect
}

// Adapter defines the interface that all database adapters must implement.
type Adapter interface {
	Querier

	// Connect establishes a connection to the database using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// Exec executes a SQL statement that doesn't return rows (e.g., INSERT, CREATE).
	Exec(ctx context.Context, sql string, args ...any) error

	// GetTableMetadata retrieves metadata for a specified table.
	GetTableMetadata(ctx context.Context, table string) (*Metadata, error)
}

// CSVLoader is implemented by adapters that can bulk load a CSV file into a table.
type CSVLoader interface {
	LoadCSV(ctx context.Context, tableName string, filePath string) error
}

// DBProvider is implemented by adapters built on database/sql.
type DBProvider interface {
	SQLDB() *sql.DB
}
