// Package fixtures provides the demo shop schema (customers, orders, items)
// as embedded goose migrations, plus a plan that queries it.
package fixtures

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

//go:embed plans/shop.yaml
var shopPlan []byte

// gooseDialects maps adapter types onto goose dialect names.
var gooseDialects = map[string]string{
	"sqlite":   "sqlite3",
	"postgres": "postgres",
}

// ShopPlan returns the demo plan: customers, their orders and order items.
func ShopPlan() []byte {
	out := make([]byte, len(shopPlan))
	copy(out, shopPlan)
	return out
}

// Supported reports whether fixtures can be applied to the adapter type.
func Supported(adapterType string) bool {
	_, ok := gooseDialects[adapterType]
	return ok
}

func setup(adapterType string) error {
	d, ok := gooseDialects[adapterType]
	if !ok {
		return fmt.Errorf("fixtures are not supported for %s targets", adapterType)
	}
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(d); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	return nil
}

// Apply runs all pending fixture migrations.
func Apply(ctx context.Context, db *sql.DB, adapterType string) error {
	if db == nil {
		return fmt.Errorf("database connection not established")
	}
	if err := setup(adapterType); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply fixtures: %w", err)
	}
	return nil
}

// Reset rolls every fixture migration back.
func Reset(ctx context.Context, db *sql.DB, adapterType string) error {
	if db == nil {
		return fmt.Errorf("database connection not established")
	}
	if err := setup(adapterType); err != nil {
		return err
	}
	if err := goose.DownToContext(ctx, db, "migrations", 0); err != nil {
		return fmt.Errorf("failed to reset fixtures: %w", err)
	}
	return nil
}

// Version returns the current fixture migration version.
func Version(ctx context.Context, db *sql.DB, adapterType string) (int64, error) {
	if db == nil {
		return 0, fmt.Errorf("database connection not established")
	}
	if err := setup(adapterType); err != nil {
		return 0, err
	}
	v, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("failed to read fixture version: %w", err)
	}
	return v, nil
}
