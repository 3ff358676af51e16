package database

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/paaavkata/stock-dashboard/pkg/database"
)

//go:embed schema.sql
var schema string

// Migrate creates the tables and indexes when they do not exist.
func Migrate(ctx context.Context, db *database.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
