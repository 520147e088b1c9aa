// ABOUTME: Database schema definitions
// ABOUTME: One snapshot row per entity bucket, typed per dialect
package db

import (
	"context"
	"database/sql"
	"fmt"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS state (
	bucket TEXT PRIMARY KEY,
	payload BLOB NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS state (
	bucket TEXT PRIMARY KEY,
	payload BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func InitSchema(ctx context.Context, db *sql.DB, dialect Dialect) error {
	ddl := sqliteSchema
	if dialect == Postgres {
		ddl = postgresSchema
	}
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}
