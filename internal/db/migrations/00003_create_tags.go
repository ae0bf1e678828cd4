package migrations

// The unique index on (owner_id, name) backs TagStore.ResolveOrCreate, the
// only write path into this table. Tags are never deleted; the table is a
// per-user vocabulary, not reference-counted state.

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateTags, downCreateTags)
}

func upCreateTags(ctx context.Context, tx *sql.Tx) error {
	var ddl string
	switch dialect {
	case "postgres":
		ddl = `CREATE TABLE IF NOT EXISTS tags (
    id         TEXT PRIMARY KEY,
    owner_id   TEXT NOT NULL,
    name       TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
)`
	case "mysql":
		ddl = `CREATE TABLE IF NOT EXISTS tags (
    id         VARCHAR(36) PRIMARY KEY,
    owner_id   VARCHAR(36) NOT NULL,
    name       VARCHAR(255) NOT NULL,
    created_at TIMESTAMP(6) NOT NULL
)`
	default: // sqlite3
		ddl = `CREATE TABLE IF NOT EXISTS tags (
    id         TEXT PRIMARY KEY,
    owner_id   TEXT NOT NULL,
    name       TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
)`
	}
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create tags table: %w", err)
	}
	_, err := tx.ExecContext(ctx,
		`CREATE UNIQUE INDEX idx_tags_owner_name ON tags (owner_id, name)`)
	return err
}

func downCreateTags(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS tags`)
	return err
}
