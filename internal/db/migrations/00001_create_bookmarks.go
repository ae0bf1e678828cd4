package migrations

// The bookmarks table carries no foreign keys: the same DDL must run on
// SQLite, PostgreSQL, and MySQL, and referential integrity between bookmarks
// and marks is owned by the marks service, not the database. The unique index
// on (owner_id, url) is what makes BookmarkStore.ResolveOrCreate atomic under
// concurrent first-insert.

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateBookmarks, downCreateBookmarks)
}

func upCreateBookmarks(ctx context.Context, tx *sql.Tx) error {
	var ddl string
	switch dialect {
	case "postgres":
		ddl = `CREATE TABLE IF NOT EXISTS bookmarks (
    id         TEXT PRIMARY KEY,
    owner_id   TEXT NOT NULL,
    url        TEXT NOT NULL,
    title      TEXT NOT NULL DEFAULT '',
    starred    BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
)`
	case "mysql":
		// MySQL cannot put a unique index on an unbounded TEXT column, so
		// url is capped at what fits an InnoDB utf8mb4 composite key.
		ddl = `CREATE TABLE IF NOT EXISTS bookmarks (
    id         VARCHAR(36) PRIMARY KEY,
    owner_id   VARCHAR(36) NOT NULL,
    url        VARCHAR(512) NOT NULL,
    title      VARCHAR(512) NOT NULL DEFAULT '',
    starred    BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP(6) NOT NULL,
    updated_at TIMESTAMP(6) NOT NULL
)`
	default: // sqlite3
		ddl = `CREATE TABLE IF NOT EXISTS bookmarks (
    id         TEXT PRIMARY KEY,
    owner_id   TEXT NOT NULL,
    url        TEXT NOT NULL,
    title      TEXT NOT NULL DEFAULT '',
    starred    INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
)`
	}
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create bookmarks table: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`CREATE UNIQUE INDEX idx_bookmarks_owner_url ON bookmarks (owner_id, url)`); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx,
		`CREATE INDEX idx_bookmarks_owner ON bookmarks (owner_id)`)
	return err
}

func downCreateBookmarks(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS bookmarks`)
	return err
}
