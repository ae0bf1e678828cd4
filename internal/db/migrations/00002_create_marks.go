package migrations

// marks.bookmark_id is a plain column, not a foreign key — see
// 00001_create_bookmarks.go. mark_tags stores each mark's tag names with a
// composite primary key so a mark can never carry the same tag twice.

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateMarks, downCreateMarks)
}

func upCreateMarks(ctx context.Context, tx *sql.Tx) error {
	var marksDDL, tagsDDL string
	switch dialect {
	case "postgres":
		marksDDL = `CREATE TABLE IF NOT EXISTS marks (
    id          TEXT PRIMARY KEY,
    owner_id    TEXT NOT NULL,
    bookmark_id TEXT NOT NULL,
    url         TEXT NOT NULL,
    title       TEXT NOT NULL DEFAULT '',
    origin      TEXT NOT NULL DEFAULT '',
    text        TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL
)`
		tagsDDL = `CREATE TABLE IF NOT EXISTS mark_tags (
    mark_id TEXT NOT NULL,
    name    TEXT NOT NULL,
    PRIMARY KEY (mark_id, name)
)`
	case "mysql":
		marksDDL = `CREATE TABLE IF NOT EXISTS marks (
    id          VARCHAR(36) PRIMARY KEY,
    owner_id    VARCHAR(36) NOT NULL,
    bookmark_id VARCHAR(36) NOT NULL,
    url         VARCHAR(512) NOT NULL,
    title       VARCHAR(512) NOT NULL DEFAULT '',
    origin      VARCHAR(512) NOT NULL DEFAULT '',
    text        TEXT NOT NULL,
    created_at  TIMESTAMP(6) NOT NULL,
    updated_at  TIMESTAMP(6) NOT NULL
)`
		tagsDDL = `CREATE TABLE IF NOT EXISTS mark_tags (
    mark_id VARCHAR(36) NOT NULL,
    name    VARCHAR(255) NOT NULL,
    PRIMARY KEY (mark_id, name)
)`
	default: // sqlite3
		marksDDL = `CREATE TABLE IF NOT EXISTS marks (
    id          TEXT PRIMARY KEY,
    owner_id    TEXT NOT NULL,
    bookmark_id TEXT NOT NULL,
    url         TEXT NOT NULL,
    title       TEXT NOT NULL DEFAULT '',
    origin      TEXT NOT NULL DEFAULT '',
    text        TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMP NOT NULL,
    updated_at  TIMESTAMP NOT NULL
)`
		tagsDDL = `CREATE TABLE IF NOT EXISTS mark_tags (
    mark_id TEXT NOT NULL,
    name    TEXT NOT NULL,
    PRIMARY KEY (mark_id, name)
)`
	}
	if _, err := tx.ExecContext(ctx, marksDDL); err != nil {
		return fmt.Errorf("create marks table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tagsDDL); err != nil {
		return fmt.Errorf("create mark_tags table: %w", err)
	}

	indexes := []string{
		`CREATE INDEX idx_marks_owner ON marks (owner_id)`,
		`CREATE INDEX idx_marks_owner_bookmark ON marks (owner_id, bookmark_id)`,
		`CREATE INDEX idx_marks_owner_url ON marks (owner_id, url)`,
	}
	for _, stmt := range indexes {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func downCreateMarks(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS mark_tags`); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS marks`)
	return err
}
