package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Tag represents a row in the tags table.
type Tag struct {
	ID        string    `db:"id"`
	OwnerID   string    `db:"owner_id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

// TagStore is the sqlx-backed implementation of TagStoreIface.
type TagStore struct {
	db *sqlx.DB
}

func NewTagStore(db *sqlx.DB) *TagStore {
	return &TagStore{db: db}
}

// ResolveOrCreate returns the tag named name for ownerID, creating it on
// first reference. Names are trimmed before storage. The unique index on
// (owner_id, name) makes concurrent first-inserts converge: an insert that
// loses the race re-fetches the winner's row.
func (s *TagStore) ResolveOrCreate(ctx context.Context, ownerID, name string) (*Tag, error) {
	name = strings.TrimSpace(name)

	var existing Tag
	err := s.db.GetContext(ctx, &existing,
		`SELECT * FROM tags WHERE owner_id = ? AND name = ?`, ownerID, name)
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	id := uuid.New().String()
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tags (id, owner_id, name, created_at) VALUES (?, ?, ?, ?)
	`, id, ownerID, name, now)
	if err != nil {
		// Another goroutine inserted first. Re-fetch.
		if isUniqueConstraintError(err) {
			err = s.db.GetContext(ctx, &existing,
				`SELECT * FROM tags WHERE owner_id = ? AND name = ?`, ownerID, name)
			if err != nil {
				return nil, err
			}
			return &existing, nil
		}
		return nil, err
	}

	return &Tag{ID: id, OwnerID: ownerID, Name: name, CreatedAt: now}, nil
}

// ListByOwner returns all of ownerID's tags ordered by name.
func (s *TagStore) ListByOwner(ctx context.Context, ownerID string) ([]*Tag, error) {
	tags := []*Tag{}
	err := s.db.SelectContext(ctx, &tags,
		`SELECT * FROM tags WHERE owner_id = ? ORDER BY name ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	return tags, nil
}
