package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Bookmark represents a row in the bookmarks table. There is at most one
// bookmark per (owner_id, url); it anchors every mark the owner has on that
// URL and survives having zero marks only while starred.
type Bookmark struct {
	ID        string    `db:"id"`
	OwnerID   string    `db:"owner_id"`
	URL       string    `db:"url"`
	Title     string    `db:"title"`
	Starred   bool      `db:"starred"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// BookmarkStore is the sqlx-backed implementation of BookmarkStoreIface.
type BookmarkStore struct {
	db *sqlx.DB
}

func NewBookmarkStore(db *sqlx.DB) *BookmarkStore {
	return &BookmarkStore{db: db}
}

// ResolveOrCreate returns the bookmark for (ownerID, url), creating it with
// starred=false on first reference. title is only applied on create; an
// existing bookmark keeps its stored title. Concurrent first-inserts for the
// same pair converge on one row via the unique index on (owner_id, url).
func (s *BookmarkStore) ResolveOrCreate(ctx context.Context, ownerID, url, title string) (*Bookmark, error) {
	var existing Bookmark
	err := s.db.GetContext(ctx, &existing,
		`SELECT * FROM bookmarks WHERE owner_id = ? AND url = ?`, ownerID, url)
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	id := uuid.New().String()
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO bookmarks (id, owner_id, url, title, starred, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, ownerID, url, title, false, now, now)
	if err != nil {
		// Lost the first-insert race. Re-fetch the winner's row.
		if isUniqueConstraintError(err) {
			err = s.db.GetContext(ctx, &existing,
				`SELECT * FROM bookmarks WHERE owner_id = ? AND url = ?`, ownerID, url)
			if err != nil {
				return nil, err
			}
			return &existing, nil
		}
		return nil, err
	}

	return &Bookmark{ID: id, OwnerID: ownerID, URL: url, Title: title, CreatedAt: now, UpdatedAt: now}, nil
}

// GetByID returns ownerID's bookmark with the given id, or ErrNotFound.
func (s *BookmarkStore) GetByID(ctx context.Context, ownerID, id string) (*Bookmark, error) {
	var b Bookmark
	err := s.db.GetContext(ctx, &b,
		`SELECT * FROM bookmarks WHERE owner_id = ? AND id = ?`, ownerID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListByOwner returns all of ownerID's bookmarks ordered by url.
func (s *BookmarkStore) ListByOwner(ctx context.Context, ownerID string) ([]*Bookmark, error) {
	bookmarks := []*Bookmark{}
	err := s.db.SelectContext(ctx, &bookmarks,
		`SELECT * FROM bookmarks WHERE owner_id = ? ORDER BY url ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	return bookmarks, nil
}

// SetStarred updates the starred flag, filtered by (owner_id, id). Returns
// rows affected; zero means no such bookmark for that owner.
func (s *BookmarkStore) SetStarred(ctx context.Context, ownerID, id string, starred bool) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE bookmarks SET starred = ?, updated_at = ? WHERE owner_id = ? AND id = ?
	`, starred, time.Now().UTC(), ownerID, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes ownerID's bookmark with the given id and returns rows
// affected. Deleting an already-gone bookmark is not an error.
func (s *BookmarkStore) Delete(ctx context.Context, ownerID, id string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM bookmarks WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
