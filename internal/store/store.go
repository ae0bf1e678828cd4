package store

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned when a requested entity does not exist for the
// given owner.
var ErrNotFound = errors.New("not found")

// TagStoreIface exposes the per-user tag registry.
// Tags are deduplicated by (owner, name) and never deleted; the registry is
// the user's autocomplete vocabulary, not a reference-counted resource.
type TagStoreIface interface {
	ResolveOrCreate(ctx context.Context, ownerID, name string) (*Tag, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Tag, error)
}

// BookmarkStoreIface exposes per-user bookmark operations.
// ResolveOrCreate MUST be atomic under concurrent first-insert for the same
// (owner, url) pair: the unique index plus insert-retry makes two racing
// callers converge on one row. No caller creates bookmarks any other way.
type BookmarkStoreIface interface {
	ResolveOrCreate(ctx context.Context, ownerID, url, title string) (*Bookmark, error)
	GetByID(ctx context.Context, ownerID, id string) (*Bookmark, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Bookmark, error)
	SetStarred(ctx context.Context, ownerID, id string, starred bool) (int64, error)
	Delete(ctx context.Context, ownerID, id string) (int64, error)
}

// MarkStoreIface exposes per-user mark operations. Update and Delete are
// filtered by (owner, id) and report rows affected; zero means the mark did
// not exist for that owner.
type MarkStoreIface interface {
	Create(ctx context.Context, m *Mark) (*Mark, error)
	GetByID(ctx context.Context, ownerID, id string) (*Mark, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Mark, error)
	ListByURL(ctx context.Context, ownerID, url string) ([]*Mark, error)
	ListByBookmark(ctx context.Context, ownerID, bookmarkID string) ([]*Mark, error)
	CountByBookmark(ctx context.Context, ownerID, bookmarkID string) (int, error)
	Update(ctx context.Context, ownerID, id string, patch MarkPatch) (int64, error)
	Delete(ctx context.Context, ownerID, id string) (int64, error)
}

// isUniqueConstraintError checks whether err indicates a unique constraint
// violation. Works across SQLite, PostgreSQL, and MySQL.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || // SQLite & PostgreSQL
		strings.Contains(msg, "duplicate key") || // PostgreSQL
		strings.Contains(msg, "duplicate entry") // MySQL
}
