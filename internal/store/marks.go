package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Mark represents a row in the marks table plus its tag names from the
// mark_tags join table. bookmark_id is a plain column, not an enforced
// foreign key; the marks service is the sole component keeping it pointing
// at a live bookmark.
type Mark struct {
	ID         string    `db:"id"`
	OwnerID    string    `db:"owner_id"`
	BookmarkID string    `db:"bookmark_id"`
	URL        string    `db:"url"`
	Title      string    `db:"title"`
	Origin     string    `db:"origin"`
	Text       string    `db:"text"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`

	Tags []string `db:"-"`
}

// MarkPatch is the set of mutable mark fields for Update. The URL and
// bookmark reference are immutable; changing the URL is create-new/delete-old
// at the service layer.
type MarkPatch struct {
	Title string
	Text  string
	Tags  []string
}

// MarkStore is the sqlx-backed implementation of MarkStoreIface.
type MarkStore struct {
	db *sqlx.DB
}

func NewMarkStore(db *sqlx.DB) *MarkStore {
	return &MarkStore{db: db}
}

// Create inserts m and its tag rows in one transaction. A client-supplied id
// is kept (the browser extension generates mark ids offline); otherwise one
// is generated. Returns the stored mark.
func (s *MarkStore) Create(ctx context.Context, m *Mark) (*Mark, error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO marks (id, owner_id, bookmark_id, url, title, origin, text, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.OwnerID, m.BookmarkID, m.URL, m.Title, m.Origin, m.Text, now, now)
	if err != nil {
		return nil, err
	}

	if err := insertMarkTags(ctx, tx, m.ID, m.Tags); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return s.GetByID(ctx, m.OwnerID, m.ID)
}

// GetByID returns ownerID's mark with the given id, or ErrNotFound.
func (s *MarkStore) GetByID(ctx context.Context, ownerID, id string) (*Mark, error) {
	var m Mark
	err := s.db.GetContext(ctx, &m,
		`SELECT * FROM marks WHERE owner_id = ? AND id = ?`, ownerID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.attachTags(ctx, []*Mark{&m}); err != nil {
		return nil, err
	}
	return &m, nil
}

// ListByOwner returns all of ownerID's marks, newest first.
func (s *MarkStore) ListByOwner(ctx context.Context, ownerID string) ([]*Mark, error) {
	return s.list(ctx,
		`SELECT * FROM marks WHERE owner_id = ? ORDER BY created_at DESC, id`, ownerID)
}

// ListByURL returns ownerID's marks on the given url, newest first.
func (s *MarkStore) ListByURL(ctx context.Context, ownerID, url string) ([]*Mark, error) {
	return s.list(ctx,
		`SELECT * FROM marks WHERE owner_id = ? AND url = ? ORDER BY created_at DESC, id`, ownerID, url)
}

// ListByBookmark returns ownerID's marks referencing bookmarkID, newest first.
func (s *MarkStore) ListByBookmark(ctx context.Context, ownerID, bookmarkID string) ([]*Mark, error) {
	return s.list(ctx,
		`SELECT * FROM marks WHERE owner_id = ? AND bookmark_id = ? ORDER BY created_at DESC, id`, ownerID, bookmarkID)
}

// CountByBookmark returns how many of ownerID's marks reference bookmarkID.
func (s *MarkStore) CountByBookmark(ctx context.Context, ownerID, bookmarkID string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM marks WHERE owner_id = ? AND bookmark_id = ?`, ownerID, bookmarkID)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Update applies patch to ownerID's mark with the given id, replacing its tag
// rows, and returns rows affected. Zero rows means the mark does not exist
// for that owner; no tag rows are touched in that case.
func (s *MarkStore) Update(ctx context.Context, ownerID, id string, patch MarkPatch) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE marks SET title = ?, text = ?, updated_at = ? WHERE owner_id = ? AND id = ?
	`, patch.Title, patch.Text, time.Now().UTC(), ownerID, id)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM mark_tags WHERE mark_id = ?`, id); err != nil {
		return 0, err
	}
	if err := insertMarkTags(ctx, tx, id, patch.Tags); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// Delete removes ownerID's mark with the given id along with its tag rows and
// returns rows affected (0 or 1).
func (s *MarkStore) Delete(ctx context.Context, ownerID, id string) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM marks WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM mark_tags WHERE mark_id = ?`, id); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *MarkStore) list(ctx context.Context, query string, args ...any) ([]*Mark, error) {
	marks := []*Mark{}
	if err := s.db.SelectContext(ctx, &marks, query, args...); err != nil {
		return nil, err
	}
	if err := s.attachTags(ctx, marks); err != nil {
		return nil, err
	}
	return marks, nil
}

// attachTags loads tag names for all given marks in one query.
func (s *MarkStore) attachTags(ctx context.Context, marks []*Mark) error {
	if len(marks) == 0 {
		return nil
	}
	byID := make(map[string]*Mark, len(marks))
	ids := make([]string, 0, len(marks))
	for _, m := range marks {
		m.Tags = []string{}
		byID[m.ID] = m
		ids = append(ids, m.ID)
	}

	query, args, err := sqlx.In(
		`SELECT mark_id, name FROM mark_tags WHERE mark_id IN (?) ORDER BY name ASC`, ids)
	if err != nil {
		return err
	}

	rows, err := s.db.QueryxContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var markID, name string
		if err := rows.Scan(&markID, &name); err != nil {
			return err
		}
		if m, ok := byID[markID]; ok {
			m.Tags = append(m.Tags, name)
		}
	}
	return rows.Err()
}

func insertMarkTags(ctx context.Context, tx *sqlx.Tx, markID string, tags []string) error {
	for _, name := range tags {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO mark_tags (mark_id, name) VALUES (?, ?)`, markID, name)
		if err != nil {
			// The primary key on (mark_id, name) absorbs duplicates the
			// caller failed to normalize.
			if isUniqueConstraintError(err) {
				continue
			}
			return err
		}
	}
	return nil
}
