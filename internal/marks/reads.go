package marks

import (
	"context"
	"fmt"

	"github.com/marqlab/marq/internal/store"
)

// Read paths and the bookmark/tag surfaces. All owner-scoped; none of these
// touch the cross-store invariants except SetBookmarkStarred, which only
// flips the flag the reclaim rule reads.

func (s *Service) GetMarksForUser(ctx context.Context, userID string) ([]*store.Mark, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	return s.marks.ListByOwner(ctx, userID)
}

func (s *Service) GetMarksForURL(ctx context.Context, userID, url string) ([]*store.Mark, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	return s.marks.ListByURL(ctx, userID, url)
}

func (s *Service) GetMarksForBookmark(ctx context.Context, userID, bookmarkID string) ([]*store.Mark, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	return s.marks.ListByBookmark(ctx, userID, bookmarkID)
}

func (s *Service) FindMarkByID(ctx context.Context, userID, id string) (*store.Mark, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	return s.marks.GetByID(ctx, userID, id)
}

func (s *Service) GetBookmarksForUser(ctx context.Context, userID string) ([]*store.Bookmark, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	return s.bookmarks.ListByOwner(ctx, userID)
}

func (s *Service) FindBookmarkByID(ctx context.Context, userID, id string) (*store.Bookmark, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	return s.bookmarks.GetByID(ctx, userID, id)
}

// SetBookmarkStarred pins or unpins a bookmark. A starred bookmark survives
// losing its last mark; unstarring does not itself trigger a reclaim — the
// bookmark lingers until the next mark deletion re-evaluates it.
func (s *Service) SetBookmarkStarred(ctx context.Context, userID, id string, starred bool) (*store.Bookmark, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	n, err := s.bookmarks.SetStarred(ctx, userID, id, starred)
	if err != nil {
		return nil, fmt.Errorf("set starred: %w", err)
	}
	if n == 0 {
		return nil, store.ErrNotFound
	}
	return s.bookmarks.GetByID(ctx, userID, id)
}

func (s *Service) GetTagsForUser(ctx context.Context, userID string) ([]*store.Tag, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	return s.tags.ListByOwner(ctx, userID)
}
