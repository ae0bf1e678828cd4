// Package marks implements the consistency rules between marks, bookmarks,
// and tags. The schema has no cascading foreign keys, so this service is the
// only component allowed to create bookmarks, register tags, or reclaim an
// orphaned bookmark — handlers and jobs go through it, never through the
// stores directly.
package marks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/marqlab/marq/internal/metrics"
	"github.com/marqlab/marq/internal/notify"
	"github.com/marqlab/marq/internal/store"
)

var (
	// ErrNotAuthenticated is returned when no user identity was supplied.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrInvalidURL is returned when a mark's url is empty or not an
	// absolute http(s) URL.
	ErrInvalidURL = errors.New("url must be an absolute http or https URL")
)

// CreateMarkInput is the payload for CreateMark. ID may be set by clients
// that generate mark ids offline; it is otherwise assigned by the store.
type CreateMarkInput struct {
	ID     string
	URL    string
	Title  string
	Origin string
	Text   string
	Tags   []string
}

// UpdateMarkInput carries the mutable fields for UpdateMark. The mark's URL
// and bookmark reference cannot be changed; moving a mark to another URL is
// a create-plus-delete.
type UpdateMarkInput struct {
	Title string
	Text  string
	Tags  []string
}

// Service orchestrates mark operations across the three stores and publishes
// lifecycle events. It holds no state of its own and is safe for concurrent
// use; atomicity of resolve-or-create lives in the stores.
type Service struct {
	marks     store.MarkStoreIface
	bookmarks store.BookmarkStoreIface
	tags      store.TagStoreIface
	events    notify.Publisher
	logger    *slog.Logger
}

func NewService(
	marks store.MarkStoreIface,
	bookmarks store.BookmarkStoreIface,
	tags store.TagStoreIface,
	events notify.Publisher,
	logger *slog.Logger,
) *Service {
	return &Service{
		marks:     marks,
		bookmarks: bookmarks,
		tags:      tags,
		events:    events,
		logger:    logger,
	}
}

// CreateMark persists a new mark for userID, lazily creating the bookmark
// for its URL and registering any new tags. The sub-steps run sequentially
// without a wrapping transaction: resolve-or-create is idempotent, so a
// failure partway leaves at worst an unreferenced bookmark or tag, both of
// which are valid rows (the bookmark is reclaimed by a later delete).
func (s *Service) CreateMark(ctx context.Context, userID string, in CreateMarkInput) (*store.Mark, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	if err := validateURL(in.URL); err != nil {
		return nil, err
	}

	bookmark, err := s.bookmarks.ResolveOrCreate(ctx, userID, in.URL, in.Title)
	if err != nil {
		return nil, fmt.Errorf("resolve bookmark: %w", err)
	}

	tags := normalizeTags(in.Tags)
	for _, name := range tags {
		if _, err := s.tags.ResolveOrCreate(ctx, userID, name); err != nil {
			return nil, fmt.Errorf("resolve tag %q: %w", name, err)
		}
	}

	mark := &store.Mark{
		ID:         in.ID,
		OwnerID:    userID,
		BookmarkID: bookmark.ID,
		URL:        in.URL,
		Title:      in.Title,
		Origin:     in.Origin,
		Text:       in.Text,
		Tags:       tags,
	}
	saved, err := s.marks.Create(ctx, mark)
	if err != nil {
		return nil, fmt.Errorf("create mark: %w", err)
	}

	metrics.MarksCreatedTotal.Inc()
	s.events.Publish(notify.Event{Type: notify.EventMarkCreated, MarkID: saved.ID, Owner: userID})
	return saved, nil
}

// UpdateMark applies in to userID's mark with the given id. Tags are
// deduplicated and registered before the write so every name on the mark
// exists in the registry even when newly introduced. Returns
// store.ErrNotFound when no row matched.
func (s *Service) UpdateMark(ctx context.Context, userID, id string, in UpdateMarkInput) (*store.Mark, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}

	tags := normalizeTags(in.Tags)
	for _, name := range tags {
		if _, err := s.tags.ResolveOrCreate(ctx, userID, name); err != nil {
			return nil, fmt.Errorf("resolve tag %q: %w", name, err)
		}
	}

	n, err := s.marks.Update(ctx, userID, id, store.MarkPatch{
		Title: in.Title,
		Text:  in.Text,
		Tags:  tags,
	})
	if err != nil {
		return nil, fmt.Errorf("update mark: %w", err)
	}
	if n == 0 {
		return nil, store.ErrNotFound
	}

	metrics.MarksUpdatedTotal.Inc()
	s.events.Publish(notify.Event{Type: notify.EventMarkUpdated, MarkID: id, Owner: userID})
	return s.marks.GetByID(ctx, userID, id)
}

// DeleteMark removes userID's mark with the given id and reclaims its
// bookmark if that was the last mark referencing it. Reclaim failure is
// logged, never propagated: the mark deletion already succeeded and is not
// undone, and the leftover bookmark is inert until a later delete retries.
func (s *Service) DeleteMark(ctx context.Context, userID, id string) (int64, error) {
	if userID == "" {
		return 0, ErrNotAuthenticated
	}

	// Fetched before deletion: the bookmark reference is needed afterwards.
	mark, err := s.marks.GetByID(ctx, userID, id)
	if err != nil {
		return 0, err
	}

	n, err := s.marks.Delete(ctx, userID, id)
	if err != nil {
		return 0, fmt.Errorf("delete mark: %w", err)
	}

	if err := s.reclaimBookmark(ctx, userID, mark.BookmarkID); err != nil {
		metrics.ReclaimErrorsTotal.Inc()
		s.logger.Error("reclaim bookmark after mark deletion",
			"user", userID, "bookmark", mark.BookmarkID, "error", err)
	}

	metrics.MarksDeletedTotal.Inc()
	s.events.Publish(notify.Event{Type: notify.EventMarkDeleted, MarkID: id, Owner: userID})
	return n, nil
}

// reclaimBookmark deletes the bookmark iff it has zero remaining marks and
// is not starred. The mark count is always re-read; two concurrent deletes
// of sibling marks can each still see the other's mark and both skip the
// reclaim, which is tolerated — the bookmark is harmless and the next
// deletion on it re-evaluates from scratch.
func (s *Service) reclaimBookmark(ctx context.Context, userID, bookmarkID string) error {
	n, err := s.marks.CountByBookmark(ctx, userID, bookmarkID)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	bookmark, err := s.bookmarks.GetByID(ctx, userID, bookmarkID)
	if errors.Is(err, store.ErrNotFound) {
		// Already reclaimed by a concurrent delete.
		return nil
	}
	if err != nil {
		return err
	}
	if bookmark.Starred {
		return nil
	}

	if _, err := s.bookmarks.Delete(ctx, userID, bookmarkID); err != nil {
		return err
	}
	metrics.BookmarksReclaimedTotal.Inc()
	return nil
}

// validateURL accepts absolute http(s) URLs only.
func validateURL(raw string) error {
	if raw == "" {
		return ErrInvalidURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ErrInvalidURL
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidURL
	}
	return nil
}

// normalizeTags trims, drops empties, and deduplicates while preserving the
// caller's order of first appearance.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
