package marks_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"

	"github.com/marqlab/marq/internal/marks"
	"github.com/marqlab/marq/internal/notify"
	"github.com/marqlab/marq/internal/store"
	"github.com/marqlab/marq/internal/testutil"
)

// capturePublisher records published events for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (p *capturePublisher) Publish(e notify.Event) {
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
}

func (p *capturePublisher) all() []notify.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]notify.Event{}, p.events...)
}

type testEnv struct {
	svc       *marks.Service
	marks     *store.MarkStore
	bookmarks *store.BookmarkStore
	tags      *store.TagStore
	events    *capturePublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)

	env := &testEnv{
		marks:     store.NewMarkStore(db),
		bookmarks: store.NewBookmarkStore(db),
		tags:      store.NewTagStore(db),
		events:    &capturePublisher{},
	}
	env.svc = marks.NewService(env.marks, env.bookmarks, env.tags, env.events, discardLogger())
	return env
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCreateMark_CreatesBookmarkAndTags(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	mark, err := env.svc.CreateMark(ctx, "user-1", marks.CreateMarkInput{
		URL:  "http://x",
		Tags: []string{"work"},
	})
	if err != nil {
		t.Fatalf("CreateMark: %v", err)
	}
	if mark.OwnerID != "user-1" {
		t.Errorf("owner = %q, want user-1", mark.OwnerID)
	}
	if mark.BookmarkID == "" {
		t.Fatal("expected bookmark reference")
	}

	bookmark, err := env.bookmarks.GetByID(ctx, "user-1", mark.BookmarkID)
	if err != nil {
		t.Fatalf("bookmark not created: %v", err)
	}
	if bookmark.URL != "http://x" {
		t.Errorf("bookmark url = %q, want http://x", bookmark.URL)
	}
	if bookmark.Starred {
		t.Error("lazily created bookmark must not be starred")
	}

	tags, err := env.tags.ListByOwner(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(tags) != 1 || tags[0].Name != "work" {
		t.Errorf("tags = %+v, want single tag %q", tags, "work")
	}
}

func TestCreateMark_ReusesExistingBookmark(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m1, err := env.svc.CreateMark(ctx, "user-1", marks.CreateMarkInput{URL: "https://example.com"})
	if err != nil {
		t.Fatalf("CreateMark first: %v", err)
	}
	m2, err := env.svc.CreateMark(ctx, "user-1", marks.CreateMarkInput{URL: "https://example.com"})
	if err != nil {
		t.Fatalf("CreateMark second: %v", err)
	}

	if m1.BookmarkID != m2.BookmarkID {
		t.Errorf("bookmark IDs differ: %q vs %q", m1.BookmarkID, m2.BookmarkID)
	}

	bookmarks, err := env.bookmarks.ListByOwner(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(bookmarks) != 1 {
		t.Errorf("len = %d, want 1", len(bookmarks))
	}
}

func TestCreateMark_Concurrent_OneBookmark(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := env.svc.CreateMark(ctx, "user-1", marks.CreateMarkInput{
				URL:  "https://example.com/hot",
				Tags: []string{"shared", fmt.Sprintf("tag-%d", i)},
			})
			if err != nil {
				t.Errorf("CreateMark: %v", err)
			}
		}(i)
	}
	wg.Wait()

	bookmarks, err := env.bookmarks.ListByOwner(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(bookmarks) != 1 {
		t.Fatalf("bookmarks = %d, want exactly 1", len(bookmarks))
	}

	// "shared" was resolved by all goroutines but must exist once.
	tags, err := env.tags.ListByOwner(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListByOwner tags: %v", err)
	}
	count := 0
	for _, tag := range tags {
		if tag.Name == "shared" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("%d records for tag %q, want 1", count, "shared")
	}
}

func TestCreateMark_DeduplicatesTags(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	mark, err := env.svc.CreateMark(ctx, "user-1", marks.CreateMarkInput{
		URL:  "https://example.com",
		Tags: []string{"a", "a", "b"},
	})
	if err != nil {
		t.Fatalf("CreateMark: %v", err)
	}
	if !reflect.DeepEqual(mark.Tags, []string{"a", "b"}) {
		t.Errorf("tags = %v, want [a b]", mark.Tags)
	}

	tags, err := env.tags.ListByOwner(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(tags) != 2 {
		t.Errorf("tag records = %d, want 2", len(tags))
	}
}

func TestCreateMark_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.CreateMark(ctx, "", marks.CreateMarkInput{URL: "https://example.com"}); !errors.Is(err, marks.ErrNotAuthenticated) {
		t.Errorf("empty user = %v, want ErrNotAuthenticated", err)
	}

	for _, url := range []string{"", "not a url", "ftp://example.com", "/relative/path"} {
		if _, err := env.svc.CreateMark(ctx, "user-1", marks.CreateMarkInput{URL: url}); !errors.Is(err, marks.ErrInvalidURL) {
			t.Errorf("url %q = %v, want ErrInvalidURL", url, err)
		}
	}

	// Nothing was persisted by the rejected calls.
	bookmarks, err := env.bookmarks.ListByOwner(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(bookmarks) != 0 {
		t.Errorf("bookmarks = %d, want 0", len(bookmarks))
	}
}

func TestUpdateMark_NormalizesAndRegistersTags(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	mark, err := env.svc.CreateMark(ctx, "user-1", marks.CreateMarkInput{URL: "https://example.com"})
	if err != nil {
		t.Fatalf("CreateMark: %v", err)
	}

	updated, err := env.svc.UpdateMark(ctx, "user-1", mark.ID, marks.UpdateMarkInput{
		Tags: []string{"new", "new", " new ", "other"},
	})
	if err != nil {
		t.Fatalf("UpdateMark: %v", err)
	}
	if !reflect.DeepEqual(updated.Tags, []string{"new", "other"}) {
		t.Errorf("tags = %v, want [new other]", updated.Tags)
	}

	tags, err := env.tags.ListByOwner(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(tags) != 2 {
		t.Errorf("tag records = %d, want 2 (new, other)", len(tags))
	}
}

func TestUpdateMark_NotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.UpdateMark(ctx, "user-1", "missing", marks.UpdateMarkInput{Title: "x"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("UpdateMark = %v, want ErrNotFound", err)
	}

	// A foreign mark is invisible to the caller.
	mark, err := env.svc.CreateMark(ctx, "user-2", marks.CreateMarkInput{URL: "https://example.com"})
	if err != nil {
		t.Fatalf("CreateMark: %v", err)
	}
	if _, err := env.svc.UpdateMark(ctx, "user-1", mark.ID, marks.UpdateMarkInput{Title: "x"}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("cross-owner UpdateMark = %v, want ErrNotFound", err)
	}
	got, err := env.marks.GetByID(ctx, "user-2", mark.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title != "" {
		t.Errorf("foreign mark was mutated: title = %q", got.Title)
	}
}

func TestDeleteMark_ReclaimsOrphanedBookmark(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	mark, err := env.svc.CreateMark(ctx, "user-1", marks.CreateMarkInput{
		URL:  "http://x",
		Tags: []string{"work"},
	})
	if err != nil {
		t.Fatalf("CreateMark: %v", err)
	}

	n, err := env.svc.DeleteMark(ctx, "user-1", mark.ID)
	if err != nil {
		t.Fatalf("DeleteMark: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}

	if _, err := env.bookmarks.GetByID(ctx, "user-1", mark.BookmarkID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("bookmark survived orphaning: %v", err)
	}

	// Tags are never garbage collected.
	tags, err := env.tags.ListByOwner(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(tags) != 1 {
		t.Errorf("tag records = %d, want 1 (no GC)", len(tags))
	}
}

func TestDeleteMark_StarredBookmarkSurvives(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	mark, err := env.svc.CreateMark(ctx, "user-1", marks.CreateMarkInput{URL: "http://x"})
	if err != nil {
		t.Fatalf("CreateMark: %v", err)
	}
	if _, err := env.svc.SetBookmarkStarred(ctx, "user-1", mark.BookmarkID, true); err != nil {
		t.Fatalf("SetBookmarkStarred: %v", err)
	}

	if _, err := env.svc.DeleteMark(ctx, "user-1", mark.ID); err != nil {
		t.Fatalf("DeleteMark: %v", err)
	}

	bookmark, err := env.bookmarks.GetByID(ctx, "user-1", mark.BookmarkID)
	if err != nil {
		t.Fatalf("starred bookmark was reclaimed: %v", err)
	}
	if !bookmark.Starred {
		t.Error("expected starred = true")
	}

	n, err := env.marks.CountByBookmark(ctx, "user-1", mark.BookmarkID)
	if err != nil {
		t.Fatalf("CountByBookmark: %v", err)
	}
	if n != 0 {
		t.Errorf("marks remaining = %d, want 0", n)
	}
}

func TestDeleteMark_BookmarkKeptWhileReferenced(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m1, err := env.svc.CreateMark(ctx, "user-1", marks.CreateMarkInput{URL: "https://example.com"})
	if err != nil {
		t.Fatalf("CreateMark: %v", err)
	}
	m2, err := env.svc.CreateMark(ctx, "user-1", marks.CreateMarkInput{URL: "https://example.com"})
	if err != nil {
		t.Fatalf("CreateMark: %v", err)
	}

	if _, err := env.svc.DeleteMark(ctx, "user-1", m1.ID); err != nil {
		t.Fatalf("DeleteMark: %v", err)
	}
	if _, err := env.bookmarks.GetByID(ctx, "user-1", m1.BookmarkID); err != nil {
		t.Fatalf("bookmark reclaimed while still referenced: %v", err)
	}

	// Removing the last mark reclaims it.
	if _, err := env.svc.DeleteMark(ctx, "user-1", m2.ID); err != nil {
		t.Fatalf("DeleteMark: %v", err)
	}
	if _, err := env.bookmarks.GetByID(ctx, "user-1", m1.BookmarkID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("bookmark survived orphaning: %v", err)
	}
}

func TestDeleteMark_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.DeleteMark(context.Background(), "user-1", "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("DeleteMark = %v, want ErrNotFound", err)
	}
}

// failingBookmarkDeletes wraps a bookmark store so Delete always fails.
type failingBookmarkDeletes struct {
	store.BookmarkStoreIface
}

func (f *failingBookmarkDeletes) Delete(ctx context.Context, ownerID, id string) (int64, error) {
	return 0, errors.New("storage unavailable")
}

func TestDeleteMark_ReclaimFailureDoesNotUndoDeletion(t *testing.T) {
	db := testutil.NewTestDB(t)
	markStore := store.NewMarkStore(db)
	bookmarkStore := store.NewBookmarkStore(db)
	tagStore := store.NewTagStore(db)
	events := &capturePublisher{}
	svc := marks.NewService(markStore, &failingBookmarkDeletes{bookmarkStore}, tagStore, events, discardLogger())
	ctx := context.Background()

	mark, err := svc.CreateMark(ctx, "user-1", marks.CreateMarkInput{URL: "https://example.com"})
	if err != nil {
		t.Fatalf("CreateMark: %v", err)
	}

	n, err := svc.DeleteMark(ctx, "user-1", mark.ID)
	if err != nil {
		t.Fatalf("DeleteMark must not surface reclaim failure: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}

	// The mark is gone; the orphaned bookmark lingers until a later sweep.
	if _, err := markStore.GetByID(ctx, "user-1", mark.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("mark deletion was undone: %v", err)
	}
	if _, err := bookmarkStore.GetByID(ctx, "user-1", mark.BookmarkID); err != nil {
		t.Errorf("expected bookmark to linger, got %v", err)
	}
}

func TestLifecycleEvents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	mark, err := env.svc.CreateMark(ctx, "user-1", marks.CreateMarkInput{URL: "https://example.com"})
	if err != nil {
		t.Fatalf("CreateMark: %v", err)
	}
	if _, err := env.svc.UpdateMark(ctx, "user-1", mark.ID, marks.UpdateMarkInput{Title: "t"}); err != nil {
		t.Fatalf("UpdateMark: %v", err)
	}
	if _, err := env.svc.DeleteMark(ctx, "user-1", mark.ID); err != nil {
		t.Fatalf("DeleteMark: %v", err)
	}

	events := env.events.all()
	want := []string{notify.EventMarkCreated, notify.EventMarkUpdated, notify.EventMarkDeleted}
	if len(events) != len(want) {
		t.Fatalf("events = %d, want %d", len(events), len(want))
	}
	for i, e := range events {
		if e.Type != want[i] {
			t.Errorf("event %d = %q, want %q", i, e.Type, want[i])
		}
		if e.MarkID != mark.ID || e.Owner != "user-1" {
			t.Errorf("event %d = %+v, want mark %q owner user-1", i, e, mark.ID)
		}
	}
}

func TestReadPaths_ScopedByOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	mine, err := env.svc.CreateMark(ctx, "user-1", marks.CreateMarkInput{URL: "https://example.com"})
	if err != nil {
		t.Fatalf("CreateMark: %v", err)
	}
	if _, err := env.svc.CreateMark(ctx, "user-2", marks.CreateMarkInput{URL: "https://example.com"}); err != nil {
		t.Fatalf("CreateMark: %v", err)
	}

	result, err := env.svc.GetMarksForUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetMarksForUser: %v", err)
	}
	if len(result) != 1 || result[0].ID != mine.ID {
		t.Errorf("GetMarksForUser = %+v, want only own mark", result)
	}

	if _, err := env.svc.FindMarkByID(ctx, "user-2", mine.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("cross-owner FindMarkByID = %v, want ErrNotFound", err)
	}

	if _, err := env.svc.GetMarksForUser(ctx, ""); !errors.Is(err, marks.ErrNotAuthenticated) {
		t.Errorf("empty user = %v, want ErrNotAuthenticated", err)
	}
}
