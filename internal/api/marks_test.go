package api_test

import (
	"fmt"
	"net/http"
	"reflect"
	"testing"

	"github.com/marqlab/marq/internal/api"
)

func TestMarksAPI_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(t, env, "", http.MethodGet, "/marks", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestMarksAPI_CreateAndGet(t *testing.T) {
	env := newTestEnv(t)

	var created api.MarkResponse
	rec := doJSON(t, env, "user-1", http.MethodPost, "/marks",
		`{"url":"https://example.com","title":"Example","text":"quote","tags":["work","work","read"]}`,
		&created)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if created.BookmarkID == "" {
		t.Error("expected bookmark reference")
	}
	// Tag names come back sorted, deduplicated.
	if !reflect.DeepEqual(created.Tags, []string{"read", "work"}) {
		t.Errorf("tags = %v, want [read work]", created.Tags)
	}

	var got api.MarkResponse
	rec = doJSON(t, env, "user-1", http.MethodGet, "/marks/"+created.ID, "", &got)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got.ID != created.ID || got.URL != "https://example.com" {
		t.Errorf("got = %+v", got)
	}
}

func TestMarksAPI_Create_InvalidURL(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(t, env, "user-1", http.MethodPost, "/marks", `{"url":""}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestMarksAPI_ListFilters(t *testing.T) {
	env := newTestEnv(t)

	var m1, m2 api.MarkResponse
	doJSON(t, env, "user-1", http.MethodPost, "/marks", `{"url":"https://a.example"}`, &m1)
	doJSON(t, env, "user-1", http.MethodPost, "/marks", `{"url":"https://b.example"}`, &m2)

	var all api.MarkListResponse
	rec := doJSON(t, env, "user-1", http.MethodGet, "/marks", "", &all)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(all.Marks) != 2 {
		t.Errorf("all marks = %d, want 2", len(all.Marks))
	}

	var byURL api.MarkListResponse
	doJSON(t, env, "user-1", http.MethodGet, "/marks?url=https%3A%2F%2Fa.example", "", &byURL)
	if len(byURL.Marks) != 1 || byURL.Marks[0].ID != m1.ID {
		t.Errorf("byURL = %+v, want only mark on a.example", byURL.Marks)
	}

	var byBookmark api.MarkListResponse
	doJSON(t, env, "user-1", http.MethodGet, "/marks?bookmark="+m2.BookmarkID, "", &byBookmark)
	if len(byBookmark.Marks) != 1 || byBookmark.Marks[0].ID != m2.ID {
		t.Errorf("byBookmark = %+v, want only mark on b.example", byBookmark.Marks)
	}

	// Another user sees nothing.
	var foreign api.MarkListResponse
	doJSON(t, env, "user-2", http.MethodGet, "/marks", "", &foreign)
	if len(foreign.Marks) != 0 {
		t.Errorf("foreign marks = %d, want 0", len(foreign.Marks))
	}
}

func TestMarksAPI_Update(t *testing.T) {
	env := newTestEnv(t)

	var created api.MarkResponse
	doJSON(t, env, "user-1", http.MethodPost, "/marks", `{"url":"https://example.com"}`, &created)

	var updated api.MarkResponse
	rec := doJSON(t, env, "user-1", http.MethodPut, "/marks/"+created.ID,
		`{"title":"renamed","tags":["x"]}`, &updated)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if updated.Title != "renamed" || !reflect.DeepEqual(updated.Tags, []string{"x"}) {
		t.Errorf("updated = %+v", updated)
	}

	rec = doJSON(t, env, "user-1", http.MethodPut, "/marks/missing", `{"title":"x"}`, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestMarksAPI_DeleteReclaimsBookmark(t *testing.T) {
	env := newTestEnv(t)

	var created api.MarkResponse
	doJSON(t, env, "user-1", http.MethodPost, "/marks", `{"url":"https://example.com"}`, &created)

	var deleted api.DeleteMarkResponse
	rec := doJSON(t, env, "user-1", http.MethodDelete, "/marks/"+created.ID, "", &deleted)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if deleted.Deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted.Deleted)
	}

	rec = doJSON(t, env, "user-1", http.MethodGet, "/bookmarks/"+created.BookmarkID, "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("bookmark status = %d, want 404 after reclaim", rec.Code)
	}

	rec = doJSON(t, env, "user-1", http.MethodDelete, "/marks/"+created.ID, "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestMarksAPI_CrossUserIsolation(t *testing.T) {
	env := newTestEnv(t)

	var created api.MarkResponse
	doJSON(t, env, "user-1", http.MethodPost, "/marks", `{"url":"https://example.com"}`, &created)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/marks/" + created.ID},
		{http.MethodPut, "/marks/" + created.ID},
		{http.MethodDelete, "/marks/" + created.ID},
	} {
		body := ""
		if tc.method == http.MethodPut {
			body = `{"title":"x"}`
		}
		rec := doJSON(t, env, "user-2", tc.method, tc.path, body, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s as user-2: status = %d, want 404", tc.method, tc.path, rec.Code)
		}
	}
}

func TestMarksAPI_TagsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	for i, tags := range []string{`["work"]`, `["work","read"]`} {
		body := fmt.Sprintf(`{"url":"https://example.com/%d","tags":%s}`, i, tags)
		rec := doJSON(t, env, "user-1", http.MethodPost, "/marks", body, nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create %d: status = %d", i, rec.Code)
		}
	}

	var resp api.TagListResponse
	rec := doJSON(t, env, "user-1", http.MethodGet, "/tags", "", &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(resp.Tags) != 2 {
		t.Fatalf("tags = %d, want 2", len(resp.Tags))
	}
	if resp.Tags[0].Name != "read" || resp.Tags[1].Name != "work" {
		t.Errorf("tags = %+v, want [read work]", resp.Tags)
	}
}
