package api_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/marqlab/marq/internal/api"
	"github.com/marqlab/marq/internal/auth"
	"github.com/marqlab/marq/internal/marks"
	"github.com/marqlab/marq/internal/notify"
	"github.com/marqlab/marq/internal/store"
	"github.com/marqlab/marq/internal/testutil"
)

const testSecret = "test-secret"

// testEnv holds the router and backing stores for API integration tests.
type testEnv struct {
	Router    http.Handler
	Marks     *marks.Service
	Bookmarks *store.BookmarkStore
	Hub       *notify.Hub
}

// newTestEnv creates an in-memory SQLite test database, runs migrations,
// and wires up the full API router with real stores.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)

	markStore := store.NewMarkStore(db)
	bookmarkStore := store.NewBookmarkStore(db)
	tagStore := store.NewTagStore(db)
	hub := notify.NewHub(16, nil)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := marks.NewService(markStore, bookmarkStore, tagStore, hub, logger)

	router := api.NewAPIRouter(api.Deps{
		AuthMiddleware: auth.NewMiddleware(auth.NewVerifier(testSecret)),
		Marks:          svc,
		Events:         hub,
	})
	return &testEnv{Router: router, Marks: svc, Bookmarks: bookmarkStore, Hub: hub}
}

// doJSON performs an authenticated JSON request against the test router and
// decodes the response body into out when non-nil.
func doJSON(t *testing.T, env *testEnv, userID, method, path, body string, out any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if userID != "" {
		token, err := auth.SignToken(testSecret, userID, time.Hour)
		if err != nil {
			t.Fatalf("sign token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)

	if out != nil && rec.Code < 300 {
		if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return rec
}
