package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marqlab/marq/internal/auth"
	"github.com/marqlab/marq/internal/marks"
	"github.com/marqlab/marq/internal/store"
)

// bookmarksAPIHandler provides read and star/unstar handlers for bookmarks.
// Bookmarks are never created or deleted here — their lifecycle belongs to
// the marks service.
type bookmarksAPIHandler struct {
	marks *marks.Service
}

func registerBookmarkRoutes(r chi.Router, svc *marks.Service) {
	h := &bookmarksAPIHandler{marks: svc}
	r.Get("/bookmarks", h.List)
	r.Get("/bookmarks/{id}", h.Get)
	r.Get("/bookmarks/{id}/marks", h.ListMarks)
	r.Put("/bookmarks/{id}/star", h.Star)
	r.Delete("/bookmarks/{id}/star", h.Unstar)
}

// List returns all of the caller's bookmarks.
// GET /api/v1/bookmarks
func (h *bookmarksAPIHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserFromContext(r.Context())

	bookmarks, err := h.marks.GetBookmarksForUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}

	resp := &BookmarkListResponse{Bookmarks: make([]*BookmarkResponse, 0, len(bookmarks))}
	for _, b := range bookmarks {
		resp.Bookmarks = append(resp.Bookmarks, toBookmarkResponse(b))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single bookmark by id.
// GET /api/v1/bookmarks/{id}
func (h *bookmarksAPIHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserFromContext(r.Context())

	bookmark, err := h.marks.FindBookmarkByID(r.Context(), userID, chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "bookmark not found", "NOT_FOUND")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}

	writeJSON(w, http.StatusOK, toBookmarkResponse(bookmark))
}

// ListMarks returns the marks referencing a bookmark.
// GET /api/v1/bookmarks/{id}/marks
func (h *bookmarksAPIHandler) ListMarks(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserFromContext(r.Context())

	result, err := h.marks.GetMarksForBookmark(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}

	writeJSON(w, http.StatusOK, toMarkListResponse(result))
}

// Star pins a bookmark so it survives having zero marks.
// PUT /api/v1/bookmarks/{id}/star
func (h *bookmarksAPIHandler) Star(w http.ResponseWriter, r *http.Request) {
	h.setStarred(w, r, true)
}

// Unstar removes the pin. The bookmark is not reclaimed immediately; the
// next mark deletion on it re-evaluates.
// DELETE /api/v1/bookmarks/{id}/star
func (h *bookmarksAPIHandler) Unstar(w http.ResponseWriter, r *http.Request) {
	h.setStarred(w, r, false)
}

func (h *bookmarksAPIHandler) setStarred(w http.ResponseWriter, r *http.Request, starred bool) {
	userID := auth.UserFromContext(r.Context())

	bookmark, err := h.marks.SetBookmarkStarred(r.Context(), userID, chi.URLParam(r, "id"), starred)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "bookmark not found", "NOT_FOUND")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}

	writeJSON(w, http.StatusOK, toBookmarkResponse(bookmark))
}
