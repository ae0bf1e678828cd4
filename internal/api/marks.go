package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marqlab/marq/internal/auth"
	"github.com/marqlab/marq/internal/marks"
	"github.com/marqlab/marq/internal/store"
)

// marksAPIHandler provides REST handlers for mark management.
type marksAPIHandler struct {
	marks *marks.Service
}

func registerMarkRoutes(r chi.Router, svc *marks.Service) {
	h := &marksAPIHandler{marks: svc}
	r.Get("/marks", h.List)
	r.Post("/marks", h.Create)
	r.Get("/marks/{id}", h.Get)
	r.Put("/marks/{id}", h.Update)
	r.Delete("/marks/{id}", h.Delete)
}

// List returns the caller's marks, optionally filtered by url or bookmark.
// GET /api/v1/marks?url=…&bookmark=…
//
// @Summary      List marks
// @Description  Returns marks owned by the caller, optionally filtered by url or bookmark id.
// @Tags         Marks
// @Produce      json
// @Param        url       query     string  false  "Filter by exact URL"
// @Param        bookmark  query     string  false  "Filter by bookmark id"
// @Success      200  {object}  MarkListResponse
// @Security     BearerToken
// @Router       /marks [get]
func (h *marksAPIHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserFromContext(r.Context())

	var (
		result []*store.Mark
		err    error
	)
	switch {
	case r.URL.Query().Get("url") != "":
		result, err = h.marks.GetMarksForURL(r.Context(), userID, r.URL.Query().Get("url"))
	case r.URL.Query().Get("bookmark") != "":
		result, err = h.marks.GetMarksForBookmark(r.Context(), userID, r.URL.Query().Get("bookmark"))
	default:
		result, err = h.marks.GetMarksForUser(r.Context(), userID)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}

	writeJSON(w, http.StatusOK, toMarkListResponse(result))
}

// Create persists a new mark, lazily creating its bookmark and tags.
// POST /api/v1/marks
//
// @Summary      Create a mark
// @Description  Creates a mark; the bookmark for its URL and any new tags are created as needed.
// @Tags         Marks
// @Accept       json
// @Produce      json
// @Param        body  body      CreateMarkRequest  true  "Mark to create"
// @Success      201   {object}  MarkResponse
// @Security     BearerToken
// @Router       /marks [post]
func (h *marksAPIHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserFromContext(r.Context())

	var req CreateMarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}

	mark, err := h.marks.CreateMark(r.Context(), userID, marks.CreateMarkInput{
		ID:     req.ID,
		URL:    req.URL,
		Title:  req.Title,
		Origin: req.Origin,
		Text:   req.Text,
		Tags:   req.Tags,
	})
	if err != nil {
		switch {
		case errors.Is(err, marks.ErrInvalidURL):
			writeError(w, http.StatusBadRequest, err.Error(), "INVALID_URL")
		case errors.Is(err, marks.ErrNotAuthenticated):
			writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		default:
			writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		}
		return
	}

	writeJSON(w, http.StatusCreated, toMarkResponse(mark))
}

// Get returns a single mark by id.
// GET /api/v1/marks/{id}
func (h *marksAPIHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserFromContext(r.Context())

	mark, err := h.marks.FindMarkByID(r.Context(), userID, chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "mark not found", "NOT_FOUND")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}

	writeJSON(w, http.StatusOK, toMarkResponse(mark))
}

// Update modifies a mark's title, text, and tag set.
// PUT /api/v1/marks/{id}
//
// @Summary      Update a mark
// @Tags         Marks
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "Mark id"
// @Param        body  body      UpdateMarkRequest  true  "Fields to update"
// @Success      200   {object}  MarkResponse
// @Security     BearerToken
// @Router       /marks/{id} [put]
func (h *marksAPIHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserFromContext(r.Context())

	var req UpdateMarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}

	mark, err := h.marks.UpdateMark(r.Context(), userID, chi.URLParam(r, "id"), marks.UpdateMarkInput{
		Title: req.Title,
		Text:  req.Text,
		Tags:  req.Tags,
	})
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "mark not found", "NOT_FOUND")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}

	writeJSON(w, http.StatusOK, toMarkResponse(mark))
}

// Delete removes a mark; the owning bookmark is reclaimed when this was its
// last mark and it is not starred.
// DELETE /api/v1/marks/{id}
func (h *marksAPIHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserFromContext(r.Context())

	n, err := h.marks.DeleteMark(r.Context(), userID, chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "mark not found", "NOT_FOUND")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}

	writeJSON(w, http.StatusOK, DeleteMarkResponse{Deleted: n})
}
