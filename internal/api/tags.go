package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marqlab/marq/internal/auth"
	"github.com/marqlab/marq/internal/marks"
)

// tagsAPIHandler serves the caller's tag vocabulary.
type tagsAPIHandler struct {
	marks *marks.Service
}

func registerTagRoutes(r chi.Router, svc *marks.Service) {
	h := &tagsAPIHandler{marks: svc}
	r.Get("/tags", h.List)
}

// List returns every tag the caller has ever used, ordered by name.
// GET /api/v1/tags
func (h *tagsAPIHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserFromContext(r.Context())

	tags, err := h.marks.GetTagsForUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}

	resp := &TagListResponse{Tags: make([]*TagResponse, 0, len(tags))}
	for _, t := range tags {
		resp.Tags = append(resp.Tags, &TagResponse{Name: t.Name, CreatedAt: t.CreatedAt})
	}
	writeJSON(w, http.StatusOK, resp)
}
