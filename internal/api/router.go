package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marqlab/marq/internal/auth"
	"github.com/marqlab/marq/internal/marks"
	"github.com/marqlab/marq/internal/notify"
)

// Deps holds all dependencies required to build the API router.
type Deps struct {
	AuthMiddleware *auth.Middleware
	Marks          *marks.Service
	Events         *notify.Hub
}

// NewAPIRouter creates a chi sub-router for /api/v1.
// All routes require Bearer token authentication and return application/json,
// except /events which streams text/event-stream.
func NewAPIRouter(deps Deps) chi.Router {
	r := chi.NewRouter()

	// All API responses are JSON; the SSE handler overrides the header
	// before the first flush.
	r.Use(jsonContentType)

	r.Use(deps.AuthMiddleware.RequireAuth)

	registerMarkRoutes(r, deps.Marks)
	registerBookmarkRoutes(r, deps.Marks)
	registerTagRoutes(r, deps.Marks)
	registerEventRoutes(r, deps.Events)

	return r
}

// jsonContentType is a middleware that sets Content-Type: application/json.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
