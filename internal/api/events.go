package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marqlab/marq/internal/auth"
	"github.com/marqlab/marq/internal/notify"
)

// eventsAPIHandler streams mark lifecycle events over Server-Sent Events.
type eventsAPIHandler struct {
	hub *notify.Hub
}

func registerEventRoutes(r chi.Router, hub *notify.Hub) {
	h := &eventsAPIHandler{hub: hub}
	r.Get("/events", h.Stream)
}

// Stream sends the caller's own mark.created/updated/deleted events as SSE
// until the client disconnects. Events for other users are filtered out;
// cross-user visibility is never permitted, notifications included.
// GET /api/v1/events
func (h *eventsAPIHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserFromContext(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported", "INTERNAL_ERROR")
		return
	}

	events, cancel := h.hub.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case e, open := <-events:
			if !open {
				return
			}
			if e.Owner != userID {
				continue
			}
			data, err := json.Marshal(e)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, data)
			flusher.Flush()
		}
	}
}
