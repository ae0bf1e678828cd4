package api

import (
	"time"

	"github.com/marqlab/marq/internal/store"
)

// --- Mark types ---

// CreateMarkRequest is the request body for POST /api/v1/marks. ID is
// optional; extensions that generate mark ids offline may supply one.
type CreateMarkRequest struct {
	ID     string   `json:"id,omitempty"`
	URL    string   `json:"url"`
	Title  string   `json:"title,omitempty"`
	Origin string   `json:"origin,omitempty"`
	Text   string   `json:"text,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

// UpdateMarkRequest is the request body for PUT /api/v1/marks/{id}.
// The url is intentionally omitted (immutable).
type UpdateMarkRequest struct {
	Title string   `json:"title,omitempty"`
	Text  string   `json:"text,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

// MarkResponse is the JSON representation of a single mark.
type MarkResponse struct {
	ID         string    `json:"id"`
	BookmarkID string    `json:"bookmark_id"`
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	Origin     string    `json:"origin"`
	Text       string    `json:"text"`
	Tags       []string  `json:"tags"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// MarkListResponse is the response for mark list endpoints.
type MarkListResponse struct {
	Marks []*MarkResponse `json:"marks"`
}

// DeleteMarkResponse reports how many marks were removed (0 or 1).
type DeleteMarkResponse struct {
	Deleted int64 `json:"deleted"`
}

func toMarkResponse(m *store.Mark) *MarkResponse {
	return &MarkResponse{
		ID:         m.ID,
		BookmarkID: m.BookmarkID,
		URL:        m.URL,
		Title:      m.Title,
		Origin:     m.Origin,
		Text:       m.Text,
		Tags:       m.Tags,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func toMarkListResponse(marks []*store.Mark) *MarkListResponse {
	resp := &MarkListResponse{Marks: make([]*MarkResponse, 0, len(marks))}
	for _, m := range marks {
		resp.Marks = append(resp.Marks, toMarkResponse(m))
	}
	return resp
}

// --- Bookmark types ---

// BookmarkResponse is the JSON representation of a bookmark.
type BookmarkResponse struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Starred   bool      `json:"starred"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BookmarkListResponse is the response for bookmark list endpoints.
type BookmarkListResponse struct {
	Bookmarks []*BookmarkResponse `json:"bookmarks"`
}

func toBookmarkResponse(b *store.Bookmark) *BookmarkResponse {
	return &BookmarkResponse{
		ID:        b.ID,
		URL:       b.URL,
		Title:     b.Title,
		Starred:   b.Starred,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

// --- Tag types ---

// TagResponse is the JSON representation of a tag.
type TagResponse struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// TagListResponse is the response for GET /api/v1/tags.
type TagListResponse struct {
	Tags []*TagResponse `json:"tags"`
}
