package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with the read-only session API mounted.
// The websocket join endpoint lives outside this router, at /ws/{session};
// wire it with WS.
func NewRouter(hub Hub) chi.Router {
	h := NewHandler(hub)

	r := chi.NewRouter()

	r.Get("/sessions", h.ListSessions)
	r.Get("/sessions/{session}", h.SessionStats)
	r.Get("/sessions/{session}/snapshot", h.SessionSnapshot)

	return r
}

// WS returns the websocket join handler for GET /ws/{session}.
func WS(hub Hub) http.HandlerFunc {
	return NewHandler(hub).Join
}
