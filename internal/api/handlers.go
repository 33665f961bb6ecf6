package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/laguz/internal/apperr"
)

// Handler holds API route handlers.
type Handler struct {
	hub Hub
}

// NewHandler creates a new Handler.
func NewHandler(hub Hub) *Handler {
	return &Handler{hub: hub}
}

// sessionName extracts and validates the session id from the URL.
func sessionName(r *http.Request) (string, error) {
	name := chi.URLParam(r, "session")
	if err := validation.Validate(name,
		validation.Required,
		validation.Length(1, 128),
	); err != nil {
		return "", err
	}
	return name, nil
}

// Join handles GET /ws/{session}.
//
//	@Summary		Join a canvas session over websocket
//	@Tags			sessions
//	@Param			session	path	string	true	"Session name"
//	@Success		101		"Switching protocols"
//	@Failure		400		{object}	errResponse
//	@Router			/ws/{session} [get]
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	name, err := sessionName(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid session name"))
		return
	}
	if err := h.hub.ServeWS(w, r, name); err != nil {
		// Handshake failures are client-side; the response is already written.
		slog.Warn("join failed",
			slog.String("session", name),
			slog.String("error", err.Error()))
	}
}

// ListSessions handles GET /api/sessions.
//
//	@Summary		List live sessions with sizes
//	@Tags			sessions
//	@Produce		json
//	@Success		200	{object}	SessionListResponse
//	@Router			/sessions [get]
func (h *Handler) ListSessions(w http.ResponseWriter, _ *http.Request) {
	ids := h.hub.Sessions()
	sessions := make([]SessionSummary, 0, len(ids))
	for _, id := range ids {
		stats, err := h.hub.Stats(id)
		if err != nil {
			// Disposed between listing and lookup; skip it.
			continue
		}
		sessions = append(sessions, SessionSummary{
			ID:           id,
			Participants: stats.Participants,
			Lines:        stats.Lines,
			Checksum:     stats.Checksum,
		})
	}
	writeJSON(w, http.StatusOK, SessionListResponse{Sessions: sessions})
}

// SessionStats handles GET /api/sessions/{session}.
//
//	@Summary		Get participant and line counts plus a content checksum for one session
//	@Tags			sessions
//	@Produce		json
//	@Param			session	path		string	true	"Session name"
//	@Success		200		{object}	SessionSummary
//	@Failure		404		{object}	errResponse
//	@Router			/sessions/{session} [get]
func (h *Handler) SessionStats(w http.ResponseWriter, r *http.Request) {
	name, err := sessionName(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid session name"))
		return
	}
	stats, err := h.hub.Stats(name)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("session stats failed", slog.String("session", name), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, SessionSummary{
		ID:           name,
		Participants: stats.Participants,
		Lines:        stats.Lines,
		Checksum:     stats.Checksum,
	})
}

// SessionSnapshot handles GET /api/sessions/{session}/snapshot.
//
//	@Summary		Get the full canvas state of one session
//	@Tags			sessions
//	@Produce		json
//	@Param			session	path		string	true	"Session name"
//	@Success		200		{object}	SessionSnapshotResponse
//	@Failure		404		{object}	errResponse
//	@Router			/sessions/{session}/snapshot [get]
func (h *Handler) SessionSnapshot(w http.ResponseWriter, r *http.Request) {
	name, err := sessionName(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid session name"))
		return
	}
	snap, err := h.hub.Snapshot(name)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("session snapshot failed", slog.String("session", name), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, SessionSnapshotResponse{ID: name, Room: snap})
}
