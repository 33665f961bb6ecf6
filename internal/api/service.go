package api

import (
	"net/http"

	"github.com/starford/laguz/internal/hub"
	"github.com/starford/laguz/internal/protocol"
)

// Hub is the session registry surface the API layer consumes: websocket
// joins plus read-only introspection of live sessions.
type Hub interface {
	ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) error
	Sessions() []string
	Stats(sessionID string) (hub.Stats, error)
	Snapshot(sessionID string) (protocol.RoomSnapshot, error)
}

var _ Hub = (*hub.Registry)(nil)
