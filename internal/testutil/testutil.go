// Package testutil provides shared test helpers for booting session servers.
package testutil

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/starford/laguz/internal/api"
	"github.com/starford/laguz/internal/hub"
)

// Server is a full session authority on an ephemeral port.
type Server struct {
	*httptest.Server
	Registry *hub.Registry
}

// StartServer boots the websocket and REST surface over a fresh registry,
// wired the way the application entrypoint wires it, and tears everything
// down with the test. The registry is closed before the listener so hijacked
// websocket connections unwind first.
func StartServer(t *testing.T, opts ...hub.RegistryOption) *Server {
	t.Helper()
	reg := hub.NewRegistry(opts...)
	r := chi.NewRouter()
	r.Get("/ws/{session}", api.WS(reg))
	r.Mount("/api", api.NewRouter(reg))
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		reg.Close()
		srv.Close()
	})
	return &Server{Server: srv, Registry: reg}
}

// WSURL returns the websocket endpoint for a named session.
func (s *Server) WSURL(session string) string {
	return "ws" + strings.TrimPrefix(s.URL, "http") + "/ws/" + session
}
