// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes read-only canvas session tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/laguz/internal/hub"
	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/protocol"
)

// SessionSource is the slice of the session registry the MCP tools read.
type SessionSource interface {
	Sessions() []string
	Stats(sessionID string) (hub.Stats, error)
	Snapshot(sessionID string) (protocol.RoomSnapshot, error)
}

var _ SessionSource = (*hub.Registry)(nil)

// Server wraps the MCP server with Laguz tools.
type Server struct {
	mcp *server.MCPServer
	src SessionSource
}

// New creates a new MCP server with all Laguz tools registered.
func New(src SessionSource) *Server {
	s := &Server{src: src}

	s.mcp = server.NewMCPServer(
		"Laguz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List the names of all live canvas sessions."),
	), s.listSessions)

	s.mcp.AddTool(mcp.NewTool("session_stats",
		mcp.WithDescription("Get participant and line counts plus a canvas content checksum for one session."),
		mcp.WithString("session", mcp.Required(), mcp.Description("Session name")),
	), s.sessionStats)

	s.mcp.AddTool(mcp.NewTool("session_snapshot",
		mcp.WithDescription("Get the full canvas state of a session as JSON: "+
			"the roster with assigned styles plus every line with its glyphs. "+
			"Read the laguz://wire-format resource to interpret the shapes."),
		mcp.WithString("session", mcp.Required(), mcp.Description("Session name")),
	), s.sessionSnapshot)

	s.mcp.AddTool(mcp.NewTool("read_canvas",
		mcp.WithDescription("Read the text content of a session's canvas, one "+
			"canvas line per text line, in top-to-bottom reading order."),
		mcp.WithString("session", mcp.Required(), mcp.Description("Session name")),
	), s.readCanvas)

	// Resource: websocket wire format.
	s.mcp.AddResource(
		mcp.NewResource("laguz://wire-format", "Canvas Wire Format",
			mcp.WithResourceDescription("Websocket message shapes and coordinate model for canvas sessions."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readWireFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := s.src.Sessions()
	if len(ids) == 0 {
		return mcp.NewToolResultText("no live sessions"), nil
	}
	return mcp.NewToolResultText(strings.Join(ids, "\n")), nil
}

func (s *Server) sessionStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("session")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	stats, err := s.src.Stats(name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", name)), nil
	}
	out, _ := json.MarshalIndent(map[string]any{
		"id":           name,
		"participants": stats.Participants,
		"lines":        stats.Lines,
		"checksum":     stats.Checksum,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) sessionSnapshot(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("session")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	snap, err := s.src.Snapshot(name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", name)), nil
	}
	out, _ := json.MarshalIndent(snap, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readCanvas(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("session")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	snap, err := s.src.Snapshot(name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", name)), nil
	}
	if len(snap.Lines) == 0 {
		return mcp.NewToolResultText("canvas is empty"), nil
	}
	return mcp.NewToolResultText(transcript(snap.Lines)), nil
}

func (s *Server) readWireFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "laguz://wire-format",
			MIMEType: "text/markdown",
			Text:     WireFormatContract,
		},
	}, nil
}

// transcript renders lines in reading order: top to bottom, then left to
// right for lines starting at the same height.
func transcript(lines []models.Line) string {
	ordered := make([]models.Line, len(lines))
	copy(ordered, lines)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Y != ordered[j].Y {
			return ordered[i].Y < ordered[j].Y
		}
		return ordered[i].X < ordered[j].X
	})

	texts := make([]string, len(ordered))
	for i, l := range ordered {
		texts[i] = l.Text()
	}
	return strings.Join(texts, "\n")
}
