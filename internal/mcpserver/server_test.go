package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/laguz/internal/checksum"
	"github.com/starford/laguz/internal/hub"
	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/protocol"
)

// fakeSource serves canned room state without a running registry.
type fakeSource struct {
	rooms map[string]protocol.RoomSnapshot
}

func (f *fakeSource) Sessions() []string {
	ids := make([]string, 0, len(f.rooms))
	for id := range f.rooms {
		ids = append(ids, id)
	}
	return ids
}

func (f *fakeSource) Stats(id string) (hub.Stats, error) {
	snap, ok := f.rooms[id]
	if !ok {
		return hub.Stats{}, fmt.Errorf("no such session %q", id)
	}
	return hub.Stats{
		Participants: len(snap.Participants),
		Lines:        len(snap.Lines),
		Checksum:     checksum.Canvas(snap.Lines),
	}, nil
}

func (f *fakeSource) Snapshot(id string) (protocol.RoomSnapshot, error) {
	snap, ok := f.rooms[id]
	if !ok {
		return protocol.RoomSnapshot{}, fmt.Errorf("no such session %q", id)
	}
	return snap, nil
}

func glyphRow(text string) []models.Glyph {
	glyphs := make([]models.Glyph, 0, len(text))
	for i, r := range text {
		glyphs = append(glyphs, models.Glyph{
			ID:    fmt.Sprintf("g%d", i),
			Value: string(r),
			X:     float64(i) * 12,
		})
	}
	return glyphs
}

func testServer(t *testing.T) *Server {
	t.Helper()
	src := &fakeSource{rooms: map[string]protocol.RoomSnapshot{
		"studio": {
			Participants: map[string]models.Participant{
				"p1": {ID: "p1", Style: models.Style{Color: "#e03131", FontSize: 20, FontFamily: "Caveat"}},
			},
			Lines: []models.Line{
				{ID: "l2", Glyphs: glyphRow("world"), X: 10, Y: 60, OwnerID: "p1"},
				{ID: "l1", Glyphs: glyphRow("hello"), X: 10, Y: 20, OwnerID: "p1"},
			},
		},
	}}
	return New(src)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_sessions":
		result, err = srv.listSessions(ctx, req)
	case "session_stats":
		result, err = srv.sessionStats(ctx, req)
	case "session_snapshot":
		result, err = srv.sessionSnapshot(ctx, req)
	case "read_canvas":
		result, err = srv.readCanvas(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListSessions(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "list_sessions", map[string]interface{}{})
	if text := resultText(r); text != "studio" {
		t.Errorf("list = %q, want studio", text)
	}
}

func TestListSessionsEmpty(t *testing.T) {
	srv := New(&fakeSource{rooms: map[string]protocol.RoomSnapshot{}})

	r := callTool(t, srv, "list_sessions", map[string]interface{}{})
	if text := resultText(r); text != "no live sessions" {
		t.Errorf("empty list = %q", text)
	}
}

func TestSessionStats(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "session_stats", map[string]interface{}{"session": "studio"})
	var stats struct {
		ID           string `json:"id"`
		Participants int    `json:"participants"`
		Lines        int    `json:"lines"`
		Checksum     string `json:"checksum"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &stats); err != nil {
		t.Fatalf("stats not JSON: %v", err)
	}
	if stats.ID != "studio" || stats.Participants != 1 || stats.Lines != 2 {
		t.Errorf("stats = %+v, want studio/1/2", stats)
	}
	if stats.Checksum == "" {
		t.Error("stats carry no canvas checksum")
	}
}

func TestSessionStatsMissing(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "session_stats", map[string]interface{}{"session": "nope"})
	if !r.IsError {
		t.Error("expected error for missing session")
	}
}

func TestSessionSnapshot(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "session_snapshot", map[string]interface{}{"session": "studio"})
	var snap protocol.RoomSnapshot
	if err := json.Unmarshal([]byte(resultText(r)), &snap); err != nil {
		t.Fatalf("snapshot not JSON: %v", err)
	}
	if len(snap.Lines) != 2 || len(snap.Participants) != 1 {
		t.Errorf("snapshot = %d lines, %d participants; want 2/1", len(snap.Lines), len(snap.Participants))
	}
}

func TestReadCanvasReadingOrder(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "read_canvas", map[string]interface{}{"session": "studio"})
	// l1 sits higher on the canvas than l2, so it reads first.
	if text := resultText(r); text != "hello\nworld" {
		t.Errorf("canvas = %q, want hello\\nworld", text)
	}
}

func TestReadCanvasEmpty(t *testing.T) {
	srv := New(&fakeSource{rooms: map[string]protocol.RoomSnapshot{
		"bare": {Participants: map[string]models.Participant{}, Lines: []models.Line{}},
	}})

	r := callTool(t, srv, "read_canvas", map[string]interface{}{"session": "bare"})
	if text := resultText(r); text != "canvas is empty" {
		t.Errorf("empty canvas = %q", text)
	}
}

func TestWireFormatResource(t *testing.T) {
	srv := testServer(t)

	contents, err := srv.readWireFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("resource read: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("contents = %d, want 1", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("contents type = %T", contents[0])
	}
	if tc.URI != "laguz://wire-format" || tc.Text == "" {
		t.Errorf("resource = %q with %d bytes", tc.URI, len(tc.Text))
	}
}
