package api

import "github.com/starford/laguz/internal/protocol"

// SessionSummary is the list/stats item for one live session. Checksum
// digests the canvas content; a client whose replica hashes differently
// has drifted and should resync.
type SessionSummary struct {
	ID           string `json:"id"`
	Participants int    `json:"participants"`
	Lines        int    `json:"lines"`
	Checksum     string `json:"checksum"`
}

// SessionListResponse is the payload for GET /sessions.
type SessionListResponse struct {
	Sessions []SessionSummary `json:"sessions"`
}

// SessionSnapshotResponse is the payload for GET /sessions/{session}/snapshot:
// the same state a joining participant receives in its init message.
type SessionSnapshotResponse struct {
	ID   string                `json:"id"`
	Room protocol.RoomSnapshot `json:"room"`
}
