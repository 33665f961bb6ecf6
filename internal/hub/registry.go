package hub

import (
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/protocol"

	"github.com/gorilla/websocket"
)

const (
	// DefaultEmptyGrace is how long an empty room's state outlives its last
	// participant before being discarded.
	DefaultEmptyGrace = 30 * time.Second

	// DefaultSendBuffer is the per-connection outbound queue length.
	DefaultSendBuffer = 32
)

// EventSink receives session lifecycle and activity notifications. Kinds are
// "opened", "joined", "left", "activity" and "closed". Calls come from room
// event loops, so implementations must not block.
type EventSink func(kind, session string, participants, lines int)

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithEmptyGrace sets the empty-room retention window. Zero disposes rooms
// the moment the last participant leaves.
func WithEmptyGrace(d time.Duration) RegistryOption {
	return func(reg *Registry) { reg.grace = d }
}

// WithSendBuffer sets the per-connection outbound queue length.
func WithSendBuffer(n int) RegistryOption {
	return func(reg *Registry) { reg.sendBuf = n }
}

// WithEventSink forwards session lifecycle and activity events, typically
// into an SSE broker.
func WithEventSink(sink EventSink) RegistryOption {
	return func(reg *Registry) { reg.events = sink }
}

type roomEntry struct {
	room *Room
	refs int
	idle *time.Timer
}

// Registry creates rooms on first join, shares them between concurrent
// joiners of the same session, and disposes them once they have been empty
// for the grace window.
type Registry struct {
	grace    time.Duration
	sendBuf  int
	events   EventSink
	upgrader websocket.Upgrader

	mu     sync.Mutex
	rooms  map[string]*roomEntry
	closed bool
}

// NewRegistry builds a registry ready to serve websocket joins.
func NewRegistry(opts ...RegistryOption) *Registry {
	reg := &Registry{
		grace:   DefaultEmptyGrace,
		sendBuf: DefaultSendBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Session names are capability URLs, not secrets; any page may
			// open one. Access control is out of scope here.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		rooms: make(map[string]*roomEntry),
	}
	for _, opt := range opts {
		opt(reg)
	}
	if reg.sendBuf < 1 {
		reg.sendBuf = 1
	}
	return reg
}

// acquire returns the session's room, creating it if absent, plus a release
// function the caller must invoke when its connection ends.
func (reg *Registry) acquire(sessionID string) (*Room, func(), error) {
	reg.mu.Lock()

	if reg.closed {
		reg.mu.Unlock()
		return nil, nil, fmt.Errorf("hub: registry: %w", apperr.ErrClosed)
	}

	entry, ok := reg.rooms[sessionID]
	spawned := false
	if !ok {
		entry = &roomEntry{room: newRoom(sessionID, reg.events)}
		reg.rooms[sessionID] = entry
		spawned = true
	}
	entry.refs++
	if entry.idle != nil {
		entry.idle.Stop()
		entry.idle = nil
	}

	var once sync.Once
	release := func() { once.Do(func() { reg.release(sessionID, entry) }) }
	reg.mu.Unlock()

	if spawned && reg.events != nil {
		reg.events("opened", sessionID, 0, 0)
	}
	return entry.room, release, nil
}

func (reg *Registry) release(sessionID string, entry *roomEntry) {
	reg.mu.Lock()

	entry.refs--
	if entry.refs > 0 || reg.closed {
		reg.mu.Unlock()
		return
	}
	if reg.grace <= 0 {
		delete(reg.rooms, sessionID)
		reg.mu.Unlock()
		entry.room.Close()
		if reg.events != nil {
			reg.events("closed", sessionID, 0, 0)
		}
		return
	}
	entry.idle = time.AfterFunc(reg.grace, func() { reg.expire(sessionID, entry) })
	reg.mu.Unlock()
}

// expire disposes a room whose grace window ran out. A join racing the timer
// wins: it either stopped the timer or replaced the entry, both of which the
// rechecks below detect.
func (reg *Registry) expire(sessionID string, entry *roomEntry) {
	reg.mu.Lock()
	current, ok := reg.rooms[sessionID]
	if !ok || current != entry || entry.refs > 0 {
		reg.mu.Unlock()
		return
	}
	delete(reg.rooms, sessionID)
	reg.mu.Unlock()

	entry.room.Close()
	if reg.events != nil {
		reg.events("closed", sessionID, 0, 0)
	}
}

// ServeWS upgrades the request and attaches it to the session's room,
// blocking until the connection ends.
func (reg *Registry) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) error {
	// Reject plain HTTP before touching the registry so bad requests never
	// spawn rooms.
	if !websocket.IsWebSocketUpgrade(r) {
		http.Error(w, "websocket upgrade required", http.StatusBadRequest)
		return fmt.Errorf("hub: session %q: %w: not a websocket request", sessionID, apperr.ErrHandshake)
	}

	room, release, err := reg.acquire(sessionID)
	if err != nil {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return err
	}

	ws, err := reg.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote its own HTTP error response.
		release()
		return fmt.Errorf("hub: session %q: %w: %s", sessionID, apperr.ErrHandshake, err)
	}

	c := newConn(room, ws, reg.sendBuf)
	c.serve(release)
	return nil
}

// Stats reports the size of a live session. Absent sessions, including ones
// already disposed, yield apperr.ErrNotFound.
func (reg *Registry) Stats(sessionID string) (Stats, error) {
	reg.mu.Lock()
	entry, ok := reg.rooms[sessionID]
	reg.mu.Unlock()
	if !ok {
		return Stats{}, fmt.Errorf("hub: session %q: %w", sessionID, apperr.ErrNotFound)
	}
	return entry.room.Stats(), nil
}

// Snapshot returns the canonical state of a live session.
func (reg *Registry) Snapshot(sessionID string) (protocol.RoomSnapshot, error) {
	reg.mu.Lock()
	entry, ok := reg.rooms[sessionID]
	reg.mu.Unlock()
	if !ok {
		return protocol.RoomSnapshot{}, fmt.Errorf("hub: session %q: %w", sessionID, apperr.ErrNotFound)
	}
	return entry.room.Snapshot(), nil
}

// Sessions lists live session ids in lexical order.
func (reg *Registry) Sessions() []string {
	reg.mu.Lock()
	ids := make([]string, 0, len(reg.rooms))
	for id := range reg.rooms {
		ids = append(ids, id)
	}
	reg.mu.Unlock()
	sort.Strings(ids)
	return ids
}

// Close refuses new joins and shuts every room down, closing their
// connections. Blocks until all event loops have stopped.
func (reg *Registry) Close() {
	reg.mu.Lock()
	if reg.closed {
		reg.mu.Unlock()
		return
	}
	reg.closed = true
	ids := make([]string, 0, len(reg.rooms))
	rooms := make([]*Room, 0, len(reg.rooms))
	for id, entry := range reg.rooms {
		if entry.idle != nil {
			entry.idle.Stop()
		}
		ids = append(ids, id)
		rooms = append(rooms, entry.room)
	}
	reg.rooms = make(map[string]*roomEntry)
	reg.mu.Unlock()

	for i, room := range rooms {
		room.Close()
		if reg.events != nil {
			reg.events("closed", ids[i], 0, 0)
		}
	}
}
