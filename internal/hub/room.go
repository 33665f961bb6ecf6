// Package hub implements the replication authority: one Room per named
// session holding the canonical roster and document, and a Registry routing
// websocket connections into their Rooms.
package hub

import (
	"log/slog"
	"sync/atomic"

	"github.com/starford/laguz/internal/canvas"
	"github.com/starford/laguz/internal/checksum"
	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/protocol"

	"github.com/google/uuid"
)

// Stats is a point-in-time summary of a room. Checksum digests the canvas
// content so replicas can detect drift without fetching a full snapshot.
type Stats struct {
	Participants int
	Lines        int
	Checksum     string
}

type inbound struct {
	c   *conn
	msg protocol.Message
}

// Room holds canonical state for one session.
//
// Concurrency model: a single event-loop goroutine owns all mutable state
// (roster, document, connection set). Joins, leaves and inbound messages
// are funneled through channels and processed strictly one at a time, so
// no two mutations ever race on the same Room and no mutexes are needed.
// That sequencing is also what makes applying mutations without ownership
// checks sound under cooperative clients.
type Room struct {
	id   string
	sink EventSink

	joinCh     chan *conn
	leaveCh    chan *conn
	inboundCh  chan inbound
	statsCh    chan chan Stats
	snapshotCh chan chan protocol.RoomSnapshot

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// newRoom creates a room and starts its event loop. sink may be nil.
func newRoom(id string, sink EventSink) *Room {
	r := &Room{
		id:         id,
		sink:       sink,
		joinCh:     make(chan *conn),
		leaveCh:    make(chan *conn),
		inboundCh:  make(chan inbound, 256),
		statsCh:    make(chan chan Stats),
		snapshotCh: make(chan chan protocol.RoomSnapshot),
		stopCh:     make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *Room) run() {
	defer close(r.stopped)

	conns := make(map[*conn]string) // connection -> participant id
	roster := make(map[string]models.Participant)
	doc := canvas.New()

	// emit reports room activity to the registry's event sink, if any.
	emit := func(kind string) {
		if r.sink != nil {
			r.sink(kind, r.id, len(roster), doc.Len())
		}
	}

	// encode serializes a message for fan-out; a constructor-built message
	// never fails to encode, so failures are logged and skipped.
	encode := func(msg protocol.Message) ([]byte, bool) {
		data, err := protocol.Encode(msg)
		if err != nil {
			slog.Error("hub: encode broadcast failed",
				slog.String("session", r.id),
				slog.String("type", msg.Type),
				slog.String("error", err.Error()))
			return nil, false
		}
		return data, true
	}

	// broadcast fans a message out to every connection except the sender and
	// returns connections whose send buffers were full. Slow consumers are
	// dropped rather than blocked on: the next init flow repairs their state.
	broadcast := func(except *conn, msg protocol.Message) []*conn {
		data, ok := encode(msg)
		if !ok {
			return nil
		}
		var slow []*conn
		for c := range conns {
			if c == except {
				continue
			}
			select {
			case c.send <- data:
			default:
				slow = append(slow, c)
			}
		}
		return slow
	}

	// detach removes a connection from the room and notifies the remaining
	// participants. Dropping a slow consumer while notifying can surface
	// further slow consumers, so detachments are processed as a queue.
	detach := func(first *conn) {
		queue := []*conn{first}
		for len(queue) > 0 {
			c := queue[0]
			queue = queue[1:]
			id, ok := conns[c]
			if !ok {
				continue
			}
			delete(conns, c)
			delete(roster, id)
			close(c.send)
			slog.Info("hub: participant left",
				slog.String("session", r.id),
				slog.String("participant", id))
			queue = append(queue, broadcast(nil, protocol.ParticipantLeft(id))...)
			emit("left")
		}
	}

	snapshot := func() protocol.RoomSnapshot {
		participants := make(map[string]models.Participant, len(roster))
		for id, p := range roster {
			participants[id] = p
		}
		return protocol.RoomSnapshot{Participants: participants, Lines: doc.Lines()}
	}

	for {
		select {
		case <-r.stopCh:
			for c := range conns {
				close(c.send)
			}
			return

		case c := <-r.joinCh:
			p := models.Participant{ID: uuid.NewString(), Style: assignStyle(roster)}
			roster[p.ID] = p
			conns[c] = p.ID

			if data, ok := encode(protocol.Init(p, snapshot())); ok {
				// A fresh connection's buffer is empty, so this cannot drop.
				c.send <- data
			}
			slog.Info("hub: participant joined",
				slog.String("session", r.id),
				slog.String("participant", p.ID),
				slog.Int("present", len(roster)))
			for _, slow := range broadcast(c, protocol.ParticipantJoined(p)) {
				detach(slow)
			}
			emit("joined")

		case c := <-r.leaveCh:
			detach(c)

		case in := <-r.inboundCh:
			senderID, ok := conns[in.c]
			if !ok {
				// Connection already detached; late message, drop it.
				continue
			}

			var slow []*conn
			mutated := false
			switch in.msg.Type {
			case protocol.TypeCursor:
				p := roster[senderID]
				p.Cursor = *in.msg.Cursor
				roster[senderID] = p
				slow = broadcast(in.c, protocol.CursorFrom(senderID, *in.msg.Cursor))

			case protocol.TypeAddLine, protocol.TypeUpdateLine:
				// Applied verbatim: the sender's ownerId field is trusted.
				doc = doc.Put(*in.msg.Line)
				slow = broadcast(in.c, in.msg)
				mutated = true

			case protocol.TypeDeleteLines:
				doc = doc.RemoveLines(in.msg.LineIDs)
				slow = broadcast(in.c, in.msg)
				mutated = true

			case protocol.TypeLines:
				// Own-lines resync: the sender is authoritative for exactly
				// its own subset. Everyone else gets the merged result.
				doc = doc.ReplaceOwned(senderID, in.msg.Lines)
				slow = broadcast(in.c, protocol.Sync(doc.Lines()))
				mutated = true

			default:
				slog.Warn("hub: unexpected message from client",
					slog.String("session", r.id),
					slog.String("participant", senderID),
					slog.String("type", in.msg.Type))
			}
			for _, c := range slow {
				detach(c)
			}
			if mutated {
				emit("activity")
			}

		case resp := <-r.statsCh:
			resp <- Stats{
				Participants: len(roster),
				Lines:        doc.Len(),
				Checksum:     checksum.Canvas(doc.Lines()),
			}

		case resp := <-r.snapshotCh:
			resp <- snapshot()
		}
	}
}

// join registers a connection; the room allocates its participant identity
// and replies with an init snapshot on the connection's send channel.
func (r *Room) join(c *conn) {
	select {
	case r.joinCh <- c:
	case <-r.stopped:
		close(c.send)
	}
}

// leave detaches a connection. Safe to call for connections the room has
// already dropped.
func (r *Room) leave(c *conn) {
	select {
	case r.leaveCh <- c:
	case <-r.stopped:
	}
}

// receive hands an inbound client message to the event loop.
func (r *Room) receive(c *conn, msg protocol.Message) {
	select {
	case r.inboundCh <- inbound{c: c, msg: msg}:
	case <-r.stopped:
	}
}

// Stats reports the current roster size, line count, and canvas digest.
func (r *Room) Stats() Stats {
	resp := make(chan Stats, 1)
	select {
	case r.statsCh <- resp:
	case <-r.stopped:
		return Stats{}
	}
	select {
	case s := <-resp:
		return s
	case <-r.stopped:
		return Stats{}
	}
}

// Snapshot returns the canonical room state, as an init message would carry.
func (r *Room) Snapshot() protocol.RoomSnapshot {
	resp := make(chan protocol.RoomSnapshot, 1)
	select {
	case r.snapshotCh <- resp:
	case <-r.stopped:
		return protocol.RoomSnapshot{}
	}
	select {
	case s := <-resp:
		return s
	case <-r.stopped:
		return protocol.RoomSnapshot{}
	}
}

// Close stops the event loop and closes every connection's send channel.
func (r *Room) Close() {
	if r.closed.CompareAndSwap(false, true) {
		close(r.stopCh)
	}
	<-r.stopped
}
