// Package client implements the replication side of a session: it joins a
// named session over a websocket, keeps an optimistic local replica of the
// canvas, and mirrors every local mutation to the authority as exactly one
// wire message.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/canvas"
	"github.com/starford/laguz/internal/checksum"
	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/protocol"
)

const (
	// writeWait bounds a single frame write.
	writeWait = 10 * time.Second

	// maxMessageSize bounds inbound frames, matching the authority's limit.
	maxMessageSize = 1 << 20

	// sendQueue is how many outbound messages may be in flight before
	// mutating operations block on the writer.
	sendQueue = 16
)

// Option configures a Client before it connects.
type Option func(*Client)

// WithResyncInterval makes the client periodically push its complete owned
// line set to the authority, repairing drift from dropped rebroadcasts.
// Zero, the default, disables periodic resync; Resync can still be called
// explicitly.
func WithResyncInterval(d time.Duration) Option {
	return func(c *Client) { c.resyncEvery = d }
}

// Client is one participant's live connection to a session.
//
// Every mutating method applies to the local replica first and then enqueues
// the corresponding message, so reads reflect local edits immediately while
// the authority's rebroadcasts carry them to everyone else. Methods are safe
// for concurrent use.
type Client struct {
	ws   *websocket.Conn
	self models.Participant

	mu     sync.Mutex
	doc    canvas.Document
	roster map[string]models.Participant
	err    error

	sendCh chan []byte
	quit   chan struct{} // closed by Close to start the goodbye handshake
	done   chan struct{} // closed when the read loop has finished

	closing   atomic.Bool
	closeOnce sync.Once

	resyncEvery time.Duration
}

// Dial connects to a session endpoint (ws://host/ws/{session}) and blocks
// until the authority's init snapshot arrives. The context bounds the
// handshake and the snapshot wait, not the connection's lifetime.
func Dial(ctx context.Context, url string, opts ...Option) (*Client, error) {
	c := &Client{
		sendCh: make(chan []byte, sendQueue),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", url, err)
	}
	ws.SetReadLimit(maxMessageSize)

	if deadline, ok := ctx.Deadline(); ok {
		ws.SetReadDeadline(deadline)
	}
	_, data, err := ws.ReadMessage()
	if err != nil {
		ws.Close()
		return nil, fmt.Errorf("client: waiting for init: %w", err)
	}
	msg, err := protocol.Decode(data)
	if err != nil {
		ws.Close()
		return nil, fmt.Errorf("client: join: %w", err)
	}
	if msg.Type != protocol.TypeInit {
		ws.Close()
		return nil, fmt.Errorf("client: join: expected init, got %q", msg.Type)
	}
	ws.SetReadDeadline(time.Time{})

	c.ws = ws
	c.self = *msg.Participant
	c.doc = canvas.FromLines(msg.Room.Lines)
	c.roster = make(map[string]models.Participant, len(msg.Room.Participants))
	for id, p := range msg.Room.Participants {
		c.roster[id] = p
	}

	go c.readLoop()
	go c.writeLoop()
	if c.resyncEvery > 0 {
		go c.resyncLoop()
	}
	return c, nil
}

// Self returns the identity and style the authority assigned at join.
func (c *Client) Self() models.Participant { return c.self }

// Document returns a snapshot of the local replica.
func (c *Client) Document() canvas.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc
}

// Checksum digests the local replica. A mismatch against the digest in the
// authority's session stats means this replica has drifted.
func (c *Client) Checksum() string {
	c.mu.Lock()
	lines := c.doc.Lines()
	c.mu.Unlock()
	return checksum.Canvas(lines)
}

// Roster returns a copy of the known participant set, self included.
func (c *Client) Roster() map[string]models.Participant {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]models.Participant, len(c.roster))
	for id, p := range c.roster {
		out[id] = p
	}
	return out
}

// Done is closed once the connection has shut down, whether by Close or by
// the authority going away.
func (c *Client) Done() <-chan struct{} { return c.done }

// Err reports why the connection ended. It is nil while the connection is
// live and after a clean Close.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// AddLine inserts a line into the replica and announces it.
func (c *Client) AddLine(line models.Line) error {
	if c.closing.Load() {
		return fmt.Errorf("client: %w", apperr.ErrClosed)
	}
	c.mu.Lock()
	c.doc = c.doc.Put(line)
	c.mu.Unlock()
	return c.send(protocol.AddLine(line))
}

// AppendGlyph grows a line by one glyph and announces the updated line in
// full. Unknown line ids are silent no-ops.
func (c *Client) AppendGlyph(lineID string, g models.Glyph) error {
	if c.closing.Load() {
		return fmt.Errorf("client: %w", apperr.ErrClosed)
	}
	c.mu.Lock()
	c.doc = c.doc.AppendGlyph(lineID, g)
	line, ok := c.doc.Line(lineID)
	c.mu.Unlock()
	if !ok {
		return nil
	}
	return c.send(protocol.UpdateLine(line))
}

// TruncateLastGlyph drops a line's tail glyph. A surviving line is announced
// as an update; a line emptied by the truncate is announced as a removal.
// Unknown line ids are silent no-ops.
func (c *Client) TruncateLastGlyph(lineID string) error {
	if c.closing.Load() {
		return fmt.Errorf("client: %w", apperr.ErrClosed)
	}
	c.mu.Lock()
	existed := c.doc.Has(lineID)
	c.doc = c.doc.TruncateLastGlyph(lineID)
	line, ok := c.doc.Line(lineID)
	c.mu.Unlock()
	if !existed {
		return nil
	}
	if ok {
		return c.send(protocol.UpdateLine(line))
	}
	return c.send(protocol.DeleteLines([]string{lineID}))
}

// RelocateLine moves a line's origin and announces the updated line.
// Unknown line ids are silent no-ops.
func (c *Client) RelocateLine(lineID string, origin models.Point) error {
	if c.closing.Load() {
		return fmt.Errorf("client: %w", apperr.ErrClosed)
	}
	c.mu.Lock()
	c.doc = c.doc.RelocateLine(lineID, origin)
	line, ok := c.doc.Line(lineID)
	c.mu.Unlock()
	if !ok {
		return nil
	}
	return c.send(protocol.UpdateLine(line))
}

// DeleteLines removes lines from the replica and announces the batch.
// An empty batch sends nothing.
func (c *Client) DeleteLines(ids []string) error {
	if c.closing.Load() {
		return fmt.Errorf("client: %w", apperr.ErrClosed)
	}
	if len(ids) == 0 {
		return nil
	}
	c.mu.Lock()
	c.doc = c.doc.RemoveLines(ids)
	c.mu.Unlock()
	return c.send(protocol.DeleteLines(ids))
}

// Cursor shares the local target point. The replica is untouched; the
// authority attributes the update for everyone else.
func (c *Client) Cursor(pt models.Point) error {
	if c.closing.Load() {
		return fmt.Errorf("client: %w", apperr.ErrClosed)
	}
	return c.send(protocol.Cursor(pt))
}

// Resync pushes this participant's complete owned line set so the authority
// can replace its copy of that subset wholesale.
func (c *Client) Resync() error {
	if c.closing.Load() {
		return fmt.Errorf("client: %w", apperr.ErrClosed)
	}
	c.mu.Lock()
	owned := c.doc.OwnedBy(c.self.ID)
	c.mu.Unlock()
	return c.send(protocol.OwnLines(owned))
}

// Close performs the goodbye handshake and waits for the connection to wind
// down. Safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closing.Store(true)
		close(c.quit)
	})
	select {
	case <-c.done:
	case <-time.After(time.Second):
		// The authority never answered the close frame; tear down hard.
		c.ws.Close()
	}
	<-c.done
	return nil
}

func (c *Client) send(msg protocol.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return fmt.Errorf("client: %w", err)
	}
	// Checked first so a finished connection reports ErrClosed even while
	// the queue still has room.
	select {
	case <-c.done:
		return fmt.Errorf("client: %w", apperr.ErrClosed)
	default:
	}
	select {
	case c.sendCh <- data:
		return nil
	case <-c.done:
		return fmt.Errorf("client: %w", apperr.ErrClosed)
	}
}

func (c *Client) fail(err error) {
	c.mu.Lock()
	if c.err == nil {
		c.err = err
	}
	c.mu.Unlock()
}

func (c *Client) readLoop() {
	defer close(c.done)
	defer c.ws.Close()

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if !c.closing.Load() {
				c.fail(fmt.Errorf("client: connection lost: %w", err))
			}
			return
		}
		msg, err := protocol.Decode(data)
		if err != nil {
			slog.Warn("client: dropping malformed message",
				slog.String("error", err.Error()))
			continue
		}
		c.apply(msg)
	}
}

// apply folds one authority message into the replica.
func (c *Client) apply(msg protocol.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch msg.Type {
	case protocol.TypeCursor:
		p, ok := c.roster[msg.ParticipantID]
		if !ok || msg.Cursor == nil {
			return
		}
		p.Cursor = *msg.Cursor
		c.roster[msg.ParticipantID] = p

	case protocol.TypeAddLine, protocol.TypeUpdateLine:
		c.doc = c.doc.Put(*msg.Line)

	case protocol.TypeDeleteLines:
		c.doc = c.doc.RemoveLines(msg.LineIDs)

	case protocol.TypeSync:
		c.doc = c.doc.ReplaceAll(msg.Lines)

	case protocol.TypeParticipantJoined:
		p := *msg.Participant
		c.roster[p.ID] = p

	case protocol.TypeParticipantLeft:
		delete(c.roster, msg.ParticipantID)

	default:
		// init arrives only as the first frame, handled in Dial.
		slog.Debug("client: ignoring unexpected message",
			slog.String("type", msg.Type))
	}
}

func (c *Client) writeLoop() {
	for {
		select {
		case data := <-c.sendCh:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				if !c.closing.Load() {
					c.fail(fmt.Errorf("client: write: %w", err))
				}
				c.ws.Close()
				return
			}

		case <-c.quit:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			c.ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case <-c.done:
			return
		}
	}
}

func (c *Client) resyncLoop() {
	ticker := time.NewTicker(c.resyncEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := c.Resync(); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
