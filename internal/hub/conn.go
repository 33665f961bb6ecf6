package hub

import (
	"log/slog"
	"time"

	"github.com/starford/laguz/internal/protocol"

	"github.com/gorilla/websocket"
)

const (
	// writeWait is the deadline for a single outbound frame.
	writeWait = 10 * time.Second

	// pongWait is how long a connection may stay silent before the read
	// side gives up on it. Pings go out at pingPeriod to keep it fed.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 1 << 20
)

// conn is one websocket participant attached to a room. The read pump
// decodes inbound messages and hands them to the room's event loop; the
// write pump drains the send channel onto the socket. The room closes the
// send channel when the connection is detached, which terminates the write
// pump with a close frame.
type conn struct {
	room *Room
	ws   *websocket.Conn
	send chan []byte
}

func newConn(room *Room, ws *websocket.Conn, sendBuf int) *conn {
	if sendBuf < 1 {
		sendBuf = 1
	}
	return &conn{room: room, ws: ws, send: make(chan []byte, sendBuf)}
}

// serve runs both pumps, joins the room, and blocks until the read side
// ends. release is invoked exactly once, after the room has forgotten the
// connection.
func (c *conn) serve(release func()) {
	go c.writePump()
	c.room.join(c)
	c.readPump()
	c.room.leave(c)
	release()
}

func (c *conn) readPump() {
	defer c.ws.Close()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("hub: read failed", slog.String("error", err.Error()))
			}
			return
		}
		msg, err := protocol.Decode(data)
		if err != nil {
			// Malformed traffic never tears the session down.
			slog.Warn("hub: dropping malformed message", slog.String("error", err.Error()))
			continue
		}
		c.room.receive(c, msg)
	}
}

func (c *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
