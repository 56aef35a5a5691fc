package peer

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"empower1.com/empower1blockchain/internal/wire"
)

// Envelope pairs a decoded message with the handle of the peer that
// sent it, the unit of work the gossip worker consumes from its
// inbound channel.
type Envelope struct {
	From Handle
	Msg  wire.Message
}

// Logger is the minimal logging surface a connection needs.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

// WSConn adapts a *websocket.Conn to the Handle interface: Write
// serializes and sends a Message; a background goroutine (started by
// Serve) reads frames, decodes them, and pushes Envelopes onto the
// shared inbound channel until the connection closes.
type WSConn struct {
	id   uuid.UUID
	conn *websocket.Conn
	log  Logger

	writeMu sync.Mutex
}

// NewWSConn wraps conn with a freshly generated peer identity.
func NewWSConn(conn *websocket.Conn, log Logger) *WSConn {
	return &WSConn{id: uuid.New(), conn: conn, log: log}
}

// ID returns the peer's generated identity.
func (c *WSConn) ID() uuid.UUID { return c.id }

// Write encodes and sends msg as a single binary websocket frame.
// Safe for concurrent use; writes are serialized.
func (c *WSConn) Write(msg wire.Message) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.BinaryMessage, wire.Encode(msg)); err != nil {
		c.log.Warnf("peer %s: write failed: %v", c.id, err)
	}
}

// Serve reads frames from the connection until it closes, pushing
// decoded Envelopes onto inbound; malformed frames are logged and
// skipped. Call it in its own goroutine; it blocks
// until the connection ends, then removes itself from set.
func (c *WSConn) Serve(set *Set, inbound chan<- Envelope) {
	set.Add(c)
	defer set.Remove(c.id)
	defer c.conn.Close()

	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			c.log.Debugf("peer %s: connection closed: %v", c.id, err)
			return
		}
		if kind != websocket.BinaryMessage {
			continue
		}
		msg, err := wire.Decode(data)
		if err != nil {
			c.log.Warnf("peer %s: dropping malformed frame: %v", c.id, err)
			continue
		}
		inbound <- Envelope{From: c, Msg: msg}
	}
}
