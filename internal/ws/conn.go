package ws

import (
	"log"

	"github.com/gorilla/websocket"

	"github.com/mhd-br/void-studio/internal/relay"
)

const sendQueueSize = 64

// Conn is one client connection: a read loop dispatching inbound events to
// the relay, and a write loop draining the send queue. Conn implements
// relay.Sender.
type Conn struct {
	id    string
	ws    *websocket.Conn
	relay *relay.Relay
	send  chan relay.ServerMessage
}

func NewConn(id string, wsConn *websocket.Conn, r *relay.Relay) *Conn {
	return &Conn{
		id:    id,
		ws:    wsConn,
		relay: r,
		send:  make(chan relay.ServerMessage, sendQueueSize),
	}
}

// ID returns the connection identity, stable for the connection's lifetime.
func (c *Conn) ID() string { return c.id }

// Send enqueues a message for delivery. Never blocks: when the queue is
// full the message is dropped, which degrades the slow client rather than
// stalling the relay.
func (c *Conn) Send(msg relay.ServerMessage) {
	select {
	case c.send <- msg:
	default:
		log.Printf("ws: send queue full, dropping %s for %s", msg.Type, c.id)
	}
}

// readLoop blocks until the connection closes, dispatching each inbound
// event to the relay. Unknown event types and events with a missing payload
// are dropped silently; nothing a client sends is fatal to the room.
func (c *Conn) readLoop() {
	defer close(c.send)
	defer c.relay.Disconnect(c.id)

	for {
		var msg ClientMessage
		if err := c.ws.ReadJSON(&msg); err != nil {
			log.Printf("ws: read error (conn=%s): %v", c.id, err)
			return
		}

		switch msg.Type {
		case relay.EventJoinRoom:
			var name, color string
			if msg.User != nil {
				name, color = msg.User.Name, msg.User.Color
			}
			c.relay.Join(c.id, msg.RoomID, name, color, c)

		case relay.EventCanvasUpdate:
			if msg.State != nil {
				c.relay.CanvasUpdate(c.id, msg.RoomID, *msg.State)
			}

		case relay.EventLayerOperation:
			if msg.Operation != nil {
				c.relay.LayerOperation(c.id, msg.RoomID, *msg.Operation)
			}

		case relay.EventVoidUpdate:
			if msg.VoidConfig != nil {
				c.relay.VoidUpdate(c.id, msg.RoomID, *msg.VoidConfig)
			}

		case relay.EventCursorMove:
			if msg.Position != nil {
				c.relay.CursorMove(c.id, msg.RoomID, *msg.Position)
			}

		default:
		}
	}
}

// writeLoop drains the send queue until the read loop closes it.
func (c *Conn) writeLoop() {
	for msg := range c.send {
		_ = c.ws.WriteJSON(msg)
	}
	_ = c.ws.Close()
}
