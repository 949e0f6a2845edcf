package collab

import (
	"github.com/gorilla/websocket"

	"github.com/mhd-br/void-studio/internal/relay"
	"github.com/mhd-br/void-studio/internal/ws"
)

// Transport is the persistent, bidirectional, message-framed connection the
// engine runs over. A fake implementation stands in for the network in
// tests.
type Transport interface {
	ReadMessage() (relay.ServerMessage, error)
	WriteMessage(msg ws.ClientMessage) error
	Close() error
}

type wsTransport struct {
	conn *websocket.Conn
}

// Dial opens a websocket transport to the relay, e.g.
// ws://localhost:3001/ws.
func Dial(url string) (Transport, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	return &wsTransport{conn: conn}, nil
}

func (t *wsTransport) ReadMessage() (relay.ServerMessage, error) {
	var msg relay.ServerMessage
	err := t.conn.ReadJSON(&msg)
	return msg, err
}

func (t *wsTransport) WriteMessage(msg ws.ClientMessage) error {
	return t.conn.WriteJSON(msg)
}

func (t *wsTransport) Close() error {
	return t.conn.Close()
}
