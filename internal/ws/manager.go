package ws

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mhd-br/void-studio/internal/relay"
)

// Room membership is unauthenticated, so the upgrader accepts any origin.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Manager upgrades HTTP requests into relay connections.
type Manager struct {
	relay *relay.Relay
}

func NewManager(r *relay.Relay) *Manager {
	return &Manager{relay: r}
}

// Serve handles GET /ws: upgrade, assign a connection identity, then run
// the write loop in the background and block in the read loop until the
// connection drops.
func (m *Manager) Serve(c *gin.Context) {
	wsConn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws: upgrade error: %v (origin=%s)", err, c.Request.Header.Get("Origin"))
		return
	}

	conn := NewConn(uuid.NewString(), wsConn, m.relay)
	log.Printf("ws: connected %s", conn.ID())

	// Write loop first, so anything the relay enqueues during join is
	// delivered promptly.
	go conn.writeLoop()
	conn.readLoop()
}
