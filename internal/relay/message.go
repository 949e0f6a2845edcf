package relay

import "github.com/mhd-br/void-studio/internal/canvas"

// Wire event names, shared by both directions of the protocol.
const (
	EventJoinRoom       = "join-room"
	EventRoomState      = "room-state"
	EventUsersUpdate    = "users-update"
	EventCanvasUpdate   = "canvas-update"
	EventLayerOperation = "layer-operation"
	EventVoidUpdate     = "void-update"
	EventCursorMove     = "cursor-move"
	EventCursorUpdate   = "cursor-update"
)

// ServerMessage is one server-to-client frame. Type selects which of the
// optional payload fields is populated. SenderID tags relayed events with
// the connection that produced them.
type ServerMessage struct {
	Type       string                 `json:"type"`
	State      *canvas.Snapshot       `json:"state,omitempty"`
	Users      []Presence             `json:"users,omitempty"`
	Operation  *canvas.LayerOperation `json:"operation,omitempty"`
	VoidConfig *canvas.VoidConfig     `json:"voidConfig,omitempty"`
	User       *Presence              `json:"user,omitempty"`
	SenderID   string                 `json:"userId,omitempty"`
}

// Sender delivers server messages to one connection. Implementations must
// not block: the relay calls Send while holding its lock.
type Sender interface {
	Send(msg ServerMessage)
}
