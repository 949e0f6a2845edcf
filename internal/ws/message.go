package ws

import (
	"github.com/mhd-br/void-studio/internal/canvas"
)

// UserInfo is the self-description a client sends when joining a room. Both
// fields are untrusted free text; the presence store applies defaults for
// empty values.
type UserInfo struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// ClientMessage is one client-to-server frame. Type selects which of the
// optional payload fields is populated.
type ClientMessage struct {
	Type       string                 `json:"type"`
	RoomID     string                 `json:"roomId,omitempty"`
	User       *UserInfo              `json:"user,omitempty"`
	State      *canvas.Snapshot       `json:"state,omitempty"`
	Operation  *canvas.LayerOperation `json:"operation,omitempty"`
	VoidConfig *canvas.VoidConfig     `json:"voidConfig,omitempty"`
	Position   *canvas.Point          `json:"position,omitempty"`
}
