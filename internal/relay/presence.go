package relay

import (
	"sync"

	"github.com/mhd-br/void-studio/internal/canvas"
)

// Fallbacks for joiners that send an empty user record.
const (
	defaultName  = "Anonymous"
	defaultColor = "#4a9eff"
)

// Presence is one connected member of a room: connection identity, display
// name, the color assigned at join time, and the last known pointer
// position.
type Presence struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Color  string       `json:"color"`
	Cursor canvas.Point `json:"cursor"`
}

type roomMembers struct {
	// order preserves join order so users-update lists are stable.
	order   []string
	members map[string]Presence
}

// PresenceStore maps roomID -> connectionID -> Presence. Purely in-memory;
// presence does not outlive the process.
type PresenceStore struct {
	mu    sync.RWMutex
	rooms map[string]*roomMembers
}

func NewPresenceStore() *PresenceStore {
	return &PresenceStore{rooms: make(map[string]*roomMembers)}
}

// Join registers a member, creating the room implicitly. The cursor starts
// at the origin. Colors are stored verbatim; no de-duplication across
// members.
func (s *PresenceStore) Join(roomID, connID, name, color string) Presence {
	if name == "" {
		name = defaultName
	}
	if color == "" {
		color = defaultColor
	}
	p := Presence{ID: connID, Name: name, Color: color}

	s.mu.Lock()
	defer s.mu.Unlock()
	rm := s.rooms[roomID]
	if rm == nil {
		rm = &roomMembers{members: make(map[string]Presence)}
		s.rooms[roomID] = rm
	}
	if _, ok := rm.members[connID]; !ok {
		rm.order = append(rm.order, connID)
	}
	rm.members[connID] = p
	return p
}

// SetCursor updates a member's pointer position and returns the updated
// presence. A no-op returning false if the connection is not a member
// (races with disconnect are expected).
func (s *PresenceStore) SetCursor(roomID, connID string, pos canvas.Point) (Presence, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rm := s.rooms[roomID]
	if rm == nil {
		return Presence{}, false
	}
	p, ok := rm.members[connID]
	if !ok {
		return Presence{}, false
	}
	p.Cursor = pos
	rm.members[connID] = p
	return p, true
}

// Leave removes a member. Idempotent: leaving twice reports false the
// second time but is not an error.
func (s *PresenceStore) Leave(roomID, connID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rm := s.rooms[roomID]
	if rm == nil {
		return false
	}
	if _, ok := rm.members[connID]; !ok {
		return false
	}
	delete(rm.members, connID)
	for i, id := range rm.order {
		if id == connID {
			rm.order = append(rm.order[:i], rm.order[i+1:]...)
			break
		}
	}
	return true
}

// List returns the room's members in join order. Empty and unknown rooms
// both yield an empty list.
func (s *PresenceStore) List(roomID string) []Presence {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rm := s.rooms[roomID]
	if rm == nil {
		return []Presence{}
	}
	out := make([]Presence, 0, len(rm.order))
	for _, id := range rm.order {
		out = append(out, rm.members[id])
	}
	return out
}

// MemberCount reports how many members the room currently has.
func (s *PresenceStore) MemberCount(roomID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rm := s.rooms[roomID]
	if rm == nil {
		return 0
	}
	return len(rm.members)
}

// DropRoom removes an empty room's bookkeeping. Called by the janitor.
func (s *PresenceStore) DropRoom(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rm := s.rooms[roomID]; rm != nil && len(rm.members) == 0 {
		delete(s.rooms, roomID)
	}
}
