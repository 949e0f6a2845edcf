package relay

import (
	"log"
	"sync"
	"time"

	"github.com/mhd-br/void-studio/internal/canvas"
)

// Relay accepts connections into rooms, applies inbound events to the
// presence and state stores, and fans broadcasts out to every other member
// of the room. Each inbound event is processed to completion (store
// mutation plus broadcast enqueue) under one lock before the next is
// handled, which gives every recipient FIFO ordering per sender. There is
// no total order across senders; the whole-snapshot last-writer-wins store
// makes that acceptable.
type Relay struct {
	mu       sync.Mutex
	presence *PresenceStore
	state    *StateStore
	senders  map[string]Sender
	roomOf   map[string]string
	// emptySince records when a room last dropped to zero members, for the
	// idle-eviction janitor.
	emptySince map[string]time.Time
}

func New() *Relay {
	return &Relay{
		presence:   NewPresenceStore(),
		state:      NewStateStore(),
		senders:    make(map[string]Sender),
		roomOf:     make(map[string]string),
		emptySince: make(map[string]time.Time),
	}
}

// Presence exposes the presence store (read paths for tests and handlers).
func (r *Relay) Presence() *PresenceStore { return r.presence }

// State exposes the room state store.
func (r *Relay) State() *StateStore { return r.state }

// Join registers a connection in a room. The joiner receives the stored
// snapshot if one exists (room-state, to the joiner only); every member of
// the room, the joiner included, receives the full member list
// (users-update). A connection belongs to at most one room: joining a
// second room implicitly leaves the first.
func (r *Relay) Join(connID, roomID, name, color string, s Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.roomOf[connID]; ok && prev != roomID {
		r.leaveLocked(connID, prev)
	}

	r.senders[connID] = s
	r.roomOf[connID] = roomID
	delete(r.emptySince, roomID)
	r.presence.Join(roomID, connID, name, color)
	log.Printf("relay: %s joined room %s", connID, roomID)

	if snap, ok := r.state.Get(roomID); ok {
		s.Send(ServerMessage{Type: EventRoomState, State: &snap})
	}
	r.broadcastUsersLocked(roomID)
}

// CanvasUpdate stores the snapshot as the room's canonical state and relays
// it to every other member, tagged with the sender.
func (r *Relay) CanvasUpdate(connID, roomID string, snap canvas.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state.Put(roomID, snap)
	r.broadcastLocked(roomID, connID, ServerMessage{
		Type:     EventCanvasUpdate,
		State:    &snap,
		SenderID: connID,
	})
}

// LayerOperation relays an incremental layer edit to every other member.
// Relay-only: the stored snapshot is not touched, so it can drift from the
// converged state until the next full push.
func (r *Relay) LayerOperation(connID, roomID string, op canvas.LayerOperation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.broadcastLocked(roomID, connID, ServerMessage{
		Type:      EventLayerOperation,
		Operation: &op,
		SenderID:  connID,
	})
}

// VoidUpdate relays a background configuration change to every other member.
func (r *Relay) VoidUpdate(connID, roomID string, cfg canvas.VoidConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.broadcastLocked(roomID, connID, ServerMessage{
		Type:       EventVoidUpdate,
		VoidConfig: &cfg,
		SenderID:   connID,
	})
}

// CursorMove updates the sender's presence cursor and relays the full
// updated presence to every other member.
func (r *Relay) CursorMove(connID, roomID string, pos canvas.Point) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.presence.SetCursor(roomID, connID, pos)
	if !ok {
		// Raced with a disconnect; nothing to relay.
		return
	}
	r.broadcastLocked(roomID, connID, ServerMessage{
		Type:     EventCursorUpdate,
		User:     &p,
		SenderID: connID,
	})
}

// Disconnect removes the connection from whichever room it belonged to and
// broadcasts the updated member list to the remaining members. Idempotent.
func (r *Relay) Disconnect(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	roomID, ok := r.roomOf[connID]
	if ok {
		r.leaveLocked(connID, roomID)
	}
	delete(r.senders, connID)
	delete(r.roomOf, connID)
	if ok {
		log.Printf("relay: %s disconnected from room %s", connID, roomID)
	}
}

func (r *Relay) leaveLocked(connID, roomID string) {
	r.presence.Leave(roomID, connID)
	if r.presence.MemberCount(roomID) == 0 {
		r.emptySince[roomID] = time.Now()
	}
	r.broadcastUsersLocked(roomID)
}

func (r *Relay) broadcastUsersLocked(roomID string) {
	users := r.presence.List(roomID)
	msg := ServerMessage{Type: EventUsersUpdate, Users: users}
	for _, p := range users {
		if s := r.senders[p.ID]; s != nil {
			s.Send(msg)
		}
	}
}

func (r *Relay) broadcastLocked(roomID, exclude string, msg ServerMessage) {
	for _, p := range r.presence.List(roomID) {
		if p.ID == exclude {
			continue
		}
		if s := r.senders[p.ID]; s != nil {
			s.Send(msg)
		}
	}
}

// sweepIdle evicts rooms that have been empty since before the cutoff,
// dropping their stored snapshots. Returns the evicted room IDs.
func (r *Relay) sweepIdle(cutoff time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var evicted []string
	for roomID, since := range r.emptySince {
		if since.After(cutoff) {
			continue
		}
		if r.presence.MemberCount(roomID) > 0 {
			// A member came back without touching emptySince; keep the room.
			delete(r.emptySince, roomID)
			continue
		}
		r.state.Drop(roomID)
		r.presence.DropRoom(roomID)
		delete(r.emptySince, roomID)
		evicted = append(evicted, roomID)
	}
	return evicted
}
