package relay

import (
	"sync"

	"github.com/mhd-br/void-studio/internal/canvas"
)

// StateStore keeps the latest full project snapshot per room. Last writer
// wins at whole-snapshot granularity: no merge, no versioning, no conflict
// detection. Snapshots live in memory for the process lifetime only.
type StateStore struct {
	mu        sync.RWMutex
	snapshots map[string]canvas.Snapshot
}

func NewStateStore() *StateStore {
	return &StateStore{snapshots: make(map[string]canvas.Snapshot)}
}

// Put replaces the stored snapshot unconditionally.
func (s *StateStore) Put(roomID string, snap canvas.Snapshot) {
	s.mu.Lock()
	s.snapshots[roomID] = snap.Clone()
	s.mu.Unlock()
}

// Get returns the stored snapshot, if any.
func (s *StateStore) Get(roomID string) (canvas.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[roomID]
	if !ok {
		return canvas.Snapshot{}, false
	}
	return snap.Clone(), true
}

// Drop removes a room's snapshot. Called by the janitor.
func (s *StateStore) Drop(roomID string) {
	s.mu.Lock()
	delete(s.snapshots, roomID)
	s.mu.Unlock()
}
