package canvas

import "sync"

// ChangeKind tells a store subscriber which slice of state moved.
type ChangeKind int

const (
	// ChangeProject is a wholesale project replacement (layers and
	// background together).
	ChangeProject ChangeKind = iota
	// ChangeLayers covers incremental layer-list mutations: add, update,
	// delete.
	ChangeLayers
	// ChangeVoid covers background configuration changes.
	ChangeVoid
)

// ChangeFunc receives the kind of change and the store revision it produced.
type ChangeFunc func(kind ChangeKind, revision uint64)

// Store holds the client-local canvas state that the rendering layer edits
// and the sync engine observes. Every mutation bumps a monotonically
// increasing revision; subscribers get the revision so they can tell their
// own writes apart from everyone else's.
type Store struct {
	mu          sync.RWMutex
	projectID   string
	projectName string
	layers      []Layer
	voidConfig  VoidConfig
	revision    uint64

	onChange []ChangeFunc
}

func NewStore() *Store {
	return &Store{voidConfig: DefaultVoidConfig()}
}

// OnChange registers a subscriber. Callbacks run synchronously after the
// mutation commits, outside the store lock.
func (s *Store) OnChange(fn ChangeFunc) {
	s.mu.Lock()
	s.onChange = append(s.onChange, fn)
	s.mu.Unlock()
}

// notify fires exactly one callback per subscriber per mutation, so a
// revision maps one-to-one to a change notification.
func (s *Store) notify(kind ChangeKind, rev uint64) {
	s.mu.RLock()
	subs := make([]ChangeFunc, len(s.onChange))
	copy(subs, s.onChange)
	s.mu.RUnlock()
	for _, fn := range subs {
		fn(kind, rev)
	}
}

// LoadProject replaces the whole project state wholesale.
func (s *Store) LoadProject(snap Snapshot) uint64 {
	snap = snap.Clone()
	s.mu.Lock()
	s.projectID = snap.ProjectID
	s.projectName = snap.ProjectName
	s.layers = snap.Layers
	s.voidConfig = snap.VoidConfig
	s.revision++
	rev := s.revision
	s.mu.Unlock()
	s.notify(ChangeProject, rev)
	return rev
}

// AddLayer appends a layer. The caller supplies the id.
func (s *Store) AddLayer(layer Layer) uint64 {
	s.mu.Lock()
	s.layers = append(s.layers, layer.Clone())
	s.revision++
	rev := s.revision
	s.mu.Unlock()
	s.notify(ChangeLayers, rev)
	return rev
}

// UpdateLayer merges updates into the layer with the given id. Unknown ids
// are a no-op (the layer may have been deleted by a concurrent remote edit)
// but still bump the revision so callers can track the attempt.
func (s *Store) UpdateLayer(id string, updates map[string]any) uint64 {
	s.mu.Lock()
	for _, l := range s.layers {
		if l.ID() == id {
			for k, v := range updates {
				l[k] = cloneValue(v)
			}
			break
		}
	}
	s.revision++
	rev := s.revision
	s.mu.Unlock()
	s.notify(ChangeLayers, rev)
	return rev
}

// DeleteLayer removes the layer with the given id; unknown ids are a no-op.
func (s *Store) DeleteLayer(id string) uint64 {
	s.mu.Lock()
	kept := s.layers[:0]
	for _, l := range s.layers {
		if l.ID() != id {
			kept = append(kept, l)
		}
	}
	s.layers = kept
	s.revision++
	rev := s.revision
	s.mu.Unlock()
	s.notify(ChangeLayers, rev)
	return rev
}

// SetVoidConfig replaces the background configuration.
func (s *Store) SetVoidConfig(cfg VoidConfig) uint64 {
	s.mu.Lock()
	s.voidConfig = cfg
	s.revision++
	rev := s.revision
	s.mu.Unlock()
	s.notify(ChangeVoid, rev)
	return rev
}

// ApplyOperation applies an incremental layer edit.
func (s *Store) ApplyOperation(op LayerOperation) uint64 {
	switch op.Type {
	case OpAdd:
		return s.AddLayer(op.Layer)
	case OpUpdate:
		return s.UpdateLayer(op.LayerID, op.Updates)
	case OpDelete:
		return s.DeleteLayer(op.LayerID)
	default:
		// Unknown operation kinds are forwarded by the relay but ignored
		// here. Revision 0 signals that nothing changed.
		return 0
	}
}

// CurrentSnapshot returns a deep copy of the full project state.
func (s *Store) CurrentSnapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		ProjectID:   s.projectID,
		ProjectName: s.projectName,
		Layers:      s.layers,
		VoidConfig:  s.voidConfig,
	}.Clone()
}

// VoidConfig returns the current background configuration.
func (s *Store) VoidConfig() VoidConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.voidConfig
}

// Layers returns a deep copy of the layer list.
func (s *Store) Layers() []Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Layer, len(s.layers))
	for i, l := range s.layers {
		out[i] = l.Clone()
	}
	return out
}

// Revision returns the current store revision.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}
