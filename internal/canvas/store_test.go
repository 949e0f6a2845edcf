package canvas

import (
	"reflect"
	"testing"
)

func layer(id, typ string, extra map[string]any) Layer {
	l := Layer{"id": id, "type": typ}
	for k, v := range extra {
		l[k] = v
	}
	return l
}

func TestApplyOperationAddUpdateDelete(t *testing.T) {
	s := NewStore()

	s.ApplyOperation(LayerOperation{Type: OpAdd, Layer: layer("a", "cube", map[string]any{"x": 1.0})})
	s.ApplyOperation(LayerOperation{Type: OpAdd, Layer: layer("b", "text", nil)})
	if got := len(s.Layers()); got != 2 {
		t.Fatalf("expected 2 layers, got %d", got)
	}

	s.ApplyOperation(LayerOperation{Type: OpUpdate, LayerID: "a", Updates: map[string]any{"x": 2.0, "y": 3.0}})
	layers := s.Layers()
	if layers[0]["x"] != 2.0 || layers[0]["y"] != 3.0 {
		t.Fatalf("update patch not merged: %v", layers[0])
	}
	if layers[0].Type() != "cube" {
		t.Fatalf("update clobbered untouched attribute: %v", layers[0])
	}

	s.ApplyOperation(LayerOperation{Type: OpDelete, LayerID: "a"})
	layers = s.Layers()
	if len(layers) != 1 || layers[0].ID() != "b" {
		t.Fatalf("delete left wrong layers: %v", layers)
	}
}

func TestUpdateUnknownLayerIsNoOp(t *testing.T) {
	s := NewStore()
	s.AddLayer(layer("a", "cube", nil))
	before := s.Layers()

	s.UpdateLayer("missing", map[string]any{"x": 1.0})
	s.DeleteLayer("missing")

	if !reflect.DeepEqual(before, s.Layers()) {
		t.Fatalf("no-op edits changed layers: %v vs %v", before, s.Layers())
	}
}

func TestUnknownOperationReturnsZeroRevision(t *testing.T) {
	s := NewStore()
	if rev := s.ApplyOperation(LayerOperation{Type: "transmogrify"}); rev != 0 {
		t.Fatalf("expected revision 0 for unknown op, got %d", rev)
	}
}

func TestRevisionMonotonic(t *testing.T) {
	s := NewStore()
	var last uint64
	for i := 0; i < 5; i++ {
		rev := s.AddLayer(layer("x", "cube", nil))
		if rev <= last {
			t.Fatalf("revision did not increase: %d then %d", last, rev)
		}
		last = rev
	}
	if s.Revision() != last {
		t.Fatalf("Revision()=%d, last mutation returned %d", s.Revision(), last)
	}
}

func TestOnChangeKindsAndRevisions(t *testing.T) {
	s := NewStore()
	type event struct {
		kind ChangeKind
		rev  uint64
	}
	var events []event
	s.OnChange(func(k ChangeKind, rev uint64) {
		events = append(events, event{k, rev})
	})

	r1 := s.LoadProject(Snapshot{ProjectID: "p1", ProjectName: "One"})
	r2 := s.AddLayer(layer("a", "cube", nil))
	r3 := s.SetVoidConfig(VoidConfig{Preset: "nebula", Intensity: 0.5})

	want := []event{
		{ChangeProject, r1},
		{ChangeLayers, r2},
		{ChangeVoid, r3},
	}
	if !reflect.DeepEqual(events, want) {
		t.Fatalf("events %v, want %v", events, want)
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	s := NewStore()
	s.AddLayer(layer("a", "cube", map[string]any{"pos": []any{1.0, 2.0}}))

	snap := s.CurrentSnapshot()
	snap.Layers[0]["id"] = "tampered"
	snap.Layers[0]["pos"].([]any)[0] = 99.0

	layers := s.Layers()
	if layers[0].ID() != "a" {
		t.Fatalf("snapshot mutation leaked into store: %v", layers[0])
	}
	if layers[0]["pos"].([]any)[0] != 1.0 {
		t.Fatalf("nested snapshot mutation leaked into store: %v", layers[0])
	}
}

func TestLoadProjectReplacesWholesale(t *testing.T) {
	s := NewStore()
	s.AddLayer(layer("old", "cube", nil))

	s.LoadProject(Snapshot{
		ProjectID:   "p2",
		ProjectName: "Two",
		Layers:      []Layer{layer("new", "sphere", nil)},
		VoidConfig:  VoidConfig{Preset: "aurora", Intensity: 2},
	})

	layers := s.Layers()
	if len(layers) != 1 || layers[0].ID() != "new" {
		t.Fatalf("load did not replace layers: %v", layers)
	}
	if s.VoidConfig().Preset != "aurora" {
		t.Fatalf("load did not replace void config: %v", s.VoidConfig())
	}
	snap := s.CurrentSnapshot()
	if snap.ProjectID != "p2" || snap.ProjectName != "Two" {
		t.Fatalf("load did not replace project identity: %+v", snap)
	}
}
