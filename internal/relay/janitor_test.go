package relay

import (
	"testing"
	"time"

	"github.com/mhd-br/void-studio/internal/canvas"
)

func TestJanitorEvictsIdleRooms(t *testing.T) {
	r := New()
	j := NewJanitor(r, time.Minute)

	a := &fakeSender{}
	r.Join("A", "r1", "Ann", "#111", a)
	r.CanvasUpdate("A", "r1", canvas.Snapshot{ProjectID: "p1"})
	r.Disconnect("A")

	// Grace has not elapsed yet.
	j.Sweep(time.Now())
	if _, ok := r.State().Get("r1"); !ok {
		t.Fatalf("room evicted before the grace period")
	}

	j.Sweep(time.Now().Add(2 * time.Minute))
	if _, ok := r.State().Get("r1"); ok {
		t.Fatalf("idle room's snapshot survived the sweep")
	}
}

func TestJanitorKeepsRejoinedRooms(t *testing.T) {
	r := New()
	j := NewJanitor(r, time.Minute)

	a := &fakeSender{}
	r.Join("A", "r1", "Ann", "#111", a)
	r.CanvasUpdate("A", "r1", canvas.Snapshot{ProjectID: "p1"})
	r.Disconnect("A")

	// A member returns before the sweep; the snapshot must survive.
	b := &fakeSender{}
	r.Join("B", "r1", "Bob", "#222", b)

	j.Sweep(time.Now().Add(2 * time.Minute))
	if _, ok := r.State().Get("r1"); !ok {
		t.Fatalf("occupied room was evicted")
	}
	if len(b.byType(EventRoomState)) != 1 {
		t.Fatalf("rejoiner did not receive the preserved snapshot")
	}
}

func TestJanitorStartStop(t *testing.T) {
	r := New()
	j := NewJanitor(r, time.Minute)
	j.Start()
	j.Stop()
}
