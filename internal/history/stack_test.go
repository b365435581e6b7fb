package history

import (
	"testing"

	"github.com/ivlev/pixology/internal/pixel"
)

type recorder struct {
	calls []string
}

func (r *recorder) ApplyPixels(e PixelEntry, forward bool) {
	r.calls = append(r.calls, label("px", e.FrameID, forward))
}

func (r *recorder) ApplyLayers(e LayerEntry, forward bool) {
	r.calls = append(r.calls, label("ly", e.FrameID, forward))
}

func label(kind, id string, forward bool) string {
	if forward {
		return kind + ":" + id + ":redo"
	}
	return kind + ":" + id + ":undo"
}

func pixelEntry(id string) PixelEntry {
	return PixelEntry{FrameID: id, Diffs: []Diff{{LayerID: "l", Next: pixel.RGB(1, 1, 1)}}}
}

func TestUndoRedoOrder(t *testing.T) {
	s := NewStack(10)
	r := &recorder{}

	if s.Undo(r) || s.Redo(r) {
		t.Fatal("empty stack should be a no-op")
	}

	s.Push(pixelEntry("a"))
	s.Push(LayerEntry{FrameID: "b"})

	if !s.Undo(r) || !s.Undo(r) {
		t.Fatal("expected two undos")
	}
	if s.CanUndo() || !s.CanRedo() {
		t.Errorf("CanUndo=%v CanRedo=%v", s.CanUndo(), s.CanRedo())
	}
	if !s.Redo(r) {
		t.Fatal("expected redo")
	}

	want := []string{"ly:b:undo", "px:a:undo", "px:a:redo"}
	if len(r.calls) != len(want) {
		t.Fatalf("calls = %v", r.calls)
	}
	for i := range want {
		if r.calls[i] != want[i] {
			t.Errorf("call %d = %s, want %s", i, r.calls[i], want[i])
		}
	}
}

func TestPushClearsRedo(t *testing.T) {
	s := NewStack(10)
	r := &recorder{}
	s.Push(pixelEntry("a"))
	s.Undo(r)
	if !s.CanRedo() {
		t.Fatal("expected redo after undo")
	}
	s.Push(pixelEntry("b"))
	if s.CanRedo() {
		t.Error("push must clear redo")
	}
}

func TestCapacityDropsOldest(t *testing.T) {
	s := NewStack(3)
	for _, id := range []string{"1", "2", "3", "4", "5"} {
		s.Push(pixelEntry(id))
	}
	undo, redo := s.Len()
	if undo != 3 || redo != 0 {
		t.Fatalf("Len = %d/%d, want 3/0", undo, redo)
	}

	r := &recorder{}
	for s.Undo(r) {
	}
	want := []string{"px:5:undo", "px:4:undo", "px:3:undo"}
	for i := range want {
		if r.calls[i] != want[i] {
			t.Errorf("call %d = %s, want %s", i, r.calls[i], want[i])
		}
	}
}

func TestClear(t *testing.T) {
	s := NewStack(0)
	if s.Capacity() != StaticCapacity {
		t.Errorf("default capacity = %d", s.Capacity())
	}
	s.Push(pixelEntry("a"))
	s.Undo(&recorder{})
	s.Push(pixelEntry("b"))
	s.Clear()
	if s.CanUndo() || s.CanRedo() {
		t.Error("Clear left entries behind")
	}
	if s.PeekUndo() != nil || s.PeekRedo() != nil {
		t.Error("Peek on empty stack should be nil")
	}
}
