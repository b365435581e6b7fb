package raster

import (
	"testing"

	"github.com/ivlev/pixology/internal/history"
	"github.com/ivlev/pixology/internal/pixel"
)

func TestLayerCRUDHistory(t *testing.T) {
	e := newEngine(t, 2, 2)
	hist := history.NewStack(history.StaticCapacity)
	first := e.ActiveLayerID()

	entry, ok := e.AddLayer()
	if !ok {
		t.Fatal("AddLayer reported no change")
	}
	hist.Push(entry)
	second := e.ActiveLayerID()
	if second == first || e.Stack().At(0).ID != second {
		t.Fatal("new layer should be on top and active")
	}
	if name := e.Stack().At(0).Name; name != "Layer 2" {
		t.Errorf("new layer name = %q", name)
	}

	if entry, ok := e.RenameLayer(second, "  ink  "); ok {
		hist.Push(entry)
	}
	if e.Stack().Get(second).Name != "ink" {
		t.Errorf("rename should trim, got %q", e.Stack().Get(second).Name)
	}
	if _, ok := e.RenameLayer(second, "   "); ok {
		t.Error("blank rename must be ignored")
	}

	if entry, ok := e.DeleteLayer(second); ok {
		hist.Push(entry)
	}
	if e.ActiveLayerID() != first || e.Stack().Len() != 1 {
		t.Fatalf("delete of active layer should select the first remaining one")
	}

	hist.Undo(e) // delete
	if e.Stack().Len() != 2 || e.ActiveLayerID() != second {
		t.Errorf("undo delete: len=%d active=%s", e.Stack().Len(), e.ActiveLayerID())
	}
	hist.Undo(e) // rename
	hist.Undo(e) // add
	if e.Stack().Len() != 1 || e.ActiveLayerID() != first {
		t.Errorf("undo add: len=%d active=%s", e.Stack().Len(), e.ActiveLayerID())
	}
	hist.Redo(e)
	if e.Stack().Len() != 2 || e.ActiveLayerID() != second {
		t.Error("redo add should restore the layer and selection")
	}
}

func TestDeleteKeepsPixelsForUndo(t *testing.T) {
	e := newEngine(t, 2, 2)
	id := e.ActiveLayerID()
	e.SetPixel(id, 0, 0, red)

	entry, ok := e.DeleteLayer(id)
	if !ok {
		t.Fatal("delete failed")
	}
	if e.ActiveLayerID() != "" {
		t.Error("deleting the only layer leaves no active layer")
	}
	e.ApplyLayers(entry, false)
	if e.Composite(0, 0) != red {
		t.Error("undo of delete lost the layer pixels")
	}
}

func TestSelectAndMove(t *testing.T) {
	e := newEngine(t, 1, 1)
	bottom := e.ActiveLayerID()
	e.AddLayer()
	top := e.ActiveLayerID()

	if _, ok := e.SelectLayer(top); ok {
		t.Error("selecting the active layer is a no-op")
	}
	if _, ok := e.SelectLayer("nope"); ok {
		t.Error("selecting an unknown layer is a no-op")
	}
	if entry, ok := e.SelectLayer(bottom); !ok || entry.SelectedBefore != top || entry.SelectedAfter != bottom {
		t.Errorf("select entry = %+v", entry)
	}

	e.SetPixel(bottom, 0, 0, red)
	e.SetPixel(top, 0, 0, pixel.RGB(0, 0, 255))
	if _, ok := e.MoveLayer(bottom, 0); !ok {
		t.Fatal("move failed")
	}
	if e.Composite(0, 0) != red {
		t.Error("moved layer should now win compositing")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	e := newEngine(t, 3, 2)
	paint(t, e, [][]string{{"#010203", "", "#0a0b0c"}, {"", "#ffffff", ""}})
	e.AddLayer()
	e.ToggleLocked(e.ActiveLayerID())
	snap := e.Snapshot()

	other := New("f2", 3, 2)
	other.LoadSnapshot(snap)
	got := other.Snapshot()
	if got.SelectedLayerID != snap.SelectedLayerID {
		t.Errorf("selection %q != %q", got.SelectedLayerID, snap.SelectedLayerID)
	}
	if !got.Layers.Equal(snap.Layers) {
		t.Error("snapshot round trip is lossy")
	}

	snap.SelectedLayerID = ""
	other.LoadSnapshot(snap)
	if other.ActiveLayerID() != other.Stack().At(0).ID {
		t.Error("missing selection should default to the first layer")
	}
}
