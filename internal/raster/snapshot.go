package raster

import "github.com/ivlev/pixology/internal/layer"

// Snapshot is a lossless copy of the frame: every layer with its pixels
// plus the selected layer.
type Snapshot struct {
	SelectedLayerID string
	Layers          layer.Snapshot
}

func (e *Engine) Snapshot() Snapshot {
	return Snapshot{SelectedLayerID: e.active, Layers: e.stack.Snapshot()}
}

// LoadSnapshot replaces all layers. An unset or unknown selection falls
// back to the first layer. Any stroke in progress is dropped.
func (e *Engine) LoadSnapshot(s Snapshot) {
	if e.stroke != nil {
		e.stroke.done = true
		e.stroke = nil
	}
	e.stack.Restore(s.Layers)
	e.active = ""
	if s.SelectedLayerID != "" && e.stack.Get(s.SelectedLayerID) != nil {
		e.active = s.SelectedLayerID
	} else if first := e.stack.At(0); first != nil {
		e.active = first.ID
	}
}
