package rail

import (
	"go.uber.org/zap"

	"github.com/ivlev/pixology/internal/history"
	"github.com/ivlev/pixology/internal/pixel"
	"github.com/ivlev/pixology/internal/raster"
)

// BeginStroke starts a gesture on the active frame.
func (r *Rail) BeginStroke(color pixel.Color) (*raster.Stroke, error) {
	return r.ActiveEngine().BeginStroke(color)
}

// EndStroke closes s and records it against its frame.
func (r *Rail) EndStroke(s *raster.Stroke) bool {
	entry, ok := s.End()
	if ok {
		r.history.Push(entry)
	}
	return ok
}

// Fill flood-fills on the active layer of the active frame.
func (r *Rail) Fill(row, col int, color pixel.Color, opts raster.FillOptions) (bool, error) {
	e := r.ActiveEngine()
	l, err := e.EnsureDrawableLayer()
	if err != nil {
		return false, err
	}
	entry, ok := e.FloodFill(l.ID, row, col, color, opts)
	if ok {
		r.history.Push(entry)
	}
	return ok, nil
}

func (r *Rail) PickColor(row, col int) (pixel.Color, bool) {
	return r.ActiveEngine().PickColor(row, col)
}

func (r *Rail) record(entry history.LayerEntry, ok bool) bool {
	if ok {
		r.history.Push(entry)
	}
	return ok
}

// Layer edits below apply to the active frame only.

func (r *Rail) AddLayer() bool { return r.record(r.ActiveEngine().AddLayer()) }

func (r *Rail) SelectLayer(id string) bool { return r.record(r.ActiveEngine().SelectLayer(id)) }

func (r *Rail) ToggleVisible(id string) bool { return r.record(r.ActiveEngine().ToggleVisible(id)) }

func (r *Rail) ToggleLocked(id string) bool { return r.record(r.ActiveEngine().ToggleLocked(id)) }

func (r *Rail) RenameLayer(id, name string) bool {
	return r.record(r.ActiveEngine().RenameLayer(id, name))
}

func (r *Rail) DeleteLayer(id string) bool { return r.record(r.ActiveEngine().DeleteLayer(id)) }

func (r *Rail) MoveLayer(id string, to int) bool {
	return r.record(r.ActiveEngine().MoveLayer(id, to))
}

// ApplyPixels routes a replay to the frame that produced the entry.
// Entries of removed frames are skipped.
func (r *Rail) ApplyPixels(e history.PixelEntry, forward bool) {
	if eng := r.engines[e.FrameID]; eng != nil {
		eng.ApplyPixels(e, forward)
		return
	}
	r.log.Debug("replay for missing frame", zap.String("frame", e.FrameID))
}

func (r *Rail) ApplyLayers(e history.LayerEntry, forward bool) {
	if eng := r.engines[e.FrameID]; eng != nil {
		eng.ApplyLayers(e, forward)
		return
	}
	r.log.Debug("replay for missing frame", zap.String("frame", e.FrameID))
}

func (r *Rail) Undo() bool    { return r.history.Undo(r) }
func (r *Rail) Redo() bool    { return r.history.Redo(r) }
func (r *Rail) CanUndo() bool { return r.history.CanUndo() }
func (r *Rail) CanRedo() bool { return r.history.CanRedo() }

// IsEmpty is true when no frame has a drawn pixel.
func (r *Rail) IsEmpty() bool {
	for _, f := range r.frames {
		if !r.engines[f.ID].IsEmpty() {
			return false
		}
	}
	return true
}
