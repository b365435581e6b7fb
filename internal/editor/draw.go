package editor

import (
	"github.com/ivlev/pixology/internal/pixel"
	"github.com/ivlev/pixology/internal/raster"
)

// Stroke draws a connected polyline through points as one undoable unit.
// A single point paints one cell. When a guard stops the gesture midway the
// cells already painted are still committed.
func (w *Workspace) Stroke(c pixel.Color, points ...[2]int) (bool, error) {
	s, err := w.beginStroke(c)
	if err != nil {
		return false, err
	}
	for i, p := range points {
		if i == 0 {
			err = s.Continue(p[0], p[1])
		} else {
			err = s.LineTo(p[0], p[1])
		}
		if err != nil {
			return w.endStroke(s), err
		}
	}
	return w.endStroke(s), nil
}

// Paint sets one cell.
func (w *Workspace) Paint(row, col int, c pixel.Color) (bool, error) {
	return w.Stroke(c, [2]int{row, col})
}

// Erase clears one cell.
func (w *Workspace) Erase(row, col int) (bool, error) {
	return w.Stroke(pixel.None, [2]int{row, col})
}

func (w *Workspace) beginStroke(c pixel.Color) (*raster.Stroke, error) {
	if w.mode == Animations {
		return w.rail.BeginStroke(c)
	}
	return w.canvas.BeginStroke(c)
}

func (w *Workspace) endStroke(s *raster.Stroke) bool {
	if w.mode == Animations {
		ok := w.rail.EndStroke(s)
		w.RefreshPreview()
		return ok
	}
	return w.canvas.EndStroke(s)
}

func (w *Workspace) Fill(row, col int, c pixel.Color, opts raster.FillOptions) (bool, error) {
	if w.mode == Animations {
		ok, err := w.rail.Fill(row, col, c, opts)
		if ok {
			w.RefreshPreview()
		}
		return ok, err
	}
	return w.canvas.Fill(row, col, c, opts)
}

func (w *Workspace) PickColor(row, col int) (pixel.Color, bool) {
	if w.mode == Animations {
		return w.rail.PickColor(row, col)
	}
	return w.canvas.PickColor(row, col)
}

// layerOps is the layer surface shared by the canvas and the rail.
type layerOps interface {
	AddLayer() bool
	ToggleVisible(id string) bool
	ToggleLocked(id string) bool
	RenameLayer(id, name string) bool
	DeleteLayer(id string) bool
	MoveLayer(id string, to int) bool
}

func (w *Workspace) layers() layerOps {
	if w.mode == Animations {
		return w.rail
	}
	return w.canvas
}

func (w *Workspace) layerEdit(ok bool) bool {
	if ok && w.mode == Animations {
		w.RefreshPreview()
	}
	return ok
}

func (w *Workspace) AddLayer() bool               { return w.layerEdit(w.layers().AddLayer()) }
func (w *Workspace) ToggleVisible(id string) bool { return w.layerEdit(w.layers().ToggleVisible(id)) }
func (w *Workspace) ToggleLocked(id string) bool  { return w.layerEdit(w.layers().ToggleLocked(id)) }
func (w *Workspace) DeleteLayer(id string) bool   { return w.layerEdit(w.layers().DeleteLayer(id)) }

func (w *Workspace) RenameLayer(id, name string) bool {
	return w.layers().RenameLayer(id, name)
}

func (w *Workspace) MoveLayer(id string, to int) bool {
	return w.layerEdit(w.layers().MoveLayer(id, to))
}

// SelectLayer changes the active layer of the current frame.
func (w *Workspace) SelectLayer(id string) bool {
	if w.mode == Animations {
		return w.rail.SelectLayer(id)
	}
	if w.canvas.Engine().Stack().Get(id) == nil {
		return false
	}
	w.canvas.SelectLayer(id)
	return true
}

// ActiveLayerID is the selected layer of the frame being edited.
func (w *Workspace) ActiveLayerID() string {
	return w.Engine().ActiveLayerID()
}

// SelectFrame makes frame i (0-based) the one being edited.
func (w *Workspace) SelectFrame(i int) bool {
	return w.rail.SelectFrame(i)
}
