package raster

import (
	"strings"

	"go.uber.org/zap"

	"github.com/ivlev/pixology/internal/history"
	"github.com/ivlev/pixology/internal/layer"
)

// withLayerHistory runs mutate and, when it reports a change, returns the
// entry describing the stack and selection before and after.
func (e *Engine) withLayerHistory(op string, mutate func() bool) (history.LayerEntry, bool) {
	before := e.stack.Snapshot()
	selBefore := e.active
	if !mutate() {
		return history.LayerEntry{}, false
	}
	e.log.Debug("layer edit", zap.String("op", op), zap.Int("layers", e.stack.Len()))
	return history.LayerEntry{
		FrameID:        e.frameID,
		Before:         before,
		After:          e.stack.Snapshot(),
		SelectedBefore: selBefore,
		SelectedAfter:  e.active,
	}, true
}

// AddLayer puts a new blank layer on top and selects it.
func (e *Engine) AddLayer() (history.LayerEntry, bool) {
	return e.withLayerHistory("add", func() bool {
		l := layer.New(layer.DefaultName(e.stack.Len()+1), e.stack.Width(), e.stack.Height())
		if err := e.stack.Insert(0, l); err != nil {
			e.log.Warn("add layer", zap.Error(err))
			return false
		}
		e.active = l.ID
		return true
	})
}

func (e *Engine) ToggleVisible(id string) (history.LayerEntry, bool) {
	return e.withLayerHistory("toggle-visible", func() bool {
		l := e.stack.Get(id)
		if l == nil {
			return false
		}
		l.Visible = !l.Visible
		return true
	})
}

func (e *Engine) ToggleLocked(id string) (history.LayerEntry, bool) {
	return e.withLayerHistory("toggle-locked", func() bool {
		l := e.stack.Get(id)
		if l == nil {
			return false
		}
		l.Locked = !l.Locked
		return true
	})
}

// RenameLayer trims name; a blank name is ignored.
func (e *Engine) RenameLayer(id, name string) (history.LayerEntry, bool) {
	name = strings.TrimSpace(name)
	return e.withLayerHistory("rename", func() bool {
		l := e.stack.Get(id)
		if l == nil || name == "" || l.Name == name {
			return false
		}
		l.Name = name
		return true
	})
}

// DeleteLayer removes id. When it was active the first remaining layer
// becomes active (or none).
func (e *Engine) DeleteLayer(id string) (history.LayerEntry, bool) {
	return e.withLayerHistory("delete", func() bool {
		if !e.stack.Remove(id) {
			return false
		}
		if e.active == id {
			e.active = ""
			if first := e.stack.At(0); first != nil {
				e.active = first.ID
			}
		}
		return true
	})
}

// SelectLayer makes id active.
func (e *Engine) SelectLayer(id string) (history.LayerEntry, bool) {
	return e.withLayerHistory("select", func() bool {
		if e.active == id || e.stack.Get(id) == nil {
			return false
		}
		e.active = id
		return true
	})
}

// MoveLayer changes the position of id in the stack (0 is top).
func (e *Engine) MoveLayer(id string, to int) (history.LayerEntry, bool) {
	return e.withLayerHistory("move", func() bool {
		from := e.stack.Index(id)
		if from < 0 || from == to || to < 0 || to >= e.stack.Len() {
			return false
		}
		return e.stack.Move(id, to)
	})
}

// EnsureLayer adds a blank "Layer 1" to an empty stack and selects it.
// This is not recorded in history.
func (e *Engine) EnsureLayer() bool {
	if e.stack.Len() > 0 {
		return false
	}
	l := layer.New(layer.DefaultName(1), e.stack.Width(), e.stack.Height())
	if err := e.stack.Insert(0, l); err != nil {
		return false
	}
	e.active = l.ID
	return true
}
