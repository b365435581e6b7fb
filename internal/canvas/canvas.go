// Package canvas is the static (single frame) editing unit: one raster
// engine with its own history.
package canvas

import (
	"go.uber.org/zap"

	"github.com/ivlev/pixology/internal/history"
	"github.com/ivlev/pixology/internal/logger"
	"github.com/ivlev/pixology/internal/pixel"
	"github.com/ivlev/pixology/internal/raster"
)

type Canvas struct {
	engine  *raster.Engine
	history *history.Stack
	log     *zap.Logger
}

type Option func(*options)

type options struct {
	capacity int
	log      *zap.Logger
}

// WithCapacity bounds the undo history.
func WithCapacity(n int) Option {
	return func(o *options) { o.capacity = n }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// New creates a canvas with a single blank "Layer 1" selected.
func New(width, height int, opts ...Option) *Canvas {
	o := options{capacity: history.StaticCapacity}
	for _, opt := range opts {
		opt(&o)
	}
	l := logger.OrNop(o.log).Named("canvas")
	e := raster.New("", width, height, raster.WithLogger(l))
	e.EnsureLayer()
	return &Canvas{engine: e, history: history.NewStack(o.capacity), log: l}
}

func (c *Canvas) Engine() *raster.Engine { return c.engine }
func (c *Canvas) Width() int             { return c.engine.Width() }
func (c *Canvas) Height() int            { return c.engine.Height() }

// BeginStroke starts a gesture on the active layer.
func (c *Canvas) BeginStroke(color pixel.Color) (*raster.Stroke, error) {
	return c.engine.BeginStroke(color)
}

// EndStroke closes s and records it. Reports whether anything was recorded.
func (c *Canvas) EndStroke(s *raster.Stroke) bool {
	entry, ok := s.End()
	if ok {
		c.history.Push(entry)
	}
	return ok
}

// Fill flood-fills from (row, col) on the active layer.
func (c *Canvas) Fill(row, col int, color pixel.Color, opts raster.FillOptions) (bool, error) {
	l, err := c.engine.EnsureDrawableLayer()
	if err != nil {
		return false, err
	}
	entry, ok := c.engine.FloodFill(l.ID, row, col, color, opts)
	if ok {
		c.history.Push(entry)
	}
	return ok, nil
}

func (c *Canvas) PickColor(row, col int) (pixel.Color, bool) {
	return c.engine.PickColor(row, col)
}

func (c *Canvas) record(entry history.LayerEntry, ok bool) bool {
	if ok {
		c.history.Push(entry)
	}
	return ok
}

func (c *Canvas) AddLayer() bool { return c.record(c.engine.AddLayer()) }

func (c *Canvas) ToggleVisible(id string) bool { return c.record(c.engine.ToggleVisible(id)) }

func (c *Canvas) ToggleLocked(id string) bool { return c.record(c.engine.ToggleLocked(id)) }

func (c *Canvas) RenameLayer(id, name string) bool { return c.record(c.engine.RenameLayer(id, name)) }

func (c *Canvas) DeleteLayer(id string) bool { return c.record(c.engine.DeleteLayer(id)) }

func (c *Canvas) MoveLayer(id string, to int) bool { return c.record(c.engine.MoveLayer(id, to)) }

// SelectLayer changes the active layer. Selection alone is not undoable here.
func (c *Canvas) SelectLayer(id string) {
	c.engine.SetActiveLayer(id)
}

func (c *Canvas) Undo() bool    { return c.history.Undo(c.engine) }
func (c *Canvas) Redo() bool    { return c.history.Redo(c.engine) }
func (c *Canvas) CanUndo() bool { return c.history.CanUndo() }
func (c *Canvas) CanRedo() bool { return c.history.CanRedo() }

func (c *Canvas) IsEmpty() bool { return c.engine.IsEmpty() }

// MakeSnapshot copies every layer and the selection.
func (c *Canvas) MakeSnapshot() raster.Snapshot {
	return c.engine.Snapshot()
}

// LoadFromSnapshot replaces the content and clears history. A snapshot
// without layers leaves one blank layer.
func (c *Canvas) LoadFromSnapshot(s raster.Snapshot) {
	c.engine.LoadSnapshot(s)
	c.engine.EnsureLayer()
	c.history.Clear()
	c.log.Debug("snapshot loaded", zap.Int("layers", c.engine.Stack().Len()))
}
