// Package raster is the drawing surface of a single frame: guarded pixel
// writes, coalesced strokes, flood fill, picking and compositing.
package raster

import (
	"errors"

	"go.uber.org/zap"

	"github.com/ivlev/pixology/internal/history"
	"github.com/ivlev/pixology/internal/layer"
	"github.com/ivlev/pixology/internal/logger"
	"github.com/ivlev/pixology/internal/pixel"
)

// Guard rejections. The messages are shown to the user as is.
var (
	ErrNoActiveLayer = errors.New("no active layer")
	ErrLayerLocked   = errors.New("layer locked")
	ErrLayerHidden   = errors.New("layer hidden")
	ErrUnknownLayer  = errors.New("unknown layer")
)

// Engine owns one frame's layer stack. It is not safe for concurrent use.
type Engine struct {
	frameID string
	stack   *layer.Stack
	active  string
	stroke  *Stroke
	log     *zap.Logger
}

type Option func(*Engine)

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New creates an engine with an empty layer stack.
func New(frameID string, width, height int, opts ...Option) *Engine {
	e := &Engine{
		frameID: frameID,
		stack:   layer.NewStack(width, height),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = logger.OrNop(e.log).With(zap.String("frame", frameID))
	return e
}

func (e *Engine) FrameID() string       { return e.frameID }
func (e *Engine) Width() int            { return e.stack.Width() }
func (e *Engine) Height() int           { return e.stack.Height() }
func (e *Engine) Stack() *layer.Stack   { return e.stack }
func (e *Engine) ActiveLayerID() string { return e.active }

// SetActiveLayer selects id. An unknown id clears the selection.
func (e *Engine) SetActiveLayer(id string) {
	if e.stack.Get(id) == nil {
		id = ""
	}
	e.active = id
}

// EnsureDrawableLayer returns the active layer if it can be drawn on.
func (e *Engine) EnsureDrawableLayer() (*layer.Layer, error) {
	if e.active == "" {
		return nil, ErrNoActiveLayer
	}
	l := e.stack.Get(e.active)
	if l == nil {
		return nil, ErrNoActiveLayer
	}
	if l.Locked {
		return nil, ErrLayerLocked
	}
	if !l.Visible {
		return nil, ErrLayerHidden
	}
	return l, nil
}

// SetPixel writes one cell of layerID without any guard. It returns the
// diff and false when nothing changed (unknown layer, out of bounds or
// same value).
func (e *Engine) SetPixel(layerID string, row, col int, c pixel.Color) (history.Diff, bool) {
	l := e.stack.Get(layerID)
	if l == nil || !l.Pixels.InBounds(row, col) {
		return history.Diff{}, false
	}
	prev := l.Pixels.At(row, col)
	if prev == c {
		return history.Diff{}, false
	}
	l.Pixels.Set(row, col, c)
	return history.Diff{LayerID: layerID, Row: row, Col: col, Prev: prev, Next: c}, true
}

// Composite returns the visible colour at a cell.
func (e *Engine) Composite(row, col int) pixel.Color {
	return e.stack.Composite(row, col)
}

// PickColor returns the composite colour, or false for a transparent cell.
func (e *Engine) PickColor(row, col int) (pixel.Color, bool) {
	c := e.stack.Composite(row, col)
	return c, c.Set
}

// IsEmpty reports whether no layer has a drawn pixel.
func (e *Engine) IsEmpty() bool {
	return e.stack.IsEmpty()
}

// ApplyPixels replays a pixel entry. Lock and visibility are ignored.
func (e *Engine) ApplyPixels(entry history.PixelEntry, forward bool) {
	for _, d := range entry.Diffs {
		l := e.stack.Get(d.LayerID)
		if l == nil {
			continue
		}
		if forward {
			l.Pixels.Set(d.Row, d.Col, d.Next)
		} else {
			l.Pixels.Set(d.Row, d.Col, d.Prev)
		}
	}
}

// ApplyLayers restores the stack and selection recorded in a layer entry.
func (e *Engine) ApplyLayers(entry history.LayerEntry, forward bool) {
	if forward {
		e.stack.Restore(entry.After)
		e.SetActiveLayer(entry.SelectedAfter)
	} else {
		e.stack.Restore(entry.Before)
		e.SetActiveLayer(entry.SelectedBefore)
	}
}
