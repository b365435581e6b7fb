// Package editor ties the editing units together: a static canvas or a
// frame rail with its timeline, the playback preview and the exporters.
// It is the surface the CLI and Lua scripts drive.
package editor

import (
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/ivlev/pixology/internal/canvas"
	"github.com/ivlev/pixology/internal/config"
	"github.com/ivlev/pixology/internal/layer"
	"github.com/ivlev/pixology/internal/logger"
	"github.com/ivlev/pixology/internal/rail"
	"github.com/ivlev/pixology/internal/raster"
	"github.com/ivlev/pixology/internal/renderer"
	"github.com/ivlev/pixology/internal/sequencer"
)

type Mode string

const (
	Static     Mode = "static"
	Animations Mode = "animations"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case Static, "":
		return Static, nil
	case Animations, "animation", "anim":
		return Animations, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// previewScale matches the export scale used for project thumbnails.
const previewScale = 4

type Workspace struct {
	name string
	mode Mode
	cfg  config.Config

	canvas   *canvas.Canvas
	rail     *rail.Rail
	timeline *sequencer.Timeline
	preview  *renderer.Preview

	onDraw      func(img *image.RGBA, index int)
	onHighlight func(pos int)
	onStop      func(err error)
	log         *zap.Logger
}

type Option func(*Workspace)

func WithLogger(l *zap.Logger) Option {
	return func(w *Workspace) { w.log = l }
}

func WithName(name string) Option {
	return func(w *Workspace) { w.name = name }
}

// WithDrawHandler receives every redraw of the playback preview.
func WithDrawHandler(fn func(img *image.RGBA, index int)) Option {
	return func(w *Workspace) { w.onDraw = fn }
}

// WithHighlight receives the playing chip position (-1 for none).
func WithHighlight(fn func(pos int)) Option {
	return func(w *Workspace) { w.onHighlight = fn }
}

// WithStopHandler is told when playback stops by itself.
func WithStopHandler(fn func(err error)) Option {
	return func(w *Workspace) { w.onStop = fn }
}

// New creates a blank workspace of cfg.Width×cfg.Height in the given mode.
func New(cfg config.Config, mode Mode, opts ...Option) *Workspace {
	w := &Workspace{name: "Untitled", mode: mode, cfg: cfg}
	for _, opt := range opts {
		opt(w)
	}
	w.log = logger.OrNop(w.log)
	w.reset(cfg.Width, cfg.Height)
	return w
}

// reset rebuilds every unit at the given size.
func (w *Workspace) reset(width, height int) {
	w.cfg.Width, w.cfg.Height = width, height
	w.canvas = canvas.New(width, height,
		canvas.WithCapacity(w.cfg.StaticHistory),
		canvas.WithLogger(w.log))
	w.rail = rail.New(width, height,
		rail.WithCapacity(w.cfg.RailHistory),
		rail.WithPreviewer(func(s *layer.Stack) image.Image {
			return renderer.RenderFrame(s, previewScale, false)
		}),
		rail.WithLogger(w.log))

	w.preview = renderer.NewPreview(renderer.PreviewSize, renderer.PreviewSize,
		renderer.WithOnionSkin(onionFromConfig(w.cfg.Onion)),
		renderer.WithDrawHandler(w.onDraw))

	player := sequencer.NewPlayer(w.cfg.FPS,
		sequencer.WithPreview(w.preview),
		sequencer.WithHighlight(w.onHighlight),
		sequencer.WithStopHandler(w.onStop),
		sequencer.WithPlayerLogger(w.log))
	w.timeline = sequencer.NewTimeline(w.rail.Len,
		sequencer.WithPlayer(player),
		sequencer.WithTimelineLogger(w.log))
	w.RefreshPreview()
}

func onionFromConfig(o config.Onion) renderer.OnionSkin {
	skin := renderer.DefaultOnionSkin()
	skin.Enabled = o.Enabled
	skin.Prev, skin.Next = o.Prev, o.Next
	skin.Fade = o.Fade
	if o.Mode == "tint" {
		skin.Mode = renderer.OnionTint
	}
	return skin
}

func (w *Workspace) Name() string                  { return w.name }
func (w *Workspace) SetName(name string)           { w.name = name }
func (w *Workspace) Mode() Mode                    { return w.mode }
func (w *Workspace) Config() config.Config         { return w.cfg }
func (w *Workspace) Canvas() *canvas.Canvas        { return w.canvas }
func (w *Workspace) Rail() *rail.Rail              { return w.rail }
func (w *Workspace) Timeline() *sequencer.Timeline { return w.timeline }
func (w *Workspace) Preview() *renderer.Preview    { return w.preview }
func (w *Workspace) Width() int                    { return w.cfg.Width }
func (w *Workspace) Height() int                   { return w.cfg.Height }

// SetMode switches between the static canvas and the animation rail.
// Both keep their content.
func (w *Workspace) SetMode(m Mode) {
	if m != w.mode {
		w.timeline.Stop()
		w.mode = m
	}
}

// Engine is the raster engine currently being edited.
func (w *Workspace) Engine() *raster.Engine {
	if w.mode == Animations {
		return w.rail.ActiveEngine()
	}
	return w.canvas.Engine()
}

// IsEmpty reports whether the current unit has nothing drawn.
func (w *Workspace) IsEmpty() bool {
	if w.mode == Animations {
		return w.rail.IsEmpty()
	}
	return w.canvas.IsEmpty()
}

func (w *Workspace) Undo() bool {
	if w.mode == Animations {
		ok := w.rail.Undo()
		w.afterRailEdit()
		return ok
	}
	return w.canvas.Undo()
}

func (w *Workspace) Redo() bool {
	if w.mode == Animations {
		ok := w.rail.Redo()
		w.afterRailEdit()
		return ok
	}
	return w.canvas.Redo()
}

func (w *Workspace) CanUndo() bool {
	if w.mode == Animations {
		return w.rail.CanUndo()
	}
	return w.canvas.CanUndo()
}

func (w *Workspace) CanRedo() bool {
	if w.mode == Animations {
		return w.rail.CanRedo()
	}
	return w.canvas.CanRedo()
}

// MakeSnapshot copies the static canvas.
func (w *Workspace) MakeSnapshot() raster.Snapshot {
	return w.canvas.MakeSnapshot()
}

// LoadFromSnapshot replaces the static canvas, resizing the workspace to
// the snapshot when it carries a size.
func (w *Workspace) LoadFromSnapshot(s raster.Snapshot) {
	if sw, sh := s.Layers.Width, s.Layers.Height; sw > 0 && sh > 0 && (sw != w.cfg.Width || sh != w.cfg.Height) {
		w.reset(sw, sh)
	}
	w.canvas.LoadFromSnapshot(s)
	w.mode = Static
}

func (w *Workspace) CollectAnimationSnapshot() rail.Snapshot {
	return w.rail.CollectSnapshot()
}

func (w *Workspace) LoadFromAnimationSnapshot(s rail.Snapshot) {
	w.timeline.Stop()
	if s.Width > 0 && s.Height > 0 && (s.Width != w.cfg.Width || s.Height != w.cfg.Height) {
		anims := w.timeline.Collect()
		w.reset(s.Width, s.Height)
		w.timeline.Load(anims)
	}
	w.rail.LoadSnapshot(s)
	w.mode = Animations
	w.afterRailEdit()
}

func (w *Workspace) CollectTimelineSnapshot() []sequencer.Animation {
	return w.timeline.Collect()
}

func (w *Workspace) LoadFromTimelineSnapshot(anims []sequencer.Animation) {
	w.timeline.Load(anims)
}

// AddFrame appends a frame seeded from the last one and selects it.
func (w *Workspace) AddFrame() *rail.Frame {
	f := w.rail.AddFrame()
	w.afterRailEdit()
	return f
}

// RemoveFrame deletes a frame. The sole frame cannot be removed.
func (w *Workspace) RemoveFrame(id string) bool {
	ok := w.rail.RemoveFrame(id)
	if ok {
		w.afterRailEdit()
	}
	return ok
}

// afterRailEdit re-derives playback after the frame set changed.
func (w *Workspace) afterRailEdit() {
	w.RefreshPreview()
	w.timeline.Refresh()
}

// RefreshPreview hands the current frames to the playback preview.
func (w *Workspace) RefreshPreview() {
	frames := w.rail.Frames()
	srcs := make([]renderer.Source, len(frames))
	for i, f := range frames {
		srcs[i] = w.rail.Engine(f.ID).Stack().Snapshot()
	}
	cur := min(w.preview.Index(), len(srcs)-1)
	w.preview.SetFrames(srcs)
	if cur > 0 {
		w.preview.Seek(cur)
	}
}

// SetOnionSkin reconfigures the preview ghosts.
func (w *Workspace) SetOnionSkin(o renderer.OnionSkin) {
	w.preview.SetOnionSkin(o)
}

func (w *Workspace) String() string {
	return fmt.Sprintf("%s %dx%d (%s)", w.name, w.cfg.Width, w.cfg.Height, w.mode)
}
