// Package rail holds the ordered frames of an animation project. Every frame
// owns its raster engine; the rail keeps them in an arena keyed by frame id
// and routes history replays through it.
package rail

import (
	"fmt"
	"image"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ivlev/pixology/internal/history"
	"github.com/ivlev/pixology/internal/layer"
	"github.com/ivlev/pixology/internal/logger"
	"github.com/ivlev/pixology/internal/raster"
)

// Frame is one keyframe of the rail.
type Frame struct {
	ID   string
	Name string
	// seed is applied when the frame's engine registers with the rail.
	seed *raster.Snapshot
}

// FrameName is the display name of the frame at index i.
func FrameName(i int) string {
	return fmt.Sprintf("Frame %d", i+1)
}

// Previewer renders a frame for snapshots. It may return nil.
type Previewer func(s *layer.Stack) image.Image

type Rail struct {
	width, height int
	frames        []*Frame
	engines       map[string]*raster.Engine
	active        int
	history       *history.Stack
	preview       Previewer
	log           *zap.Logger
}

type Option func(*Rail)

// WithCapacity bounds the undo history. Values below 1 keep the default.
func WithCapacity(n int) Option {
	return func(r *Rail) {
		if n > 0 {
			r.history = history.NewStack(n)
		}
	}
}

func WithPreviewer(p Previewer) Option {
	return func(r *Rail) { r.preview = p }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Rail) { r.log = l }
}

// New creates a rail with one blank frame.
func New(width, height int, opts ...Option) *Rail {
	r := &Rail{
		width:   width,
		height:  height,
		engines: make(map[string]*raster.Engine),
		history: history.NewStack(history.RailCapacity),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = logger.OrNop(r.log).Named("rail")
	r.frames = []*Frame{r.blankFrame(0)}
	r.register(r.frames[0])
	return r
}

func (r *Rail) Width() int  { return r.width }
func (r *Rail) Height() int { return r.height }
func (r *Rail) Len() int    { return len(r.frames) }

func (r *Rail) blankFrame(i int) *Frame {
	return &Frame{ID: uuid.New().String(), Name: FrameName(i)}
}

// register creates the frame's engine, applies any pending seed and adds it
// to the arena.
func (r *Rail) register(f *Frame) *raster.Engine {
	e := raster.New(f.ID, r.width, r.height, raster.WithLogger(r.log))
	if f.seed != nil {
		e.LoadSnapshot(*f.seed)
		f.seed = nil
	}
	e.EnsureLayer()
	r.engines[f.ID] = e
	return e
}

// Frames returns the frames in order.
func (r *Rail) Frames() []*Frame {
	out := make([]*Frame, len(r.frames))
	copy(out, r.frames)
	return out
}

// Frame returns the frame at index i or nil.
func (r *Rail) Frame(i int) *Frame {
	if i < 0 || i >= len(r.frames) {
		return nil
	}
	return r.frames[i]
}

// Index returns the position of frame id, or -1.
func (r *Rail) Index(id string) int {
	for i, f := range r.frames {
		if f.ID == id {
			return i
		}
	}
	return -1
}

// Engine looks up a frame's engine in the arena.
func (r *Rail) Engine(frameID string) *raster.Engine {
	return r.engines[frameID]
}

func (r *Rail) ActiveIndex() int { return r.active }

func (r *Rail) ActiveFrame() *Frame { return r.frames[r.active] }

// ActiveEngine is the engine of the selected frame.
func (r *Rail) ActiveEngine() *raster.Engine {
	return r.engines[r.frames[r.active].ID]
}

// SelectFrame makes frame i active. Out of range is ignored.
func (r *Rail) SelectFrame(i int) bool {
	if i < 0 || i >= len(r.frames) || i == r.active {
		return false
	}
	r.active = i
	return true
}

// AddFrame appends a frame seeded with the layers and pixels of the last
// frame and selects it.
func (r *Rail) AddFrame() *Frame {
	last := r.frames[len(r.frames)-1]
	seed := r.engines[last.ID].Snapshot()

	f := r.blankFrame(len(r.frames))
	f.seed = &seed
	r.frames = append(r.frames, f)
	r.register(f)
	r.active = len(r.frames) - 1

	r.log.Debug("frame added", zap.String("id", f.ID), zap.Int("frames", len(r.frames)))
	return f
}

// RemoveFrame deletes frame id. The last remaining frame cannot be removed.
// Remaining frames are renamed "Frame 1".."Frame N" and the active index
// moves to the previous neighbour.
func (r *Rail) RemoveFrame(id string) bool {
	if len(r.frames) <= 1 {
		return false
	}
	idx := r.Index(id)
	if idx < 0 {
		return false
	}

	r.frames = append(r.frames[:idx], r.frames[idx+1:]...)
	delete(r.engines, id)
	for i, f := range r.frames {
		f.Name = FrameName(i)
	}
	if idx <= r.active {
		r.active = max(0, r.active-1)
	}

	r.log.Debug("frame removed", zap.String("id", id), zap.Int("frames", len(r.frames)))
	return true
}
