package rail

import (
	"image"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ivlev/pixology/internal/raster"
)

// FrameSnapshot is one frame of a rail snapshot.
type FrameSnapshot struct {
	ID      string
	Name    string
	State   raster.Snapshot
	Preview image.Image
}

// Snapshot is the whole rail.
type Snapshot struct {
	Width, Height int
	Frames        []FrameSnapshot
}

// Preview is the first frame's preview, if any.
func (s Snapshot) Preview() image.Image {
	if len(s.Frames) == 0 {
		return nil
	}
	return s.Frames[0].Preview
}

// CollectSnapshot copies every frame and renders previews when a
// Previewer is configured.
func (r *Rail) CollectSnapshot() Snapshot {
	snap := Snapshot{Width: r.width, Height: r.height, Frames: make([]FrameSnapshot, len(r.frames))}
	for i, f := range r.frames {
		e := r.engines[f.ID]
		fs := FrameSnapshot{ID: f.ID, Name: f.Name, State: e.Snapshot()}
		if r.preview != nil {
			fs.Preview = r.preview(e.Stack())
		}
		snap.Frames[i] = fs
	}
	return snap
}

// LoadSnapshot replaces all frames. Missing ids and names are generated,
// frames without layers get a blank one and the last frame becomes active.
// History is cleared.
func (r *Rail) LoadSnapshot(s Snapshot) {
	if s.Width > 0 && s.Height > 0 {
		r.width, r.height = s.Width, s.Height
	}
	r.frames = r.frames[:0]
	r.engines = make(map[string]*raster.Engine, len(s.Frames))

	for i, fs := range s.Frames {
		f := &Frame{ID: fs.ID, Name: fs.Name}
		if f.ID == "" || r.engines[f.ID] != nil {
			f.ID = uuid.New().String()
		}
		if f.Name == "" {
			f.Name = FrameName(i)
		}
		state := fs.State
		f.seed = &state
		r.frames = append(r.frames, f)
		r.register(f)
	}
	if len(r.frames) == 0 {
		f := r.blankFrame(0)
		r.frames = append(r.frames, f)
		r.register(f)
	}

	r.active = len(r.frames) - 1
	r.history.Clear()
	r.log.Debug("snapshot loaded", zap.Int("frames", len(r.frames)))
}
