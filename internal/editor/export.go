package editor

import (
	"context"
	"fmt"
	"image"

	"github.com/ivlev/pixology/internal/renderer"
	"github.com/ivlev/pixology/internal/sequencer"
	"github.com/ivlev/pixology/internal/video"
)

// ExportOptions override the configured format and scale for one export.
type ExportOptions struct {
	Format    video.Format
	Scale     int
	MaxPerRow int
}

func (w *Workspace) exporter(o ExportOptions) *video.Exporter {
	opts := video.Options{
		Format:      o.Format,
		Scale:       o.Scale,
		MaxPerRow:   o.MaxPerRow,
		JPEGQuality: w.cfg.JPEGQuality,
		Workers:     w.cfg.Workers,
	}
	if opts.Format == "" {
		opts.Format, _ = video.ParseFormat(w.cfg.Format)
	}
	if opts.Scale < 1 {
		opts.Scale = w.cfg.Scale
	}
	if opts.MaxPerRow < 1 {
		opts.MaxPerRow = w.cfg.MaxPerRow
	}
	return video.NewExporter(opts, w.log)
}

// ExportImage writes the frame being edited: the canvas in static mode,
// the active frame otherwise.
func (w *Workspace) ExportImage(dir string, o ExportOptions) (string, error) {
	return w.exporter(o).WriteImage(dir, w.name, w.Engine().Stack().Snapshot())
}

// Thumbnail fits the frame being edited into a size×size box.
func (w *Workspace) Thumbnail(size int) *image.RGBA {
	return renderer.Thumbnail(w.Engine().Stack().Snapshot(), size)
}

// ExportSpriteSheet writes every rail frame as one sheet plus its atlas.
func (w *Workspace) ExportSpriteSheet(dir string, o ExportOptions) (string, error) {
	frames, names := w.railFrames()
	return w.exporter(o).WriteSpriteSheet(dir, w.name, frames, names)
}

// Export does what the export button does: a still image in static mode,
// a sprite sheet in animation mode.
func (w *Workspace) Export(dir string, o ExportOptions) (string, error) {
	if w.mode == Animations {
		return w.ExportSpriteSheet(dir, o)
	}
	return w.ExportImage(dir, o)
}

// ExportFrames writes one numbered file per rail frame.
func (w *Workspace) ExportFrames(ctx context.Context, dir string, o ExportOptions) ([]string, error) {
	frames, _ := w.railFrames()
	return w.exporter(o).WriteFrames(ctx, dir, w.name, frames)
}

// ExportGIF writes the traversal order of the named animation (the
// selected one when name is empty) at the configured fps.
func (w *Workspace) ExportGIF(ctx context.Context, path, animation string, o ExportOptions) error {
	frames, err := w.AnimationFrames(animation)
	if err != nil {
		return err
	}
	return w.exporter(o).WriteGIF(ctx, path, frames, w.timeline.Player().FPS())
}

// ExportClip encodes the animation through enc (ffmpeg for mp4).
func (w *Workspace) ExportClip(ctx context.Context, enc video.ClipEncoder, path, animation string, o ExportOptions) error {
	frames, err := w.AnimationFrames(animation)
	if err != nil {
		return err
	}
	return w.exporter(o).WriteClip(ctx, enc, path, frames, w.timeline.Player().FPS())
}

func (w *Workspace) railFrames() ([]video.Frame, []string) {
	frames := w.rail.Frames()
	out := make([]video.Frame, len(frames))
	names := make([]string, len(frames))
	for i, f := range frames {
		out[i] = w.rail.Engine(f.ID).Stack().Snapshot()
		names[i] = f.Name
	}
	return out, names
}

// AnimationFrames resolves an animation to its frames in playback order.
// Invalid references are skipped.
func (w *Workspace) AnimationFrames(animation string) ([]video.Frame, error) {
	var a *sequencer.Animation
	if animation == "" {
		a = w.timeline.Selected()
	} else {
		a = w.timeline.FindByName(animation)
	}
	if a == nil {
		if animation == "" {
			return nil, fmt.Errorf("%w: no animation selected", sequencer.ErrUnknownAnimation)
		}
		return nil, fmt.Errorf("%w: %q", sequencer.ErrUnknownAnimation, animation)
	}

	seq := sequencer.BuildSequence(a, w.rail.Len())
	if seq.Empty() {
		return nil, sequencer.ErrNoFrames
	}
	all, _ := w.railFrames()
	out := make([]video.Frame, 0, seq.Len())
	for _, gi := range seq.GlobalOrder() {
		out = append(out, all[gi])
	}
	return out, nil
}
