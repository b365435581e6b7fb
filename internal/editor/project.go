package editor

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ivlev/pixology/internal/layer"
	"github.com/ivlev/pixology/internal/pixel"
	"github.com/ivlev/pixology/internal/project"
	"github.com/ivlev/pixology/internal/rail"
	"github.com/ivlev/pixology/internal/raster"
	"github.com/ivlev/pixology/internal/renderer"
	"github.com/ivlev/pixology/internal/source"
)

var ErrNothingToSave = errors.New("nothing to save yet: draw something first")

// Project captures the workspace for saving, preview included.
func (w *Workspace) Project() (*project.Project, error) {
	if w.mode == Animations {
		snap := w.rail.CollectSnapshot()
		p := project.NewAnimated(w.name, snap, w.timeline.Collect(), w.timeline.Player().FPS())
		if img := snap.Preview(); img != nil {
			url, err := project.EncodePreview(img)
			if err != nil {
				return nil, fmt.Errorf("preview: %w", err)
			}
			p.PreviewImage = url
		}
		return p, nil
	}

	snap := w.canvas.MakeSnapshot()
	p := project.NewStatic(w.name, snap)
	url, err := project.EncodePreview(renderer.RenderFrame(snap.Layers, previewScale, false))
	if err != nil {
		return nil, fmt.Errorf("preview: %w", err)
	}
	p.PreviewImage = url
	return p, nil
}

// Save writes the workspace to path. Empty work is refused.
func (w *Workspace) Save(path string) error {
	if w.IsEmpty() {
		return ErrNothingToSave
	}
	p, err := w.Project()
	if err != nil {
		return err
	}
	if err := project.Write(p, path); err != nil {
		return err
	}
	w.log.Info("project saved", zap.String("path", path), zap.String("mode", string(w.mode)))
	return nil
}

// Open replaces the workspace with a loaded project.
func (w *Workspace) Open(p *project.Project) {
	w.name = p.Name
	if p.FPS > 0 {
		w.cfg.FPS = p.FPS
	}
	if p.IsAnimated() {
		if p.Width != w.cfg.Width || p.Height != w.cfg.Height {
			w.reset(p.Width, p.Height)
		}
		w.timeline.Player().SetFPS(w.cfg.FPS)
		w.LoadFromAnimationSnapshot(p.RailSnapshot())
		w.LoadFromTimelineSnapshot(p.Animations)
		return
	}
	w.LoadFromSnapshot(p.StaticSnapshot())
}

// OpenFile reads and opens a project file.
func (w *Workspace) OpenFile(path string) error {
	p, err := project.Read(path)
	if err != nil {
		return err
	}
	w.Open(p)
	w.log.Info("project opened", zap.String("path", path), zap.String("kind", string(p.Kind)))
	return nil
}

// ImportFrames replaces the rail with one single-layer frame per buffer and
// switches to animation mode. Buffers of another size are cropped or padded.
func (w *Workspace) ImportFrames(bufs []*pixel.Buffer) {
	if len(bufs) == 0 {
		return
	}
	snap := rail.Snapshot{Width: w.cfg.Width, Height: w.cfg.Height, Frames: make([]rail.FrameSnapshot, len(bufs))}
	for i, b := range bufs {
		l := layer.State{
			Meta:   layer.Meta{ID: layer.NewID(), Name: layer.DefaultName(1), Visible: true},
			Pixels: pixel.FromRows(w.cfg.Width, w.cfg.Height, b.Rows()),
		}
		snap.Frames[i] = rail.FrameSnapshot{
			Name: rail.FrameName(i),
			State: raster.Snapshot{
				SelectedLayerID: l.ID,
				Layers:          layer.Snapshot{Width: w.cfg.Width, Height: w.cfg.Height, Layers: []layer.State{l}},
			},
		}
	}
	w.LoadFromAnimationSnapshot(snap)
}

// StampQR draws content as a QR code on a new layer, centred. Adding the
// layer and painting it are two undo steps.
func (w *Workspace) StampQR(grid [][]bool, c pixel.Color) error {
	if len(grid) == 0 {
		return nil
	}
	top, left, err := source.PlaceQR(len(grid), w.cfg.Width, w.cfg.Height)
	if err != nil {
		return err
	}
	w.AddLayer()

	var points [][2]int
	for r, row := range grid {
		for col, dark := range row {
			if dark {
				points = append(points, [2]int{top + r, left + col})
			}
		}
	}
	s, err := w.beginStroke(c)
	if err != nil {
		return err
	}
	for _, p := range points {
		if err := s.Continue(p[0], p[1]); err != nil {
			w.endStroke(s)
			return err
		}
	}
	w.endStroke(s)
	return nil
}
