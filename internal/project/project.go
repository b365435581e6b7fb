// Package project stores editor state on disk. A project is either static
// (one layered canvas) or animated (frames plus named animations) and is
// written as JSON or YAML depending on the file extension.
package project

import (
	"github.com/ivlev/pixology/internal/layer"
	"github.com/ivlev/pixology/internal/pixel"
	"github.com/ivlev/pixology/internal/rail"
	"github.com/ivlev/pixology/internal/raster"
	"github.com/ivlev/pixology/internal/sequencer"
)

const Version = "1"

type Kind string

const (
	Static   Kind = "static"
	Animated Kind = "animated"
)

type Layer struct {
	ID      string          `json:"id" yaml:"id"`
	Name    string          `json:"name" yaml:"name"`
	Visible bool            `json:"visible" yaml:"visible"`
	Locked  bool            `json:"locked" yaml:"locked"`
	Pixels  [][]pixel.Color `json:"pixels" yaml:"pixels"`
}

type Frame struct {
	ID              string  `json:"id" yaml:"id"`
	Name            string  `json:"name" yaml:"name"`
	SelectedLayerID string  `json:"selectedLayerId,omitempty" yaml:"selectedLayerId,omitempty"`
	Layers          []Layer `json:"layers" yaml:"layers"`
}

// Project is the on-disk payload of both kinds.
type Project struct {
	Version         string                `json:"version,omitempty" yaml:"version,omitempty"`
	Kind            Kind                  `json:"kind,omitempty" yaml:"kind,omitempty"`
	Name            string                `json:"name" yaml:"name"`
	Width           int                   `json:"width" yaml:"width"`
	Height          int                   `json:"height" yaml:"height"`
	FPS             int                   `json:"fps,omitempty" yaml:"fps,omitempty"`
	SelectedLayerID string                `json:"selectedLayerId,omitempty" yaml:"selectedLayerId,omitempty"`
	Layers          []Layer               `json:"layers,omitempty" yaml:"layers,omitempty"`
	Frames          []Frame               `json:"frames,omitempty" yaml:"frames,omitempty"`
	Animations      []sequencer.Animation `json:"animations,omitempty" yaml:"animations,omitempty"`
	PreviewImage    string                `json:"previewImage,omitempty" yaml:"previewImage,omitempty"`
}

// IsAnimated reports the kind, inferring it from the payload when unset.
func (p *Project) IsAnimated() bool {
	if p.Kind != "" {
		return p.Kind == Animated
	}
	return len(p.Frames) > 0 || len(p.Animations) > 0
}

// NewStatic captures a static canvas.
func NewStatic(name string, s raster.Snapshot) *Project {
	return &Project{
		Version:         Version,
		Kind:            Static,
		Name:            name,
		Width:           s.Layers.Width,
		Height:          s.Layers.Height,
		SelectedLayerID: s.SelectedLayerID,
		Layers:          fromLayers(s.Layers),
	}
}

// NewAnimated captures a frame rail with its animations.
func NewAnimated(name string, s rail.Snapshot, anims []sequencer.Animation, fps int) *Project {
	p := &Project{
		Version:    Version,
		Kind:       Animated,
		Name:       name,
		Width:      s.Width,
		Height:     s.Height,
		FPS:        fps,
		Frames:     make([]Frame, len(s.Frames)),
		Animations: anims,
	}
	for i, f := range s.Frames {
		p.Frames[i] = Frame{
			ID:              f.ID,
			Name:            f.Name,
			SelectedLayerID: f.State.SelectedLayerID,
			Layers:          fromLayers(f.State.Layers),
		}
	}
	return p
}

func fromLayers(s layer.Snapshot) []Layer {
	out := make([]Layer, len(s.Layers))
	for i, st := range s.Layers {
		out[i] = Layer{
			ID:      st.ID,
			Name:    st.Name,
			Visible: st.Visible,
			Locked:  st.Locked,
			Pixels:  st.Pixels.Rows(),
		}
	}
	return out
}

// StaticSnapshot rebuilds the canvas. Missing ids and names are generated
// and pixel grids are padded or cut to the project size.
func (p *Project) StaticSnapshot() raster.Snapshot {
	return raster.Snapshot{
		SelectedLayerID: p.SelectedLayerID,
		Layers:          toLayers(p.Width, p.Height, p.Layers),
	}
}

// RailSnapshot rebuilds the frames. Frame ids and names left empty are
// filled in by the rail on load.
func (p *Project) RailSnapshot() rail.Snapshot {
	s := rail.Snapshot{Width: p.Width, Height: p.Height, Frames: make([]rail.FrameSnapshot, len(p.Frames))}
	for i, f := range p.Frames {
		s.Frames[i] = rail.FrameSnapshot{
			ID:   f.ID,
			Name: f.Name,
			State: raster.Snapshot{
				SelectedLayerID: f.SelectedLayerID,
				Layers:          toLayers(p.Width, p.Height, f.Layers),
			},
		}
	}
	return s
}

func toLayers(w, h int, ls []Layer) layer.Snapshot {
	snap := layer.Snapshot{Width: w, Height: h, Layers: make([]layer.State, len(ls))}
	for i, l := range ls {
		meta := layer.Meta{ID: l.ID, Name: l.Name, Visible: l.Visible, Locked: l.Locked}
		if meta.ID == "" {
			meta.ID = layer.NewID()
		}
		if meta.Name == "" {
			meta.Name = layer.DefaultName(i + 1)
		}
		snap.Layers[i] = layer.State{Meta: meta, Pixels: pixel.FromRows(w, h, l.Pixels)}
	}
	return snap
}

// IsEmpty is true when no layer of any frame has a drawn pixel.
func (p *Project) IsEmpty() bool {
	for _, l := range p.allLayers() {
		for _, row := range l.Pixels {
			for _, c := range row {
				if c.Set {
					return false
				}
			}
		}
	}
	return true
}

func (p *Project) allLayers() []Layer {
	out := append([]Layer(nil), p.Layers...)
	for _, f := range p.Frames {
		out = append(out, f.Layers...)
	}
	return out
}
