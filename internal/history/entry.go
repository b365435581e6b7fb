// Package history records drawing and layer-structure changes for undo/redo.
package history

import (
	"github.com/ivlev/pixology/internal/layer"
	"github.com/ivlev/pixology/internal/pixel"
)

// Entry is either a PixelEntry or a LayerEntry. Entries are never modified
// after Push.
type Entry interface {
	// Unit names the frame the entry belongs to. Empty for the static canvas.
	Unit() string
	isEntry()
}

// Diff records one cell change.
type Diff struct {
	LayerID  string
	Row, Col int
	Prev     pixel.Color
	Next     pixel.Color
}

type PixelEntry struct {
	FrameID string
	Diffs   []Diff
}

func (e PixelEntry) Unit() string { return e.FrameID }
func (PixelEntry) isEntry()       {}

// LayerEntry captures the stack around a structural edit.
type LayerEntry struct {
	FrameID        string
	Before, After  layer.Snapshot
	SelectedBefore string
	SelectedAfter  string
}

func (e LayerEntry) Unit() string { return e.FrameID }
func (LayerEntry) isEntry()       {}

// Applier replays entries. Replays skip lock and visibility checks.
type Applier interface {
	ApplyPixels(e PixelEntry, forward bool)
	ApplyLayers(e LayerEntry, forward bool)
}

func apply(a Applier, e Entry, forward bool) {
	switch v := e.(type) {
	case PixelEntry:
		a.ApplyPixels(v, forward)
	case LayerEntry:
		a.ApplyLayers(v, forward)
	}
}
