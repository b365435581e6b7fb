package raster

import (
	"errors"

	"github.com/ivlev/pixology/internal/history"
	"github.com/ivlev/pixology/internal/pixel"
)

var ErrStrokeInProgress = errors.New("stroke already in progress")

type cellKey struct {
	layerID  string
	row, col int
}

// Stroke is one drawing gesture. Every touched cell keeps its first prev
// and latest next value; End turns them into a single pixel entry.
type Stroke struct {
	e       *Engine
	color   pixel.Color
	index   map[cellKey]int
	diffs   []history.Diff
	last    [2]int
	started bool
	done    bool
}

// BeginStroke opens a gesture painting color (pixel.None erases). It fails
// with a guard error when the active layer cannot be drawn on.
func (e *Engine) BeginStroke(color pixel.Color) (*Stroke, error) {
	if e.stroke != nil {
		return nil, ErrStrokeInProgress
	}
	if _, err := e.EnsureDrawableLayer(); err != nil {
		return nil, err
	}
	s := &Stroke{e: e, color: color, index: make(map[cellKey]int)}
	e.stroke = s
	return s, nil
}

// Continue paints one cell. The active layer is re-checked on every cell,
// so a lock or hide in the middle of a gesture stops further writes.
func (s *Stroke) Continue(row, col int) error {
	if s.done {
		return nil
	}
	l, err := s.e.EnsureDrawableLayer()
	if err != nil {
		return err
	}
	s.last = [2]int{row, col}
	s.started = true

	d, ok := s.e.SetPixel(l.ID, row, col, s.color)
	if !ok {
		return nil
	}
	k := cellKey{d.LayerID, d.Row, d.Col}
	if i, seen := s.index[k]; seen {
		s.diffs[i].Next = d.Next
		return nil
	}
	s.index[k] = len(s.diffs)
	s.diffs = append(s.diffs, d)
	return nil
}

// LineTo paints every cell on the Bresenham line from the previous cell to
// (row, col). Without a previous cell it paints just (row, col).
func (s *Stroke) LineTo(row, col int) error {
	if !s.started {
		return s.Continue(row, col)
	}
	r0, c0 := s.last[0], s.last[1]
	dr, dc := abs(row-r0), abs(col-c0)
	sr, sc := 1, 1
	if r0 > row {
		sr = -1
	}
	if c0 > col {
		sc = -1
	}
	e := dc - dr
	for {
		if err := s.Continue(r0, c0); err != nil {
			return err
		}
		if r0 == row && c0 == col {
			return nil
		}
		e2 := 2 * e
		if e2 > -dr {
			e -= dr
			c0 += sc
		}
		if e2 < dc {
			e += dc
			r0 += sr
		}
	}
}

// Len is the number of distinct cells touched so far.
func (s *Stroke) Len() int { return len(s.diffs) }

// End closes the gesture. It returns false when nothing changed.
func (s *Stroke) End() (history.PixelEntry, bool) {
	if s.done {
		return history.PixelEntry{}, false
	}
	s.finish()
	if len(s.diffs) == 0 {
		return history.PixelEntry{}, false
	}
	return history.PixelEntry{FrameID: s.e.frameID, Diffs: s.diffs}, true
}

// Cancel reverts every cell written by the gesture.
func (s *Stroke) Cancel() {
	if s.done {
		return
	}
	s.finish()
	s.e.ApplyPixels(history.PixelEntry{Diffs: s.diffs}, false)
	s.diffs = nil
}

func (s *Stroke) finish() {
	s.done = true
	if s.e.stroke == s {
		s.e.stroke = nil
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
