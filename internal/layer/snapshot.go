package layer

import "github.com/ivlev/pixology/internal/pixel"

// State is one layer frozen in time.
type State struct {
	Meta
	Pixels *pixel.Buffer
}

// Snapshot is an immutable copy of a whole stack.
type Snapshot struct {
	Width, Height int
	Layers        []State
}

// Snapshot deep-copies the stack.
func (s *Stack) Snapshot() Snapshot {
	snap := Snapshot{Width: s.width, Height: s.height, Layers: make([]State, len(s.layers))}
	for i, l := range s.layers {
		snap.Layers[i] = State{Meta: l.Meta, Pixels: l.Pixels.Clone()}
	}
	return snap
}

// Restore replaces the stack contents with a copy of snap.
// Duplicate ids keep the first occurrence; buffers of the wrong size are
// rebuilt at the stack size.
func (s *Stack) Restore(snap Snapshot) {
	s.layers = s.layers[:0]
	seen := make(map[string]bool, len(snap.Layers))
	for _, st := range snap.Layers {
		if seen[st.ID] {
			continue
		}
		seen[st.ID] = true
		var buf *pixel.Buffer
		switch {
		case st.Pixels == nil:
			buf = pixel.NewBuffer(s.width, s.height)
		case st.Pixels.Width() != s.width || st.Pixels.Height() != s.height:
			buf = pixel.FromRows(s.width, s.height, st.Pixels.Rows())
		default:
			buf = st.Pixels.Clone()
		}
		s.layers = append(s.layers, &Layer{Meta: st.Meta, Pixels: buf})
	}
}

// Equal compares order, metadata and every pixel.
func (a Snapshot) Equal(b Snapshot) bool {
	if a.Width != b.Width || a.Height != b.Height || len(a.Layers) != len(b.Layers) {
		return false
	}
	for i := range a.Layers {
		if a.Layers[i].Meta != b.Layers[i].Meta {
			return false
		}
		if !a.Layers[i].Pixels.Equal(b.Layers[i].Pixels) {
			return false
		}
	}
	return true
}

func (a Snapshot) Size() (int, int) { return a.Width, a.Height }

// Composite resolves the visible colour at (row, col) the same way Stack does.
func (a Snapshot) Composite(row, col int) pixel.Color {
	for _, st := range a.Layers {
		if !st.Visible || st.Pixels == nil {
			continue
		}
		if c := st.Pixels.At(row, col); c.Set {
			return c
		}
	}
	return pixel.None
}

// IsEmpty is true when no layer has a drawn pixel.
func (a Snapshot) IsEmpty() bool {
	for _, st := range a.Layers {
		if st.Pixels != nil && !st.Pixels.IsEmpty() {
			return false
		}
	}
	return true
}
