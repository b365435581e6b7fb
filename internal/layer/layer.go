// Package layer implements the ordered layer stack of a frame.
// Index 0 is the topmost layer and wins compositing.
package layer

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ivlev/pixology/internal/pixel"
)

var (
	ErrDuplicateID  = errors.New("duplicate layer id")
	ErrSizeMismatch = errors.New("layer size does not match stack")
)

// NewID returns a fresh stable identifier.
func NewID() string {
	return uuid.New().String()
}

// DefaultName is the display name of the n-th layer (1-based).
func DefaultName(n int) string {
	return fmt.Sprintf("Layer %d", n)
}

// Meta is the layer metadata without pixels.
type Meta struct {
	ID      string
	Name    string
	Visible bool
	Locked  bool
}

type Layer struct {
	Meta
	Pixels *pixel.Buffer
}

// New creates a visible, unlocked, blank layer.
func New(name string, width, height int) *Layer {
	return &Layer{
		Meta:   Meta{ID: NewID(), Name: name, Visible: true},
		Pixels: pixel.NewBuffer(width, height),
	}
}

// Stack is an ordered collection of layers sharing one size.
type Stack struct {
	width, height int
	layers        []*Layer
}

func NewStack(width, height int) *Stack {
	return &Stack{width: width, height: height}
}

func (s *Stack) Width() int  { return s.width }
func (s *Stack) Height() int { return s.height }
func (s *Stack) Len() int    { return len(s.layers) }

func (s *Stack) Size() (int, int) { return s.width, s.height }

// Layers returns the layers topmost-first. The slice is a copy; the layers are not.
func (s *Stack) Layers() []*Layer {
	out := make([]*Layer, len(s.layers))
	copy(out, s.layers)
	return out
}

// At returns the layer at index i or nil.
func (s *Stack) At(i int) *Layer {
	if i < 0 || i >= len(s.layers) {
		return nil
	}
	return s.layers[i]
}

// Index returns the position of id, or -1.
func (s *Stack) Index(id string) int {
	for i, l := range s.layers {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// Get returns the layer with id or nil.
func (s *Stack) Get(id string) *Layer {
	if i := s.Index(id); i >= 0 {
		return s.layers[i]
	}
	return nil
}

// Insert places l at index i (clamped to [0, Len]).
func (s *Stack) Insert(i int, l *Layer) error {
	if s.Index(l.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateID, l.ID)
	}
	if l.Pixels == nil {
		l.Pixels = pixel.NewBuffer(s.width, s.height)
	}
	if l.Pixels.Width() != s.width || l.Pixels.Height() != s.height {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrSizeMismatch,
			l.Pixels.Width(), l.Pixels.Height(), s.width, s.height)
	}
	if i < 0 {
		i = 0
	}
	if i > len(s.layers) {
		i = len(s.layers)
	}
	s.layers = append(s.layers, nil)
	copy(s.layers[i+1:], s.layers[i:])
	s.layers[i] = l
	return nil
}

// Remove deletes the layer with id. Reports whether it existed.
func (s *Stack) Remove(id string) bool {
	i := s.Index(id)
	if i < 0 {
		return false
	}
	s.layers = append(s.layers[:i], s.layers[i+1:]...)
	return true
}

// Move relocates layer id to index to.
func (s *Stack) Move(id string, to int) bool {
	i := s.Index(id)
	if i < 0 {
		return false
	}
	l := s.layers[i]
	s.layers = append(s.layers[:i], s.layers[i+1:]...)
	if to < 0 {
		to = 0
	}
	if to > len(s.layers) {
		to = len(s.layers)
	}
	s.layers = append(s.layers, nil)
	copy(s.layers[to+1:], s.layers[to:])
	s.layers[to] = l
	return true
}

// Composite returns the first non-absent pixel among visible layers, top to bottom.
func (s *Stack) Composite(row, col int) pixel.Color {
	for _, l := range s.layers {
		if !l.Visible {
			continue
		}
		if c := l.Pixels.At(row, col); c.Set {
			return c
		}
	}
	return pixel.None
}

// IsEmpty is true when no layer, visible or not, has a drawn pixel.
func (s *Stack) IsEmpty() bool {
	for _, l := range s.layers {
		if !l.Pixels.IsEmpty() {
			return false
		}
	}
	return true
}

// Metas returns the metadata of every layer, topmost-first.
func (s *Stack) Metas() []Meta {
	out := make([]Meta, len(s.layers))
	for i, l := range s.layers {
		out[i] = l.Meta
	}
	return out
}
