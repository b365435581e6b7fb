package history

import "github.com/gammazero/deque"

const (
	// StaticCapacity bounds the single canvas history.
	StaticCapacity = 100
	// RailCapacity bounds the animation rail history.
	RailCapacity = 200
)

// Stack is a bounded undo/redo pair. When the undo side is full the oldest
// entry is dropped silently.
type Stack struct {
	capacity int
	undo     deque.Deque[Entry]
	redo     deque.Deque[Entry]
}

// NewStack returns a stack holding at most capacity undo entries.
func NewStack(capacity int) *Stack {
	if capacity <= 0 {
		capacity = StaticCapacity
	}
	return &Stack{capacity: capacity}
}

func (s *Stack) Capacity() int { return s.capacity }

// Push records e and clears the redo side.
func (s *Stack) Push(e Entry) {
	if e == nil {
		return
	}
	s.undo.PushBack(e)
	for s.undo.Len() > s.capacity {
		s.undo.PopFront()
	}
	s.redo.Clear()
}

// Undo reverts the newest entry. Returns false when there is nothing to undo.
func (s *Stack) Undo(a Applier) bool {
	if s.undo.Len() == 0 {
		return false
	}
	e := s.undo.PopBack()
	apply(a, e, false)
	s.redo.PushBack(e)
	return true
}

// Redo re-applies the most recently undone entry.
func (s *Stack) Redo(a Applier) bool {
	if s.redo.Len() == 0 {
		return false
	}
	e := s.redo.PopBack()
	apply(a, e, true)
	s.undo.PushBack(e)
	return true
}

func (s *Stack) CanUndo() bool { return s.undo.Len() > 0 }
func (s *Stack) CanRedo() bool { return s.redo.Len() > 0 }

// PeekUndo returns the entry Undo would revert, or nil.
func (s *Stack) PeekUndo() Entry {
	if s.undo.Len() == 0 {
		return nil
	}
	return s.undo.Back()
}

// PeekRedo returns the entry Redo would re-apply, or nil.
func (s *Stack) PeekRedo() Entry {
	if s.redo.Len() == 0 {
		return nil
	}
	return s.redo.Back()
}

// Len returns the number of undo and redo entries.
func (s *Stack) Len() (undo, redo int) {
	return s.undo.Len(), s.redo.Len()
}

// Clear drops everything.
func (s *Stack) Clear() {
	s.undo.Clear()
	s.redo.Clear()
}
