package sequencer

// Entry describes one chip (frame reference) of an animation.
type Entry struct {
	Pos         int // position in FrameRefs
	Ref         int // 1-based frame number as stored
	GlobalIndex int // Ref-1, meaningful only when Valid
	Valid       bool
}

// Sequence is the resolved traversal of an animation. Entries keeps every
// chip, Order lists chip positions to visit.
type Sequence struct {
	Entries []Entry
	Order   []int
}

// Len is the number of steps in one pass.
func (s Sequence) Len() int { return len(s.Order) }

// Empty reports whether there is nothing to play.
func (s Sequence) Empty() bool { return len(s.Order) == 0 }

// At resolves step i of the order to a chip position and a global frame
// index.
func (s Sequence) At(i int) (pos, gi int, ok bool) {
	if i < 0 || i >= len(s.Order) {
		return 0, 0, false
	}
	pos = s.Order[i]
	return pos, s.Entries[pos].GlobalIndex, true
}

// GlobalOrder maps the order to global frame indices.
func (s Sequence) GlobalOrder() []int {
	out := make([]int, len(s.Order))
	for i, pos := range s.Order {
		out[i] = s.Entries[pos].GlobalIndex
	}
	return out
}

// BuildSequence resolves a against a rail of total frames.
func BuildSequence(a *Animation, total int) Sequence {
	if a == nil || len(a.FrameRefs) == 0 {
		return Sequence{}
	}

	entries := make([]Entry, len(a.FrameRefs))
	var valid []int
	for pos, ref := range a.FrameRefs {
		gi := ref - 1
		e := Entry{Pos: pos, Ref: ref, GlobalIndex: gi, Valid: gi >= 0 && gi < total}
		if e.Valid {
			valid = append(valid, pos)
		}
		entries[pos] = e
	}
	if len(valid) == 0 {
		return Sequence{Entries: entries}
	}

	var order []int
	switch a.LoopMode {
	case Backward:
		order = make([]int, len(valid))
		for i, pos := range valid {
			order[len(valid)-1-i] = pos
		}
	case PingPong:
		pp := PingPongOrder(len(valid))
		order = make([]int, len(pp))
		for i, k := range pp {
			order[i] = valid[k]
		}
	default:
		order = valid
	}
	return Sequence{Entries: entries, Order: order}
}

// PingPongOrder returns 0..k-1 followed by k-2..1, so neither endpoint is
// visited twice in a row when the order wraps. k <= 1 yields [0].
func PingPongOrder(k int) []int {
	if k <= 1 {
		return []int{0}
	}
	out := make([]int, 0, 2*k-2)
	for i := 0; i < k; i++ {
		out = append(out, i)
	}
	for i := k - 2; i >= 1; i-- {
		out = append(out, i)
	}
	return out
}
