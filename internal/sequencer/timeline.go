package sequencer

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ivlev/pixology/internal/logger"
)

var (
	ErrInvalidFrameNumber = errors.New("please enter a valid frame number (>= 1)")
	ErrUnknownAnimation   = errors.New("unknown animation")
	ErrPromptOpen         = errors.New("a prompt is already open")
)

// FrameRangeError rejects a frame number above the rail size.
type FrameRangeError struct {
	Count int
}

func (e *FrameRangeError) Error() string {
	if e.Count == 1 {
		return "there is only 1 frame in the rail"
	}
	return fmt.Sprintf("there are only %d frames in the rail", e.Count)
}

// Prompter asks the user for a line of text. ok is false when the user
// cancels.
type Prompter interface {
	Prompt(ctx context.Context, message string) (answer string, ok bool, err error)
}

// FrameNumberPrompt is the question asked before adding a frame reference.
const FrameNumberPrompt = "Enter frame number to add:"

const untitledPrefix = "untitled animation"

var untitledRe = regexp.MustCompile(`(?i)^untitled animation\s+(\d+)$`)

// Chip identifies a selected frame reference by value and occurrence,
// so duplicates of the same frame number stay distinguishable.
type Chip struct {
	AnimationID string
	Ref         int
	Occurrence  int
}

// Timeline is the list of animations of a project plus the playback of the
// selected one. Edits to the selected animation re-derive its sequence
// immediately.
type Timeline struct {
	anims      []*Animation
	untitled   int
	selected   string
	chip       *Chip
	promptOpen bool

	frameCount func() int
	player     *Player
	log        *zap.Logger
}

type TimelineOption func(*Timeline)

func WithPlayer(p *Player) TimelineOption {
	return func(t *Timeline) { t.player = p }
}

func WithTimelineLogger(l *zap.Logger) TimelineOption {
	return func(t *Timeline) { t.log = l }
}

// NewTimeline creates an empty timeline. frameCount reports the current
// number of frames in the rail.
func NewTimeline(frameCount func() int, opts ...TimelineOption) *Timeline {
	t := &Timeline{untitled: 1, frameCount: frameCount}
	for _, opt := range opts {
		opt(t)
	}
	if t.player == nil {
		t.player = NewPlayer(DefaultFPS)
	}
	t.log = logger.OrNop(t.log).Named("timeline")
	return t
}

func (t *Timeline) Player() *Player { return t.player }

func (t *Timeline) total() int {
	if t.frameCount == nil {
		return 0
	}
	return t.frameCount()
}

// Animations returns copies of all animations in order.
func (t *Timeline) Animations() []*Animation {
	out := make([]*Animation, len(t.anims))
	for i, a := range t.anims {
		out[i] = a.Clone()
	}
	return out
}

func (t *Timeline) find(id string) (int, *Animation) {
	for i, a := range t.anims {
		if a.ID == id {
			return i, a
		}
	}
	return -1, nil
}

// Get returns a copy of animation id.
func (t *Timeline) Get(id string) *Animation {
	if _, a := t.find(id); a != nil {
		return a.Clone()
	}
	return nil
}

// FindByName returns the first animation with the given name (case-insensitive).
func (t *Timeline) FindByName(name string) *Animation {
	for _, a := range t.anims {
		if strings.EqualFold(a.Name, name) {
			return a.Clone()
		}
	}
	return nil
}

// Selected returns a copy of the selected animation or nil.
func (t *Timeline) Selected() *Animation {
	return t.Get(t.selected)
}

func (t *Timeline) SelectedID() string { return t.selected }

// Refresh re-derives the selected animation's sequence, e.g. after the
// rail gained or lost frames.
func (t *Timeline) Refresh() {
	_, a := t.find(t.selected)
	t.player.SetSequence(BuildSequence(a, t.total()))
}

func (t *Timeline) touched(id string) {
	if id == t.selected {
		t.Refresh()
	}
}

// AddAnimation appends "untitled animation N".
func (t *Timeline) AddAnimation() *Animation {
	a := &Animation{
		ID:       uuid.New().String(),
		Name:     fmt.Sprintf("%s %d", untitledPrefix, t.untitled),
		LoopMode: Forward,
	}
	t.untitled++
	t.anims = append(t.anims, a)
	t.log.Debug("animation added", zap.String("name", a.Name))
	return a.Clone()
}

// RemoveAnimation deletes id and clears any selection pointing at it.
func (t *Timeline) RemoveAnimation(id string) bool {
	i, _ := t.find(id)
	if i < 0 {
		return false
	}
	t.anims = append(t.anims[:i], t.anims[i+1:]...)
	if t.chip != nil && t.chip.AnimationID == id {
		t.chip = nil
	}
	if t.selected == id {
		t.selected = ""
		t.player.Stop()
		t.Refresh()
	}
	if len(t.anims) == 0 {
		t.untitled = 1
	}
	return true
}

// RenameAnimation trims name; a blank name keeps the old one.
func (t *Timeline) RenameAnimation(id, name string) bool {
	_, a := t.find(id)
	name = strings.TrimSpace(name)
	if a == nil || name == "" || name == a.Name {
		return false
	}
	a.Name = name
	return true
}

// Select makes id the played animation. An unknown id clears the selection.
func (t *Timeline) Select(id string) {
	if _, a := t.find(id); a == nil {
		id = ""
	}
	if id != t.selected {
		t.chip = nil
	}
	t.selected = id
	t.Refresh()
}

// SelectIndex selects the animation at i, clamped to the list.
func (t *Timeline) SelectIndex(i int) bool {
	if len(t.anims) == 0 {
		return false
	}
	i = max(0, min(len(t.anims)-1, i))
	t.Select(t.anims[i].ID)
	return true
}

func (t *Timeline) First() bool { return t.SelectIndex(0) }
func (t *Timeline) Last() bool  { return t.SelectIndex(len(t.anims) - 1) }

func (t *Timeline) Prev() bool {
	i, _ := t.find(t.selected)
	if i < 0 {
		return false
	}
	return t.SelectIndex(i - 1)
}

func (t *Timeline) Next() bool {
	i, _ := t.find(t.selected)
	if i < 0 {
		return false
	}
	return t.SelectIndex(i + 1)
}

// AddFrameRef appends frame number n to animation id. n must address an
// existing frame at the time of the call.
func (t *Timeline) AddFrameRef(id string, n int) error {
	_, a := t.find(id)
	if a == nil {
		return ErrUnknownAnimation
	}
	if n < 1 {
		return ErrInvalidFrameNumber
	}
	if total := t.total(); n > total {
		return &FrameRangeError{Count: total}
	}
	a.FrameRefs = append(a.FrameRefs, n)
	t.touched(id)
	return nil
}

// PromptAddFrame asks for a frame number and appends it to animation id.
// While the prompt is open chip deletion is blocked. A cancelled prompt
// returns (false, nil) and changes nothing.
func (t *Timeline) PromptAddFrame(ctx context.Context, id string, p Prompter) (bool, error) {
	if t.promptOpen {
		return false, ErrPromptOpen
	}
	if _, a := t.find(id); a == nil {
		return false, ErrUnknownAnimation
	}

	t.promptOpen = true
	defer func() { t.promptOpen = false }()

	raw, ok, err := p.Prompt(ctx, FrameNumberPrompt)
	if err != nil {
		return false, fmt.Errorf("frame number prompt: %w", err)
	}
	if !ok {
		return false, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return false, ErrInvalidFrameNumber
	}
	if err := t.AddFrameRef(id, n); err != nil {
		return false, err
	}
	return true, nil
}

// PromptOpen reports whether a blocking prompt is in flight.
func (t *Timeline) PromptOpen() bool { return t.promptOpen }

// SelectChip marks the chip at pos of animation id and selects the animation.
func (t *Timeline) SelectChip(id string, pos int) bool {
	_, a := t.find(id)
	if a == nil || pos < 0 || pos >= len(a.FrameRefs) {
		return false
	}
	ref := a.FrameRefs[pos]
	occ := 0
	for i := 0; i < pos; i++ {
		if a.FrameRefs[i] == ref {
			occ++
		}
	}
	t.chip = &Chip{AnimationID: id, Ref: ref, Occurrence: occ}
	if t.selected != id {
		t.selected = id
		t.Refresh()
	}
	return true
}

// SelectedChip returns the selected chip or nil.
func (t *Timeline) SelectedChip() *Chip {
	if t.chip == nil {
		return nil
	}
	c := *t.chip
	return &c
}

func (t *Timeline) ClearChip() { t.chip = nil }

// DeleteSelectedChip removes the selected occurrence of the selected
// frame number. Ignored while a prompt is open.
func (t *Timeline) DeleteSelectedChip() bool {
	if t.promptOpen || t.chip == nil {
		return false
	}
	c := *t.chip
	t.chip = nil
	_, a := t.find(c.AnimationID)
	if a == nil {
		return false
	}
	seen := -1
	for i, ref := range a.FrameRefs {
		if ref != c.Ref {
			continue
		}
		seen++
		if seen == c.Occurrence {
			a.FrameRefs = append(a.FrameRefs[:i], a.FrameRefs[i+1:]...)
			t.touched(a.ID)
			return true
		}
	}
	return false
}

// MoveRef moves the chip at from so that it lands at index to. Passing
// to == len(FrameRefs) moves it to the end.
func (t *Timeline) MoveRef(id string, from, to int) bool {
	_, a := t.find(id)
	if a == nil {
		return false
	}
	n := len(a.FrameRefs)
	if from < 0 || from >= n || to < 0 || to > n || from == to {
		return false
	}
	ref := a.FrameRefs[from]
	refs := append(a.FrameRefs[:from:from], a.FrameRefs[from+1:]...)
	if to > len(refs) {
		to = len(refs)
	}
	refs = append(refs, 0)
	copy(refs[to+1:], refs[to:])
	refs[to] = ref
	a.FrameRefs = refs
	t.touched(id)
	return true
}

// ToggleLoopMode cycles the loop mode of animation id.
func (t *Timeline) ToggleLoopMode(id string) (LoopMode, bool) {
	_, a := t.find(id)
	if a == nil {
		return "", false
	}
	if a.LoopMode == "" {
		a.LoopMode = Forward
	}
	a.LoopMode = a.LoopMode.Next()
	t.touched(id)
	return a.LoopMode, true
}

// SetLoopMode sets the loop mode of animation id directly.
func (t *Timeline) SetLoopMode(id string, m LoopMode) bool {
	_, a := t.find(id)
	if a == nil {
		return false
	}
	a.LoopMode = m
	t.touched(id)
	return true
}

// Play starts the selected animation.
func (t *Timeline) Play() error {
	if t.selected == "" {
		return ErrNoFrames
	}
	t.Refresh()
	return t.player.Play()
}

func (t *Timeline) Stop() { t.player.Stop() }

// Collect returns a copy of every animation for persistence.
func (t *Timeline) Collect() []Animation {
	out := make([]Animation, len(t.anims))
	for i, a := range t.anims {
		out[i] = *a.Clone()
		if out[i].LoopMode == "" {
			out[i].LoopMode = Forward
		}
	}
	return out
}

// Load replaces all animations, filling in missing ids, names and loop
// modes. The untitled counter continues after the highest "untitled
// animation N" loaded.
func (t *Timeline) Load(anims []Animation) {
	t.anims = t.anims[:0]
	next := 1
	for _, in := range anims {
		a := in
		a.FrameRefs = append([]int(nil), in.FrameRefs...)
		if a.ID == "" {
			a.ID = uuid.New().String()
		}
		if strings.TrimSpace(a.Name) == "" {
			a.Name = untitledPrefix
		}
		if mode, err := ParseLoopMode(string(a.LoopMode)); err == nil {
			a.LoopMode = mode
		} else {
			t.log.Warn("unknown loop mode, using forward", zap.String("animation", a.Name), zap.Error(err))
			a.LoopMode = Forward
		}
		if m := untitledRe.FindStringSubmatch(a.Name); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n+1 > next {
				next = n + 1
			}
		}
		t.anims = append(t.anims, &a)
	}
	t.untitled = next
	t.chip = nil
	if _, a := t.find(t.selected); a == nil {
		t.selected = ""
	}
	t.player.Stop()
	t.Refresh()
}
