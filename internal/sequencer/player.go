package sequencer

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ivlev/pixology/internal/logger"
)

const (
	DefaultFPS = 8
	MinFPS     = 1
	MaxFPS     = 120
)

// ErrNoFrames is reported when playback has nothing valid to show.
var ErrNoFrames = errors.New("no frames in the selected animation")

// Preview receives the global frame index to display.
type Preview interface {
	Seek(globalIndex int)
}

// PreviewFunc adapts a function to Preview.
type PreviewFunc func(globalIndex int)

func (f PreviewFunc) Seek(gi int) { f(gi) }

// ClampFPS limits fps to [MinFPS, MaxFPS].
func ClampFPS(fps int) int {
	return max(MinFPS, min(MaxFPS, fps))
}

// FrameDuration is round(1000/fps) milliseconds with fps clamped.
func FrameDuration(fps int) time.Duration {
	ms := math.Round(1000 / float64(ClampFPS(fps)))
	return time.Duration(ms) * time.Millisecond
}

// Player drives a Sequence on a fixed frame rate. States are idle and
// playing; stopping freezes at the current step.
type Player struct {
	mu      sync.Mutex
	seq     Sequence
	cursor  int
	acc     time.Duration
	fps     int
	playing bool
	gen     uint64

	// pubMu orders observer calls; stale targets are dropped.
	pubMu     sync.Mutex
	published uint64

	preview     Preview
	onHighlight func(pos int)
	onStop      func(err error)
	log         *zap.Logger
}

type PlayerOption func(*Player)

func WithPreview(p Preview) PlayerOption {
	return func(pl *Player) { pl.preview = p }
}

// WithHighlight registers the observer of the playing chip position.
// It receives -1 when no chip is highlighted.
func WithHighlight(fn func(pos int)) PlayerOption {
	return func(pl *Player) { pl.onHighlight = fn }
}

// WithStopHandler is called when playback stops on its own, e.g. because
// the sequence became empty.
func WithStopHandler(fn func(err error)) PlayerOption {
	return func(pl *Player) { pl.onStop = fn }
}

func WithPlayerLogger(l *zap.Logger) PlayerOption {
	return func(pl *Player) { pl.log = l }
}

func NewPlayer(fps int, opts ...PlayerOption) *Player {
	p := &Player{fps: ClampFPS(fps)}
	for _, opt := range opts {
		opt(p)
	}
	p.log = logger.OrNop(p.log).Named("player")
	return p
}

func (p *Player) FPS() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fps
}

// SetFPS changes the rate. The accumulated time is kept.
func (p *Player) SetFPS(fps int) {
	p.mu.Lock()
	p.fps = ClampFPS(fps)
	p.mu.Unlock()
}

func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Cursor is the current step inside the order.
func (p *Player) Cursor() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

// Sequence returns the active sequence.
func (p *Player) Sequence() Sequence {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seq
}

// target is what the preview and highlight observer should show.
type target struct {
	pos, gi int
	ok      bool
	gen     uint64
}

func (p *Player) currentLocked() target {
	pos, gi, ok := p.seq.At(p.cursor)
	p.gen++
	return target{pos, gi, ok, p.gen}
}

func (p *Player) emptyLocked() target {
	p.gen++
	return target{gen: p.gen}
}

// publish runs outside p.mu. Targets taken before the last published one
// are skipped so observers always end on the newest state.
func (p *Player) publish(t target) {
	p.pubMu.Lock()
	defer p.pubMu.Unlock()
	if t.gen <= p.published {
		return
	}
	p.published = t.gen
	if !t.ok {
		if p.onHighlight != nil {
			p.onHighlight(-1)
		}
		return
	}
	if p.preview != nil {
		p.preview.Seek(t.gi)
	}
	if p.onHighlight != nil {
		p.onHighlight(t.pos)
	}
}

// SetSequence installs a freshly derived sequence, clamps the cursor and
// re-seeks. An empty sequence stops playback and reports ErrNoFrames.
func (p *Player) SetSequence(seq Sequence) {
	p.mu.Lock()
	p.seq = seq
	if seq.Empty() {
		wasPlaying := p.playing
		p.playing = false
		p.acc = 0
		t := p.emptyLocked()
		p.mu.Unlock()

		p.publish(t)
		if wasPlaying {
			p.log.Debug("playback stopped", zap.Error(ErrNoFrames))
			if p.onStop != nil {
				p.onStop(ErrNoFrames)
			}
		}
		return
	}
	p.cursor = max(0, min(p.cursor, seq.Len()-1))
	t := p.currentLocked()
	p.mu.Unlock()

	p.publish(t)
}

// Play starts playback of the current sequence.
func (p *Player) Play() error {
	p.mu.Lock()
	if p.seq.Empty() {
		p.playing = false
		p.mu.Unlock()
		return ErrNoFrames
	}
	p.playing = true
	p.acc = 0
	t := p.currentLocked()
	p.mu.Unlock()

	p.publish(t)
	return nil
}

// Stop freezes playback at the current step. Time accumulated towards the
// next step is discarded.
func (p *Player) Stop() {
	p.mu.Lock()
	p.playing = false
	p.acc = 0
	p.mu.Unlock()
}

// Toggle flips between playing and idle.
func (p *Player) Toggle() error {
	if p.Playing() {
		p.Stop()
		return nil
	}
	return p.Play()
}

// Tick feeds elapsed time into the clock and advances
// floor(accumulated / frameDuration) steps, wrapping around the order.
// It returns the number of steps taken.
func (p *Player) Tick(dt time.Duration) int {
	p.mu.Lock()
	if !p.playing || p.seq.Empty() || dt <= 0 {
		p.mu.Unlock()
		return 0
	}
	frame := FrameDuration(p.fps)
	p.acc += dt
	steps := int(p.acc / frame)
	if steps == 0 {
		p.mu.Unlock()
		return 0
	}
	p.acc -= time.Duration(steps) * frame
	p.cursor = (p.cursor + steps) % p.seq.Len()
	t := p.currentLocked()
	p.mu.Unlock()

	p.publish(t)
	return steps
}

// Step moves the cursor by delta steps without the clock.
func (p *Player) Step(delta int) {
	p.mu.Lock()
	n := p.seq.Len()
	if n == 0 {
		p.mu.Unlock()
		return
	}
	p.cursor = ((p.cursor+delta)%n + n) % n
	t := p.currentLocked()
	p.mu.Unlock()

	p.publish(t)
}

// Run ticks the player every interval until ctx is done. Each tick passes
// the real elapsed time to Tick. Cancelling ctx stops playback.
func (p *Player) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second / 60
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.L(ctx).Debug("player loop started", zap.Duration("interval", interval))
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			p.Stop()
			return ctx.Err()
		case now := <-ticker.C:
			p.Tick(now.Sub(last))
			last = now
		}
	}
}
