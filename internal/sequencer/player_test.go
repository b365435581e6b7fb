package sequencer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestFrameDuration(t *testing.T) {
	tests := []struct {
		fps  int
		want time.Duration
	}{
		{8, 125 * time.Millisecond},
		{12, 83 * time.Millisecond},
		{0, time.Second},
		{-3, time.Second},
		{120, 8 * time.Millisecond},
		{500, 8 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := FrameDuration(tt.fps); got != tt.want {
			t.Errorf("FrameDuration(%d) = %v, want %v", tt.fps, got, tt.want)
		}
	}
}

func TestTickAdvancesAndWraps(t *testing.T) {
	var seeks []int
	var highlights []int
	p := NewPlayer(10,
		WithPreview(PreviewFunc(func(gi int) { seeks = append(seeks, gi) })),
		WithHighlight(func(pos int) { highlights = append(highlights, pos) }),
	)
	p.SetSequence(BuildSequence(&Animation{FrameRefs: []int{3, 1, 2}}, 3))
	if err := p.Play(); err != nil {
		t.Fatal(err)
	}
	seeks, highlights = nil, nil

	if steps := p.Tick(50 * time.Millisecond); steps != 0 {
		t.Errorf("half a frame advanced %d steps", steps)
	}
	if steps := p.Tick(60 * time.Millisecond); steps != 1 {
		t.Errorf("expected 1 step, got %d", steps)
	}
	if steps := p.Tick(250 * time.Millisecond); steps != 2 {
		t.Errorf("expected 2 steps, got %d", steps)
	}
	if p.Cursor() != 0 {
		t.Errorf("cursor should wrap to 0, got %d", p.Cursor())
	}
	if len(seeks) != 2 || seeks[0] != 0 || seeks[1] != 2 {
		t.Errorf("seeks = %v, want [0 2]", seeks)
	}
	if len(highlights) != 2 || highlights[1] != 0 {
		t.Errorf("highlights = %v", highlights)
	}
}

func TestStopFreezes(t *testing.T) {
	p := NewPlayer(10)
	p.SetSequence(BuildSequence(&Animation{FrameRefs: []int{1, 2, 3}}, 3))
	p.Play()
	p.Tick(150 * time.Millisecond)
	p.Stop()
	if p.Tick(time.Second) != 0 {
		t.Error("stopped player must not advance")
	}
	if p.Cursor() != 1 {
		t.Errorf("cursor = %d, want 1", p.Cursor())
	}
	p.Play()
	if p.Tick(60*time.Millisecond) != 0 {
		t.Error("time accumulated before Stop must be discarded")
	}
}

func TestEmptySequence(t *testing.T) {
	var stopped error
	p := NewPlayer(8, WithStopHandler(func(err error) { stopped = err }))

	p.SetSequence(BuildSequence(&Animation{FrameRefs: []int{7, 8}}, 2))
	if err := p.Play(); !errors.Is(err, ErrNoFrames) {
		t.Fatalf("Play on invalid refs = %v", err)
	}
	if err := ErrNoFrames.Error(); err != "no frames in the selected animation" {
		t.Errorf("message = %q", err)
	}

	p.SetSequence(BuildSequence(&Animation{FrameRefs: []int{1}}, 2))
	p.Play()
	p.SetSequence(Sequence{})
	if p.Playing() {
		t.Error("empty sequence must stop playback")
	}
	if !errors.Is(stopped, ErrNoFrames) {
		t.Errorf("stop handler got %v", stopped)
	}
}

func TestSetSequenceClampsCursor(t *testing.T) {
	var last int
	p := NewPlayer(8, WithPreview(PreviewFunc(func(gi int) { last = gi })))
	p.SetSequence(BuildSequence(&Animation{FrameRefs: []int{1, 2, 3, 4}}, 4))
	p.Step(3)
	p.SetSequence(BuildSequence(&Animation{FrameRefs: []int{2, 3}}, 4))
	if p.Cursor() != 1 || last != 2 {
		t.Errorf("cursor=%d seek=%d, want 1 and 2", p.Cursor(), last)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	p := NewPlayer(120)
	p.SetSequence(BuildSequence(&Animation{FrameRefs: []int{1, 2}}, 2))
	p.Play()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := p.Run(ctx, 5*time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run returned %v", err)
	}
	if p.Playing() {
		t.Error("cancelled run should stop playback")
	}
}

func TestPublishKeepsNewestState(t *testing.T) {
	var seeks []int
	p := NewPlayer(8, WithPreview(PreviewFunc(func(gi int) { seeks = append(seeks, gi) })))
	p.SetSequence(BuildSequence(&Animation{FrameRefs: []int{1, 2, 3}}, 3))

	p.mu.Lock()
	stale := p.currentLocked()
	p.mu.Unlock()
	p.Step(1)
	p.publish(stale)
	if last := seeks[len(seeks)-1]; last != 1 {
		t.Errorf("stale target overwrote preview: seeks = %v", seeks)
	}
}

func TestConcurrentStepAndTick(t *testing.T) {
	var mu sync.Mutex
	last := -1
	p := NewPlayer(120, WithPreview(PreviewFunc(func(gi int) {
		mu.Lock()
		last = gi
		mu.Unlock()
	})))
	p.SetSequence(BuildSequence(&Animation{FrameRefs: []int{1, 2, 3, 4, 5}}, 5))
	p.Play()

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				p.Tick(10 * time.Millisecond)
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				p.Step(-1)
			}
		}()
	}
	wg.Wait()

	_, gi, _ := p.Sequence().At(p.Cursor())
	mu.Lock()
	defer mu.Unlock()
	if last != gi {
		t.Errorf("preview shows %d, cursor is on %d", last, gi)
	}
}
