package renderer

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/ivlev/pixology/internal/layer"
	"github.com/ivlev/pixology/internal/pixel"
)

func solidStack(w, h int, hex string) *layer.Stack {
	s := layer.NewStack(w, h)
	l := layer.New("Layer 1", w, h)
	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			l.Pixels.Set(r, c, pixel.MustHex(hex))
		}
	}
	s.Insert(0, l)
	return s
}

func TestFit(t *testing.T) {
	tests := []struct {
		w, h, box int
		want      image.Rectangle
	}{
		{16, 16, 160, image.Rect(0, 0, 160, 160)},
		{32, 16, 160, image.Rect(0, 40, 160, 120)},
		{50, 50, 160, image.Rect(5, 5, 155, 155)},
		{320, 160, 160, image.Rect(0, 40, 160, 120)},
		{0, 10, 160, image.Rectangle{}},
	}
	for _, tt := range tests {
		if got := Fit(tt.w, tt.h, tt.box, tt.box); got != tt.want {
			t.Errorf("Fit(%d,%d,%d) = %v, want %v", tt.w, tt.h, tt.box, got, tt.want)
		}
	}
}

func TestGhostAlpha(t *testing.T) {
	tests := []struct {
		i    int
		fade float64
		want float64
	}{
		{1, 0.5, 0.3},
		{2, 0.5, 0.15},
		{1, 0, 0.6},
		{3, 1, 0},
	}
	for _, tt := range tests {
		if got := GhostAlpha(tt.i, tt.fade); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("GhostAlpha(%d, %.1f) = %f, want %f", tt.i, tt.fade, got, tt.want)
		}
	}
}

func TestPreviewSeek(t *testing.T) {
	red := solidStack(4, 4, "#ff0000")
	blue := solidStack(4, 4, "#0000ff")

	var drawn []int
	p := NewPreview(8, 8, WithDrawHandler(func(_ *image.RGBA, idx int) { drawn = append(drawn, idx) }))
	p.SetFrames([]Source{red, blue})

	p.Seek(1)
	if got := p.Image().RGBAAt(3, 3); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("frame 1 pixel = %v", got)
	}
	p.Seek(-1)
	if got := p.Image().RGBAAt(0, 0); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("negative index should wrap, got %v", got)
	}
	p.Step(1)
	if got := p.Image().RGBAAt(0, 0); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("step should wrap to red, got %v", got)
	}
	t.Logf("draw calls: %v", drawn)
	if len(drawn) != 4 {
		t.Errorf("expected 4 redraws, got %d", len(drawn))
	}
}

func TestPreviewOnionSkin(t *testing.T) {
	full := solidStack(2, 2, "#ff0000")
	partial := layer.NewStack(2, 2)
	l := layer.New("Layer 1", 2, 2)
	l.Pixels.Set(0, 0, pixel.MustHex("#0000ff"))
	partial.Insert(0, l)

	onion := DefaultOnionSkin()
	onion.Enabled = true
	onion.Prev = 1

	p := NewPreview(2, 2, WithOnionSkin(onion))
	p.SetFrames([]Source{full, partial})
	p.Seek(1)

	img := p.Image()
	if got := img.RGBAAt(0, 0); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("current frame must cover the ghost, got %v", got)
	}
	ghost := img.RGBAAt(1, 1)
	t.Logf("ghost pixel: %v", ghost)
	if ghost.A < 70 || ghost.A > 85 || ghost.R != ghost.A {
		t.Errorf("ghost should be red at ~0.3 alpha, got %v", ghost)
	}

	onion.Mode = OnionTint
	p.SetOnionSkin(onion)
	tinted := p.Image().RGBAAt(1, 1)
	if tinted.A != 255 || tinted.G == 0 && tinted.B == 0 && tinted.R == 255 {
		t.Errorf("tint mode should draw an opaque tinted ghost, got %v", tinted)
	}
}

func TestThumbnail(t *testing.T) {
	img := Thumbnail(solidStack(16, 8, "#00ff00"), PreviewSize)
	if img.Bounds().Dx() != PreviewSize {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	if got := img.RGBAAt(80, 80); got != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("centre = %v", got)
	}
	if got := img.RGBAAt(80, 10); got.A != 0 {
		t.Errorf("letterbox should be transparent, got %v", got)
	}
}
