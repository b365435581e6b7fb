package renderer

import (
	"image"
	"image/color"
	"math"
	"sync"

	"golang.org/x/image/draw"

	"github.com/ivlev/pixology/internal/system"
)

// PreviewSize is the edge of the square preview box.
const PreviewSize = 160

// Fit places a width×height frame inside the box, centred. Frames that fit
// get the largest integer scale; larger frames are shrunk proportionally.
func Fit(width, height, boxW, boxH int) image.Rectangle {
	if width <= 0 || height <= 0 || boxW <= 0 || boxH <= 0 {
		return image.Rectangle{}
	}
	s := math.Min(float64(boxW)/float64(width), float64(boxH)/float64(height))
	if s >= 1 {
		s = math.Floor(s)
	}
	w := max(1, int(float64(width)*s))
	h := max(1, int(float64(height)*s))
	x := max(0, (boxW-w)/2)
	y := max(0, (boxH-h)/2)
	return image.Rect(x, y, x+w, y+h)
}

// Thumbnail renders src fitted into a size×size transparent box.
func Thumbnail(src Source, size int) *image.RGBA {
	w, h := src.Size()
	out := image.NewRGBA(image.Rect(0, 0, size, size))
	base := RenderFrame(src, 1, false)
	draw.NearestNeighbor.Scale(out, Fit(w, h, size, size), base, base.Bounds(), draw.Over, nil)
	return out
}

type OnionMode int

const (
	OnionAlpha OnionMode = iota
	OnionTint
)

func (m OnionMode) String() string {
	if m == OnionTint {
		return "tint"
	}
	return "alpha"
}

// OnionSkin configures ghosts of neighbouring frames.
type OnionSkin struct {
	Enabled  bool
	Prev     int
	Next     int
	Fade     float64
	Mode     OnionMode
	PrevTint color.NRGBA
	NextTint color.NRGBA
}

// DefaultOnionSkin is disabled with a 0.5 fade and red/green tints.
func DefaultOnionSkin() OnionSkin {
	return OnionSkin{
		Fade:     0.5,
		Mode:     OnionAlpha,
		PrevTint: color.NRGBA{255, 80, 80, 89},
		NextTint: color.NRGBA{80, 255, 120, 89},
	}
}

// GhostAlpha is the opacity of the i-th ghost away from the current frame.
func GhostAlpha(i int, fade float64) float64 {
	return 0.6 * math.Pow(1-fade, float64(i))
}

// Preview draws one frame of a sequence into a fixed box. It satisfies the
// sequencer's Preview interface, so a Player can drive it directly.
type Preview struct {
	mu      sync.Mutex
	frames  []Source
	current int
	onion   OnionSkin
	out     *image.RGBA
	onDraw  func(img *image.RGBA, index int)
}

type PreviewOption func(*Preview)

func WithOnionSkin(o OnionSkin) PreviewOption {
	return func(p *Preview) { p.onion = o }
}

// WithDrawHandler is called after every redraw, under the preview lock.
// The handler must not call back into the Preview.
func WithDrawHandler(fn func(img *image.RGBA, index int)) PreviewOption {
	return func(p *Preview) { p.onDraw = fn }
}

func NewPreview(width, height int, opts ...PreviewOption) *Preview {
	p := &Preview{
		onion: DefaultOnionSkin(),
		out:   image.NewRGBA(image.Rect(0, 0, width, height)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetFrames replaces the sources and rewinds to the first frame.
func (p *Preview) SetFrames(frames []Source) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames = append([]Source(nil), frames...)
	p.current = 0
	p.redraw()
}

func (p *Preview) SetOnionSkin(o OnionSkin) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onion = o
	p.redraw()
}

func (p *Preview) OnionSkin() OnionSkin {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.onion
}

func (p *Preview) Seek(index int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = index
	p.redraw()
}

func (p *Preview) Step(delta int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := max(1, len(p.frames))
	p.current = ((p.current+delta)%n + n) % n
	p.redraw()
}

func (p *Preview) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.frames)
}

func (p *Preview) Index() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Image returns a copy of the last drawn preview.
func (p *Preview) Image() *image.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()
	img := image.NewRGBA(p.out.Rect)
	copy(img.Pix, p.out.Pix)
	return img
}

func (p *Preview) redraw() {
	clear(p.out.Pix)
	count := len(p.frames)
	if count == 0 {
		return
	}
	idx := ((p.current % count) + count) % count

	if p.onion.Enabled {
		for i := p.onion.Prev; i >= 1; i-- {
			p.drawGhost(p.frames[(idx-i%count+count)%count], i, p.onion.PrevTint)
		}
	}
	p.drawOne(p.frames[idx], 1, nil)
	if p.onion.Enabled {
		for i := 1; i <= p.onion.Next; i++ {
			p.drawGhost(p.frames[(idx+i)%count], i, p.onion.NextTint)
		}
	}

	if p.onDraw != nil {
		p.onDraw(p.out, idx)
	}
}

func (p *Preview) drawGhost(src Source, i int, tint color.NRGBA) {
	if p.onion.Mode == OnionTint {
		p.drawOne(src, 1, &tint)
		return
	}
	p.drawOne(src, GhostAlpha(i, p.onion.Fade), nil)
}

func (p *Preview) drawOne(src Source, alpha float64, tint *color.NRGBA) {
	alpha = math.Max(0, math.Min(1, alpha))
	if alpha == 0 {
		return
	}
	w, h := src.Size()
	base := RenderFrame(src, 1, false)

	tmp := system.GetImage(p.out.Rect)
	defer system.PutImage(tmp)
	draw.NearestNeighbor.Scale(tmp, Fit(w, h, p.out.Rect.Dx(), p.out.Rect.Dy()), base, base.Bounds(), draw.Src, nil)
	if tint != nil {
		applyTint(tmp, *tint)
	}
	mask := image.NewUniform(color.Alpha{uint8(math.Round(alpha * 255))})
	draw.DrawMask(p.out, p.out.Rect, tmp, p.out.Rect.Min, mask, image.Point{}, draw.Over)
}

// applyTint blends the tint over every covered pixel, keeping coverage.
func applyTint(img *image.RGBA, tint color.NRGBA) {
	a := uint32(tint.A)
	for i := 0; i+3 < len(img.Pix); i += 4 {
		pa := uint32(img.Pix[i+3])
		if pa == 0 {
			continue
		}
		// premultiplied: tint contributes tint*ta scaled by the pixel's coverage
		for k, tc := range [3]uint32{uint32(tint.R), uint32(tint.G), uint32(tint.B)} {
			src := uint32(img.Pix[i+k])
			img.Pix[i+k] = uint8((src*(255-a) + tc*a*pa/255) / 255)
		}
	}
}
