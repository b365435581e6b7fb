package video

import (
	"context"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/ivlev/pixology/internal/renderer"
)

// GIFDelay converts fps to the GIF frame delay in 1/100 s.
func GIFDelay(fps int) int {
	fps = min(max(fps, 1), 120)
	return max(1, (100+fps/2)/fps)
}

// AnimatedGIF renders frames, in order, into a looping GIF.
func (e *Exporter) AnimatedGIF(ctx context.Context, frames []Frame, fps int) (*gif.GIF, error) {
	if err := checkFrames(frames); err != nil {
		return nil, err
	}
	rendered := make([]*image.RGBA, len(frames))
	for i, f := range frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rendered[i] = renderer.RenderFrame(f, e.opts.Scale, false)
	}

	pal, exact := buildPalette(rendered)
	delay := GIFDelay(fps)
	anim := &gif.GIF{LoopCount: 0}
	for _, img := range rendered {
		p := image.NewPaletted(img.Bounds(), pal)
		if exact {
			draw.Draw(p, p.Rect, img, image.Point{}, draw.Src)
		} else {
			draw.FloydSteinberg.Draw(p, p.Rect, img, image.Point{})
		}
		anim.Image = append(anim.Image, p)
		anim.Delay = append(anim.Delay, delay)
		anim.Disposal = append(anim.Disposal, gif.DisposalBackground)
	}
	return anim, nil
}

// WriteGIF encodes the frames to path.
func (e *Exporter) WriteGIF(ctx context.Context, path string, frames []Frame, fps int) error {
	anim, err := e.AnimatedGIF(ctx, frames, fps)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gif.EncodeAll(f, anim); err != nil {
		f.Close()
		return err
	}
	e.log.Info("gif exported", zap.String("path", path), zap.Int("frames", len(anim.Image)), zap.Int("delay", GIFDelay(fps)))
	return f.Close()
}

// buildPalette collects the exact colours in use, transparent first. More
// than 255 colours fall back to Plan9 with dithering.
func buildPalette(imgs []*image.RGBA) (color.Palette, bool) {
	pal := color.Palette{color.RGBA{}}
	seen := map[color.RGBA]bool{{}: true}
	for _, img := range imgs {
		for i := 0; i+3 < len(img.Pix); i += 4 {
			c := color.RGBA{img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3]}
			if c.A == 0 || seen[c] {
				continue
			}
			if len(pal) == 256 {
				return append(color.Palette{color.RGBA{}}, palette.Plan9[:255]...), false
			}
			seen[c] = true
			pal = append(pal, c)
		}
	}
	return pal, true
}
