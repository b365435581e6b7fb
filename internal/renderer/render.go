// Package renderer turns layer stacks into images: single frames at an
// integer scale, sprite sheets, and fitted previews with onion skinning.
package renderer

import (
	"image"
	"image/color"

	"github.com/ivlev/pixology/internal/pixel"
)

// Source resolves composited pixels. *layer.Stack and layer.Snapshot both
// satisfy it.
type Source interface {
	Size() (width, height int)
	Composite(row, col int) pixel.Color
}

// Background is painted under frames that must be opaque (JPEG).
var Background = color.RGBA{0xff, 0xff, 0xff, 0xff}

// RenderFrame paints src as scale×scale blocks. Hidden layers are already
// skipped by Composite, so the topmost visible colour wins per cell.
func RenderFrame(src Source, scale int, opaque bool) *image.RGBA {
	if scale < 1 {
		scale = 1
	}
	w, h := src.Size()
	img := image.NewRGBA(image.Rect(0, 0, w*scale, h*scale))
	if opaque {
		fill(img, img.Rect, Background)
	}
	paint(img, src, image.Point{}, scale)
	return img
}

// paint draws src into dst with its top-left corner at at.
func paint(dst *image.RGBA, src Source, at image.Point, scale int) {
	w, h := src.Size()
	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			px := src.Composite(r, c)
			if !px.Set {
				continue
			}
			cell := image.Rect(at.X+c*scale, at.Y+r*scale, at.X+(c+1)*scale, at.Y+(r+1)*scale)
			fill(dst, cell, px.RGBA())
		}
	}
}

func fill(dst *image.RGBA, r image.Rectangle, c color.RGBA) {
	r = r.Intersect(dst.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := dst.PixOffset(r.Min.X, y)
		for x := r.Min.X; x < r.Max.X; x++ {
			dst.Pix[i+0] = c.R
			dst.Pix[i+1] = c.G
			dst.Pix[i+2] = c.B
			dst.Pix[i+3] = c.A
			i += 4
		}
	}
}
