package source

import (
	"context"
	"fmt"
	"image"

	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/ivlev/pixology/internal/logger"
	"github.com/ivlev/pixology/internal/pixel"
	"github.com/ivlev/pixology/internal/renderer"
	"github.com/ivlev/pixology/internal/system"
)

// ToBuffer shrinks or enlarges img into a width×height grid, keeping the
// aspect ratio and centring it. Pixels with alpha below 128 stay absent.
func ToBuffer(img image.Image, width, height int) *pixel.Buffer {
	buf := pixel.NewBuffer(width, height)
	b := img.Bounds()
	dst := renderer.Fit(b.Dx(), b.Dy(), width, height)
	if dst.Empty() {
		return buf
	}

	canvas := system.GetImage(image.Rect(0, 0, width, height))
	defer system.PutImage(canvas)
	draw.NearestNeighbor.Scale(canvas, dst, img, b, draw.Src, nil)

	for r := dst.Min.Y; r < dst.Max.Y; r++ {
		for c := dst.Min.X; c < dst.Max.X; c++ {
			buf.Set(r, c, pixel.FromImage(canvas.RGBAAt(c, r)))
		}
	}
	return buf
}

// Import renders every page of src into a canvas-sized buffer.
func Import(ctx context.Context, src Source, width, height, dpi int) ([]*pixel.Buffer, error) {
	log := logger.L(ctx).Named("import")
	n := src.PageCount()
	if n == 0 {
		return nil, fmt.Errorf("источник пуст")
	}
	out := make([]*pixel.Buffer, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := src.RenderPage(i, dpi)
		if err != nil {
			return nil, fmt.Errorf("страница %d: %w", i+1, err)
		}
		out = append(out, ToBuffer(img, width, height))
		log.Debug("page imported", zap.Int("page", i+1), zap.Stringer("bounds", img.Bounds()))
	}
	return out, nil
}
