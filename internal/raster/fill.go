package raster

import (
	"go.uber.org/zap"

	"github.com/ivlev/pixology/internal/history"
	"github.com/ivlev/pixology/internal/pixel"
)

// FillOptions control FloodFill.
type FillOptions struct {
	// Tolerance <= 0 means exact match, otherwise max RGB distance.
	Tolerance float64
	// Contiguous limits the fill to the 4-connected region of the seed.
	// When false every matching cell of the grid is replaced.
	Contiguous bool
	// SampleAllLayers matches against the composite instead of the layer.
	SampleAllLayers bool
}

// DefaultFill is an exact, contiguous, single-layer fill.
var DefaultFill = FillOptions{Contiguous: true}

// FloodFill paints newColor over the region matching the seed cell on
// layerID. It does not check lock or visibility. It returns false when the
// seed already matches newColor or nothing was touched.
func (e *Engine) FloodFill(layerID string, row, col int, newColor pixel.Color, opts FillOptions) (history.PixelEntry, bool) {
	l := e.stack.Get(layerID)
	if l == nil || !l.Pixels.InBounds(row, col) {
		return history.PixelEntry{}, false
	}

	sample := l.Pixels.At
	if opts.SampleAllLayers {
		sample = e.stack.Composite
	}

	target := sample(row, col)
	if pixel.Matches(target, newColor, opts.Tolerance) {
		return history.PixelEntry{}, false
	}

	var cells [][2]int
	if opts.Contiguous {
		cells = e.floodRegion(row, col, target, sample, opts.Tolerance)
	} else {
		cells = e.matchAll(target, sample, opts.Tolerance)
	}

	diffs := make([]history.Diff, 0, len(cells))
	for _, c := range cells {
		if d, ok := e.SetPixel(layerID, c[0], c[1], newColor); ok {
			diffs = append(diffs, d)
		}
	}
	if len(diffs) == 0 {
		return history.PixelEntry{}, false
	}
	e.log.Debug("flood fill",
		zap.Int("cells", len(diffs)),
		zap.Bool("contiguous", opts.Contiguous),
		zap.Float64("tolerance", opts.Tolerance))
	return history.PixelEntry{FrameID: e.frameID, Diffs: diffs}, true
}

// floodRegion walks the 4-connected region from the seed using an explicit
// stack and a visited bitmap.
func (e *Engine) floodRegion(row, col int, target pixel.Color, sample func(int, int) pixel.Color, tol float64) [][2]int {
	w, h := e.stack.Width(), e.stack.Height()
	visited := make([]bool, w*h)
	visited[row*w+col] = true

	stack := [][2]int{{row, col}}
	var region [][2]int
	push := func(r, c int) {
		if r < 0 || c < 0 || r >= h || c >= w {
			return
		}
		i := r*w + c
		if visited[i] {
			return
		}
		if pixel.Matches(target, sample(r, c), tol) {
			visited[i] = true
			stack = append(stack, [2]int{r, c})
		}
	}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		region = append(region, cur)

		r, c := cur[0], cur[1]
		push(r+1, c)
		push(r-1, c)
		push(r, c+1)
		push(r, c-1)
	}
	return region
}

func (e *Engine) matchAll(target pixel.Color, sample func(int, int) pixel.Color, tol float64) [][2]int {
	var cells [][2]int
	for r := 0; r < e.stack.Height(); r++ {
		for c := 0; c < e.stack.Width(); c++ {
			if pixel.Matches(target, sample(r, c), tol) {
				cells = append(cells, [2]int{r, c})
			}
		}
	}
	return cells
}
