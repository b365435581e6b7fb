package analyzer

import (
	"image"

	"github.com/ivlev/pixology/internal/pixel"
	"github.com/ivlev/pixology/internal/renderer"
)

// Block is a detected area of drawn cells. Rect uses X for columns and Y
// for rows.
type Block struct {
	Rect  image.Rectangle
	Type  string // "region", "bounds"
	Cells int
	// Dominant is the most frequent colour inside the block.
	Dominant pixel.Color
}

// Detector finds drawn areas in a composited frame.
type Detector interface {
	Detect(src renderer.Source) ([]Block, error)
}
