package renderer

import (
	"image"
)

// DefaultMaxPerRow caps sprite sheet columns when the caller passes zero.
const DefaultMaxPerRow = 10

// SheetLayout describes the grid of a sprite sheet.
type SheetLayout struct {
	Count      int
	Cols, Rows int
	CellWidth  int
	CellHeight int
}

// LayoutSheet computes cols=min(maxPerRow,n) and rows=ceil(n/cols).
func LayoutSheet(n, maxPerRow, width, height, scale int) SheetLayout {
	if maxPerRow < 1 {
		maxPerRow = DefaultMaxPerRow
	}
	if scale < 1 {
		scale = 1
	}
	if n <= 0 {
		return SheetLayout{CellWidth: width * scale, CellHeight: height * scale}
	}
	cols := min(maxPerRow, n)
	rows := (n + cols - 1) / cols
	return SheetLayout{
		Count:      n,
		Cols:       cols,
		Rows:       rows,
		CellWidth:  width * scale,
		CellHeight: height * scale,
	}
}

// Bounds is the size of the whole sheet.
func (l SheetLayout) Bounds() image.Rectangle {
	return image.Rect(0, 0, l.Cols*l.CellWidth, l.Rows*l.CellHeight)
}

// Cell returns the rectangle of frame i, row-major.
func (l SheetLayout) Cell(i int) image.Rectangle {
	if l.Cols == 0 {
		return image.Rectangle{}
	}
	x := (i % l.Cols) * l.CellWidth
	y := (i / l.Cols) * l.CellHeight
	return image.Rect(x, y, x+l.CellWidth, y+l.CellHeight)
}

// RenderSpriteSheet lays the frames out row-major. All frames are drawn at
// the size of the first one. Returns nil for an empty frame list.
func RenderSpriteSheet(frames []Source, scale, maxPerRow int, opaque bool) (*image.RGBA, SheetLayout) {
	if len(frames) == 0 {
		return nil, SheetLayout{}
	}
	if scale < 1 {
		scale = 1
	}
	w, h := frames[0].Size()
	layout := LayoutSheet(len(frames), maxPerRow, w, h, scale)
	sheet := image.NewRGBA(layout.Bounds())
	if opaque {
		fill(sheet, sheet.Rect, Background)
	}
	for i, f := range frames {
		paint(sheet, f, layout.Cell(i).Min, scale)
	}
	return sheet, layout
}
