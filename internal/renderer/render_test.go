package renderer

import (
	"image"
	"image/color"
	"testing"

	"github.com/ivlev/pixology/internal/layer"
	"github.com/ivlev/pixology/internal/pixel"
)

func twoLayerStack(t *testing.T) *layer.Stack {
	t.Helper()
	s := layer.NewStack(2, 2)
	bottom := layer.New("Layer 1", 2, 2)
	bottom.Pixels.Set(0, 0, pixel.MustHex("#0000ff"))
	bottom.Pixels.Set(1, 1, pixel.MustHex("#00ff00"))
	top := layer.New("Layer 2", 2, 2)
	top.Pixels.Set(0, 0, pixel.MustHex("#ff0000"))
	if err := s.Insert(0, bottom); err != nil {
		t.Fatal(err)
	}
	if err := s.Insert(0, top); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestRenderFrame(t *testing.T) {
	s := twoLayerStack(t)

	img := RenderFrame(s, 3, false)
	if img.Bounds() != image.Rect(0, 0, 6, 6) {
		t.Fatalf("bounds = %v", img.Bounds())
	}

	tests := []struct {
		name string
		x, y int
		want color.RGBA
	}{
		{"top wins", 1, 1, color.RGBA{255, 0, 0, 255}},
		{"block edge", 2, 2, color.RGBA{255, 0, 0, 255}},
		{"bottom shows through", 4, 5, color.RGBA{0, 255, 0, 255}},
		{"absent is transparent", 4, 0, color.RGBA{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := img.RGBAAt(tt.x, tt.y); got != tt.want {
				t.Errorf("pixel (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestRenderFrameHiddenTopFallsThrough(t *testing.T) {
	s := twoLayerStack(t)
	s.At(0).Visible = false

	img := RenderFrame(s, 1, false)
	if got := img.RGBAAt(0, 0); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("hidden top should reveal blue, got %v", got)
	}
}

func TestRenderFrameOpaqueBackground(t *testing.T) {
	s := twoLayerStack(t)
	img := RenderFrame(s, 1, true)
	if got := img.RGBAAt(1, 0); got != Background {
		t.Errorf("empty cell = %v, want white", got)
	}
	snapImg := RenderFrame(s.Snapshot(), 1, true)
	for i := range img.Pix {
		if img.Pix[i] != snapImg.Pix[i] {
			t.Fatalf("stack and snapshot render differ at byte %d", i)
		}
	}
}

func TestLayoutSheet(t *testing.T) {
	tests := []struct {
		n, maxPerRow int
		cols, rows   int
	}{
		{1, 10, 1, 1},
		{10, 10, 10, 1},
		{11, 10, 10, 2},
		{25, 10, 10, 3},
		{7, 3, 3, 3},
		{4, 0, 4, 1},
	}
	for _, tt := range tests {
		l := LayoutSheet(tt.n, tt.maxPerRow, 8, 8, 2)
		if l.Cols != tt.cols || l.Rows != tt.rows {
			t.Errorf("LayoutSheet(%d, %d) = %dx%d, want %dx%d", tt.n, tt.maxPerRow, l.Cols, l.Rows, tt.cols, tt.rows)
		}
	}

	l := LayoutSheet(11, 10, 8, 8, 2)
	if got := l.Cell(10); got != image.Rect(0, 16, 16, 32) {
		t.Errorf("cell 10 = %v", got)
	}
	if l.Bounds() != image.Rect(0, 0, 160, 32) {
		t.Errorf("bounds = %v", l.Bounds())
	}
}

func TestRenderSpriteSheet(t *testing.T) {
	a := twoLayerStack(t)
	b := layer.NewStack(2, 2)
	l := layer.New("Layer 1", 2, 2)
	l.Pixels.Set(0, 1, pixel.MustHex("#ffffff"))
	b.Insert(0, l)

	sheet, layout := RenderSpriteSheet([]Source{a, b, a}, 1, 2, false)
	if layout.Cols != 2 || layout.Rows != 2 {
		t.Fatalf("layout = %+v", layout)
	}
	if sheet.Bounds() != image.Rect(0, 0, 4, 4) {
		t.Fatalf("bounds = %v", sheet.Bounds())
	}
	if got := sheet.RGBAAt(3, 0); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("second frame pixel = %v", got)
	}
	if got := sheet.RGBAAt(0, 2); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("third frame pixel = %v", got)
	}

	if img, _ := RenderSpriteSheet(nil, 4, 10, false); img != nil {
		t.Error("empty sheet should be nil")
	}
}
