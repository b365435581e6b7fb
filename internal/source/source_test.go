package source

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/skip2/go-qrcode"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func quadrants(size int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	half := size / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			switch {
			case x < half && y < half:
				img.Set(x, y, color.NRGBA{255, 0, 0, 255})
			case x >= half && y >= half:
				img.Set(x, y, color.NRGBA{0, 0, 255, 200})
			default:
				img.Set(x, y, color.NRGBA{0, 255, 0, 40})
			}
		}
	}
	return img
}

func TestToBuffer(t *testing.T) {
	buf := ToBuffer(quadrants(64), 4, 4)

	tests := []struct {
		name     string
		row, col int
		want     string
	}{
		{"opaque red", 0, 0, "#ff0000"},
		{"semi-opaque blue", 3, 3, "#0000ff"},
		{"faint green dropped", 0, 3, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := buf.At(tt.row, tt.col)
			got := ""
			if c.Set {
				got = c.Hex()
			}
			if got != tt.want {
				t.Errorf("cell (%d,%d) = %q, want %q", tt.row, tt.col, got, tt.want)
			}
		})
	}
}

func TestToBufferKeepsAspect(t *testing.T) {
	wide := image.NewNRGBA(image.Rect(0, 0, 8, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			wide.Set(x, y, color.NRGBA{10, 20, 30, 255})
		}
	}
	buf := ToBuffer(wide, 8, 8)
	if buf.At(0, 0).Set || buf.At(7, 0).Set {
		t.Error("letterbox rows should stay absent")
	}
	if !buf.At(2, 0).Set || !buf.At(5, 7).Set {
		t.Error("image rows should be filled")
	}
}

func TestImportFolder(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "02.png"), quadrants(16))
	writePNG(t, filepath.Join(dir, "01.png"), image.NewNRGBA(image.Rect(0, 0, 16, 16)))
	os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("skip"), 0644)

	src, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()
	if src.PageCount() != 2 {
		t.Fatalf("pages = %d", src.PageCount())
	}
	w, h, err := src.GetPageDimensions(1)
	if err != nil || w != 16 || h != 16 {
		t.Errorf("dimensions = %vx%v, %v", w, h, err)
	}

	bufs, err := Import(context.Background(), src, 8, 8, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(bufs) != 2 {
		t.Fatalf("buffers = %d", len(bufs))
	}
	if !bufs[0].IsEmpty() {
		t.Error("01.png is transparent and should import empty")
	}
	if bufs[1].At(0, 0).Hex() != "#ff0000" {
		t.Errorf("02.png top-left = %v", bufs[1].At(0, 0))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Import(ctx, src, 8, 8, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled import: %v", err)
	}
}

func TestOpenRejectsUnknown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	os.WriteFile(path, []byte("RIFF"), 0644)
	if _, err := Open(path); err == nil {
		t.Error("expected error for unsupported file")
	}
	if _, err := NewImageSource(t.TempDir()); err == nil {
		t.Error("expected error for empty folder")
	}
}

func TestQR(t *testing.T) {
	grid, err := QR("pixology", qrcode.Medium)
	if err != nil {
		t.Fatal(err)
	}
	if len(grid) != 21 || len(grid[0]) != 21 {
		t.Fatalf("version 1 QR should be 21x21, got %dx%d", len(grid), len(grid[0]))
	}
	if !grid[0][0] || !grid[6][6] || grid[1][1] {
		t.Error("finder pattern not where expected")
	}

	row, col, err := PlaceQR(21, 32, 25)
	if err != nil || row != 2 || col != 5 {
		t.Errorf("PlaceQR = %d,%d,%v", row, col, err)
	}
	if _, _, err := PlaceQR(21, 16, 16); !errors.Is(err, ErrQRTooLarge) {
		t.Errorf("expected ErrQRTooLarge, got %v", err)
	}
}
