package video

import (
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	BMP  Format = "bmp"
	TIFF Format = "tiff"
	GIF  Format = "gif"
)

// ParseFormat accepts the usual aliases (jpg, tif) in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	case "bmp":
		return BMP, nil
	case "tif", "tiff":
		return TIFF, nil
	case "gif":
		return GIF, nil
	}
	return "", fmt.Errorf("неизвестный формат: %q", s)
}

// Ext is the file extension without the dot.
func (f Format) Ext() string {
	switch f {
	case JPEG:
		return "jpg"
	case TIFF:
		return "tif"
	}
	return string(f)
}

// Opaque reports whether the format cannot carry transparency.
func (f Format) Opaque() bool {
	return f == JPEG
}

// Encode writes img in the given format. quality only affects JPEG.
func Encode(w io.Writer, img image.Image, f Format, quality int) error {
	switch f {
	case PNG:
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		return enc.Encode(w, img)
	case JPEG:
		if quality < 1 || quality > 100 {
			quality = 92
		}
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case BMP:
		return bmp.Encode(w, img)
	case TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case GIF:
		return gif.Encode(w, img, &gif.Options{NumColors: 256})
	}
	return fmt.Errorf("неизвестный формат: %q", f)
}
