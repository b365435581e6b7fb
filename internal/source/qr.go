package source

import (
	"errors"
	"fmt"

	"github.com/skip2/go-qrcode"
)

var ErrQRTooLarge = errors.New("qr code does not fit the canvas")

// QR returns the module grid of content without the quiet zone. true is a
// dark module.
func QR(content string, level qrcode.RecoveryLevel) ([][]bool, error) {
	q, err := qrcode.New(content, level)
	if err != nil {
		return nil, fmt.Errorf("qr: %w", err)
	}
	q.DisableBorder = true
	return q.Bitmap(), nil
}

// PlaceQR centres a size×size grid on the canvas and returns the top-left
// cell.
func PlaceQR(size, width, height int) (row, col int, err error) {
	if size > width || size > height {
		return 0, 0, fmt.Errorf("%w: %d modules on %dx%d", ErrQRTooLarge, size, width, height)
	}
	return (height - size) / 2, (width - size) / 2, nil
}
