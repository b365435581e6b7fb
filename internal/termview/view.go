// Package termview plays a workspace preview in the terminal. Each
// character cell shows two pixels stacked vertically with the upper half
// block: foreground is the top pixel, background the bottom one.
package termview

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/ivlev/pixology/internal/logger"
	"github.com/ivlev/pixology/internal/renderer"
	"github.com/ivlev/pixology/internal/system"
)

const halfBlock = '▀'

// View draws preview images onto a tcell screen. Draw may be called from
// the player goroutine.
type View struct {
	mu     sync.Mutex
	screen tcell.Screen
	ready  bool
	log    *zap.Logger

	title   string
	count   int
	fps     int
	playing bool
	message string
}

type Option func(*View)

func WithLogger(l *zap.Logger) Option {
	return func(v *View) { v.log = l }
}

func WithTitle(title string) Option {
	return func(v *View) { v.title = title }
}

func New(screen tcell.Screen, opts ...Option) *View {
	v := &View{screen: screen}
	for _, opt := range opts {
		opt(v)
	}
	v.log = logger.OrNop(v.log).Named("termview")
	return v
}

// Init takes over the terminal. Calling it again is a no-op.
func (v *View) Init() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.ready {
		return nil
	}
	if err := v.screen.Init(); err != nil {
		return fmt.Errorf("terminal init: %w", err)
	}
	v.screen.HideCursor()
	v.screen.Clear()
	v.ready = true
	return nil
}

func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.ready {
		v.screen.Fini()
		v.ready = false
	}
}

// SetInfo updates the status line shown under the image.
func (v *View) SetInfo(title string, count, fps int, playing bool) {
	v.mu.Lock()
	v.title, v.count, v.fps, v.playing = title, count, fps, playing
	v.mu.Unlock()
}

// SetMessage shows a one-off note in the status line; "" clears it.
func (v *View) SetMessage(msg string) {
	v.mu.Lock()
	v.message = msg
	v.mu.Unlock()
}

// Draw paints img fitted to the screen and the status line for frame
// index. Its signature matches the workspace draw handler. Before Init it
// does nothing.
func (v *View) Draw(img *image.RGBA, index int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.ready {
		return
	}

	sw, sh := v.screen.Size()
	rows := sh - 1
	if sw <= 0 || rows <= 0 || img == nil {
		return
	}
	v.screen.Clear()

	b := img.Bounds()
	rect := renderer.Fit(b.Dx(), b.Dy(), sw, rows*2)
	if !rect.Empty() {
		scaled := system.GetImage(image.Rect(0, 0, rect.Dx(), rect.Dy()))
		defer system.PutImage(scaled)
		draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), img, b, draw.Src, nil)

		top := rect.Min.Y / 2
		for y := 0; y < rect.Dy(); y += 2 {
			for x := 0; x < rect.Dx(); x++ {
				hi := cellColor(scaled.RGBAAt(x, y))
				lo := tcell.ColorDefault
				if y+1 < rect.Dy() {
					lo = cellColor(scaled.RGBAAt(x, y+1))
				}
				style := tcell.StyleDefault.Foreground(hi).Background(lo)
				v.screen.SetContent(rect.Min.X+x, top+y/2, halfBlock, nil, style)
			}
		}
	}

	v.drawStatus(sw, sh-1, index)
	v.screen.Show()
}

// cellColor maps a mostly transparent pixel to the terminal default.
func cellColor(c color.RGBA) tcell.Color {
	if c.A < 128 {
		return tcell.ColorDefault
	}
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

func (v *View) drawStatus(width, y, index int) {
	state := "пауза"
	if v.playing {
		state = "воспроизведение"
	}
	line := fmt.Sprintf(" %s  кадр %d/%d  %d fps  %s", v.title, index+1, v.count, v.fps, state)
	if v.message != "" {
		line += "  " + v.message
	}
	line += "  [пробел] пауза  [←/→] шаг  [+/-] fps  [q] выход"

	style := tcell.StyleDefault.Reverse(true)
	x := 0
	for _, r := range line {
		if x >= width {
			break
		}
		v.screen.SetContent(x, y, r, nil, style)
		x++
	}
	for ; x < width; x++ {
		v.screen.SetContent(x, y, ' ', nil, style)
	}
}
