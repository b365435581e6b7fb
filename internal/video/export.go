// Package video writes frames out of the editor: still images, sprite
// sheets with an atlas, numbered frame sequences, animated GIFs and mp4
// clips encoded by ffmpeg.
package video

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/pixology/internal/logger"
	"github.com/ivlev/pixology/internal/renderer"
)

var (
	ErrNothingInCanvas = errors.New("nothing in the canvas to export")
	ErrNoFrames        = errors.New("no frames to export")
	ErrNothingDrawn    = errors.New("nothing to export: draw something first")
)

// Frame is a renderable frame that knows whether anything is drawn on it.
type Frame interface {
	renderer.Source
	IsEmpty() bool
}

type Options struct {
	Format      Format
	Scale       int
	MaxPerRow   int
	JPEGQuality int
	Workers     int
}

func DefaultOptions() Options {
	return Options{Format: PNG, Scale: 4, MaxPerRow: renderer.DefaultMaxPerRow, JPEGQuality: 92, Workers: 4}
}

type Exporter struct {
	opts Options
	log  *zap.Logger
}

func NewExporter(opts Options, log *zap.Logger) *Exporter {
	if opts.Format == "" {
		opts.Format = PNG
	}
	if opts.Scale < 1 {
		opts.Scale = 1
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Exporter{opts: opts, log: logger.OrNop(log).Named("export")}
}

func (e *Exporter) Options() Options { return e.opts }

// Image renders a single frame. Fails if nothing is drawn.
func (e *Exporter) Image(f Frame) (*image.RGBA, error) {
	if f == nil || f.IsEmpty() {
		return nil, ErrNothingInCanvas
	}
	return renderer.RenderFrame(f, e.opts.Scale, e.opts.Format.Opaque()), nil
}

// SpriteSheet renders all frames row-major. Fails if there are no frames
// or none of them has a drawn pixel.
func (e *Exporter) SpriteSheet(frames []Frame) (*image.RGBA, renderer.SheetLayout, error) {
	if err := checkFrames(frames); err != nil {
		return nil, renderer.SheetLayout{}, err
	}
	srcs := make([]renderer.Source, len(frames))
	for i, f := range frames {
		srcs[i] = f
	}
	img, layout := renderer.RenderSpriteSheet(srcs, e.opts.Scale, e.opts.MaxPerRow, e.opts.Format.Opaque())
	return img, layout, nil
}

func checkFrames(frames []Frame) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}
	for _, f := range frames {
		if !f.IsEmpty() {
			return nil
		}
	}
	return ErrNothingDrawn
}

// WriteImage exports one frame to dir and returns the file path.
func (e *Exporter) WriteImage(dir, name string, f Frame) (string, error) {
	img, err := e.Image(f)
	if err != nil {
		return "", err
	}
	w, h := f.Size()
	path := filepath.Join(dir, FileName(name, w, h, "", e.opts.Format))
	if err := e.writeFile(path, img); err != nil {
		return "", err
	}
	e.log.Info("image exported", zap.String("path", path), zap.Int("scale", e.opts.Scale))
	return path, nil
}

// WriteSpriteSheet exports the sheet plus its JSON atlas. names label the
// atlas entries; missing names fall back to the frame index.
func (e *Exporter) WriteSpriteSheet(dir, name string, frames []Frame, names []string) (string, error) {
	img, layout, err := e.SpriteSheet(frames)
	if err != nil {
		return "", err
	}
	w, h := frames[0].Size()
	path := filepath.Join(dir, FileName(name, w, h, SheetSuffix(layout.Cols, layout.Rows), e.opts.Format))
	if err := e.writeFile(path, img); err != nil {
		return "", err
	}

	atlas := NewAtlas(filepath.Base(path), layout, names, e.opts.Scale, e.opts.Format)
	if err := atlas.WriteFile(AtlasPath(path)); err != nil {
		return "", err
	}
	e.log.Info("sprite sheet exported",
		zap.String("path", path),
		zap.Int("cols", layout.Cols),
		zap.Int("rows", layout.Rows))
	return path, nil
}

// WriteFrames exports every frame as its own numbered file, in parallel.
func (e *Exporter) WriteFrames(ctx context.Context, dir, name string, frames []Frame) ([]string, error) {
	if err := checkFrames(frames); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	paths := make([]string, len(frames))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	for i, f := range frames {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			w, h := f.Size()
			img := renderer.RenderFrame(f, e.opts.Scale, e.opts.Format.Opaque())
			path := filepath.Join(dir, FileName(name, w, h, fmt.Sprintf("_frame_%03d", i+1), e.opts.Format))
			if err := e.writeFile(path, img); err != nil {
				return fmt.Errorf("кадр %d: %w", i+1, err)
			}
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	e.log.Info("frames exported", zap.Int("count", len(paths)), zap.String("dir", dir))
	return paths, nil
}

func (e *Exporter) writeFile(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, img, e.opts.Format, e.opts.JPEGQuality); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
