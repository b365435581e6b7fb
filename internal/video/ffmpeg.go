package video

import (
	"context"
	"fmt"
	"image"
	"io"
	"os/exec"

	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/ivlev/pixology/internal/renderer"
)

// ClipEncoder turns a frame sequence into a video file.
type ClipEncoder interface {
	EncodeClip(ctx context.Context, frames []image.Image, path string, fps int) error
}

// FFmpegEncoder pipes raw RGBA frames into ffmpeg.
type FFmpegEncoder struct {
	Encoder string
	Quality int
}

func (e *FFmpegEncoder) EncodeClip(ctx context.Context, frames []image.Image, path string, fps int) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}
	b := frames[0].Bounds()
	args := e.buildFFmpegArgs(b.Dx(), b.Dy(), fps, path)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w", err)
	}

	for i, img := range frames {
		if err := writeRawRGBA(stdin, img); err != nil {
			stdin.Close()
			cmd.Wait()
			return fmt.Errorf("write raw frame %d: %w", i, err)
		}
	}
	stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %w", err)
	}
	return nil
}

func (e *FFmpegEncoder) buildFFmpegArgs(w, h, fps int, path string) []string {
	encoder := e.Encoder
	if encoder == "" {
		encoder = "libx264"
	}
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", w, h),
		"-framerate", fmt.Sprintf("%d", fps),
		"-i", "-",
		// yuv420p требует четных размеров
		"-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2:color=white",
		"-pix_fmt", "yuv420p",
		"-c:v", encoder,
	}

	switch encoder {
	case "h264_videotoolbox":
		args = append(args, "-b:v", fmt.Sprintf("%dk", e.Quality*100))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", e.Quality))
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", e.Quality), "-preset", "medium")
	}

	return append(args, path)
}

func writeRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Rect, img, bounds.Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix)
	return err
}

// WriteClip renders opaque frames and hands them to enc.
func (e *Exporter) WriteClip(ctx context.Context, enc ClipEncoder, path string, frames []Frame, fps int) error {
	if err := checkFrames(frames); err != nil {
		return err
	}
	imgs := make([]image.Image, len(frames))
	for i, f := range frames {
		imgs[i] = renderer.RenderFrame(f, e.opts.Scale, true)
	}
	if err := enc.EncodeClip(ctx, imgs, path, fps); err != nil {
		return err
	}
	e.log.Info("clip exported", zap.String("path", path), zap.Int("frames", len(imgs)), zap.Int("fps", fps))
	return nil
}
