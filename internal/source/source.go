// Package source decodes external pictures (image files, folders of
// images, PDF pages) and turns them into pixel buffers for frames.
package source

import (
	"fmt"
	"image"
	"os"

	"github.com/gen2brain/go-fitz"

	"github.com/ivlev/pixology/internal/system"
)

// DefaultDPI keeps PDF pages small; they are downscaled to the canvas anyway.
const DefaultDPI = 72

type Source interface {
	PageCount() int
	GetPageDimensions(index int) (width, height float64, err error)
	RenderPage(index int, dpi int) (image.Image, error)
	Close() error
}

// Open picks a PDF or image source by path.
func Open(path string) (Source, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	switch {
	case fi.IsDir(), system.HasExtension(path, system.ImageExtensions...):
		return NewImageSource(path)
	case system.HasExtension(path, ".pdf"):
		return NewFitzPDFSource(path)
	}
	return nil, fmt.Errorf("неподдерживаемый источник: %s", path)
}

type FitzPDFSource struct {
	doc  *fitz.Document
	path string
}

func NewFitzPDFSource(path string) (*FitzPDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	return &FitzPDFSource{doc: doc, path: path}, nil
}

func (f *FitzPDFSource) PageCount() int {
	return f.doc.NumPage()
}

func (f *FitzPDFSource) GetPageDimensions(index int) (float64, float64, error) {
	rect, err := f.doc.Bound(index)
	if err != nil {
		return 0, 0, err
	}
	return float64(rect.Dx()), float64(rect.Dy()), nil
}

func (f *FitzPDFSource) RenderPage(index int, dpi int) (image.Image, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return f.doc.ImageDPI(index, float64(dpi))
}

func (f *FitzPDFSource) Close() error {
	return f.doc.Close()
}
