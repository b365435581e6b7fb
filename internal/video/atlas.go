package video

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ivlev/pixology/internal/renderer"
)

type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type AtlasFrame struct {
	Name  string `json:"name"`
	Frame Rect   `json:"frame"`
}

type AtlasMeta struct {
	Image  string `json:"image"`
	Format string `json:"format"`
	Scale  int    `json:"scale"`
	Cols   int    `json:"cols"`
	Rows   int    `json:"rows"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Atlas maps every sheet cell to its frame.
type Atlas struct {
	Frames []AtlasFrame `json:"frames"`
	Meta   AtlasMeta    `json:"meta"`
}

func NewAtlas(image string, layout renderer.SheetLayout, names []string, scale int, f Format) Atlas {
	b := layout.Bounds()
	a := Atlas{
		Frames: make([]AtlasFrame, layout.Count),
		Meta: AtlasMeta{
			Image:  image,
			Format: string(f),
			Scale:  scale,
			Cols:   layout.Cols,
			Rows:   layout.Rows,
			Width:  b.Dx(),
			Height: b.Dy(),
		},
	}
	for i := range a.Frames {
		name := fmt.Sprintf("frame_%d", i+1)
		if i < len(names) && names[i] != "" {
			name = names[i]
		}
		r := layout.Cell(i)
		a.Frames[i] = AtlasFrame{Name: name, Frame: Rect{X: r.Min.X, Y: r.Min.Y, W: r.Dx(), H: r.Dy()}}
	}
	return a
}

// AtlasPath swaps the image extension for .json.
func AtlasPath(imagePath string) string {
	if i := strings.LastIndexByte(imagePath, '.'); i > strings.LastIndexByte(imagePath, '/') {
		imagePath = imagePath[:i]
	}
	return imagePath + ".json"
}

func (a Atlas) WriteFile(path string) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
