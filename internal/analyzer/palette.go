package analyzer

import (
	"sort"

	"github.com/ivlev/pixology/internal/pixel"
	"github.com/ivlev/pixology/internal/renderer"
)

// Swatch is one colour of a palette and how many cells use it.
type Swatch struct {
	Color pixel.Color
	Count int
}

// Palette lists the visible colours of src, most used first. Ties are
// ordered by hex value so the result is stable.
func Palette(src renderer.Source) []Swatch {
	w, h := src.Size()
	counts := make(map[pixel.Color]int)
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			if c := src.Composite(row, col); c.Set {
				counts[c]++
			}
		}
	}
	return topSwatches(counts)
}

// MergePalettes sums several palettes, e.g. of every frame.
func MergePalettes(palettes ...[]Swatch) []Swatch {
	counts := make(map[pixel.Color]int)
	for _, p := range palettes {
		for _, s := range p {
			counts[s.Color] += s.Count
		}
	}
	return topSwatches(counts)
}

func topSwatches(counts map[pixel.Color]int) []Swatch {
	out := make([]Swatch, 0, len(counts))
	for c, n := range counts {
		out = append(out, Swatch{Color: c, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Color.Hex() < out[j].Color.Hex()
	})
	return out
}
